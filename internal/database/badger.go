package database

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// OpenBadger opens (or creates) the embedded page store in dir. An empty dir
// opens an in-memory store.
func OpenBadger(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.
		WithMemTableSize(16 << 20).
		WithValueLogFileSize(64 << 20).
		WithNumMemtables(2)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", dir, err)
	}
	return db, nil
}
