package database

import (
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func TestOpenBadger(t *testing.T) {
	dir := t.TempDir()
	db, err := OpenBadger(dir)
	require.NoError(t, err)

	require.NoError(t, db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("k"), []byte("v"))
	}))
	require.NoError(t, db.Close())

	db, err = OpenBadger(dir)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("k"))
		if err != nil {
			return err
		}
		v, err := item.ValueCopy(nil)
		require.Equal(t, "v", string(v))
		return err
	}))
}

func TestOpenBadger_InMemory(t *testing.T) {
	db, err := OpenBadger("")
	require.NoError(t, err)
	require.NoError(t, db.Close())
}
