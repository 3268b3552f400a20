package sessions

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"
)

const revokedPrefix = "phonebook:revoked:"

// Revoker keeps logged-out tokens in Redis until they would expire anyway.
// A nil client disables revocation: Revoke is a no-op and nothing is revoked.
type Revoker struct {
	client *redis.Client
}

func NewRevoker(c *redis.Client) *Revoker {
	return &Revoker{client: c}
}

// tokens are long; the key stores a digest instead
func revokedKey(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return revokedPrefix + hex.EncodeToString(sum[:16])
}

// Revoke blacklists token for ttl. A non-positive ttl means the token has
// already expired and nothing is stored.
func (r *Revoker) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if r == nil || r.client == nil || ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, revokedKey(token), "1", ttl).Err()
}

// IsRevoked returns true when the token was logged out.
func (r *Revoker) IsRevoked(ctx context.Context, token string) (bool, error) {
	if r == nil || r.client == nil {
		return false, nil
	}
	exists, err := r.client.Exists(ctx, revokedKey(token)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
