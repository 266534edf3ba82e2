package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// session key: chat:session:<tokenHash>
// Value: user ID. TTL mirrors the token lifetime; logout deletes the key,
// which revokes the token ahead of its JWT expiry.
func sessionKey(tokenHash string) string { return "chat:session:" + tokenHash }

// SaveSession records an issued token.
func SaveSession(ctx context.Context, tokenHash, userID string, ttl time.Duration) error {
	if rdb == nil {
		return errors.New("redis not initialized")
	}
	return rdb.Set(ctx, sessionKey(tokenHash), userID, ttl).Err()
}

// SessionUser resolves a token hash to its user; ok=false means revoked or
// never issued.
func SessionUser(ctx context.Context, tokenHash string) (userID string, ok bool, err error) {
	if rdb == nil {
		return "", false, errors.New("redis not initialized")
	}
	val, err := rdb.Get(ctx, sessionKey(tokenHash)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// RevokeSession deletes the session record (idempotent).
func RevokeSession(ctx context.Context, tokenHash string) error {
	if rdb == nil {
		return errors.New("redis not initialized")
	}
	return rdb.Del(ctx, sessionKey(tokenHash)).Err()
}
