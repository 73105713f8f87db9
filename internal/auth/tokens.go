package auth

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const tokenKeyPrefix = "auth:token:"

// TokenStore keeps bearer tokens in redis with a TTL. Tokens disappear on
// expiry without a cleanup job.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTokenStore constructs a TokenStore.
func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl}
}

// Issue mints a new token for the user.
func (t *TokenStore) Issue(ctx context.Context, userID int64) (Session, error) {
	token := uuid.NewString()
	expires := time.Now().Add(t.ttl)
	err := t.client.Set(ctx, tokenKeyPrefix+token, userID, t.ttl).Err()
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, UserID: userID, ExpiresAt: expires}, nil
}

// Lookup resolves a token to its user id, refusing unknown or expired
// tokens.
func (t *TokenStore) Lookup(ctx context.Context, token string) (int64, error) {
	raw, err := t.client.Get(ctx, tokenKeyPrefix+token).Result()
	if err == redis.Nil {
		return 0, ErrTokenExpired
	}
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, ErrTokenExpired
	}
	return id, nil
}

// Revoke deletes a token. Revoking an unknown token is not an error.
func (t *TokenStore) Revoke(ctx context.Context, token string) error {
	return t.client.Del(ctx, tokenKeyPrefix+token).Err()
}
