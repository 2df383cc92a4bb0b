package shared

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenStore issues and resolves opaque bearer tokens backed by Redis.
// Tokens are random, carry no claims themselves, and expire after the
// configured TTL unless refreshed by use.
type TokenStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

type tokenPayload struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// NewTokenStore constructs a TokenStore.
func NewTokenStore(client *redis.Client, prefix string, ttl time.Duration) *TokenStore {
	if prefix == "" {
		prefix = "tripflow:token"
	}
	return &TokenStore{client: client, prefix: prefix, ttl: ttl}
}

// Issue mints a token for the identity and stores it with TTL.
func (s *TokenStore) Issue(ctx context.Context, id Identity) (string, error) {
	if id.UserID == "" {
		return "", errors.New("token identity requires user id")
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("token entropy: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)
	payload, err := json.Marshal(tokenPayload{UserID: id.UserID, Name: id.Name, Role: id.Role})
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, s.key(token), payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	return token, nil
}

// Resolve looks a token up and slides its expiry forward.
func (s *TokenStore) Resolve(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	raw, err := s.client.Get(ctx, s.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	var payload tokenPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	_ = s.client.Expire(ctx, s.key(token), s.ttl).Err()
	return &Identity{UserID: payload.UserID, Name: payload.Name, Role: payload.Role}, nil
}

// Revoke deletes the token, ending the session.
func (s *TokenStore) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.client.Del(ctx, s.key(token)).Err()
}

func (s *TokenStore) key(token string) string {
	return s.prefix + ":" + token
}
