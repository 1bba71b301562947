package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/helpdesk-roster/rosterweb/internal/infrastructure/tokenstore"
)

// TokenKV is a persistent ports.KV backed by Redis.
// Key format: <namespace>:<key>
type TokenKV struct {
	client    redis.Cmdable
	namespace string
}

// NewTokenKV scopes all keys under namespace, typically the profile or
// username of the CLI user.
func NewTokenKV(client redis.Cmdable, namespace string) *TokenKV {
	if namespace == "" {
		namespace = "rosterweb"
	}
	return &TokenKV{client: client, namespace: namespace}
}

func (k *TokenKV) Get(ctx context.Context, key string) (string, error) {
	v, err := k.client.Get(ctx, k.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", tokenstore.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("token kv get: %w", err)
	}
	return v, nil
}

// Set stores value; a zero ttl keeps it until deleted.
func (k *TokenKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := k.client.Set(ctx, k.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("token kv set: %w", err)
	}
	return nil
}

func (k *TokenKV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, key := range keys {
		full[i] = k.key(key)
	}
	if err := k.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("token kv delete: %w", err)
	}
	return nil
}

func (k *TokenKV) key(key string) string {
	return k.namespace + ":" + key
}
