package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "storefront:session:"
	redisOpTimeout = 3 * time.Second
)

// RedisStore keeps each session as a JSON document. Reads slide the expiry forward so
// carts of returning visitors survive.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(ctx context.Context, connectionString string) (*RedisStore, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is required")
	}

	opts, err := redis.ParseURL(connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis connection string: %w", err)
	}
	if opts.ClientName == "" {
		opts.ClientName = "storefront-sessions"
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func (r *RedisStore) Get(ctx context.Context, key string) (*Data, bool) {
	if r == nil || r.client == nil || key == "" {
		return nil, false
	}
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	raw, err := r.client.GetEx(ctx, redisSessionKey(key), ttl).Bytes()
	if err != nil {
		// redis.Nil and transport errors both read as a fresh session
		return nil, false
	}

	data := NewData()
	if err := json.Unmarshal(raw, data); err != nil {
		return nil, false
	}
	return data, true
}

func (r *RedisStore) Set(ctx context.Context, key string, data *Data, expiry time.Duration) error {
	if r == nil || r.client == nil {
		return fmt.Errorf("redis session store is not connected")
	}
	if key == "" || data == nil {
		return fmt.Errorf("session key and data are required")
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	if err := r.client.Set(ctx, redisSessionKey(key), raw, expiry).Err(); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) {
	if r == nil || r.client == nil || key == "" {
		return
	}
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	_ = r.client.Del(ctx, redisSessionKey(key)).Err()
}

func (r *RedisStore) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}

func (r *RedisStore) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, redisOpTimeout)
}

func redisSessionKey(id string) string {
	return redisKeyPrefix + id
}
