package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rosterd/core"

	"github.com/redis/go-redis/v9"
)

const (
	statePrefix   = "rosterd:state:"
	sessionPrefix = "rosterd:session:"
)

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RedisStore is a Redis-backed StateStore and SessionStore. TTLs are
// enforced by Redis key expiry; state consumption uses GETDEL so redemption
// is atomic and single-use.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(cfg *RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// NewRedisStoreWithClient wraps an existing client. Used by tests.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) PutState(ctx context.Context, state string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, statePrefix+state, "1", ttl).Err()
}

func (r *RedisStore) ConsumeState(ctx context.Context, state string) (bool, error) {
	val, err := r.client.GetDel(ctx, statePrefix+state).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return val != "", nil
}

func (r *RedisStore) CreateSession(ctx context.Context, session *core.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	return r.client.Set(ctx, sessionPrefix+session.ID, data, ttl).Err()
}

func (r *RedisStore) FindSession(ctx context.Context, id string) (*core.Session, error) {
	data, err := r.client.Get(ctx, sessionPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}

	var session core.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

func (r *RedisStore) DeleteSession(ctx context.Context, id string) error {
	deleted, err := r.client.Del(ctx, sessionPrefix+id).Result()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteExpiredSessions is a no-op for Redis: key TTLs handle expiry.
func (r *RedisStore) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	return 0, nil
}
