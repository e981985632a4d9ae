package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ruteri/operator-account-registry/interfaces"
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Address   string
	Password  string
	DB        int
	Namespace string
}

// RedisStore implements a key-value store using Redis strings.
// Keys are "<namespace>:<id>" with no expiry.
type RedisStore struct {
	client      *redis.Client
	cfg         RedisConfig
	log         *slog.Logger
	locationURI string
}

// NewRedisStore creates a new Redis-backed store and verifies the connection.
func NewRedisStore(cfg RedisConfig, log *slog.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: failed to connect to redis: %v", interfaces.ErrBackendUnavailable, err)
	}

	return &RedisStore{
		client:      client,
		cfg:         cfg,
		log:         log,
		locationURI: fmt.Sprintf("redis://%s/%d?namespace=%s", cfg.Address, cfg.DB, cfg.Namespace),
	}, nil
}

// Get returns the value for key; redis.Nil is a miss.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: failed to get from redis: %v", interfaces.ErrBackendUnavailable, err)
	}
	return value, true, nil
}

// Set stores the value for key without expiry.
func (s *RedisStore) Set(ctx context.Context, key string, value string) error {
	if err := s.client.Set(ctx, s.redisKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("%w: failed to set in redis: %v", interfaces.ErrBackendUnavailable, err)
	}

	s.log.Debug("Stored entry in redis", slog.String("key", s.redisKey(key)))
	return nil
}

// Available pings the Redis server.
func (s *RedisStore) Available(ctx context.Context) bool {
	if err := s.client.Ping(ctx).Err(); err != nil {
		s.log.Debug("Redis store unavailable", "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this store.
func (s *RedisStore) Name() string {
	return fmt.Sprintf("redis-%s-%d", s.cfg.Address, s.cfg.DB)
}

// LocationURI returns the URI that identifies this store.
func (s *RedisStore) LocationURI() string {
	return s.locationURI
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) redisKey(key string) string {
	return fmt.Sprintf("%s:%s", s.cfg.Namespace, key)
}
