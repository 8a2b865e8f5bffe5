package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/field-risk-service/internal/config"
	"github.com/couchcryptid/field-risk-service/internal/domain"
	"github.com/go-redis/redis/v8"
)

const snapshotKeyFormat = "%s:snapshot:v1"

// Client is the subset of the go-redis command set the store needs.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// Store keeps the last-good snapshot in Redis as JSON.
// It implements monitor.ObservationStore.
type Store struct {
	client Client
	key    string
	ttl    time.Duration
	logger *slog.Logger
}

// NewClient opens a go-redis client from the service configuration.
func NewClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

// NewStore creates a snapshot store under keyPrefix. A zero ttl keeps the
// snapshot forever.
func NewStore(client Client, keyPrefix string, ttl time.Duration, logger *slog.Logger) *Store {
	return &Store{
		client: client,
		key:    fmt.Sprintf(snapshotKeyFormat, keyPrefix),
		ttl:    ttl,
		logger: logger,
	}
}

// Load returns the stored snapshot. The bool is false when nothing is stored.
func (s *Store) Load(ctx context.Context) (domain.Snapshot, bool, error) {
	str, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Snapshot{}, false, nil
	}
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("get snapshot from redis: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal([]byte(str), &snap); err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("unmarshal snapshot JSON: %w", err)
	}
	return snap, true, nil
}

// Save overwrites the stored snapshot.
func (s *Store) Save(ctx context.Context, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key, string(data), s.ttl).Err(); err != nil {
		return fmt.Errorf("set snapshot in redis: %w", err)
	}
	s.logger.Debug("snapshot saved", "key", s.key, "has_location", snap.Location != nil)
	return nil
}

// Ping verifies the connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}
