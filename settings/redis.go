package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisRepository stores settings rows as JSON fields of a single hash.
// Suited to deployments that already carry Redis and want settings shared
// between co-located processes without a relational database.
type RedisRepository struct {
	client redis.UniversalClient
	key    string
}

// NewRedisRepository creates a repository over one hash. An empty prefix
// defaults to "gatehouse".
func NewRedisRepository(client redis.UniversalClient, prefix string) (*RedisRepository, error) {
	if client == nil {
		return nil, errors.New("settings: redis client required")
	}
	if prefix == "" {
		prefix = "gatehouse"
	}
	return &RedisRepository{
		client: client,
		key:    prefix + ":settings",
	}, nil
}

// All returns every settings row in the hash.
func (r *RedisRepository) All(ctx context.Context) ([]Setting, error) {
	fields, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, err
	}

	rows := make([]Setting, 0, len(fields))
	for field, raw := range fields {
		var row Setting
		if err := json.Unmarshal([]byte(raw), &row); err != nil {
			return nil, fmt.Errorf("settings: corrupt row %s: %w", field, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Get returns the row for key, or [ErrSettingNotFound].
func (r *RedisRepository) Get(ctx context.Context, key string) (*Setting, error) {
	raw, err := r.client.HGet(ctx, r.key, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrSettingNotFound, key)
	}
	if err != nil {
		return nil, err
	}

	var row Setting
	if err := json.Unmarshal([]byte(raw), &row); err != nil {
		return nil, fmt.Errorf("settings: corrupt row %s: %w", key, err)
	}
	return &row, nil
}

// Create inserts a new row, failing with [ErrSettingExists] when the field is
// already present.
func (r *RedisRepository) Create(ctx context.Context, s *Setting) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}

	created, err := r.client.HSetNX(ctx, r.key, s.Key, raw).Result()
	if err != nil {
		return err
	}
	if !created {
		return fmt.Errorf("%w: %s", ErrSettingExists, s.Key)
	}
	return nil
}

// Update overwrites the row for s.Key. Missing rows fail with
// [ErrSettingNotFound] so store invariants match the gorm implementation.
func (r *RedisRepository) Update(ctx context.Context, s *Setting) error {
	exists, err := r.client.HExists(ctx, r.key, s.Key).Result()
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrSettingNotFound, s.Key)
	}

	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.client.HSet(ctx, r.key, s.Key, raw).Err()
}

// Delete removes the row for key.
func (r *RedisRepository) Delete(ctx context.Context, key string) error {
	return r.client.HDel(ctx, r.key, key).Err()
}
