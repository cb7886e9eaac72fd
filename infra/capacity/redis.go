package capacity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	corecap "github.com/conexio/leadrouter/core/capacity"
)

// RedisConfig holds connection settings for the remote capacity store.
type RedisConfig struct {
	Enabled   bool   `json:"enabled"`
	Address   string `json:"address"`
	Password  string `json:"password"`
	DB        int    `json:"db"`
	KeyPrefix string `json:"key_prefix"`
}

// capacityPayload is the JSON document stored per location.
type capacityPayload struct {
	HasCapacity    bool      `json:"hasCapacity"`
	AvailableSlots int       `json:"availableSlots"`
	IsOperational  bool      `json:"isOperational"`
	LastUpdated    time.Time `json:"lastUpdated"`
}

// RedisKV implements KV on a redis instance.
type RedisKV struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisKV connects to redis and verifies the connection.
func NewRedisKV(cfg RedisConfig) (*RedisKV, error) {
	if cfg.Address == "" {
		cfg.Address = "localhost:6379"
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "capacity:"
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("capacity: redis connect: %w", err)
	}
	return &RedisKV{rdb: rdb, prefix: cfg.KeyPrefix}, nil
}

// Get reads the capacity document for a location. The boolean is false when
// no document exists.
func (r *RedisKV) Get(ctx context.Context, locationID string) (corecap.Info, bool, error) {
	data, err := r.rdb.Get(ctx, r.prefix+locationID).Bytes()
	if err == redis.Nil {
		return corecap.Info{}, false, nil
	}
	if err != nil {
		return corecap.Info{}, false, fmt.Errorf("capacity: redis get %s: %w", locationID, err)
	}
	var p capacityPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return corecap.Info{}, false, fmt.Errorf("capacity: decode %s: %w", locationID, err)
	}
	return corecap.Info{
		HasCapacity:    p.HasCapacity,
		AvailableSlots: p.AvailableSlots,
		Operational:    p.IsOperational,
		LastUpdated:    p.LastUpdated,
	}, true, nil
}

// Put writes the capacity document for a location.
func (r *RedisKV) Put(ctx context.Context, locationID string, info corecap.Info) error {
	data, err := json.Marshal(capacityPayload{
		HasCapacity:    info.HasCapacity,
		AvailableSlots: info.AvailableSlots,
		IsOperational:  info.Operational,
		LastUpdated:    info.LastUpdated,
	})
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, r.prefix+locationID, data, 0).Err(); err != nil {
		return fmt.Errorf("capacity: redis set %s: %w", locationID, err)
	}
	return nil
}

// Close releases the connection pool.
func (r *RedisKV) Close() error { return r.rdb.Close() }
