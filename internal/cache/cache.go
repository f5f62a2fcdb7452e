// Package cache keeps generation run statuses in Redis so they survive a
// restart of the API process and expire on their own.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Fussballversager/data-pipeline-buddy/internal/config"
	"github.com/Fussballversager/data-pipeline-buddy/internal/domain"
	"github.com/Fussballversager/data-pipeline-buddy/internal/generation"

	"github.com/redis/go-redis/v9"
)

// RunStatusKeyFormat is the Redis key of a plan's latest run: tier, plan id.
const RunStatusKeyFormat = "generation:status:%s:%s"

const defaultStatusTTL = 24 * time.Hour

// NewClient connects to Redis and pings it once.
func NewClient(cfg config.CacheConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Address, err)
	}
	log.Printf("INFO: Connected to Redis at %s: %s", cfg.Address, pong)
	return client, nil
}

// RunStatusStore implements generation.StatusStore on Redis.
type RunStatusStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRunStatusStore creates the store. A non-positive ttl uses 24 hours.
func NewRunStatusStore(client *redis.Client, ttl time.Duration) *RunStatusStore {
	if ttl <= 0 {
		ttl = defaultStatusTTL
	}
	return &RunStatusStore{client: client, ttl: ttl}
}

func statusKey(tier domain.Tier, planID string) string {
	return fmt.Sprintf(RunStatusKeyFormat, tier, planID)
}

// Save overwrites the plan's status and resets its expiry.
func (s *RunStatusStore) Save(ctx context.Context, status generation.RunStatus) error {
	raw, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, statusKey(status.Tier, status.PlanID), raw, s.ttl).Err()
}

// Get returns generation.ErrNoRun when no status is stored or it expired.
func (s *RunStatusStore) Get(ctx context.Context, ref domain.PlanRef) (*generation.RunStatus, error) {
	raw, err := s.client.Get(ctx, statusKey(ref.Tier, ref.ID.Hex())).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, generation.ErrNoRun
		}
		return nil, err
	}
	var status generation.RunStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, fmt.Errorf("decode run status: %w", err)
	}
	return &status, nil
}
