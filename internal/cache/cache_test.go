package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Fussballversager/data-pipeline-buddy/internal/cache"
	"github.com/Fussballversager/data-pipeline-buddy/internal/config"
	"github.com/Fussballversager/data-pipeline-buddy/internal/domain"
	"github.com/Fussballversager/data-pipeline-buddy/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Keeps test keys away from the default database.
const isolatedTestRedisDB = 14

func testRedisConfig() config.CacheConfig {
	addr := os.Getenv("CACHE_ADDRESS")
	if addr == "" {
		addr = "localhost:6379"
	}
	return config.CacheConfig{Address: addr, Password: os.Getenv("CACHE_PASSWORD"), DB: isolatedTestRedisDB}
}

func TestRunStatusStoreRoundTrip(t *testing.T) {
	client, err := cache.NewClient(testRedisConfig())
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}
	defer client.Close()

	ctx := context.Background()
	store := cache.NewRunStatusStore(client, time.Minute)
	ref := domain.PlanRef{Tier: domain.TierWeek, ID: primitive.NewObjectID()}
	t.Cleanup(func() { client.Del(context.Background(), "generation:status:week:"+ref.ID.Hex()) })

	t.Run("missing status", func(t *testing.T) {
		_, err := store.Get(ctx, ref)
		assert.ErrorIs(t, err, generation.ErrNoRun)
	})

	t.Run("saved status is returned", func(t *testing.T) {
		status := generation.NewRunStatus("run-7", ref, time.Now().UTC())
		require.NoError(t, status.Advance(generation.StateProcessing, "", time.Now().UTC()))
		status.Payload = generation.Payload{"plan_type": "Woche"}
		require.NoError(t, store.Save(ctx, status))

		got, err := store.Get(ctx, ref)
		require.NoError(t, err)
		assert.Equal(t, generation.StateProcessing, got.State)
		assert.Equal(t, "run-7", got.RunID)
		assert.Equal(t, "Woche", got.Payload["plan_type"])

		ttl, err := client.TTL(ctx, "generation:status:week:"+ref.ID.Hex()).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
	})
}
