//go:build integration

package cache

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"config_client/internal/testutil"

	"github.com/go-redis/redis/v8"
	"github.com/ory/dockertest/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var redisClient *redis.Client

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatal(err)
	}

	client, cleanup, err := testutil.TestWithRedis(pool)
	if err != nil {
		log.Fatal(err)
	}
	redisClient = client

	code := m.Run()

	if err := cleanup(); err != nil {
		log.Print(err)
	}

	os.Exit(code)
}

func newTestCache(t *testing.T) *UserCache {
	t.Helper()
	require.NoError(t, redisClient.FlushDB(context.Background()).Err())
	return NewUserCache(redisClient, time.Minute)
}

func TestUserCache_MissReturnsNil(t *testing.T) {
	c := newTestCache(t)

	data, err := c.Get(context.Background(), UserKey(1))
	require.NoError(t, err)
	assert.Nil(t, data)

	gen, err := c.Generation(context.Background(), UserKey(1))
	require.NoError(t, err)
	assert.Equal(t, int64(0), gen)
}

func TestUserCache_SetGetInvalidate(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	payload := map[string]interface{}{"id": 7, "username": "alice"}
	stored, err := c.SetIfGeneration(ctx, UserKey(7), 0, payload)
	require.NoError(t, err)
	assert.True(t, stored)

	data, err := c.Get(ctx, UserKey(7))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":7,"username":"alice"}`, string(data))

	ttl, err := redisClient.TTL(ctx, UserKey(7)).Result()
	require.NoError(t, err)
	assert.True(t, ttl > 0 && ttl <= time.Minute)

	require.NoError(t, c.Invalidate(ctx, UserKey(7), AllUsersKey))
	data, err = c.Get(ctx, UserKey(7))
	require.NoError(t, err)
	assert.Nil(t, data)

	gen, err := c.Generation(ctx, AllUsersKey)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)
}

func TestUserCache_StaleGenerationIsNotWritten(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	gen, err := c.Generation(ctx, AllUsersKey)
	require.NoError(t, err)

	// an eviction lands between the lookup and the refill
	require.NoError(t, c.Invalidate(ctx, AllUsersKey))

	stored, err := c.SetIfGeneration(ctx, AllUsersKey, gen, []string{"stale"})
	require.NoError(t, err)
	assert.False(t, stored)

	data, err := c.Get(ctx, AllUsersKey)
	require.NoError(t, err)
	assert.Nil(t, data)

	gen, err = c.Generation(ctx, AllUsersKey)
	require.NoError(t, err)
	stored, err = c.SetIfGeneration(ctx, AllUsersKey, gen, []string{"fresh"})
	require.NoError(t, err)
	assert.True(t, stored)
}
