package ratelimit

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore_MemoryBackend(t *testing.T) {
	store, err := NewStore("memory", 10, 5, nil)
	require.NoError(t, err)

	_, ok := store.(*MemoryStore)
	assert.True(t, ok, "should create a MemoryStore")
}

func TestNewStore_EmptyBackend(t *testing.T) {
	store, err := NewStore("", 10, 5, nil)
	require.NoError(t, err)

	_, ok := store.(*MemoryStore)
	assert.True(t, ok, "empty backend should create a MemoryStore")
}

func TestNewStore_RedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store, err := NewStore("redis", 10, 5, client)
	require.NoError(t, err)

	_, ok := store.(*RedisStore)
	assert.True(t, ok, "should create a RedisStore")
}

func TestNewStore_RedisBackendWithoutClient(t *testing.T) {
	store, err := NewStore("redis", 10, 5, nil)
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestNewStore_UnknownBackend(t *testing.T) {
	store, err := NewStore("postgres", 10, 5, nil)
	assert.Error(t, err)
	assert.Nil(t, store)
	assert.Contains(t, err.Error(), "unknown rate limit backend")
}
