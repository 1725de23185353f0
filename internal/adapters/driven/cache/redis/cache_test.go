package redis

import (
	"context"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testAddr returns the Redis server used by integration tests.
func testAddr(t *testing.T) string {
	t.Helper()
	addr := os.Getenv("NOTICEALERT_TEST_REDIS")
	if addr == "" {
		t.Skip("NOTICEALERT_TEST_REDIS not set")
	}
	return addr
}

func TestNew_RequiresAddr(t *testing.T) {
	_, err := New(context.Background(), Options{})
	assert.Error(t, err)
}

func TestNew_UnreachableServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := New(ctx, Options{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestNewWithClient_Defaults(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1"})
	c := NewWithClient(client, 0, "")

	assert.Equal(t, DefaultTTL, c.TTL())
	assert.Equal(t, DefaultPrefix, c.prefix)
	assert.NoError(t, c.Close())
}

func TestCache_GetSet(t *testing.T) {
	addr := testAddr(t)
	ctx := context.Background()

	c, err := New(ctx, Options{Addr: addr, TTL: time.Minute, Prefix: "noticealert:test:" + t.Name() + ":"})
	require.NoError(t, err)
	defer c.Close()

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "llm:abc", "Pipeline X is at 10% capacity."))
	value, ok, err := c.Get(ctx, "llm:abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Pipeline X is at 10% capacity.", value)

	ttl, err := c.client.TTL(ctx, c.prefix+"llm:abc").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)
}
