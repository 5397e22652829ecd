package resource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Memory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})
	ctx := context.Background()

	require.NoError(t, c.AcquireMemory(ctx, 50))
	assert.Equal(t, int64(50), c.MemoryUsage())

	require.NoError(t, c.AcquireMemory(ctx, 40))
	assert.Equal(t, int64(90), c.MemoryUsage())

	// Limit exceeded, usage unchanged.
	err := c.AcquireMemory(ctx, 20)
	assert.ErrorIs(t, err, ErrMemoryLimitExceeded)
	assert.Equal(t, int64(90), c.MemoryUsage())

	c.ReleaseMemory(50)
	assert.Equal(t, int64(40), c.MemoryUsage())

	require.NoError(t, c.AcquireMemory(ctx, 20))
	assert.Equal(t, int64(60), c.MemoryUsage())
	assert.Equal(t, int64(100), c.MemoryLimit())
}

func TestController_UnlimitedMemory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 0})

	require.NoError(t, c.AcquireMemory(context.Background(), 1000))
	assert.Equal(t, int64(1000), c.MemoryUsage())

	c.ReleaseMemory(500)
	assert.Equal(t, int64(500), c.MemoryUsage())
}

func TestController_MemoryCanceledContext(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.AcquireMemory(ctx, 10)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(0), c.MemoryUsage())
}

func TestController_Ops(t *testing.T) {
	c := NewController(Config{OpsPerSecond: 10})

	// The bucket starts full.
	assert.True(t, c.TryAcquireOps(10))
	assert.False(t, c.TryAcquireOps(1))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.AcquireOps(ctx, 1))
}

func TestController_Nil(t *testing.T) {
	var c *Controller

	assert.NoError(t, c.AcquireMemory(context.Background(), 1<<40))
	assert.True(t, c.TryAcquireMemory(1))
	c.ReleaseMemory(1)
	assert.Equal(t, int64(0), c.MemoryUsage())
	assert.Equal(t, int64(0), c.MemoryLimit())
	assert.NoError(t, c.AcquireOps(context.Background(), 5))
	assert.True(t, c.TryAcquireOps(5))
}
