package resource

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned when memory limit would be exceeded.
var ErrMemoryLimitExceeded = errors.New("memory limit exceeded")

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes is the hard limit for arena reservations.
	// If 0, no hard limit is enforced (only tracking).
	MemoryLimitBytes int64

	// OpsPerSecond caps the rate of foreground operations issued by load drivers.
	// If 0, unlimited.
	OpsPerSecond int
}

// Controller manages resources shared by every tree of a process.
type Controller struct {
	cfg Config

	// Memory
	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	// Operations
	opsLimiter *rate.Limiter // nil if unlimited
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	c := &Controller{
		cfg: cfg,
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.OpsPerSecond > 0 {
		c.opsLimiter = rate.NewLimiter(rate.Limit(cfg.OpsPerSecond), cfg.OpsPerSecond)
	}

	return c
}

// AcquireMemory reserves memory for an arena block.
// It never waits: if the limit would be exceeded it returns ErrMemoryLimitExceeded
// and the caller decides what to do.
func (c *Controller) AcquireMemory(ctx context.Context, bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if !c.TryAcquireMemory(bytes) {
		return ErrMemoryLimitExceeded
	}
	return nil
}

// TryAcquireMemory reserves memory and reports whether it succeeded.
func (c *Controller) TryAcquireMemory(bytes int64) bool {
	if c == nil || bytes <= 0 {
		return true
	}

	if c.memSem != nil && !c.memSem.TryAcquire(bytes) {
		return false
	}

	c.memUsed.Add(bytes)
	return true
}

// ReleaseMemory releases reserved memory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the current memory usage in bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// MemoryLimit returns the configured memory limit in bytes (0 if unlimited).
func (c *Controller) MemoryLimit() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MemoryLimitBytes
}

// AcquireOps waits until the operation rate allows n more operations.
func (c *Controller) AcquireOps(ctx context.Context, n int) error {
	if c == nil || c.opsLimiter == nil {
		return nil
	}
	return c.opsLimiter.WaitN(ctx, n)
}

// TryAcquireOps attempts to take n operation tokens without blocking.
func (c *Controller) TryAcquireOps(n int) bool {
	if c == nil || c.opsLimiter == nil {
		return true
	}
	return c.opsLimiter.AllowN(time.Now(), n)
}
