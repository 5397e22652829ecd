// Package resource implements the Controller for process-wide limits.
//
// The Controller manages two resource types:
//
//   - Memory: arena reservations are tracked and optionally capped (non-blocking, fail-fast)
//   - Operations: a token bucket that load drivers use to pace foreground traffic
//
// # Memory Management
//
// Memory tracking uses a weighted semaphore for hard limits and an atomic
// counter for usage. AcquireMemory never waits; it returns
// ErrMemoryLimitExceeded immediately:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 1 << 30, // 1GB limit
//	})
//
//	if err := rc.AcquireMemory(ctx, 64<<20); err != nil {
//	    // ErrMemoryLimitExceeded - the arena cannot be created
//	}
//	defer rc.ReleaseMemory(64 << 20)
//
// # Operation Pacing
//
//	rc := resource.NewController(resource.Config{
//	    OpsPerSecond: 100_000,
//	})
//
//	if err := rc.AcquireOps(ctx, 1); err != nil {
//	    return err
//	}
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully - they become no-ops.
// This allows optional limits without nil checks everywhere.
package resource
