package ycsb

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hupe1980/olctree/internal/resource"
)

// ErrInvalidConfig is returned by Run for an unusable configuration.
var ErrInvalidConfig = errors.New("ycsb: invalid config")

// Config describes one run.
type Config struct {
	// Tuples is the number of keys loaded, [0, Tuples).
	Tuples uint64

	// ReadRatio is the percentage of transactions that are lookups; the rest
	// are updates. 100 means read-only.
	ReadRatio int

	// Workers is the number of concurrent goroutines per phase.
	Workers int

	// RunFor is the length of the transaction phase. Zero skips it.
	RunFor time.Duration

	// Zipf is the skew of the transaction key distribution in [0, 1).
	// Zero means uniform.
	Zipf float64

	// Scan enables the lookup-every-key phase.
	Scan bool

	// Verify enables the post-load verification scan.
	Verify bool

	// Seed makes payloads and key draws reproducible.
	Seed uint64

	// Controller paces transactions when it has an operation rate. Optional.
	Controller *resource.Controller

	// Logger receives phase progress. Optional.
	Logger *slog.Logger
}

// DefaultConfig contains the default configuration.
var DefaultConfig = Config{
	Tuples:    1_000_000,
	ReadRatio: 100,
	Workers:   4,
	RunFor:    10 * time.Second,
	Seed:      42,
}

func (c *Config) validate() error {
	if c.Tuples == 0 {
		return fmt.Errorf("%w: tuples must be positive", ErrInvalidConfig)
	}
	if c.ReadRatio < 0 || c.ReadRatio > 100 {
		return fmt.Errorf("%w: read ratio %d not in [0, 100]", ErrInvalidConfig, c.ReadRatio)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	}
	if c.Zipf < 0 || c.Zipf >= 1 {
		return fmt.Errorf("%w: zipf %v not in [0, 1)", ErrInvalidConfig, c.Zipf)
	}
	if c.RunFor < 0 {
		return fmt.Errorf("%w: negative run time", ErrInvalidConfig)
	}
	return nil
}
