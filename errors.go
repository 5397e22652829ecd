package olctree

import (
	"errors"
	"fmt"

	"github.com/hupe1980/olctree/internal/arena"
	"github.com/hupe1980/olctree/internal/btree"
	"github.com/hupe1980/olctree/internal/resource"
)

var (
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("olctree: index closed")

	// ErrArenaFull is returned when an insert needs a new page and the arena
	// has none left. The index is unchanged and remains readable.
	ErrArenaFull = errors.New("olctree: arena full")

	// ErrMemoryLimitExceeded is returned by New when the arena does not fit
	// into the configured memory limit.
	ErrMemoryLimitExceeded = errors.New("olctree: memory limit exceeded")

	// ErrInvalidOptions is returned by New for an unusable configuration.
	ErrInvalidOptions = errors.New("olctree: invalid options")
)

// ErrPayloadSize indicates a payload whose length differs from the
// configured payload size.
type ErrPayloadSize struct {
	Expected int
	Actual   int
}

func (e *ErrPayloadSize) Error() string {
	return fmt.Sprintf("olctree: payload size mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, arena.ErrArenaFull):
		return fmt.Errorf("%w: %w", ErrArenaFull, err)
	case errors.Is(err, arena.ErrClosed):
		return fmt.Errorf("%w: %w", ErrClosed, err)
	case errors.Is(err, resource.ErrMemoryLimitExceeded):
		return fmt.Errorf("%w: %w", ErrMemoryLimitExceeded, err)
	case errors.Is(err, arena.ErrInvalidPageSize),
		errors.Is(err, arena.ErrInvalidCapacity),
		errors.Is(err, btree.ErrInvalidLayout),
		errors.Is(err, btree.ErrInvalidConflictRate):
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}

	return err
}
