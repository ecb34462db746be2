package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/rl1809/inventory-sale/internal/port"
)

// AllocatorConfig bounds the allocator's own conflict retries. The
// allocation step retries independently of the sale loop: by the time
// it runs the stock decrement is already durable and must not re-run.
type AllocatorConfig struct {
	MaxAttempts    uint64
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func DefaultAllocatorConfig() AllocatorConfig {
	return AllocatorConfig{
		MaxAttempts:    5,
		InitialBackoff: 20 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

// ReceiptAllocator hands out strictly increasing receipt numbers per
// owner, starting at 1, through conditional increments on the counter
// store. A number, once allocated, is never reused.
type ReceiptAllocator struct {
	counters port.CounterStore
	cfg      AllocatorConfig
}

func NewReceiptAllocator(counters port.CounterStore, cfg AllocatorConfig) *ReceiptAllocator {
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 1
	}
	return &ReceiptAllocator{counters: counters, cfg: cfg}
}

// NextNumber allocates the next receipt number for an owner. Counter
// conflicts are retried with randomized exponential backoff up to the
// configured bound; the last conflict escapes wrapped so callers can
// classify it.
func (a *ReceiptAllocator) NextNumber(ctx context.Context, ownerID string) (int64, error) {
	var number int64

	op := func() error {
		current, err := a.counters.GetCounter(ctx, ownerID)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("read counter: %w", err))
		}

		next := current + 1
		if err := a.counters.ConditionalSet(ctx, ownerID, current, next); err != nil {
			if errors.Is(err, port.ErrConflict) {
				return err
			}
			return backoff.Permanent(fmt.Errorf("advance counter: %w", err))
		}

		number = next
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = a.cfg.InitialBackoff
	bo.MaxInterval = a.cfg.MaxBackoff

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, a.cfg.MaxAttempts-1), ctx))
	if err != nil {
		return 0, fmt.Errorf("allocate receipt number for %s: %w", ownerID, err)
	}
	return number, nil
}
