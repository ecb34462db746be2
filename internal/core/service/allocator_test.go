package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/inventory-sale/internal/adapter/storage"
	"github.com/rl1809/inventory-sale/internal/port"
)

func testAllocatorConfig(attempts uint64) AllocatorConfig {
	return AllocatorConfig{
		MaxAttempts:    attempts,
		InitialBackoff: 200 * time.Microsecond,
		MaxBackoff:     2 * time.Millisecond,
	}
}

// flakyCounterStore conflicts a fixed number of times before
// delegating to the real store.
type flakyCounterStore struct {
	port.CounterStore
	mu        sync.Mutex
	conflicts int
}

func (s *flakyCounterStore) ConditionalSet(ctx context.Context, ownerID string, expected, next int64) error {
	s.mu.Lock()
	if s.conflicts > 0 {
		s.conflicts--
		s.mu.Unlock()
		return port.ErrConflict
	}
	s.mu.Unlock()
	return s.CounterStore.ConditionalSet(ctx, ownerID, expected, next)
}

func TestNextNumber_SequentialFromOne(t *testing.T) {
	store := storage.NewMemoryStore()
	a := NewReceiptAllocator(store, testAllocatorConfig(5))

	for want := int64(1); want <= 3; want++ {
		n, err := a.NextNumber(context.Background(), testOwner)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	// Counters are per account.
	n, err := a.NextNumber(context.Background(), "another-owner")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestNextNumber_RetriesConflicts(t *testing.T) {
	store := storage.NewMemoryStore()
	flaky := &flakyCounterStore{CounterStore: store, conflicts: 2}
	a := NewReceiptAllocator(flaky, testAllocatorConfig(5))

	n, err := a.NextNumber(context.Background(), testOwner)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestNextNumber_ExhaustsAttempts(t *testing.T) {
	store := storage.NewMemoryStore()
	flaky := &flakyCounterStore{CounterStore: store, conflicts: 100}
	a := NewReceiptAllocator(flaky, testAllocatorConfig(3))

	_, err := a.NextNumber(context.Background(), testOwner)
	require.ErrorIs(t, err, port.ErrConflict)

	// The counter never advanced, an aborted allocation burns nothing.
	value, err := store.GetCounter(context.Background(), testOwner)
	require.NoError(t, err)
	assert.Equal(t, int64(0), value)
}

func TestNextNumber_ConcurrentAllocationsAreDistinct(t *testing.T) {
	store := storage.NewMemoryStore()
	const callers = 30
	a := NewReceiptAllocator(store, testAllocatorConfig(callers+8))

	var mu sync.Mutex
	numbers := make(map[int64]int)
	var wg sync.WaitGroup

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := a.NextNumber(context.Background(), testOwner)
			if err != nil {
				t.Errorf("allocation failed: %v", err)
				return
			}
			mu.Lock()
			numbers[n]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, numbers, callers)
	for n := int64(1); n <= callers; n++ {
		assert.Equal(t, 1, numbers[n], "number %d allocated exactly once", n)
	}
}
