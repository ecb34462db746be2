package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/rl1809/inventory-sale/internal/core/domain"
	"github.com/rl1809/inventory-sale/internal/port"
)

// StockMutator applies validated decrements to the item store with
// optimistic concurrency. The full line set commits as one unit: a
// revision mismatch on any item aborts every decrement and surfaces as
// port.ErrConflict for the engine to retry from re-validation.
type StockMutator struct {
	items port.ItemStore
}

func NewStockMutator(items port.ItemStore) *StockMutator {
	return &StockMutator{items: items}
}

// ApplyDecrements re-verifies stock against the validated snapshots
// and writes the reduced quantities conditioned on the snapshot
// revisions. Returns the new revision per item on success.
func (m *StockMutator) ApplyDecrements(ctx context.Context, lines []domain.ResolvedLine) (map[string]int64, error) {
	for _, line := range lines {
		if line.Available-line.Quantity < 0 {
			return nil, &domain.ValidationError{
				Reason:    domain.ReasonInsufficientStock,
				ItemID:    line.ItemID,
				Available: line.Available,
				Requested: line.Quantity,
			}
		}
	}

	if len(lines) == 1 {
		line := lines[0]
		rev, err := m.items.ConditionalWrite(ctx, line.ItemID, line.Revision, line.Available-line.Quantity)
		if err != nil {
			return nil, fmt.Errorf("decrement %s: %w", line.ItemID, err)
		}
		return map[string]int64{line.ItemID: rev}, nil
	}

	decrements := make([]port.Decrement, 0, len(lines))
	for _, line := range lines {
		decrements = append(decrements, port.Decrement{
			ItemID:           line.ItemID,
			ExpectedRevision: line.Revision,
			Quantity:         line.Quantity,
		})
	}
	// Stable ordering keeps concurrent multi-item sales from locking
	// rows in opposing order.
	sort.Slice(decrements, func(i, j int) bool { return decrements[i].ItemID < decrements[j].ItemID })

	revisions, err := m.items.ApplyDecrements(ctx, decrements)
	if err != nil {
		return nil, fmt.Errorf("apply decrements: %w", err)
	}
	return revisions, nil
}
