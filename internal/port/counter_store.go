package port

import "context"

type CounterStore interface {
	// GetCounter returns the current receipt counter for an owner,
	// zero if none was ever allocated
	GetCounter(ctx context.Context, ownerID string) (int64, error)

	// ConditionalSet advances the counter from expected to next,
	// failing with ErrConflict if another caller advanced it first
	ConditionalSet(ctx context.Context, ownerID string, expected, next int64) error
}
