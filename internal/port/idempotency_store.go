package port

import (
	"context"

	"github.com/rl1809/inventory-sale/internal/core/domain"
)

// IdempotencyStore deduplicates sale requests on a caller-supplied
// request id. Completed receipts are cached under the id for a bounded
// window so a caller retry after an ambiguous failure returns the
// already-committed receipt instead of selling twice.
type IdempotencyStore interface {
	// SetInFlight marks a request id as being processed, returns false
	// if the id is already in flight or completed
	SetInFlight(ctx context.Context, ownerID, requestID string) (bool, error)

	// GetReceipt returns the receipt committed under a request id, if any
	GetReceipt(ctx context.Context, ownerID, requestID string) (*domain.Receipt, bool, error)

	// CacheReceipt stores a committed receipt under its request id
	CacheReceipt(ctx context.Context, ownerID, requestID string, receipt *domain.Receipt) error

	// Release clears the in-flight mark for a request that committed
	// nothing, so the caller may retry with the same id
	Release(ctx context.Context, ownerID, requestID string) error
}
