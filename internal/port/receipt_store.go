package port

import (
	"context"

	"github.com/rl1809/inventory-sale/internal/core/domain"
)

type ReceiptStore interface {
	// SaveReceipt durably appends a committed receipt. Receipts are
	// never updated or deleted.
	SaveReceipt(ctx context.Context, receipt *domain.Receipt) error
}

// ReceiptRenderer turns a committed receipt into a downloadable
// artifact. Rendering runs downstream of the sale and must never
// affect its outcome.
type ReceiptRenderer interface {
	Render(ctx context.Context, receipt *domain.Receipt) ([]byte, error)
}
