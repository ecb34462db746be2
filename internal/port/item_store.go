package port

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/rl1809/inventory-sale/internal/core/domain"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict indicates a conditional write was rejected because
	// the record changed since it was read.
	ErrConflict = errors.New("optimistic lock conflict")
)

// Decrement is one revision-conditioned quantity reduction.
type Decrement struct {
	ItemID           string
	ExpectedRevision int64
	Quantity         int
}

type ItemStore interface {
	// GetSnapshot reads the current state of an item, or ErrNotFound
	GetSnapshot(ctx context.Context, itemID string) (*domain.ItemSnapshot, error)

	// ConditionalWrite sets the quantity of a single item if its revision
	// still matches, returning the new revision or ErrConflict
	ConditionalWrite(ctx context.Context, itemID string, expectedRevision int64, newQuantity int) (int64, error)

	// ApplyDecrements applies the full set of decrements atomically:
	// either every item is reduced or none is. Any revision mismatch or
	// insufficient quantity aborts the whole set with ErrConflict.
	// Returns the new revision per item on success.
	ApplyDecrements(ctx context.Context, decrements []Decrement) (map[string]int64, error)
}

// ItemCatalog covers the minimal item administration the engine's
// surroundings need (seeding and inspection). Full CRUD stays with the
// application layer above.
type ItemCatalog interface {
	// CreateItem stores a new inventory item
	CreateItem(ctx context.Context, item *domain.InventoryItem) error

	// GetItem reads a full item record, or ErrNotFound
	GetItem(ctx context.Context, itemID string) (*domain.InventoryItem, error)

	// UpdateItemPrices re-prices an item and bumps its revision, so
	// in-flight sales validated against the old price are retried
	UpdateItemPrices(ctx context.Context, itemID string, buyerPrice, sellerPrice decimal.Decimal) error
}
