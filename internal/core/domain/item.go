package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryItem is a stored inventory record. Quantity is only mutated
// through revision-conditioned writes; Revision increases by one on
// every successful write.
type InventoryItem struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	Name        string          `json:"name"`
	BuyerPrice  decimal.Decimal `json:"buyer_price"`
	SellerPrice decimal.Decimal `json:"seller_price"`
	Quantity    int             `json:"quantity"`
	Revision    int64           `json:"revision"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ItemSnapshot is the read view of an item at a point in time, used for
// validation and as the price/name source for receipt lines.
type ItemSnapshot struct {
	ItemID      string
	OwnerID     string
	Name        string
	SellerPrice decimal.Decimal
	Quantity    int
	Revision    int64
}
