package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleLine is one (item, quantity) pair in a sale request. It only
// lives for the duration of the request.
type SaleLine struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// ResolvedLine is a sale line joined with the item snapshot it was
// validated against. Name and UnitPrice are frozen here so the receipt
// reflects the prices at commit time, and Revision conditions the
// decrement write.
type ResolvedLine struct {
	ItemID    string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	LineTotal decimal.Decimal
	Available int
	Revision  int64
}

// ReceiptLine is one committed line on a receipt.
type ReceiptLine struct {
	ItemID    string          `json:"item_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Receipt is the immutable record of a committed sale. Number is
// unique and strictly increasing per owner.
type Receipt struct {
	ID         string          `json:"id"`
	OwnerID    string          `json:"owner_id"`
	Number     int64           `json:"number"`
	IssuedAt   time.Time       `json:"issued_at"`
	Lines      []ReceiptLine   `json:"lines"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}
