package render

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/inventory-sale/internal/core/domain"
)

func TestRender(t *testing.T) {
	receipt := &domain.Receipt{
		ID:       "r-1",
		OwnerID:  "owner-1",
		Number:   12,
		IssuedAt: time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC),
		Lines: []domain.ReceiptLine{
			{ItemID: "item-a", Name: "Blue Mug", UnitPrice: decimal.NewFromFloat(4.50), Quantity: 2, LineTotal: decimal.NewFromInt(9)},
			{ItemID: "item-b", Name: "Red Plate", UnitPrice: decimal.NewFromInt(3), Quantity: 1, LineTotal: decimal.NewFromInt(3)},
		},
		GrandTotal: decimal.NewFromInt(12),
	}

	out, err := NewTextRenderer().Render(context.Background(), receipt)
	require.NoError(t, err)
	text := string(out)

	assert.True(t, strings.HasPrefix(text, "Sales Receipt\n"))
	assert.Contains(t, text, "Receipt #: 12")
	assert.Contains(t, text, "Date: 2026-03-14")
	assert.Contains(t, text, "Time: 15:09:26")
	assert.Contains(t, text, "Blue Mug")
	assert.Contains(t, text, "$4.5")
	assert.Contains(t, text, "Red Plate")
	assert.Contains(t, text, "Grand Total: $12")

	// Lines appear in receipt order.
	assert.Less(t, strings.Index(text, "Blue Mug"), strings.Index(text, "Red Plate"))
}

func TestRender_NoLines(t *testing.T) {
	receipt := &domain.Receipt{
		Number:     1,
		IssuedAt:   time.Now().UTC(),
		GrandTotal: decimal.Zero,
	}

	out, err := NewTextRenderer().Render(context.Background(), receipt)
	require.NoError(t, err)
	assert.Contains(t, string(out), "Grand Total: $0")
}

func TestFileName(t *testing.T) {
	receipt := &domain.Receipt{OwnerID: "owner-1", Number: 7}
	assert.Equal(t, "receipt7_owner-1.txt", FileName(receipt))
}
