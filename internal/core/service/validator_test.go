package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/inventory-sale/internal/adapter/storage"
	"github.com/rl1809/inventory-sale/internal/core/domain"
)

const testOwner = "owner-1"

func seedItem(t *testing.T, store *storage.MemoryStore, id, owner string, price int64, quantity int) {
	t.Helper()
	err := store.CreateItem(context.Background(), &domain.InventoryItem{
		ID:          id,
		OwnerID:     owner,
		Name:        "Item " + id,
		BuyerPrice:  decimal.NewFromInt(price - 2),
		SellerPrice: decimal.NewFromInt(price),
		Quantity:    quantity,
	})
	require.NoError(t, err)
}

func TestValidate_EmptyRequest(t *testing.T) {
	v := NewSaleValidator(storage.NewMemoryStore())

	_, err := v.Validate(context.Background(), testOwner, nil)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, domain.ReasonEmptyRequest, verr.Reason)
}

func TestValidate_InvalidQuantity(t *testing.T) {
	store := storage.NewMemoryStore()
	seedItem(t, store, "item-1", testOwner, 5, 10)
	v := NewSaleValidator(store)

	for _, quantity := range []int{0, -3} {
		_, err := v.Validate(context.Background(), testOwner,
			[]domain.SaleLine{{ItemID: "item-1", Quantity: quantity}})

		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, domain.ReasonInvalidQuantity, verr.Reason)
		assert.Equal(t, "item-1", verr.ItemID)
	}
}

func TestValidate_DuplicateItem(t *testing.T) {
	store := storage.NewMemoryStore()
	seedItem(t, store, "item-1", testOwner, 5, 10)
	v := NewSaleValidator(store)

	_, err := v.Validate(context.Background(), testOwner, []domain.SaleLine{
		{ItemID: "item-1", Quantity: 1},
		{ItemID: "item-1", Quantity: 2},
	})

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, domain.ReasonDuplicateItem, verr.Reason)
	assert.Equal(t, "item-1", verr.ItemID)
}

func TestValidate_UnknownItem(t *testing.T) {
	v := NewSaleValidator(storage.NewMemoryStore())

	_, err := v.Validate(context.Background(), testOwner,
		[]domain.SaleLine{{ItemID: "missing", Quantity: 1}})

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, domain.ReasonUnknownItem, verr.Reason)
	assert.Equal(t, "missing", verr.ItemID)
}

func TestValidate_ItemOwnedBySomeoneElse(t *testing.T) {
	store := storage.NewMemoryStore()
	seedItem(t, store, "item-1", "other-owner", 5, 10)
	v := NewSaleValidator(store)

	_, err := v.Validate(context.Background(), testOwner,
		[]domain.SaleLine{{ItemID: "item-1", Quantity: 1}})

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, domain.ReasonUnknownItem, verr.Reason)
}

func TestValidate_InsufficientStock(t *testing.T) {
	store := storage.NewMemoryStore()
	seedItem(t, store, "item-1", testOwner, 5, 3)
	v := NewSaleValidator(store)

	_, err := v.Validate(context.Background(), testOwner,
		[]domain.SaleLine{{ItemID: "item-1", Quantity: 4}})

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, domain.ReasonInsufficientStock, verr.Reason)
	assert.Equal(t, "item-1", verr.ItemID)
	assert.Equal(t, 3, verr.Available)
	assert.Equal(t, 4, verr.Requested)
}

func TestValidate_ResolvesSnapshots(t *testing.T) {
	store := storage.NewMemoryStore()
	seedItem(t, store, "item-1", testOwner, 5, 10)
	seedItem(t, store, "item-2", testOwner, 8, 4)
	v := NewSaleValidator(store)

	resolved, err := v.Validate(context.Background(), testOwner, []domain.SaleLine{
		{ItemID: "item-1", Quantity: 3},
		{ItemID: "item-2", Quantity: 2},
	})
	require.NoError(t, err)
	require.Len(t, resolved, 2)

	assert.Equal(t, "item-1", resolved[0].ItemID)
	assert.Equal(t, "Item item-1", resolved[0].Name)
	assert.True(t, resolved[0].UnitPrice.Equal(decimal.NewFromInt(5)))
	assert.True(t, resolved[0].LineTotal.Equal(decimal.NewFromInt(15)))
	assert.Equal(t, 10, resolved[0].Available)
	assert.Equal(t, int64(0), resolved[0].Revision)

	assert.Equal(t, "item-2", resolved[1].ItemID)
	assert.True(t, resolved[1].LineTotal.Equal(decimal.NewFromInt(16)))
}
