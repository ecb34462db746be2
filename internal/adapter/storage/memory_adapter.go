package storage

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/inventory-sale/internal/core/domain"
	"github.com/rl1809/inventory-sale/internal/port"
)

// MemoryStore is a mutex-guarded implementation of every storage port.
// It backs unit tests, the stress driver and backend-free runs with
// the same conditional-write semantics the durable adapters provide.
type MemoryStore struct {
	mu       sync.RWMutex
	items    map[string]domain.InventoryItem
	counters map[string]int64
	receipts []domain.Receipt
	inflight map[string]struct{}
	cached   map[string]domain.Receipt
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:    make(map[string]domain.InventoryItem),
		counters: make(map[string]int64),
		inflight: make(map[string]struct{}),
		cached:   make(map[string]domain.Receipt),
	}
}

var (
	_ port.ItemStore        = (*MemoryStore)(nil)
	_ port.ItemCatalog      = (*MemoryStore)(nil)
	_ port.CounterStore     = (*MemoryStore)(nil)
	_ port.ReceiptStore     = (*MemoryStore)(nil)
	_ port.IdempotencyStore = (*MemoryStore)(nil)
)

// ItemCatalog

func (m *MemoryStore) CreateItem(ctx context.Context, item *domain.InventoryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.items[item.ID]; exists {
		return port.ErrConflict
	}
	now := time.Now().UTC()
	item.Revision = 0
	item.CreatedAt = now
	item.UpdatedAt = now
	m.items[item.ID] = *item
	return nil
}

func (m *MemoryStore) GetItem(ctx context.Context, itemID string) (*domain.InventoryItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.items[itemID]
	if !ok {
		return nil, port.ErrNotFound
	}
	cp := item
	return &cp, nil
}

// UpdateItemPrices re-prices an item. The revision bump invalidates
// any snapshot taken before the change.
func (m *MemoryStore) UpdateItemPrices(ctx context.Context, itemID string, buyerPrice, sellerPrice decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[itemID]
	if !ok {
		return port.ErrNotFound
	}
	item.BuyerPrice = buyerPrice
	item.SellerPrice = sellerPrice
	item.Revision++
	item.UpdatedAt = time.Now().UTC()
	m.items[itemID] = item
	return nil
}

// ItemStore

func (m *MemoryStore) GetSnapshot(ctx context.Context, itemID string) (*domain.ItemSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.items[itemID]
	if !ok {
		return nil, port.ErrNotFound
	}
	return &domain.ItemSnapshot{
		ItemID:      item.ID,
		OwnerID:     item.OwnerID,
		Name:        item.Name,
		SellerPrice: item.SellerPrice,
		Quantity:    item.Quantity,
		Revision:    item.Revision,
	}, nil
}

func (m *MemoryStore) ConditionalWrite(ctx context.Context, itemID string, expectedRevision int64, newQuantity int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[itemID]
	if !ok {
		return 0, port.ErrNotFound
	}
	if item.Revision != expectedRevision || newQuantity < 0 {
		return 0, port.ErrConflict
	}
	item.Quantity = newQuantity
	item.Revision++
	item.UpdatedAt = time.Now().UTC()
	m.items[itemID] = item
	return item.Revision, nil
}

func (m *MemoryStore) ApplyDecrements(ctx context.Context, decrements []port.Decrement) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Verify the whole set before touching anything.
	for _, d := range decrements {
		item, ok := m.items[d.ItemID]
		if !ok {
			return nil, port.ErrNotFound
		}
		if item.Revision != d.ExpectedRevision || item.Quantity < d.Quantity {
			return nil, port.ErrConflict
		}
	}

	now := time.Now().UTC()
	revisions := make(map[string]int64, len(decrements))
	for _, d := range decrements {
		item := m.items[d.ItemID]
		item.Quantity -= d.Quantity
		item.Revision++
		item.UpdatedAt = now
		m.items[d.ItemID] = item
		revisions[d.ItemID] = item.Revision
	}
	return revisions, nil
}

// CounterStore

func (m *MemoryStore) GetCounter(ctx context.Context, ownerID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counters[ownerID], nil
}

func (m *MemoryStore) ConditionalSet(ctx context.Context, ownerID string, expected, next int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters[ownerID] != expected {
		return port.ErrConflict
	}
	m.counters[ownerID] = next
	return nil
}

// ReceiptStore

func (m *MemoryStore) SaveReceipt(ctx context.Context, receipt *domain.Receipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receipts = append(m.receipts, *receipt)
	return nil
}

// ReceiptsByOwner returns copies of all stored receipts for an owner.
func (m *MemoryStore) ReceiptsByOwner(ownerID string) []domain.Receipt {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Receipt, 0)
	for _, r := range m.receipts {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	return out
}

// IdempotencyStore

func idemKey(ownerID, requestID string) string {
	return ownerID + ":" + requestID
}

func (m *MemoryStore) SetInFlight(ctx context.Context, ownerID, requestID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := idemKey(ownerID, requestID)
	if _, ok := m.inflight[key]; ok {
		return false, nil
	}
	if _, ok := m.cached[key]; ok {
		return false, nil
	}
	m.inflight[key] = struct{}{}
	return true, nil
}

func (m *MemoryStore) GetReceipt(ctx context.Context, ownerID, requestID string) (*domain.Receipt, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.cached[idemKey(ownerID, requestID)]
	if !ok {
		return nil, false, nil
	}
	cp := r
	return &cp, true, nil
}

func (m *MemoryStore) CacheReceipt(ctx context.Context, ownerID, requestID string, receipt *domain.Receipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cached[idemKey(ownerID, requestID)] = *receipt
	return nil
}

func (m *MemoryStore) Release(ctx context.Context, ownerID, requestID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inflight, idemKey(ownerID, requestID))
	return nil
}
