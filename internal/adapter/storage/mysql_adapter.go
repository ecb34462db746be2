package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"

	"github.com/rl1809/inventory-sale/internal/core/domain"
	"github.com/rl1809/inventory-sale/internal/port"
)

// MySQLAdapter is the durable store for items, receipt counters and
// receipts. All stock and counter mutations are conditional writes;
// multi-item decrements run inside a single database transaction so no
// reader ever observes a partially applied sale.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

var (
	_ port.ItemStore    = (*MySQLAdapter)(nil)
	_ port.ItemCatalog  = (*MySQLAdapter)(nil)
	_ port.CounterStore = (*MySQLAdapter)(nil)
	_ port.ReceiptStore = (*MySQLAdapter)(nil)
)

// EnsureSchema creates the tables this adapter needs if they are
// missing. Intended for startup and tests, not for migrations.
func (m *MySQLAdapter) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS inventory_items (
			id           VARCHAR(64)    NOT NULL PRIMARY KEY,
			owner_id     VARCHAR(64)    NOT NULL,
			name         VARCHAR(255)   NOT NULL,
			buyer_price  DECIMAL(18,4)  NOT NULL DEFAULT 0,
			seller_price DECIMAL(18,4)  NOT NULL DEFAULT 0,
			quantity     INT            NOT NULL DEFAULT 0,
			revision     BIGINT         NOT NULL DEFAULT 0,
			created_at   TIMESTAMP      NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   TIMESTAMP      NOT NULL DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_inventory_items_owner (owner_id)
		)`,
		`CREATE TABLE IF NOT EXISTS receipt_counters (
			owner_id VARCHAR(64) NOT NULL PRIMARY KEY,
			value    BIGINT      NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS receipts (
			id          VARCHAR(36)   NOT NULL PRIMARY KEY,
			owner_id    VARCHAR(64)   NOT NULL,
			number      BIGINT        NOT NULL,
			issued_at   TIMESTAMP(6)  NOT NULL,
			grand_total DECIMAL(18,4) NOT NULL,
			UNIQUE KEY uq_receipts_owner_number (owner_id, number)
		)`,
		`CREATE TABLE IF NOT EXISTS receipt_lines (
			receipt_id VARCHAR(36)   NOT NULL,
			line_no    INT           NOT NULL,
			item_id    VARCHAR(64)   NOT NULL,
			name       VARCHAR(255)  NOT NULL,
			unit_price DECIMAL(18,4) NOT NULL,
			quantity   INT           NOT NULL,
			line_total DECIMAL(18,4) NOT NULL,
			PRIMARY KEY (receipt_id, line_no)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// ItemCatalog

func (m *MySQLAdapter) CreateItem(ctx context.Context, item *domain.InventoryItem) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO inventory_items (id, owner_id, name, buyer_price, seller_price, quantity, revision)
		VALUES (?, ?, ?, ?, ?, ?, 0)`,
		item.ID, item.OwnerID, item.Name, item.BuyerPrice, item.SellerPrice, item.Quantity,
	)
	if isDuplicateKey(err) {
		return port.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetItem(ctx context.Context, itemID string) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	err := m.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, buyer_price, seller_price, quantity, revision, created_at, updated_at
		FROM inventory_items WHERE id = ?`, itemID,
	).Scan(&item.ID, &item.OwnerID, &item.Name, &item.BuyerPrice, &item.SellerPrice,
		&item.Quantity, &item.Revision, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query item: %w", err)
	}
	return &item, nil
}

func (m *MySQLAdapter) UpdateItemPrices(ctx context.Context, itemID string, buyerPrice, sellerPrice decimal.Decimal) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE inventory_items
		SET buyer_price = ?, seller_price = ?, revision = revision + 1, updated_at = NOW()
		WHERE id = ?`,
		buyerPrice, sellerPrice, itemID,
	)
	if err != nil {
		return fmt.Errorf("update prices: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrNotFound
	}
	return nil
}

// ItemStore

func (m *MySQLAdapter) GetSnapshot(ctx context.Context, itemID string) (*domain.ItemSnapshot, error) {
	var snap domain.ItemSnapshot
	err := m.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, seller_price, quantity, revision
		FROM inventory_items WHERE id = ?`, itemID,
	).Scan(&snap.ItemID, &snap.OwnerID, &snap.Name, &snap.SellerPrice, &snap.Quantity, &snap.Revision)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	return &snap, nil
}

func (m *MySQLAdapter) ConditionalWrite(ctx context.Context, itemID string, expectedRevision int64, newQuantity int) (int64, error) {
	if newQuantity < 0 {
		return 0, port.ErrConflict
	}
	result, err := m.db.ExecContext(ctx, `
		UPDATE inventory_items
		SET quantity = ?, revision = revision + 1, updated_at = NOW()
		WHERE id = ? AND revision = ?`,
		newQuantity, itemID, expectedRevision,
	)
	if err != nil {
		return 0, fmt.Errorf("conditional write: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return 0, port.ErrConflict
	}
	return expectedRevision + 1, nil
}

func (m *MySQLAdapter) ApplyDecrements(ctx context.Context, decrements []port.Decrement) (map[string]int64, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	revisions := make(map[string]int64, len(decrements))
	for _, d := range decrements {
		result, err := tx.ExecContext(ctx, `
			UPDATE inventory_items
			SET quantity = quantity - ?, revision = revision + 1, updated_at = NOW()
			WHERE id = ? AND revision = ? AND quantity >= ?`,
			d.Quantity, d.ItemID, d.ExpectedRevision, d.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("decrement %s: %w", d.ItemID, err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return nil, port.ErrConflict
		}
		revisions[d.ItemID] = d.ExpectedRevision + 1
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit decrements: %w", err)
	}
	return revisions, nil
}

// CounterStore

func (m *MySQLAdapter) GetCounter(ctx context.Context, ownerID string) (int64, error) {
	var value int64
	err := m.db.QueryRowContext(ctx,
		`SELECT value FROM receipt_counters WHERE owner_id = ?`, ownerID,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query counter: %w", err)
	}
	return value, nil
}

func (m *MySQLAdapter) ConditionalSet(ctx context.Context, ownerID string, expected, next int64) error {
	if expected == 0 {
		// First allocation for this owner: the row may not exist yet.
		result, err := m.db.ExecContext(ctx,
			`INSERT IGNORE INTO receipt_counters (owner_id, value) VALUES (?, ?)`, ownerID, next)
		if err != nil {
			return fmt.Errorf("insert counter: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows == 1 {
			return nil
		}
		// Row exists; fall through to the guarded update.
	}

	result, err := m.db.ExecContext(ctx,
		`UPDATE receipt_counters SET value = ? WHERE owner_id = ? AND value = ?`,
		next, ownerID, expected,
	)
	if err != nil {
		return fmt.Errorf("update counter: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrConflict
	}
	return nil
}

// ReceiptStore

func (m *MySQLAdapter) SaveReceipt(ctx context.Context, receipt *domain.Receipt) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO receipts (id, owner_id, number, issued_at, grand_total)
		VALUES (?, ?, ?, ?, ?)`,
		receipt.ID, receipt.OwnerID, receipt.Number, receipt.IssuedAt, receipt.GrandTotal,
	)
	if err != nil {
		return fmt.Errorf("insert receipt: %w", err)
	}

	for i, line := range receipt.Lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO receipt_lines (receipt_id, line_no, item_id, name, unit_price, quantity, line_total)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			receipt.ID, i+1, line.ItemID, line.Name, line.UnitPrice, line.Quantity, line.LineTotal,
		)
		if err != nil {
			return fmt.Errorf("insert receipt line %d: %w", i+1, err)
		}
	}

	return tx.Commit()
}

func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
