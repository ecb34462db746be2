package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/inventory-sale/internal/core/domain"
	"github.com/rl1809/inventory-sale/internal/port"
)

// EngineConfig bounds the validate/decrement retry loop and sizes the
// committed-receipt queue feeding the render workers.
type EngineConfig struct {
	MaxAttempts    uint64
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	QueueSize      int
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxAttempts:    5,
		InitialBackoff: 20 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
		QueueSize:      1024,
	}
}

// SaleTransactionEngine orchestrates validation, stock decrement and
// receipt allocation into one logical all-or-nothing sale. Concurrent
// sales race only on the storage layer's conditional writes; the
// engine holds no locks of its own.
type SaleTransactionEngine struct {
	validator *SaleValidator
	mutator   *StockMutator
	allocator *ReceiptAllocator
	receipts  port.ReceiptStore
	idem      port.IdempotencyStore
	log       *zap.Logger
	cfg       EngineConfig

	committed chan domain.Receipt
	closeOnce sync.Once
}

func NewSaleTransactionEngine(
	validator *SaleValidator,
	mutator *StockMutator,
	allocator *ReceiptAllocator,
	receipts port.ReceiptStore,
	idem port.IdempotencyStore,
	log *zap.Logger,
	cfg EngineConfig,
) *SaleTransactionEngine {
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	return &SaleTransactionEngine{
		validator: validator,
		mutator:   mutator,
		allocator: allocator,
		receipts:  receipts,
		idem:      idem,
		log:       log,
		cfg:       cfg,
		committed: make(chan domain.Receipt, cfg.QueueSize),
	}
}

// Sell executes one sale request. requestID is the caller-supplied
// idempotency key: repeating a completed request returns the original
// receipt instead of selling again.
//
// Failure contract: validation errors and insufficient stock are
// terminal and release the request id. Conflicts are retried up to the
// configured bound before escaping as port.ErrConflict with nothing
// committed. Once the decrement has committed, any later failure is a
// terminal UnavailableError carrying the applied lines, and the
// request id stays claimed so a blind retry cannot decrement twice.
func (e *SaleTransactionEngine) Sell(ctx context.Context, ownerID, requestID string, lines []domain.SaleLine) (*domain.Receipt, error) {
	if requestID == "" {
		return nil, &domain.ValidationError{Reason: domain.ReasonMissingRequestID}
	}

	if receipt, ok, err := e.idem.GetReceipt(ctx, ownerID, requestID); err != nil {
		return nil, &UnavailableError{Step: "idempotency", Err: err}
	} else if ok {
		e.log.Debug("replayed committed receipt",
			zap.String("owner_id", ownerID),
			zap.String("request_id", requestID),
			zap.Int64("number", receipt.Number))
		return receipt, nil
	}

	started, err := e.idem.SetInFlight(ctx, ownerID, requestID)
	if err != nil {
		return nil, &UnavailableError{Step: "idempotency", Err: err}
	}
	if !started {
		// The id was claimed between the lookup and the mark; if that
		// claim already committed, hand back its receipt.
		if receipt, ok, err := e.idem.GetReceipt(ctx, ownerID, requestID); err == nil && ok {
			return receipt, nil
		}
		return nil, ErrDuplicateRequest
	}

	resolved, err := e.decrementWithRetry(ctx, ownerID, lines)
	if err != nil {
		// Nothing committed yet, the caller may retry with the same id.
		e.release(ctx, ownerID, requestID)
		return nil, err
	}

	number, err := e.allocator.NextNumber(ctx, ownerID)
	if err != nil {
		e.log.Error("receipt allocation failed after committed decrement",
			zap.String("owner_id", ownerID),
			zap.String("request_id", requestID),
			zap.Error(err))
		return nil, &UnavailableError{Step: "allocate", Applied: resolved, Err: err}
	}

	receipt := buildReceipt(ownerID, number, resolved)
	if err := e.receipts.SaveReceipt(ctx, receipt); err != nil {
		e.log.Error("receipt persistence failed after committed decrement",
			zap.String("owner_id", ownerID),
			zap.Int64("number", number),
			zap.Error(err))
		return nil, &UnavailableError{Step: "persist", Applied: resolved, Err: err}
	}

	if err := e.idem.CacheReceipt(ctx, ownerID, requestID, receipt); err != nil {
		// The sale is committed and numbered; losing the cache entry
		// only weakens replay, so log and move on.
		e.log.Warn("failed to cache receipt for request replay",
			zap.String("request_id", requestID), zap.Error(err))
	}

	select {
	case e.committed <- *receipt:
	default:
		e.log.Warn("render queue full, skipping artifact",
			zap.String("owner_id", ownerID), zap.Int64("number", number))
	}

	e.log.Info("sale committed",
		zap.String("owner_id", ownerID),
		zap.Int64("number", number),
		zap.Int("lines", len(receipt.Lines)),
		zap.String("grand_total", receipt.GrandTotal.String()))
	return receipt, nil
}

// decrementWithRetry runs the Validating -> Decrementing stages,
// looping back from a conflict to a fresh validation until the attempt
// bound is spent. Snapshots are re-read on every attempt so receipt
// prices always match the state the decrement committed against.
func (e *SaleTransactionEngine) decrementWithRetry(ctx context.Context, ownerID string, lines []domain.SaleLine) ([]domain.ResolvedLine, error) {
	var resolved []domain.ResolvedLine
	attempt := 0

	op := func() error {
		attempt++

		r, err := e.validator.Validate(ctx, ownerID, lines)
		if err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				return backoff.Permanent(err)
			}
			return backoff.Permanent(&UnavailableError{Step: "snapshot", Err: err})
		}

		if _, err := e.mutator.ApplyDecrements(ctx, r); err != nil {
			if errors.Is(err, port.ErrConflict) {
				e.log.Debug("decrement conflict, retrying sale",
					zap.String("owner_id", ownerID), zap.Int("attempt", attempt))
				return err
			}
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				return backoff.Permanent(err)
			}
			return backoff.Permanent(&UnavailableError{Step: "decrement", Err: err})
		}

		resolved = r
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.cfg.InitialBackoff
	bo.MaxInterval = e.cfg.MaxBackoff

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, e.cfg.MaxAttempts-1), ctx))
	if err != nil {
		if errors.Is(err, port.ErrConflict) {
			return nil, fmt.Errorf("sale aborted after %d attempts: %w", attempt, port.ErrConflict)
		}
		return nil, err
	}
	return resolved, nil
}

func (e *SaleTransactionEngine) release(ctx context.Context, ownerID, requestID string) {
	if err := e.idem.Release(ctx, ownerID, requestID); err != nil {
		e.log.Warn("failed to release request id",
			zap.String("request_id", requestID), zap.Error(err))
	}
}

// Committed exposes the stream of committed receipts for downstream
// rendering workers.
func (e *SaleTransactionEngine) Committed() <-chan domain.Receipt {
	return e.committed
}

// Close stops the committed stream. Callers must not Sell after Close.
func (e *SaleTransactionEngine) Close() {
	e.closeOnce.Do(func() { close(e.committed) })
}

func buildReceipt(ownerID string, number int64, resolved []domain.ResolvedLine) *domain.Receipt {
	lines := make([]domain.ReceiptLine, 0, len(resolved))
	grandTotal := decimal.Zero
	for _, r := range resolved {
		lines = append(lines, domain.ReceiptLine{
			ItemID:    r.ItemID,
			Name:      r.Name,
			UnitPrice: r.UnitPrice,
			Quantity:  r.Quantity,
			LineTotal: r.LineTotal,
		})
		grandTotal = grandTotal.Add(r.LineTotal)
	}
	return &domain.Receipt{
		ID:         uuid.New().String(),
		OwnerID:    ownerID,
		Number:     number,
		IssuedAt:   time.Now().UTC(),
		Lines:      lines,
		GrandTotal: grandTotal,
	}
}
