package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rl1809/inventory-sale/internal/core/domain"
	"github.com/rl1809/inventory-sale/internal/port"
)

// SaleValidator decides whether a sale request is admissible against
// current item snapshots. It performs no writes; the stock check here
// is advisory and is re-verified when the decrement commits.
type SaleValidator struct {
	items port.ItemStore
}

func NewSaleValidator(items port.ItemStore) *SaleValidator {
	return &SaleValidator{items: items}
}

// Validate resolves the requested lines against fresh snapshots. Lines
// referencing the same item twice are rejected: the intent is
// ambiguous and silently summing quantities would commit a total the
// caller never confirmed.
func (v *SaleValidator) Validate(ctx context.Context, ownerID string, lines []domain.SaleLine) ([]domain.ResolvedLine, error) {
	if len(lines) == 0 {
		return nil, &domain.ValidationError{Reason: domain.ReasonEmptyRequest}
	}

	seen := make(map[string]struct{}, len(lines))
	resolved := make([]domain.ResolvedLine, 0, len(lines))

	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, &domain.ValidationError{
				Reason:    domain.ReasonInvalidQuantity,
				ItemID:    line.ItemID,
				Requested: line.Quantity,
			}
		}
		if _, dup := seen[line.ItemID]; dup {
			return nil, &domain.ValidationError{
				Reason: domain.ReasonDuplicateItem,
				ItemID: line.ItemID,
			}
		}
		seen[line.ItemID] = struct{}{}

		snap, err := v.items.GetSnapshot(ctx, line.ItemID)
		if errors.Is(err, port.ErrNotFound) {
			return nil, &domain.ValidationError{
				Reason: domain.ReasonUnknownItem,
				ItemID: line.ItemID,
			}
		}
		if err != nil {
			return nil, fmt.Errorf("get snapshot for %s: %w", line.ItemID, err)
		}
		// An item owned by someone else is indistinguishable from a
		// missing one as far as this caller is concerned.
		if snap.OwnerID != ownerID {
			return nil, &domain.ValidationError{
				Reason: domain.ReasonUnknownItem,
				ItemID: line.ItemID,
			}
		}
		if line.Quantity > snap.Quantity {
			return nil, &domain.ValidationError{
				Reason:    domain.ReasonInsufficientStock,
				ItemID:    line.ItemID,
				Available: snap.Quantity,
				Requested: line.Quantity,
			}
		}

		resolved = append(resolved, domain.ResolvedLine{
			ItemID:    snap.ItemID,
			Name:      snap.Name,
			UnitPrice: snap.SellerPrice,
			Quantity:  line.Quantity,
			LineTotal: snap.SellerPrice.Mul(decimal.NewFromInt(int64(line.Quantity))),
			Available: snap.Quantity,
			Revision:  snap.Revision,
		})
	}

	return resolved, nil
}
