package domain

import "fmt"

// ValidationReason identifies why a sale request was rejected before
// any write happened. Validation failures are never retried.
type ValidationReason string

const (
	ReasonEmptyRequest      ValidationReason = "EMPTY_REQUEST"
	ReasonMissingRequestID  ValidationReason = "MISSING_REQUEST_ID"
	ReasonInvalidQuantity   ValidationReason = "INVALID_QUANTITY"
	ReasonDuplicateItem     ValidationReason = "DUPLICATE_ITEM"
	ReasonUnknownItem       ValidationReason = "UNKNOWN_ITEM"
	ReasonInsufficientStock ValidationReason = "INSUFFICIENT_STOCK"
)

// ValidationError reports a rejected sale request. ItemID is set for
// line-level reasons; Available and Requested are set for
// insufficient-stock rejections.
type ValidationError struct {
	Reason    ValidationReason
	ItemID    string
	Available int
	Requested int
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonEmptyRequest:
		return "sale request has no lines"
	case ReasonMissingRequestID:
		return "sale request has no request id"
	case ReasonInvalidQuantity:
		return fmt.Sprintf("invalid quantity %d for item %s", e.Requested, e.ItemID)
	case ReasonDuplicateItem:
		return fmt.Sprintf("item %s appears more than once", e.ItemID)
	case ReasonUnknownItem:
		return fmt.Sprintf("unknown item %s", e.ItemID)
	case ReasonInsufficientStock:
		return fmt.Sprintf("insufficient stock for item %s: available %d, requested %d",
			e.ItemID, e.Available, e.Requested)
	}
	return string(e.Reason)
}
