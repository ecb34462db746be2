package service

import (
	"errors"
	"fmt"

	"github.com/rl1809/inventory-sale/internal/core/domain"
)

// ErrDuplicateRequest means the request id is already being processed
// or was already completed by a concurrent caller.
var ErrDuplicateRequest = errors.New("duplicate request")

// UnavailableError means storage failed or retries were exhausted at a
// specific step. When Applied is non-empty the stock decrement had
// already committed and needs manual reconciliation against the
// request; the engine never rolls a committed decrement back.
type UnavailableError struct {
	Step    string
	Applied []domain.ResolvedLine
	Err     error
}

func (e *UnavailableError) Error() string {
	if len(e.Applied) > 0 {
		return fmt.Sprintf("sale unavailable at %s step with %d decrements already committed: %v",
			e.Step, len(e.Applied), e.Err)
	}
	return fmt.Sprintf("sale unavailable at %s step: %v", e.Step, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }
