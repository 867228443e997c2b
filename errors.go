package fx_pool_simulator

import (
	"errors"
	"fmt"
)

var (
	UPPER_HALT               = errors.New("UPPER_HALT")
	LOWER_HALT               = errors.New("LOWER_HALT")
	SWAP_INVARIANT_VIOLATION = errors.New("SWAP_INVARIANT_VIOLATION")
	SWAP_CONVERGENCE_FAILED  = errors.New("SWAP_CONVERGENCE_FAILED")
	DIVISION_BY_ZERO         = errors.New("DIVISION_BY_ZERO")
	NEGATIVE_RESERVE         = errors.New("NEGATIVE_RESERVE")
	CANNOT_SWAP              = errors.New("CANNOT_SWAP")
)

var mathErrors = []error{
	UPPER_HALT,
	LOWER_HALT,
	SWAP_INVARIANT_VIOLATION,
	SWAP_CONVERGENCE_FAILED,
	DIVISION_BY_ZERO,
	NEGATIVE_RESERVE,
	CANNOT_SWAP,
}

// IsMathError reports whether err is a curve-domain failure. The quote facade
// absorbs these into a zero result so one broken pool cannot abort a route
// search; everything else propagates.
func IsMathError(err error) bool {
	for _, e := range mathErrors {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// StructuralError marks a pool or pair that is not eligible for quoting at
// all: unknown member token, missing oracle data or missing curve parameter.
// Unlike math errors it is never converted to a zero quote.
type StructuralError struct {
	Reason string
}

func (e *StructuralError) Error() string {
	return "structural: " + e.Reason
}

func structuralf(format string, args ...interface{}) *StructuralError {
	return &StructuralError{Reason: fmt.Sprintf(format, args...)}
}
