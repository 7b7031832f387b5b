package amortization

import (
	"github.com/aristath/dealerledger/internal/validation"
)

// Validate rejects parameters a user could not have meant: missing price or
// term, negative amounts or rate, an unknown frequency. It is meant for the
// request boundary; ComputePayment itself accepts anything.
func Validate(p LoanParameters) error {
	return validation.Struct(ErrInvalidLoanParameters, p)
}
