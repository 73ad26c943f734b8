package journal

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledger/internal/model"
)

// ValidationError describes a single problem with a posting leg.
type ValidationError struct {
	Line        int // 1-based; 0 for whole-posting problems
	AccountCode string
	Description string
}

func (e ValidationError) Error() string {
	if e.Line == 0 {
		return e.Description
	}
	return fmt.Sprintf("line %d [%s]: %s", e.Line, e.AccountCode, e.Description)
}

// ValidateLegs checks every leg for an account code, non-negative amounts and
// at most 2 decimal places.
func ValidateLegs(legs []Leg) []ValidationError {
	var errs []ValidationError
	for i, leg := range legs {
		line := i + 1
		if leg.AccountCode == "" {
			errs = append(errs, ValidationError{Line: line, Description: "missing account code"})
		}
		if leg.Debit.IsNegative() {
			errs = append(errs, ValidationError{Line: line, AccountCode: leg.AccountCode,
				Description: fmt.Sprintf("debit %s is negative", leg.Debit)})
		}
		if leg.Credit.IsNegative() {
			errs = append(errs, ValidationError{Line: line, AccountCode: leg.AccountCode,
				Description: fmt.Sprintf("credit %s is negative", leg.Credit)})
		}
		if !model.HasAtMostTwoDecimals(leg.Debit) {
			errs = append(errs, ValidationError{Line: line, AccountCode: leg.AccountCode,
				Description: fmt.Sprintf("debit %s has more than 2 decimal places", leg.Debit)})
		}
		if !model.HasAtMostTwoDecimals(leg.Credit) {
			errs = append(errs, ValidationError{Line: line, AccountCode: leg.AccountCode,
				Description: fmt.Sprintf("credit %s has more than 2 decimal places", leg.Credit)})
		}
	}
	return errs
}

// ValidateBalance returns an error when total debits differ from total
// credits. The comparison is exact, with no tolerance.
func ValidateBalance(legs []Leg) *ValidationError {
	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, leg := range legs {
		totalDebit = totalDebit.Add(leg.Debit)
		totalCredit = totalCredit.Add(leg.Credit)
	}
	if totalDebit.Equal(totalCredit) {
		return nil
	}
	return &ValidationError{
		Description: fmt.Sprintf("debits (%s) != credits (%s)", totalDebit.StringFixed(2), totalCredit.StringFixed(2)),
	}
}
