package accounts

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cleared-dev/ledger/internal/db"
	"github.com/cleared-dev/ledger/internal/model"
)

// NumberRange is an inclusive range of numeric account numbers.
type NumberRange struct {
	Min int
	Max int
}

// Reserved ranges for lazily created accounts. 2001 is general payables, so
// supplier liabilities start at 2002.
var (
	CustomerRange = NumberRange{Min: 1101, Max: 1199}
	SupplierRange = NumberRange{Min: 2002, Max: 2999}
	ExpenseRange  = NumberRange{Min: 5001, Max: 5999}
)

// TypeRange returns the default numbering range for an account type.
func TypeRange(t model.AccountType) NumberRange {
	switch t {
	case model.AccountTypeAsset:
		return NumberRange{Min: 1001, Max: 1999}
	case model.AccountTypeLiability:
		return NumberRange{Min: 2001, Max: 2999}
	case model.AccountTypeEquity:
		return NumberRange{Min: 3001, Max: 3999}
	case model.AccountTypeIncome:
		return NumberRange{Min: 4001, Max: 4999}
	default:
		return NumberRange{Min: 5001, Max: 5999}
	}
}

// Contains reports whether n falls in the range.
func (r NumberRange) Contains(n int) bool {
	return n >= r.Min && n <= r.Max
}

// Next returns one past the highest used number inside the range, or Min.
// Non-numeric account numbers are ignored.
func (r NumberRange) Next(used []string) (string, error) {
	next := r.Min
	for _, s := range used {
		n, err := strconv.Atoi(s)
		if err != nil || !r.Contains(n) {
			continue
		}
		if n+1 > next {
			next = n + 1
		}
	}
	if next > r.Max {
		return "", fmt.Errorf("%w: account number range %d-%d is exhausted", model.ErrConflict, r.Min, r.Max)
	}
	return strconv.Itoa(next), nil
}

// allocateNumber picks the next free number in r. It must run inside the
// transaction that inserts the account.
func allocateNumber(ctx context.Context, q db.Querier, r NumberRange) (string, error) {
	if err := q.Dialect().LockKey(ctx, q, fmt.Sprintf("account_number:%d-%d", r.Min, r.Max)); err != nil {
		return "", err
	}
	used, err := accountNumbers(ctx, q)
	if err != nil {
		return "", err
	}
	return r.Next(used)
}
