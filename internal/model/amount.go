package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tolerance is the largest debit/credit gap still treated as balanced.
var Tolerance = decimal.New(1, -2)

// IsBalanced reports whether |debit - credit| < Tolerance.
func IsBalanced(debit, credit decimal.Decimal) bool {
	return debit.Sub(credit).Abs().LessThan(Tolerance)
}

// IsMaterial reports whether an imbalance exceeds Tolerance.
func IsMaterial(diff decimal.Decimal) bool {
	return diff.Abs().GreaterThan(Tolerance)
}

// SignedBalance converts debit/credit totals into a balance for an account of
// type t: debit-normal accounts report debit-credit, the rest credit-debit.
func SignedBalance(t AccountType, debit, credit decimal.Decimal) decimal.Decimal {
	if t.NormalSide() == SideDebit {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}

// ToCents converts an amount to integer minor units, rounding to 2 places.
func ToCents(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}

// FromCents converts integer minor units back to an amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// HasAtMostTwoDecimals reports whether d is representable in cents.
func HasAtMostTwoDecimals(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the exclusive upper bound of t's day, i.e. the next
// midnight UTC. "As of D" means created_at < EndOfDay(D).
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1)
}
