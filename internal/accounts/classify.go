package accounts

import (
	"strings"

	"github.com/cleared-dev/ledger/internal/model"
)

// Liquidity classifies an account as cash, bank, or neither.
type Liquidity int

const (
	LiquidityNone Liquidity = iota
	LiquidityCash
	LiquidityBank
)

func (l Liquidity) String() string {
	switch l {
	case LiquidityCash:
		return "cash"
	case LiquidityBank:
		return "bank"
	default:
		return "none"
	}
}

// ClassifyCode derives liquidity from an account code when the caller did not
// declare it. Only asset accounts qualify, and only when one of the code's
// segments (split on ".", "_" and "-") is exactly CASH or BANK, so
// ASSET.PETTY_CASH is cash but ASSET.CASHBACK_RESERVE is not. The first
// matching segment wins.
func ClassifyCode(code string, accountType model.AccountType) Liquidity {
	if accountType != model.AccountTypeAsset {
		return LiquidityNone
	}
	segments := strings.FieldsFunc(strings.ToUpper(code), func(r rune) bool {
		return r == '.' || r == '_' || r == '-'
	})
	for _, seg := range segments {
		switch seg {
		case "CASH":
			return LiquidityCash
		case "BANK":
			return LiquidityBank
		}
	}
	return LiquidityNone
}

// LiquidityFilter selects accounts by their cash/bank flags.
type LiquidityFilter int

const (
	AnyLiquidity LiquidityFilter = iota
	CashOnly
	BankOnly
	CashOrBank
	NonLiquid
	NotCash
	NotBank
)

// FilterFromFlags maps the optional isCash/isBank pair used by callers onto a
// LiquidityFilter:
//
//	isCash  isBank  filter
//	nil     nil     AnyLiquidity
//	true    true    CashOrBank (OR, not AND)
//	true    -       CashOnly
//	-       true    BankOnly
//	false   false   NonLiquid
//	false   nil     NotCash
//	nil     false   NotBank
func FilterFromFlags(isCash, isBank *bool) LiquidityFilter {
	cashTrue := isCash != nil && *isCash
	bankTrue := isBank != nil && *isBank
	switch {
	case cashTrue && bankTrue:
		return CashOrBank
	case cashTrue:
		return CashOnly
	case bankTrue:
		return BankOnly
	case isCash != nil && isBank != nil:
		return NonLiquid
	case isCash != nil:
		return NotCash
	case isBank != nil:
		return NotBank
	default:
		return AnyLiquidity
	}
}

// Where returns the SQL condition (against alias a) and its arguments.
// An empty condition matches every account.
func (f LiquidityFilter) Where() (string, []any) {
	switch f {
	case CashOnly:
		return "a.is_cash = ?", []any{true}
	case BankOnly:
		return "a.is_bank = ?", []any{true}
	case CashOrBank:
		return "(a.is_cash = ? OR a.is_bank = ?)", []any{true, true}
	case NonLiquid:
		return "a.is_cash = ? AND a.is_bank = ?", []any{false, false}
	case NotCash:
		return "a.is_cash = ?", []any{false}
	case NotBank:
		return "a.is_bank = ?", []any{false}
	default:
		return "", nil
	}
}

// OrderBy returns the ORDER BY column list for the filter. The combined
// cash-or-bank listing is ordered by code; everything else by number.
func (f LiquidityFilter) OrderBy() string {
	if f == CashOrBank {
		return "a.code ASC"
	}
	return "a.account_number ASC"
}
