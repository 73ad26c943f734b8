package model

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeIncome    AccountType = "income"
	AccountTypeExpense   AccountType = "expense"
)

// AccountTypes lists every account type in statement order.
var AccountTypes = []AccountType{
	AccountTypeAsset,
	AccountTypeLiability,
	AccountTypeEquity,
	AccountTypeIncome,
	AccountTypeExpense,
}

// Valid reports whether t is one of the five account types.
func (t AccountType) Valid() bool {
	for _, at := range AccountTypes {
		if t == at {
			return true
		}
	}
	return false
}

// Side is one leg direction of an entry.
type Side int

const (
	SideDebit Side = iota
	SideCredit
)

func (s Side) String() string {
	if s == SideDebit {
		return "debit"
	}
	return "credit"
}

// MarshalText renders the side by name in YAML and JSON output.
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// NormalSide returns the side that increases an account of this type.
// Assets and expenses grow with debits; everything else grows with credits.
func (t AccountType) NormalSide() Side {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return SideDebit
	default:
		return SideCredit
	}
}

// Account represents a row in the chart of accounts.
type Account struct {
	ID            int64       `yaml:"id"`
	AccountNumber string      `yaml:"account_number"`
	Code          string      `yaml:"code"`
	Name          string      `yaml:"name"`
	Type          AccountType `yaml:"type"`
	IsCash        bool        `yaml:"is_cash"`
	IsBank        bool        `yaml:"is_bank"`
}

// IsLiquid reports whether the account holds cash or bank funds.
func (a Account) IsLiquid() bool {
	return a.IsCash || a.IsBank
}

// Well-known account codes used by the posting helpers.
const (
	CodeCash           = "ASSET.CASH"
	CodeBank           = "ASSET.BANK"
	CodeInventory      = "ASSET.INVENTORY"
	CodeReceivable     = "ASSET.ACCOUNTS_RECEIVABLE"
	CodePayable        = "LIABILITY.ACCOUNTS_PAYABLE"
	CodeCapital        = "EQUITY.CAPITAL"
	CodeOpeningBalance = "EQUITY.OPENING_BALANCE"
	CodeSales          = "INCOME.SALES"
	CodeCOGS           = "EXPENSE.COGS"
	CodeSalesDiscount  = "EXPENSE.SALES_DISCOUNT"
)
