package accounts

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cleared-dev/ledger/internal/model"
)

func TestClassifyCode(t *testing.T) {
	tests := []struct {
		code        string
		accountType model.AccountType
		want        Liquidity
	}{
		{"ASSET.CASH", model.AccountTypeAsset, LiquidityCash},
		{"ASSET.PETTY_CASH", model.AccountTypeAsset, LiquidityCash},
		{"ASSET.BANK_IBBL", model.AccountTypeAsset, LiquidityBank},
		{"asset.bank-dbbl", model.AccountTypeAsset, LiquidityBank},
		{"ASSET.CASHBACK_RESERVE", model.AccountTypeAsset, LiquidityNone},
		{"ASSET.INVENTORY", model.AccountTypeAsset, LiquidityNone},
		{"EXPENSE.BANK_CHARGES", model.AccountTypeExpense, LiquidityNone},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyCode(tt.code, tt.accountType), "ClassifyCode(%q)", tt.code)
	}
}

func TestFilterFromFlags(t *testing.T) {
	yes, no := true, false
	tests := []struct {
		isCash, isBank *bool
		want           LiquidityFilter
	}{
		{nil, nil, AnyLiquidity},
		{&yes, &yes, CashOrBank},
		{&yes, nil, CashOnly},
		{&yes, &no, CashOnly},
		{nil, &yes, BankOnly},
		{&no, &yes, BankOnly},
		{&no, &no, NonLiquid},
		{&no, nil, NotCash},
		{nil, &no, NotBank},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FilterFromFlags(tt.isCash, tt.isBank))
	}
}

func TestLiquidityFilterOrder(t *testing.T) {
	assert.Equal(t, "a.code ASC", CashOrBank.OrderBy())
	assert.Equal(t, "a.account_number ASC", CashOnly.OrderBy())

	where, args := AnyLiquidity.Where()
	assert.Empty(t, where)
	assert.Empty(t, args)
}
