package accounts

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledger/internal/db/dbtest"
	"github.com/cleared-dev/ledger/internal/model"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(dbtest.Open(t), zerolog.Nop())
}

func boolPtr(b bool) *bool { return &b }

func TestCreate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	acct, err := svc.Create(ctx, CreateParams{
		Code:          "ASSET.BANK_IBBL",
		Name:          "IBBL Bank",
		AccountNumber: "1010",
		Type:          model.AccountTypeAsset,
	})
	require.NoError(t, err)
	assert.NotZero(t, acct.ID)
	assert.True(t, acct.IsBank, "bank flag inferred from code")
	assert.False(t, acct.IsCash)

	got, err := svc.Get(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, acct, got)
}

func TestCreate_Conflicts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateParams{Code: "ASSET.CASH", Name: "Cash", AccountNumber: "1001", Type: model.AccountTypeAsset})
	require.NoError(t, err)

	tests := []struct {
		name   string
		params CreateParams
	}{
		{"same code", CreateParams{Code: "ASSET.CASH", Name: "Other", AccountNumber: "1009", Type: model.AccountTypeAsset}},
		{"same name", CreateParams{Code: "ASSET.OTHER", Name: "Cash", AccountNumber: "1009", Type: model.AccountTypeAsset}},
		{"same number", CreateParams{Code: "ASSET.OTHER", Name: "Other", AccountNumber: "1001", Type: model.AccountTypeAsset}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.params)
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrConflict)
		})
	}
}

func TestCreate_InvalidArguments(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateParams{
		Code: "ASSET.WALLET", Name: "Wallet", AccountNumber: "1005", Type: model.AccountTypeAsset,
		IsCash: boolPtr(true), IsBank: boolPtr(true),
	})
	assert.ErrorIs(t, err, model.ErrInvalidArgument)

	_, err = svc.Create(ctx, CreateParams{Code: "X", Name: "X", AccountNumber: "1", Type: "revenue"})
	assert.ErrorIs(t, err, model.ErrInvalidArgument)

	_, err = svc.Create(ctx, CreateParams{Name: "X", AccountNumber: "1", Type: model.AccountTypeAsset})
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

func TestCreate_ExplicitFlagsOverrideInference(t *testing.T) {
	svc := newTestService(t)

	acct, err := svc.Create(context.Background(), CreateParams{
		Code: "ASSET.CASH_IN_TRANSIT", Name: "Cash in transit", AccountNumber: "1020", Type: model.AccountTypeAsset,
		IsCash: boolPtr(false),
	})
	require.NoError(t, err)
	assert.False(t, acct.IsCash)
	assert.False(t, acct.IsBank)
}

func TestFindByCode(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	missing, err := svc.FindByCode(ctx, "ASSET.NOPE")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = svc.EnsureBasicAccounts(ctx)
	require.NoError(t, err)

	cash, err := svc.FindByCode(ctx, model.CodeCash)
	require.NoError(t, err)
	require.NotNil(t, cash)
	assert.Equal(t, "1001", cash.AccountNumber)
	assert.True(t, cash.IsCash)
}

func TestGet_NotFound(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Get(context.Background(), 42)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestUpdate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.EnsureBasicAccounts(ctx)
	require.NoError(t, err)
	inv, err := svc.FindByCode(ctx, model.CodeInventory)
	require.NoError(t, err)
	require.NotNil(t, inv)

	name := "Stock on hand"
	updated, err := svc.Update(ctx, inv.ID, Patch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Stock on hand", updated.Name)
	assert.Equal(t, model.CodeInventory, updated.Code)

	cashName := "Cash"
	_, err = svc.Update(ctx, inv.ID, Patch{Name: &cashName})
	assert.ErrorIs(t, err, model.ErrConflict)

	_, err = svc.Update(ctx, inv.ID, Patch{IsCash: boolPtr(true), IsBank: boolPtr(true)})
	assert.ErrorIs(t, err, model.ErrInvalidArgument)

	_, err = svc.Update(ctx, 9999, Patch{Name: &name})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRemove(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	acct, err := svc.Create(ctx, CreateParams{Code: "EXPENSE.TEMP", Name: "Temp", AccountNumber: "5900", Type: model.AccountTypeExpense})
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, acct.ID))
	_, err = svc.Get(ctx, acct.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	assert.ErrorIs(t, svc.Remove(ctx, acct.ID), model.ErrNotFound)
}

func TestRemove_WithEntries(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(conn, zerolog.Nop())
	ctx := context.Background()

	acct, err := svc.Create(ctx, CreateParams{Code: "ASSET.CASH", Name: "Cash", AccountNumber: "1001", Type: model.AccountTypeAsset})
	require.NoError(t, err)

	var txID int64
	require.NoError(t, conn.QueryRowContext(ctx,
		`INSERT INTO ledger_transactions (reference_type, reference_id, created_at) VALUES ('test', 0, CURRENT_TIMESTAMP) RETURNING id`).Scan(&txID))
	_, err = conn.ExecContext(ctx, `INSERT INTO ledger_entries (transaction_id, account_id, debit, credit) VALUES (?, ?, 100, 0)`, txID, acct.ID)
	require.NoError(t, err)

	err = svc.Remove(ctx, acct.ID)
	assert.ErrorIs(t, err, model.ErrConflict)
}

func TestList(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.EnsureBasicAccounts(ctx)
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateParams{Code: "ASSET.BANK_IBBL", Name: "IBBL", AccountNumber: "1010", Type: model.AccountTypeAsset})
	require.NoError(t, err)

	all, err := svc.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, len(BasicChart())+1)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].AccountNumber, all[i].AccountNumber, "ordered by account number")
	}

	liquid, err := svc.List(ctx, Filter{Liquidity: FilterFromFlags(boolPtr(true), boolPtr(true))})
	require.NoError(t, err)
	codes := make([]string, len(liquid))
	for i, a := range liquid {
		codes[i] = a.Code
	}
	assert.Equal(t, []string{"ASSET.BANK", "ASSET.BANK_IBBL", "ASSET.CASH"}, codes, "cash OR bank, ordered by code")

	banks, err := svc.List(ctx, Filter{Liquidity: BankOnly})
	require.NoError(t, err)
	assert.Len(t, banks, 2)

	expense := model.AccountTypeExpense
	expenses, err := svc.List(ctx, Filter{Type: &expense})
	require.NoError(t, err)
	assert.Len(t, expenses, 2)

	nonLiquid, err := svc.List(ctx, Filter{Liquidity: NonLiquid})
	require.NoError(t, err)
	assert.Len(t, nonLiquid, len(all)-3)
}

func TestEnsureBasicAccounts_Idempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.EnsureBasicAccounts(ctx)
	require.NoError(t, err)
	assert.Len(t, created, len(BasicChart()))

	created, err = svc.EnsureBasicAccounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, created, "second run creates nothing")

	all, err := svc.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, len(BasicChart()))
}

func TestEnsureBasicAccounts_NumberTaken(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateParams{Code: "ASSET.SAFE", Name: "Safe", AccountNumber: "1001", Type: model.AccountTypeAsset})
	require.NoError(t, err)

	_, err = svc.EnsureBasicAccounts(ctx)
	require.NoError(t, err)

	cash, err := svc.FindByCode(ctx, model.CodeCash)
	require.NoError(t, err)
	require.NotNil(t, cash)
	assert.NotEqual(t, "1001", cash.AccountNumber)
}

func TestAutoCreateExpenseAccount(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.EnsureBasicAccounts(ctx)
	require.NoError(t, err)

	rent, err := svc.AutoCreateExpenseAccount(ctx, "EXPENSE.RENT", "Rent")
	require.NoError(t, err)
	assert.Equal(t, "5003", rent.AccountNumber, "after COGS 5001 and discount 5002")
	assert.Equal(t, model.AccountTypeExpense, rent.Type)

	again, err := svc.AutoCreateExpenseAccount(ctx, "EXPENSE.RENT", "Rent")
	require.NoError(t, err)
	assert.Equal(t, rent.ID, again.ID)

	power, err := svc.AutoCreateExpenseAccount(ctx, "EXPENSE.POWER", "Power")
	require.NoError(t, err)
	assert.Equal(t, "5004", power.AccountNumber)
}

func TestGetOrCreateSupplierAccount(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.EnsureBasicAccounts(ctx)
	require.NoError(t, err)

	first, err := svc.GetOrCreateSupplierAccount(ctx, 7, "Acme")
	require.NoError(t, err)
	assert.Equal(t, "2002", first.AccountNumber, "2001 is reserved for general payables")
	assert.Equal(t, "LIABILITY.SUPPLIER.7", first.Code)
	assert.Equal(t, model.AccountTypeLiability, first.Type)

	second, err := svc.GetOrCreateSupplierAccount(ctx, 8, "Globex")
	require.NoError(t, err)
	assert.Equal(t, "2003", second.AccountNumber)

	again, err := svc.GetOrCreateSupplierAccount(ctx, 7, "Acme")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
}

func TestGetOrCreateCustomerAccount(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	acct, err := svc.GetOrCreateCustomerAccount(ctx, 3, "Initech")
	require.NoError(t, err)
	assert.Equal(t, "1101", acct.AccountNumber)
	assert.Equal(t, "ASSET.RECEIVABLE.3", acct.Code)
	assert.False(t, acct.IsLiquid())
}

func TestNumberRangeNext(t *testing.T) {
	r := NumberRange{Min: 5001, Max: 5003}

	next, err := r.Next(nil)
	require.NoError(t, err)
	assert.Equal(t, "5001", next)

	next, err = r.Next([]string{"1001", "5001", "abc", "5002"})
	require.NoError(t, err)
	assert.Equal(t, "5003", next)

	_, err = r.Next([]string{"5003"})
	assert.ErrorIs(t, err, model.ErrConflict, "range exhausted")
}
