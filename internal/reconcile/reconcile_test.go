package reconcile

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledger/internal/accounts"
	"github.com/cleared-dev/ledger/internal/db/dbtest"
	"github.com/cleared-dev/ledger/internal/journal"
	"github.com/cleared-dev/ledger/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	svc     *Service
	journal *journal.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	accts := accounts.NewService(conn, zerolog.Nop())
	_, err := accts.EnsureBasicAccounts(context.Background())
	require.NoError(t, err)
	return fixture{
		svc:     NewService(conn, zerolog.Nop()),
		journal: journal.NewService(conn, accts, zerolog.Nop()),
	}
}

func (f fixture) post(t *testing.T, refType string, legs ...journal.Leg) model.Transaction {
	t.Helper()
	txn, err := f.journal.Post(context.Background(), journal.PostParams{ReferenceType: refType, ReferenceID: 1, Legs: legs})
	require.NoError(t, err)
	return txn
}

func TestFindUnbalanced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.journal.AddCash(ctx, dec("500"), "")
	require.NoError(t, err)
	bad := f.post(t, model.RefManualJournal,
		journal.Leg{AccountCode: model.CodeCash, Debit: dec("100")},
		journal.Leg{AccountCode: model.CodeSales, Credit: dec("80")},
	)
	f.post(t, model.RefManualJournal,
		journal.Leg{AccountCode: model.CodeCash, Debit: dec("10.01")},
		journal.Leg{AccountCode: model.CodeSales, Credit: dec("10")},
	)

	report, err := f.svc.FindUnbalanced(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalTransactions)
	assert.Equal(t, 1, report.UnbalancedCount, "a one-cent gap is within tolerance")
	require.Len(t, report.Unbalanced, 1)

	finding := report.Unbalanced[0]
	assert.Equal(t, bad.ID, finding.TransactionID)
	assert.True(t, finding.Difference.Equal(dec("20")))
	assert.True(t, finding.TotalDebit.Equal(dec("100")))
	assert.True(t, finding.TotalCredit.Equal(dec("80")))
	require.Len(t, finding.Entries, 2)
	assert.Equal(t, model.CodeCash, finding.Entries[0].AccountCode)
	assert.Equal(t, "Cash", finding.Entries[0].AccountName)
}

func TestFindUnbalanced_Empty(t *testing.T) {
	f := newFixture(t)
	report, err := f.svc.FindUnbalanced(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.TotalTransactions)
	assert.Empty(t, report.Unbalanced)
}

func TestFix_Sale(t *testing.T) {
	tests := []struct {
		name           string
		cash, ar       string
		wantCash       string
		wantReceivable string
	}{
		{"receivable absorbs excess", "100", "30", "100", "0"},
		{"spills over to cash", "120", "10", "100", "0"},
		{"partial receivable", "80", "50", "80", "20"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			txn := f.post(t, model.RefSale,
				journal.Leg{AccountCode: model.CodeCash, Debit: dec(tt.cash)},
				journal.Leg{AccountCode: model.CodeReceivable, Debit: dec(tt.ar)},
				journal.Leg{AccountCode: model.CodeSalesDiscount, Debit: dec("10")},
				journal.Leg{AccountCode: model.CodeSales, Credit: dec("110")},
			)

			result, err := f.svc.Fix(ctx, txn.ID)
			require.NoError(t, err)
			assert.True(t, result.Before.Difference.Equal(dec("30")))
			assert.True(t, result.After.Difference.IsZero())
			assert.NotEmpty(t, result.Adjustments)

			stored, err := f.journal.Get(ctx, txn.ID)
			require.NoError(t, err)
			assert.True(t, stored.Entries[0].Debit.Equal(dec(tt.wantCash)), "cash %s", stored.Entries[0].Debit)
			assert.True(t, stored.Entries[1].Debit.Equal(dec(tt.wantReceivable)), "receivable %s", stored.Entries[1].Debit)

			_, err = f.svc.Fix(ctx, txn.ID)
			assert.ErrorIs(t, err, model.ErrAlreadyBalanced)
		})
	}
}

func TestFix_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Fix(ctx, 404)
	assert.ErrorIs(t, err, model.ErrNotFound)

	balanced := f.post(t, model.RefSale,
		journal.Leg{AccountCode: model.CodeCash, Debit: dec("10")},
		journal.Leg{AccountCode: model.CodeSales, Credit: dec("10")},
	)
	_, err = f.svc.Fix(ctx, balanced.ID)
	assert.ErrorIs(t, err, model.ErrAlreadyBalanced)

	manual := f.post(t, model.RefManualJournal,
		journal.Leg{AccountCode: model.CodeCash, Debit: dec("100")},
		journal.Leg{AccountCode: model.CodeSales, Credit: dec("80")},
	)
	_, err = f.svc.Fix(ctx, manual.ID)
	assert.ErrorIs(t, err, model.ErrUnsupportedRepair, "no reconciler for manual journals")

	noDiscount := f.post(t, model.RefSale,
		journal.Leg{AccountCode: model.CodeCash, Debit: dec("100")},
		journal.Leg{AccountCode: model.CodeSales, Credit: dec("80")},
	)
	_, err = f.svc.Fix(ctx, noDiscount.ID)
	assert.ErrorIs(t, err, model.ErrUnsupportedRepair)

	short := f.post(t, model.RefSale,
		journal.Leg{AccountCode: model.CodeCash, Debit: dec("50")},
		journal.Leg{AccountCode: model.CodeSalesDiscount, Debit: dec("10")},
		journal.Leg{AccountCode: model.CodeSales, Credit: dec("110")},
	)
	_, err = f.svc.Fix(ctx, short.ID)
	assert.ErrorIs(t, err, model.ErrUnsupportedRepair, "under-collection is not repaired")

	stored, err := f.journal.Get(ctx, short.ID)
	require.NoError(t, err)
	assert.True(t, stored.Entries[0].Debit.Equal(dec("50")), "failed repair writes nothing")
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.svc.Register(model.RefManualJournal, ReconcilerFunc(func(txn *model.Transaction) ([]Adjustment, error) {
		e := &txn.Entries[0]
		adj := Adjustment{EntryID: e.ID, AccountCode: e.Account.Code, Side: model.SideDebit, Before: e.Debit}
		e.Debit = txn.Entries[1].Credit
		adj.After = e.Debit
		return []Adjustment{adj}, nil
	}))

	txn := f.post(t, model.RefManualJournal,
		journal.Leg{AccountCode: model.CodeCash, Debit: dec("100")},
		journal.Leg{AccountCode: model.CodeSales, Credit: dec("80")},
	)
	result, err := f.svc.Fix(ctx, txn.ID)
	require.NoError(t, err)
	require.Len(t, result.Adjustments, 1)
	assert.True(t, result.Adjustments[0].After.Equal(dec("80")))

	report, err := f.svc.FindUnbalanced(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.UnbalancedCount)
}
