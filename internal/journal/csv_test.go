package journal

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledger/internal/model"
)

func TestRowRoundTrip(t *testing.T) {
	row := Row{
		TransactionID: 3,
		CreatedAt:     time.Date(2024, 5, 2, 8, 30, 0, 1000, time.UTC),
		ReferenceType: model.RefSale,
		ReferenceID:   11,
		Leg:           Leg{AccountCode: model.CodeCash, Debit: dec("12.50"), Narration: "sale, counter 2"},
	}

	rec := MarshalRow(row)
	assert.Equal(t, "12.50", rec[colDebit])
	assert.Empty(t, rec[colCredit])

	got, err := UnmarshalRow(rec)
	require.NoError(t, err)
	assert.Equal(t, row.TransactionID, got.TransactionID)
	assert.True(t, row.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, row.ReferenceID, got.ReferenceID)
	assert.Equal(t, row.Leg.Narration, got.Leg.Narration)
	assert.True(t, got.Leg.Debit.Equal(dec("12.5")))
	assert.True(t, got.Leg.Credit.IsZero())
}

func TestUnmarshalRow_Errors(t *testing.T) {
	_, err := UnmarshalRow([]string{"1"})
	assert.Error(t, err)

	_, err = UnmarshalRow([]string{"x", "2024-01-01T00:00:00Z", "sale", "1", "ASSET.CASH", "1", "", ""})
	assert.ErrorContains(t, err, "transaction_id")

	_, err = UnmarshalRow([]string{"1", "yesterday", "sale", "1", "ASSET.CASH", "1", "", ""})
	assert.ErrorContains(t, err, "created_at")

	_, err = UnmarshalRow([]string{"1", "2024-01-01T00:00:00Z", "sale", "1", "ASSET.CASH", "abc", "", ""})
	assert.ErrorContains(t, err, "debit")
}

func TestGroupRows(t *testing.T) {
	rows := []Row{
		{TransactionID: 1, ReferenceType: "a", Leg: Leg{AccountCode: "X"}},
		{TransactionID: 1, ReferenceType: "a", Leg: Leg{AccountCode: "Y"}},
		{TransactionID: 2, ReferenceType: "b", Leg: Leg{AccountCode: "Z"}},
	}
	got := GroupRows(rows)
	require.Len(t, got, 2)
	assert.Len(t, got[0].Legs, 2)
	assert.Equal(t, "b", got[1].ReferenceType)
}

func TestExportImport(t *testing.T) {
	src := newFixture(t, true)
	ctx := context.Background()

	_, err := src.journal.AddCash(ctx, dec("100"), "float")
	require.NoError(t, err)
	_, err = src.journal.TransferFunds(ctx, model.CodeCash, model.CodeBank, dec("40"), "deposit")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, src.journal.ExportCSV(ctx, &buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, Header, lines[0])
	assert.Len(t, lines, 5)

	dst := newFixture(t, true)
	n, err := dst.journal.ImportCSV(ctx, strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	want, err := src.journal.List(ctx, ListParams{})
	require.NoError(t, err)
	got, err := dst.journal.List(ctx, ListParams{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i := range want {
		assert.Equal(t, want[i].ReferenceType, got[i].ReferenceType)
		assert.Equal(t, want[i].ReferenceID, got[i].ReferenceID)
		assert.True(t, want[i].CreatedAt.Equal(got[i].CreatedAt))
		assert.Len(t, got[i].Entries, len(want[i].Entries))
	}
}

func TestImportCSV_RejectsUnbalanced(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	in := Header + "\n" +
		"1,2024-01-01T00:00:00Z,manual_journal,0,ASSET.CASH,10.00,,\n" +
		"1,2024-01-01T00:00:00Z,manual_journal,0,INCOME.SALES,,10.00,\n" +
		"2,2024-01-02T00:00:00Z,manual_journal,0,ASSET.CASH,5.00,,\n" +
		"2,2024-01-02T00:00:00Z,manual_journal,0,INCOME.SALES,,4.00,\n"

	_, err := f.journal.ImportCSV(ctx, strings.NewReader(in))
	require.ErrorIs(t, err, model.ErrUnbalanced)

	txns, err := f.journal.List(ctx, ListParams{})
	require.NoError(t, err)
	assert.Empty(t, txns)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteTransactions_ReportsFlushError(t *testing.T) {
	txns := []model.Transaction{{
		ID:            1,
		ReferenceType: model.RefCashAddition,
		ReferenceID:   1,
		CreatedAt:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Entries: []model.Entry{
			{Account: &model.Account{Code: model.CodeCash}, Debit: dec("5")},
			{Account: &model.Account{Code: model.CodeCapital}, Credit: dec("5")},
		},
	}}

	err := WriteTransactions(failingWriter{}, txns)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
