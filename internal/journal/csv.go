package journal

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledger/internal/db"
	"github.com/cleared-dev/ledger/internal/model"
)

// Header is the CSV header of a journal export. One row per entry.
const Header = "transaction_id,created_at,reference_type,reference_id,account_code,debit,credit,narration"

const (
	numFields  = 8
	colTxnID   = 0
	colCreated = 1
	colRefType = 2
	colRefID   = 3
	colAccount = 4
	colDebit   = 5
	colCredit  = 6
	colNarr    = 7
)

// Row is one journal entry in its exported form.
type Row struct {
	TransactionID int64
	CreatedAt     time.Time
	ReferenceType string
	ReferenceID   int64
	Leg           Leg
}

// WriteTransactions writes txns to w (including header).
func WriteTransactions(w io.Writer, txns []model.Transaction) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	line := 1
	for _, txn := range txns {
		for _, e := range txn.Entries {
			line++
			if err := cw.Write(MarshalRow(rowOf(txn, e))); err != nil {
				return fmt.Errorf("writing row %d: %w", line, err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func rowOf(txn model.Transaction, e model.Entry) Row {
	code := ""
	if e.Account != nil {
		code = e.Account.Code
	}
	return Row{
		TransactionID: txn.ID,
		CreatedAt:     txn.CreatedAt,
		ReferenceType: txn.ReferenceType,
		ReferenceID:   txn.ReferenceID,
		Leg: Leg{
			AccountCode: code,
			Debit:       e.Debit,
			Credit:      e.Credit,
			Narration:   e.Narration,
		},
	}
}

// MarshalRow converts a Row to a CSV record.
func MarshalRow(r Row) []string {
	rec := make([]string, numFields)
	rec[colTxnID] = strconv.FormatInt(r.TransactionID, 10)
	rec[colCreated] = r.CreatedAt.UTC().Format(time.RFC3339Nano)
	rec[colRefType] = r.ReferenceType
	rec[colRefID] = strconv.FormatInt(r.ReferenceID, 10)
	rec[colAccount] = r.Leg.AccountCode
	if !r.Leg.Debit.IsZero() {
		rec[colDebit] = r.Leg.Debit.StringFixed(2)
	}
	if !r.Leg.Credit.IsZero() {
		rec[colCredit] = r.Leg.Credit.StringFixed(2)
	}
	rec[colNarr] = r.Leg.Narration
	return rec
}

// UnmarshalRow converts a CSV record to a Row.
func UnmarshalRow(rec []string) (Row, error) {
	if len(rec) != numFields {
		return Row{}, fmt.Errorf("expected %d fields, got %d", numFields, len(rec))
	}

	txnID, err := strconv.ParseInt(rec[colTxnID], 10, 64)
	if err != nil {
		return Row{}, fmt.Errorf("parsing transaction_id %q: %w", rec[colTxnID], err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, rec[colCreated])
	if err != nil {
		return Row{}, fmt.Errorf("parsing created_at %q: %w", rec[colCreated], err)
	}
	var refID int64
	if rec[colRefID] != "" {
		refID, err = strconv.ParseInt(rec[colRefID], 10, 64)
		if err != nil {
			return Row{}, fmt.Errorf("parsing reference_id %q: %w", rec[colRefID], err)
		}
	}

	var debit, credit decimal.Decimal
	if rec[colDebit] != "" {
		debit, err = decimal.NewFromString(rec[colDebit])
		if err != nil {
			return Row{}, fmt.Errorf("parsing debit %q: %w", rec[colDebit], err)
		}
	}
	if rec[colCredit] != "" {
		credit, err = decimal.NewFromString(rec[colCredit])
		if err != nil {
			return Row{}, fmt.Errorf("parsing credit %q: %w", rec[colCredit], err)
		}
	}

	return Row{
		TransactionID: txnID,
		CreatedAt:     createdAt.UTC(),
		ReferenceType: rec[colRefType],
		ReferenceID:   refID,
		Leg: Leg{
			AccountCode: rec[colAccount],
			Debit:       debit,
			Credit:      credit,
			Narration:   rec[colNarr],
		},
	}, nil
}

// ReadRows reads all rows from a journal export.
func ReadRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading journal CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	rows := make([]Row, 0, len(records)-1)
	for i, rec := range records[1:] {
		row, err := UnmarshalRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// GroupRows folds consecutive rows sharing a transaction_id into postings.
func GroupRows(rows []Row) []PostParams {
	var out []PostParams
	var current int64
	for i, r := range rows {
		if i == 0 || r.TransactionID != current {
			current = r.TransactionID
			out = append(out, PostParams{
				ReferenceType: r.ReferenceType,
				ReferenceID:   r.ReferenceID,
				CreatedAt:     r.CreatedAt,
			})
		}
		last := &out[len(out)-1]
		last.Legs = append(last.Legs, r.Leg)
	}
	return out
}

// ExportCSV writes every transaction to w.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	txns, err := s.List(ctx, ListParams{})
	if err != nil {
		return err
	}
	return WriteTransactions(w, txns)
}

// ImportCSV posts every transaction in r, keeping original timestamps and
// references. Each must balance exactly; nothing is written if any fails.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (int, error) {
	rows, err := ReadRows(r)
	if err != nil {
		return 0, err
	}
	postings := GroupRows(rows)
	for i, p := range postings {
		if err := checkVoucher(p.Legs); err != nil {
			return 0, fmt.Errorf("transaction %d: %w", i+1, err)
		}
	}

	var posted []model.Transaction
	err = s.conn.Transaction(ctx, func(tx *db.Tx) error {
		for i, p := range postings {
			txn, err := s.post(ctx, tx, p)
			if err != nil {
				return fmt.Errorf("transaction %d: %w", i+1, err)
			}
			posted = append(posted, txn)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	for _, txn := range posted {
		s.logPosted(txn)
	}
	return len(posted), nil
}
