// Package reconcile finds transactions whose debits and credits disagree and
// repairs the shapes it understands.
package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledger/internal/db"
	"github.com/cleared-dev/ledger/internal/journal"
	"github.com/cleared-dev/ledger/internal/model"
)

// FindingEntry is one entry of an unbalanced transaction.
type FindingEntry struct {
	EntryID     int64           `yaml:"entry_id"`
	AccountCode string          `yaml:"account_code"`
	AccountName string          `yaml:"account_name"`
	Debit       decimal.Decimal `yaml:"debit"`
	Credit      decimal.Decimal `yaml:"credit"`
	Narration   string          `yaml:"narration,omitempty"`
}

// Finding describes an unbalanced transaction. Difference is debit - credit.
type Finding struct {
	TransactionID int64           `yaml:"transaction_id"`
	ReferenceType string          `yaml:"reference_type"`
	ReferenceID   int64           `yaml:"reference_id"`
	CreatedAt     time.Time       `yaml:"created_at"`
	Entries       []FindingEntry  `yaml:"entries"`
	TotalDebit    decimal.Decimal `yaml:"total_debit"`
	TotalCredit   decimal.Decimal `yaml:"total_credit"`
	Difference    decimal.Decimal `yaml:"difference"`
}

// Report is the result of a full scan.
type Report struct {
	TotalTransactions int       `yaml:"total_transactions"`
	UnbalancedCount   int       `yaml:"unbalanced_count"`
	Unbalanced        []Finding `yaml:"unbalanced"`
}

// Adjustment records one entry amount changed by a repair.
type Adjustment struct {
	EntryID     int64           `yaml:"entry_id"`
	AccountCode string          `yaml:"account_code"`
	Side        model.Side      `yaml:"side"`
	Before      decimal.Decimal `yaml:"before"`
	After       decimal.Decimal `yaml:"after"`
}

// Totals summarizes a transaction's debits and credits.
type Totals struct {
	Debit      decimal.Decimal `yaml:"debit"`
	Credit     decimal.Decimal `yaml:"credit"`
	Difference decimal.Decimal `yaml:"difference"`
}

func totalsOf(txn model.Transaction) Totals {
	debit, credit := txn.Totals()
	return Totals{Debit: debit, Credit: credit, Difference: debit.Sub(credit)}
}

// FixResult reports what a repair changed.
type FixResult struct {
	TransactionID int64        `yaml:"transaction_id"`
	ReferenceType string       `yaml:"reference_type"`
	Before        Totals       `yaml:"before"`
	After         Totals       `yaml:"after"`
	Adjustments   []Adjustment `yaml:"adjustments"`
}

// Reconciler repairs one kind of transaction in place. It returns
// model.ErrUnsupportedRepair when the transaction does not have a shape it
// knows how to fix.
type Reconciler interface {
	Repair(txn *model.Transaction) ([]Adjustment, error)
}

// ReconcilerFunc adapts a function to Reconciler.
type ReconcilerFunc func(txn *model.Transaction) ([]Adjustment, error)

// Repair calls f(txn).
func (f ReconcilerFunc) Repair(txn *model.Transaction) ([]Adjustment, error) { return f(txn) }

// Service scans and repairs the journal.
type Service struct {
	conn *db.Connection
	log  zerolog.Logger

	mu          sync.RWMutex
	reconcilers map[string]Reconciler
}

// NewService creates a Service with the sale reconciler registered.
func NewService(conn *db.Connection, log zerolog.Logger) *Service {
	s := &Service{
		conn:        conn,
		log:         log.With().Str("component", "reconcile").Logger(),
		reconcilers: make(map[string]Reconciler),
	}
	s.Register(model.RefSale, SaleReconciler{})
	return s
}

// Register installs r for transactions of referenceType, replacing any
// previous reconciler.
func (s *Service) Register(referenceType string, r Reconciler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconcilers[referenceType] = r
}

func (s *Service) reconciler(referenceType string) Reconciler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reconcilers[referenceType]
}

// FindUnbalanced scans every transaction and reports those whose debits and
// credits differ by more than the tolerance.
func (s *Service) FindUnbalanced(ctx context.Context) (Report, error) {
	txns, err := journal.ReadTransactions(ctx, s.conn, journal.ListParams{})
	if err != nil {
		return Report{}, err
	}

	report := Report{TotalTransactions: len(txns), Unbalanced: []Finding{}}
	for _, txn := range txns {
		diff := txn.Difference()
		if !model.IsMaterial(diff) {
			continue
		}
		report.Unbalanced = append(report.Unbalanced, findingOf(txn))
	}
	report.UnbalancedCount = len(report.Unbalanced)
	return report, nil
}

func findingOf(txn model.Transaction) Finding {
	t := totalsOf(txn)
	f := Finding{
		TransactionID: txn.ID,
		ReferenceType: txn.ReferenceType,
		ReferenceID:   txn.ReferenceID,
		CreatedAt:     txn.CreatedAt,
		TotalDebit:    t.Debit,
		TotalCredit:   t.Credit,
		Difference:    t.Difference,
	}
	for _, e := range txn.Entries {
		fe := FindingEntry{EntryID: e.ID, Debit: e.Debit, Credit: e.Credit, Narration: e.Narration}
		if e.Account != nil {
			fe.AccountCode = e.Account.Code
			fe.AccountName = e.Account.Name
		}
		f.Entries = append(f.Entries, fe)
	}
	return f
}

// Fix repairs transaction id with the reconciler registered for its
// reference type. The transaction's rows stay locked until the repair is
// written.
func (s *Service) Fix(ctx context.Context, id int64) (FixResult, error) {
	var result FixResult
	err := s.conn.Transaction(ctx, func(tx *db.Tx) error {
		txn, err := journal.ReadTransaction(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if txn == nil {
			return fmt.Errorf("%w: transaction %d", model.ErrNotFound, id)
		}

		result = FixResult{
			TransactionID: txn.ID,
			ReferenceType: txn.ReferenceType,
			Before:        totalsOf(*txn),
		}
		if model.IsBalanced(result.Before.Debit, result.Before.Credit) {
			return fmt.Errorf("%w: transaction %d", model.ErrAlreadyBalanced, id)
		}

		r := s.reconciler(txn.ReferenceType)
		if r == nil {
			return fmt.Errorf("%w: no reconciler for reference type %q", model.ErrUnsupportedRepair, txn.ReferenceType)
		}
		adjustments, err := r.Repair(txn)
		if err != nil {
			return fmt.Errorf("transaction %d: %w", id, err)
		}
		if len(adjustments) == 0 {
			return fmt.Errorf("%w: transaction %d left unchanged", model.ErrUnsupportedRepair, id)
		}

		if err := updateEntries(ctx, tx, txn.Entries); err != nil {
			return err
		}
		result.Adjustments = adjustments
		result.After = totalsOf(*txn)
		return nil
	})
	if err != nil {
		return FixResult{}, err
	}

	s.log.Warn().
		Int64("transaction_id", result.TransactionID).
		Str("reference_type", result.ReferenceType).
		Str("difference_before", result.Before.Difference.StringFixed(2)).
		Str("difference_after", result.After.Difference.StringFixed(2)).
		Int("adjustments", len(result.Adjustments)).
		Msg("transaction repaired")
	return result, nil
}

func updateEntries(ctx context.Context, q db.Querier, entries []model.Entry) error {
	for _, e := range entries {
		_, err := q.ExecContext(ctx,
			`UPDATE ledger_entries SET debit = ?, credit = ? WHERE id = ?`,
			model.ToCents(e.Debit), model.ToCents(e.Credit), e.ID)
		if err != nil {
			return fmt.Errorf("updating entry %d: %w", e.ID, err)
		}
	}
	return nil
}
