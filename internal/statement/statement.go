// Package statement produces per-account ledgers with opening, running and
// closing balances.
package statement

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledger/internal/accounts"
	"github.com/cleared-dev/ledger/internal/db"
	"github.com/cleared-dev/ledger/internal/model"
)

// Query selects the window and page of a statement. From and To are dates;
// both ends are inclusive. A zero Limit returns every line.
type Query struct {
	From  *time.Time
	To    *time.Time
	Page  int
	Limit int
}

// Line is one entry of a statement, newest first.
type Line struct {
	EntryID        int64           `yaml:"entry_id"`
	TransactionID  int64           `yaml:"transaction_id"`
	Date           time.Time       `yaml:"date"`
	ReferenceType  string          `yaml:"reference_type"`
	ReferenceID    int64           `yaml:"reference_id"`
	Debit          decimal.Decimal `yaml:"debit"`
	Credit         decimal.Decimal `yaml:"credit"`
	RunningBalance decimal.Decimal `yaml:"running_balance"`
	Narration      string          `yaml:"narration,omitempty"`
}

// Meta describes the page returned when Limit > 0.
type Meta struct {
	Total      int `yaml:"total"`
	Page       int `yaml:"page"`
	Limit      int `yaml:"limit"`
	TotalPages int `yaml:"total_pages"`
}

// Statement is the ledger of one account over a window.
type Statement struct {
	Account        model.Account   `yaml:"account"`
	OpeningBalance decimal.Decimal `yaml:"opening_balance"`
	Entries        []Line          `yaml:"entries"`
	ClosingBalance decimal.Decimal `yaml:"closing_balance"`
	// BroughtForward is the balance just before the oldest line on this page.
	BroughtForward decimal.Decimal `yaml:"brought_forward"`
	Meta           *Meta           `yaml:"meta,omitempty"`
}

// Generator builds statements from the entry store.
type Generator struct {
	q db.Querier
}

// NewGenerator creates a Generator.
func NewGenerator(q db.Querier) *Generator {
	return &Generator{q: q}
}

// SupplierLedger is the statement of a supplier's payable account.
func (g *Generator) SupplierLedger(ctx context.Context, supplierID int64, q Query) (Statement, error) {
	acct, err := g.lookup(ctx, accounts.SupplierCode(supplierID))
	if err != nil {
		return Statement{}, fmt.Errorf("supplier %d: %w", supplierID, err)
	}
	return g.Generate(ctx, *acct, q)
}

// CustomerLedger is the statement of a customer's receivable account.
func (g *Generator) CustomerLedger(ctx context.Context, customerID int64, q Query) (Statement, error) {
	acct, err := g.lookup(ctx, accounts.CustomerCode(customerID))
	if err != nil {
		return Statement{}, fmt.Errorf("customer %d: %w", customerID, err)
	}
	return g.Generate(ctx, *acct, q)
}

// CashBankLedger is the statement of a cash or bank account.
func (g *Generator) CashBankLedger(ctx context.Context, code string, q Query) (Statement, error) {
	acct, err := g.lookup(ctx, code)
	if err != nil {
		return Statement{}, err
	}
	if !acct.IsLiquid() {
		return Statement{}, fmt.Errorf("%w: account %q is neither cash nor bank", model.ErrInvalidArgument, code)
	}
	return g.Generate(ctx, *acct, q)
}

// AccountLedger is the statement of any account.
func (g *Generator) AccountLedger(ctx context.Context, code string, q Query) (Statement, error) {
	acct, err := g.lookup(ctx, code)
	if err != nil {
		return Statement{}, err
	}
	return g.Generate(ctx, *acct, q)
}

func (g *Generator) lookup(ctx context.Context, code string) (*model.Account, error) {
	acct, err := accounts.Lookup(ctx, g.q, code)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, fmt.Errorf("%w: account %q", model.ErrNotFound, code)
	}
	return acct, nil
}

// Generate builds the statement of acct. Balances follow the account type's
// normal side. Every entry in the window is read so running balances are
// independent of the page requested.
func (g *Generator) Generate(ctx context.Context, acct model.Account, q Query) (Statement, error) {
	if q.From != nil && q.To != nil && model.StartOfDay(*q.To).Before(model.StartOfDay(*q.From)) {
		return Statement{}, fmt.Errorf("%w: window ends before it starts", model.ErrInvalidArgument)
	}

	opening := decimal.Zero
	if q.From != nil {
		debit, credit, err := g.totalsBefore(ctx, acct.ID, model.StartOfDay(*q.From))
		if err != nil {
			return Statement{}, err
		}
		opening = model.SignedBalance(acct.Type, debit, credit)
	}

	lines, err := g.linesInWindow(ctx, acct.ID, q)
	if err != nil {
		return Statement{}, err
	}

	closing := opening
	for _, l := range lines {
		closing = closing.Add(effect(acct.Type, l))
	}

	st := Statement{
		Account:        acct,
		OpeningBalance: opening,
		ClosingBalance: closing,
		Entries:        []Line{},
	}

	page := lines
	skip := 0
	if q.Limit > 0 {
		p := max(q.Page, 1)
		skip = min((p-1)*q.Limit, len(lines))
		page = lines[skip:min(skip+q.Limit, len(lines))]
		st.Meta = &Meta{
			Total:      len(lines),
			Page:       p,
			Limit:      q.Limit,
			TotalPages: (len(lines) + q.Limit - 1) / q.Limit,
		}
	}

	// Walk back from the closing balance over the newer lines, then down the page.
	running := closing
	for _, l := range lines[:skip] {
		running = running.Sub(effect(acct.Type, l))
	}
	for _, l := range page {
		l.RunningBalance = running
		st.Entries = append(st.Entries, l)
		running = running.Sub(effect(acct.Type, l))
	}
	st.BroughtForward = running
	return st, nil
}

func effect(t model.AccountType, l Line) decimal.Decimal {
	return model.SignedBalance(t, l.Debit, l.Credit)
}

func (g *Generator) totalsBefore(ctx context.Context, accountID int64, before time.Time) (decimal.Decimal, decimal.Decimal, error) {
	var debit, credit int64
	err := g.q.QueryRowContext(ctx, `
		SELECT CAST(COALESCE(SUM(e.debit), 0) AS BIGINT), CAST(COALESCE(SUM(e.credit), 0) AS BIGINT)
		FROM ledger_entries e
		JOIN ledger_transactions t ON t.id = e.transaction_id
		WHERE e.account_id = ? AND t.created_at < ?`,
		accountID, before,
	).Scan(&debit, &credit)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("computing opening balance: %w", err)
	}
	return model.FromCents(debit), model.FromCents(credit), nil
}

func (g *Generator) linesInWindow(ctx context.Context, accountID int64, q Query) ([]Line, error) {
	query := `
		SELECT e.id, e.transaction_id, t.created_at, t.reference_type, t.reference_id,
			e.debit, e.credit, COALESCE(e.narration, '')
		FROM ledger_entries e
		JOIN ledger_transactions t ON t.id = e.transaction_id
		WHERE e.account_id = ?`
	args := []any{accountID}
	if q.From != nil {
		query += ` AND t.created_at >= ?`
		args = append(args, model.StartOfDay(*q.From))
	}
	if q.To != nil {
		query += ` AND t.created_at < ?`
		args = append(args, model.EndOfDay(*q.To))
	}
	query += ` ORDER BY t.created_at DESC, e.id DESC`

	rows, err := g.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("reading ledger entries: %w", err)
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var (
			l             Line
			debit, credit int64
		)
		if err := rows.Scan(&l.EntryID, &l.TransactionID, &l.Date, &l.ReferenceType, &l.ReferenceID,
			&debit, &credit, &l.Narration); err != nil {
			return nil, fmt.Errorf("scanning ledger entry: %w", err)
		}
		l.Date = l.Date.UTC()
		l.Debit = model.FromCents(debit)
		l.Credit = model.FromCents(credit)
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
