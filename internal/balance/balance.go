// Package balance aggregates ledger entries into account balances and the
// reports derived from them.
package balance

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledger/internal/accounts"
	"github.com/cleared-dev/ledger/internal/db"
	"github.com/cleared-dev/ledger/internal/model"
)

// Row is one account's aggregated activity.
type Row struct {
	AccountID     int64             `yaml:"-"`
	AccountNumber string            `yaml:"account_number"`
	Code          string            `yaml:"code"`
	Name          string            `yaml:"name"`
	Type          model.AccountType `yaml:"type"`
	IsCash        bool              `yaml:"is_cash,omitempty"`
	IsBank        bool              `yaml:"is_bank,omitempty"`
	Debit         decimal.Decimal   `yaml:"debit"`
	Credit        decimal.Decimal   `yaml:"credit"`
	Balance       decimal.Decimal   `yaml:"balance"`
}

// HasActivity reports whether any entry touched the account.
func (r Row) HasActivity() bool {
	return !r.Debit.IsZero() || !r.Credit.IsZero()
}

// Calculator answers balance queries against the entry store.
type Calculator struct {
	q db.Querier
}

// NewCalculator creates a Calculator.
func NewCalculator(q db.Querier) *Calculator {
	return &Calculator{q: q}
}

// Filter narrows AllAccountBalances.
type Filter struct {
	// AsOf includes entries created on or before this date (whole day, UTC).
	AsOf      *time.Time
	Liquidity accounts.LiquidityFilter
}

// AccountBalance aggregates every entry of the account with code.
func (c *Calculator) AccountBalance(ctx context.Context, code string, asOf *time.Time) (Row, error) {
	rows, err := c.query(ctx, asOf, "a.code = ?", code)
	if err != nil {
		return Row{}, err
	}
	if len(rows) == 0 {
		return Row{}, fmt.Errorf("%w: account %q", model.ErrNotFound, code)
	}
	return rows[0], nil
}

// AllAccountBalances aggregates every account matching f, ordered by account
// number. Accounts without entries are included with zero balances.
func (c *Calculator) AllAccountBalances(ctx context.Context, f Filter) ([]Row, error) {
	where, args := f.Liquidity.Where()
	return c.query(ctx, f.AsOf, where, args...)
}

func (c *Calculator) query(ctx context.Context, asOf *time.Time, where string, args ...any) ([]Row, error) {
	var subArgs []any
	cutoff := ""
	if asOf != nil {
		cutoff = "WHERE t.created_at < ?"
		subArgs = append(subArgs, model.EndOfDay(*asOf))
	}

	query := `
		SELECT a.id, a.account_number, a.code, a.name, a.type, a.is_cash, a.is_bank,
			COALESCE(s.debit, 0), COALESCE(s.credit, 0)
		FROM ledger_accounts a
		LEFT JOIN (
			SELECT e.account_id,
				CAST(SUM(e.debit) AS BIGINT) AS debit,
				CAST(SUM(e.credit) AS BIGINT) AS credit
			FROM ledger_entries e
			JOIN ledger_transactions t ON t.id = e.transaction_id
			` + cutoff + `
			GROUP BY e.account_id
		) s ON s.account_id = a.id`
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY a.account_number ASC"

	rows, err := c.q.QueryContext(ctx, query, append(subArgs, args...)...)
	if err != nil {
		return nil, fmt.Errorf("querying balances: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			r             Row
			accountType   string
			debit, credit int64
		)
		if err := rows.Scan(&r.AccountID, &r.AccountNumber, &r.Code, &r.Name, &accountType,
			&r.IsCash, &r.IsBank, &debit, &credit); err != nil {
			return nil, fmt.Errorf("scanning balance: %w", err)
		}
		r.Type = model.AccountType(accountType)
		r.Debit = model.FromCents(debit)
		r.Credit = model.FromCents(credit)
		r.Balance = model.SignedBalance(r.Type, r.Debit, r.Credit)
		out = append(out, r)
	}
	return out, rows.Err()
}
