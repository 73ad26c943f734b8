package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cleared-dev/ledger/internal/db"
	"github.com/cleared-dev/ledger/internal/model"
)

const accountColumns = `a.id, a.account_number, a.code, a.name, a.type, a.is_cash, a.is_bank`

type scanner interface {
	Scan(dest ...any) error
}

// ScanAccount scans accountColumns into an Account.
func ScanAccount(sc scanner) (model.Account, error) {
	var a model.Account
	var accountType string
	if err := sc.Scan(&a.ID, &a.AccountNumber, &a.Code, &a.Name, &accountType, &a.IsCash, &a.IsBank); err != nil {
		return model.Account{}, err
	}
	a.Type = model.AccountType(accountType)
	return a, nil
}

// Lookup returns the account with code, or nil if there is none.
func Lookup(ctx context.Context, q db.Querier, code string) (*model.Account, error) {
	return findOne(ctx, q, "a.code = ?", code)
}

func findOne(ctx context.Context, q db.Querier, where string, args ...any) (*model.Account, error) {
	row := q.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM ledger_accounts a WHERE `+where, args...)
	a, err := ScanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying account: %w", err)
	}
	return &a, nil
}

func listAccounts(ctx context.Context, q db.Querier, where, orderBy string, args ...any) ([]model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM ledger_accounts a`
	if where != "" {
		query += ` WHERE ` + where
	}
	query += ` ORDER BY ` + orderBy

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	var result []model.Account
	for rows.Next() {
		a, err := ScanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func accountNumbers(ctx context.Context, q db.Querier) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT account_number FROM ledger_accounts`)
	if err != nil {
		return nil, fmt.Errorf("reading account numbers: %w", err)
	}
	defer rows.Close()

	var numbers []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		numbers = append(numbers, n)
	}
	return numbers, rows.Err()
}

// checkUnique fails with ErrConflict if another account (id != excludeID)
// already uses the code, name or number.
func checkUnique(ctx context.Context, q db.Querier, a model.Account, excludeID int64) error {
	row := q.QueryRowContext(ctx, `
		SELECT code, name, account_number FROM ledger_accounts
		WHERE (code = ? OR name = ? OR account_number = ?) AND id <> ?
		LIMIT 1`, a.Code, a.Name, a.AccountNumber, excludeID)

	var code, name, number string
	err := row.Scan(&code, &name, &number)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking uniqueness: %w", err)
	}
	switch {
	case code == a.Code:
		return fmt.Errorf("%w: account code %q already exists", model.ErrConflict, a.Code)
	case name == a.Name:
		return fmt.Errorf("%w: account name %q already exists", model.ErrConflict, a.Name)
	default:
		return fmt.Errorf("%w: account number %q already exists", model.ErrConflict, a.AccountNumber)
	}
}

func insertAccount(ctx context.Context, q db.Querier, a *model.Account) error {
	err := q.QueryRowContext(ctx, `
		INSERT INTO ledger_accounts (account_number, code, name, type, is_cash, is_bank)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`,
		a.AccountNumber, a.Code, a.Name, string(a.Type), a.IsCash, a.IsBank,
	).Scan(&a.ID)
	if err != nil {
		if q.Dialect().IsUniqueViolation(err) {
			return fmt.Errorf("%w: account %q: %v", model.ErrConflict, a.Code, err)
		}
		return fmt.Errorf("inserting account %q: %w", a.Code, err)
	}
	return nil
}

func updateAccount(ctx context.Context, q db.Querier, a model.Account) error {
	_, err := q.ExecContext(ctx, `
		UPDATE ledger_accounts
		SET account_number = ?, code = ?, name = ?, type = ?, is_cash = ?, is_bank = ?
		WHERE id = ?`,
		a.AccountNumber, a.Code, a.Name, string(a.Type), a.IsCash, a.IsBank, a.ID,
	)
	if err != nil {
		if q.Dialect().IsUniqueViolation(err) {
			return fmt.Errorf("%w: account %q: %v", model.ErrConflict, a.Code, err)
		}
		return fmt.Errorf("updating account %d: %w", a.ID, err)
	}
	return nil
}

func countEntries(ctx context.Context, q db.Querier, accountID int64) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM ledger_entries WHERE account_id = ?`, accountID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}
	return n, nil
}
