package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cleared-dev/ledger/internal/db"
	"github.com/cleared-dev/ledger/internal/model"
)

func insertTransaction(ctx context.Context, q db.Querier, txn *model.Transaction) error {
	err := q.QueryRowContext(ctx,
		`INSERT INTO ledger_transactions (reference_type, reference_id, created_at) VALUES (?, ?, ?) RETURNING id`,
		txn.ReferenceType, txn.ReferenceID, txn.CreatedAt,
	).Scan(&txn.ID)
	if err != nil {
		return fmt.Errorf("inserting transaction: %w", err)
	}

	for i := range txn.Entries {
		e := &txn.Entries[i]
		e.TransactionID = txn.ID
		narration := sql.NullString{String: e.Narration, Valid: e.Narration != ""}
		err := q.QueryRowContext(ctx,
			`INSERT INTO ledger_entries (transaction_id, account_id, debit, credit, narration) VALUES (?, ?, ?, ?, ?) RETURNING id`,
			e.TransactionID, e.AccountID, model.ToCents(e.Debit), model.ToCents(e.Credit), narration,
		).Scan(&e.ID)
		if err != nil {
			if q.Dialect().IsForeignKeyViolation(err) {
				return fmt.Errorf("%w: account %d", model.ErrNotFound, e.AccountID)
			}
			return fmt.Errorf("inserting entry %d: %w", i+1, err)
		}
	}
	return nil
}

// NextReferenceID allocates the next reference id for refType inside the
// caller's transaction. Concurrent callers never receive the same value.
func NextReferenceID(ctx context.Context, q db.Querier, refType string) (int64, error) {
	key := "ref:" + refType
	if err := q.Dialect().LockKey(ctx, q, key); err != nil {
		return 0, err
	}

	// Never fall below what is already recorded; ids may be posted explicitly.
	var next int64
	err := q.QueryRowContext(ctx, `
		INSERT INTO ledger_sequences (name, value)
		SELECT CAST(? AS TEXT), COALESCE(MAX(reference_id), 0) + 1
		FROM ledger_transactions WHERE reference_type = ?
		ON CONFLICT (name) DO UPDATE SET value = CASE
			WHEN excluded.value > ledger_sequences.value + 1 THEN excluded.value
			ELSE ledger_sequences.value + 1
		END
		RETURNING value`,
		key, refType,
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("allocating %s reference id: %w", refType, err)
	}
	return next, nil
}

const transactionColumns = `t.id, t.reference_type, t.reference_id, t.created_at`

const entryColumns = `e.id, e.transaction_id, e.account_id, e.debit, e.credit, COALESCE(e.narration, ''),
	a.id, a.account_number, a.code, a.name, a.type, a.is_cash, a.is_bank`

func scanTransaction(s interface{ Scan(...any) error }) (model.Transaction, error) {
	var txn model.Transaction
	if err := s.Scan(&txn.ID, &txn.ReferenceType, &txn.ReferenceID, &txn.CreatedAt); err != nil {
		return model.Transaction{}, err
	}
	txn.CreatedAt = txn.CreatedAt.UTC()
	return txn, nil
}

func scanEntry(s interface{ Scan(...any) error }) (model.Entry, error) {
	var (
		e             model.Entry
		a             model.Account
		debit, credit int64
		accountType   string
	)
	err := s.Scan(&e.ID, &e.TransactionID, &e.AccountID, &debit, &credit, &e.Narration,
		&a.ID, &a.AccountNumber, &a.Code, &a.Name, &accountType, &a.IsCash, &a.IsBank)
	if err != nil {
		return model.Entry{}, err
	}
	a.Type = model.AccountType(accountType)
	e.Debit = model.FromCents(debit)
	e.Credit = model.FromCents(credit)
	e.Account = &a
	return e, nil
}

// ReadTransaction loads one transaction with its entries, or nil if absent.
// With lock set the rows stay locked until the surrounding transaction ends.
func ReadTransaction(ctx context.Context, q db.Querier, id int64, lock bool) (*model.Transaction, error) {
	suffix := ""
	if lock {
		suffix = q.Dialect().ForUpdate()
	}

	txn, err := scanTransaction(q.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM ledger_transactions t WHERE t.id = ?`+suffix, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading transaction %d: %w", id, err)
	}

	lockEntries := ""
	if lock && suffix != "" {
		lockEntries = suffix + " OF e"
	}
	rows, err := q.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM ledger_entries e JOIN ledger_accounts a ON a.id = e.account_id
		WHERE e.transaction_id = ?
		ORDER BY e.id`+lockEntries, id)
	if err != nil {
		return nil, fmt.Errorf("reading entries of transaction %d: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		txn.Entries = append(txn.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &txn, nil
}

// ReadTransactions loads transactions matching p with their entries, ordered
// by id.
func ReadTransactions(ctx context.Context, q db.Querier, p ListParams) ([]model.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM ledger_transactions t`
	var args []any
	if p.ReferenceType != "" {
		query += ` WHERE t.reference_type = ?`
		args = append(args, p.ReferenceType)
	}
	query += ` ORDER BY t.id`
	if p.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d OFFSET %d`, p.Limit, max(p.Offset, 0))
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	var txns []model.Transaction
	index := make(map[int64]int)
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		index[txn.ID] = len(txns)
		txns = append(txns, txn)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(txns) == 0 {
		return nil, nil
	}

	// Entries are fetched by id range and matched back in memory.
	erows, err := q.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM ledger_entries e JOIN ledger_accounts a ON a.id = e.account_id
		WHERE e.transaction_id BETWEEN ? AND ?
		ORDER BY e.transaction_id, e.id`,
		txns[0].ID, txns[len(txns)-1].ID)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	defer erows.Close()

	for erows.Next() {
		e, err := scanEntry(erows)
		if err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		if i, ok := index[e.TransactionID]; ok {
			txns[i].Entries = append(txns[i].Entries, e)
		}
	}
	return txns, erows.Err()
}
