package db

// Amounts are stored as integer cents; timestamps are UTC.

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS ledger_accounts (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    account_number TEXT NOT NULL UNIQUE,
    code           TEXT NOT NULL UNIQUE,
    name           TEXT NOT NULL UNIQUE,
    type           TEXT NOT NULL CHECK (type IN ('asset', 'liability', 'equity', 'income', 'expense')),
    is_cash        BOOLEAN NOT NULL DEFAULT 0,
    is_bank        BOOLEAN NOT NULL DEFAULT 0,
    CHECK (NOT (is_cash AND is_bank))
)`,
	`CREATE TABLE IF NOT EXISTS ledger_transactions (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    reference_type TEXT NOT NULL,
    reference_id   INTEGER NOT NULL DEFAULT 0,
    created_at     TIMESTAMP NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_transactions_reference
    ON ledger_transactions (reference_type, reference_id)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_transactions_created
    ON ledger_transactions (created_at)`,
	`CREATE TABLE IF NOT EXISTS ledger_entries (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    transaction_id INTEGER NOT NULL REFERENCES ledger_transactions (id) ON DELETE CASCADE,
    account_id     INTEGER NOT NULL REFERENCES ledger_accounts (id) ON DELETE RESTRICT,
    debit          INTEGER NOT NULL DEFAULT 0 CHECK (debit >= 0),
    credit         INTEGER NOT NULL DEFAULT 0 CHECK (credit >= 0),
    narration      TEXT
)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_entries_account
    ON ledger_entries (account_id)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_entries_transaction
    ON ledger_entries (transaction_id)`,
	`CREATE TABLE IF NOT EXISTS ledger_sequences (
    name  TEXT PRIMARY KEY,
    value INTEGER NOT NULL
)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS ledger_accounts (
    id             BIGSERIAL PRIMARY KEY,
    account_number TEXT NOT NULL UNIQUE,
    code           TEXT NOT NULL UNIQUE,
    name           TEXT NOT NULL UNIQUE,
    type           TEXT NOT NULL CHECK (type IN ('asset', 'liability', 'equity', 'income', 'expense')),
    is_cash        BOOLEAN NOT NULL DEFAULT FALSE,
    is_bank        BOOLEAN NOT NULL DEFAULT FALSE,
    CHECK (NOT (is_cash AND is_bank))
)`,
	`CREATE TABLE IF NOT EXISTS ledger_transactions (
    id             BIGSERIAL PRIMARY KEY,
    reference_type TEXT NOT NULL,
    reference_id   BIGINT NOT NULL DEFAULT 0,
    created_at     TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_transactions_reference
    ON ledger_transactions (reference_type, reference_id)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_transactions_created
    ON ledger_transactions (created_at)`,
	`CREATE TABLE IF NOT EXISTS ledger_entries (
    id             BIGSERIAL PRIMARY KEY,
    transaction_id BIGINT NOT NULL REFERENCES ledger_transactions (id) ON DELETE CASCADE,
    account_id     BIGINT NOT NULL REFERENCES ledger_accounts (id) ON DELETE RESTRICT,
    debit          BIGINT NOT NULL DEFAULT 0 CHECK (debit >= 0),
    credit         BIGINT NOT NULL DEFAULT 0 CHECK (credit >= 0),
    narration      TEXT
)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_entries_account
    ON ledger_entries (account_id)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_entries_transaction
    ON ledger_entries (transaction_id)`,
	`CREATE TABLE IF NOT EXISTS ledger_sequences (
    name  TEXT PRIMARY KEY,
    value BIGINT NOT NULL
)`,
}
