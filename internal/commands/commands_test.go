package commands_test

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/ledger/internal/accounts"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary once for all tests.
	tmpDir, err := os.MkdirTemp("", "ledger-test-*")
	if err != nil {
		panic(err)
	}

	binaryPath = filepath.Join(tmpDir, "ledger")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/ledger")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	code := m.Run()
	os.RemoveAll(tmpDir)
	os.Exit(code)
}

// runLedger runs the binary in dir and returns stdout. On failure the error
// carries stderr.
func runLedger(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "LEDGER_LOG_LEVEL=error", "LEDGER_DB_DSN=", "LEDGER_DB_DRIVER=")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.String(), fmt.Errorf("%w: %s", err, stderr.String())
	}
	return stdout.String(), nil
}

// newLedger initializes a ledger in a temp dir and returns the dir.
func newLedger(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := runLedger(t, dir, "init")
	require.NoError(t, err)
	return dir
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := runLedger(t, dir, args...)
	require.NoError(t, err)
	return out
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	out, err := runLedger(t, dir, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "10 accounts created")

	data, err := os.ReadFile(filepath.Join(dir, "ledger.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "driver: sqlite3")
	assert.Contains(t, string(data), "dsn: ledger.db")

	_, err = os.Stat(filepath.Join(dir, "ledger.db"))
	require.NoError(t, err, "database file should exist")

	_, err = runLedger(t, dir, "init")
	require.Error(t, err, "init refuses to overwrite ledger.yaml")

	_, err = runLedger(t, dir, "init", "--force")
	require.NoError(t, err)
}

func TestInit_Subdirectory(t *testing.T) {
	root := t.TempDir()
	_, err := runLedger(t, root, "init", "books", "--seed=false")
	require.NoError(t, err)

	out := mustRun(t, root, "--config", filepath.Join(root, "books", "ledger.yaml"), "accounts", "list")
	assert.NotContains(t, out, "ASSET.CASH", "no accounts without seeding")

	_, err = os.Stat(filepath.Join(root, "books", "ledger.db"))
	require.NoError(t, err, "SQLite path is relative to the config file")
}

func TestAccounts(t *testing.T) {
	dir := newLedger(t)

	out := mustRun(t, dir, "accounts", "list")
	for _, code := range []string{"ASSET.CASH", "ASSET.BANK", "EQUITY.CAPITAL", "EXPENSE.SALES_DISCOUNT"} {
		assert.Contains(t, out, code)
	}

	out = mustRun(t, dir, "accounts", "create",
		"--code", "ASSET.BANK_IBBL", "--name", "IBBL Bank", "--number", "1010", "--type", "asset")
	assert.Contains(t, out, "ASSET.BANK_IBBL")

	out = mustRun(t, dir, "accounts", "list", "--cash", "--bank")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4, "header plus cash, bank and IBBL")
	assert.Contains(t, lines[1], "ASSET.BANK")
	assert.Contains(t, lines[3], "ASSET.CASH", "cash-or-bank listing is ordered by code")

	_, err := runLedger(t, dir, "accounts", "create",
		"--code", "ASSET.BANK_IBBL", "--name", "Dup", "--number", "1011", "--type", "asset")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conflict")

	out = mustRun(t, dir, "accounts", "update", "ASSET.BANK_IBBL", "--name", "Islami Bank")
	assert.Contains(t, out, "Islami Bank")

	mustRun(t, dir, "accounts", "delete", "ASSET.BANK_IBBL")
	_, err = runLedger(t, dir, "accounts", "show", "ASSET.BANK_IBBL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestAccounts_ExportImport(t *testing.T) {
	src := newLedger(t)
	mustRun(t, src, "accounts", "create",
		"--code", "EXPENSE.RENT", "--name", "Rent", "--number", "5010", "--type", "expense")
	export := filepath.Join(t.TempDir(), "chart.csv")
	mustRun(t, src, "accounts", "export", export)

	f, err := os.Open(export)
	require.NoError(t, err)
	accts, err := accounts.ReadAccounts(f)
	f.Close()
	require.NoError(t, err)
	assert.Len(t, accts, 11)

	dst := newLedger(t)
	out := mustRun(t, dst, "accounts", "import", export)
	assert.Contains(t, out, "Imported 1 accounts", "seeded accounts are skipped")
}

type balanceOutput struct {
	Debit   string `yaml:"debit"`
	Credit  string `yaml:"credit"`
	Balance string `yaml:"balance"`
}

func balanceOf(t *testing.T, dir, code string) decimal.Decimal {
	t.Helper()
	out := mustRun(t, dir, "report", "balance", code, "-o", "yaml")
	var b balanceOutput
	require.NoError(t, yaml.Unmarshal([]byte(out), &b))
	return decimal.RequireFromString(b.Balance)
}

func TestPostAndReport(t *testing.T) {
	dir := newLedger(t)
	mustRun(t, dir, "accounts", "create",
		"--code", "ASSET.BANK_IBBL", "--name", "IBBL Bank", "--number", "1010", "--type", "asset")

	out := mustRun(t, dir, "post", "cash", "10000", "-n", "seed")
	assert.Contains(t, out, "cash_addition #1")
	assert.Contains(t, out, "10,000.00")

	assert.True(t, balanceOf(t, dir, "ASSET.CASH").Equal(decimal.NewFromInt(10000)))
	assert.True(t, balanceOf(t, dir, "EQUITY.CAPITAL").Equal(decimal.NewFromInt(10000)))

	mustRun(t, dir, "post", "transfer", "ASSET.CASH", "ASSET.BANK_IBBL", "5000", "-n", "move")
	assert.True(t, balanceOf(t, dir, "ASSET.CASH").Equal(decimal.NewFromInt(5000)))
	assert.True(t, balanceOf(t, dir, "ASSET.BANK_IBBL").Equal(decimal.NewFromInt(5000)))

	_, err := runLedger(t, dir, "post", "transfer", "ASSET.CASH", "ASSET.CASH", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid argument")

	out = mustRun(t, dir, "report", "trial")
	assert.Contains(t, out, "BALANCED")
	assert.NotContains(t, out, "UNBALANCED")

	out = mustRun(t, dir, "report", "balance-sheet")
	assert.Contains(t, out, "BALANCED")

	out = mustRun(t, dir, "journal", "list")
	assert.Contains(t, out, "fund_transfer")
}

func writeVoucher(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "voucher.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestPostVoucher(t *testing.T) {
	dir := newLedger(t)

	balanced := writeVoucher(t, `
lines:
  - account: EXPENSE.COGS
    debit: "40.00"
  - account: ASSET.CASH
    credit: 40
    narration: write-off
`)
	out := mustRun(t, dir, "post", "voucher", balanced)
	assert.Contains(t, out, "manual_journal")
	assert.Contains(t, out, "write-off")

	unbalanced := writeVoucher(t, `
reference_type: manual_journal
lines:
  - account: EXPENSE.COGS
    debit: 100
  - account: ASSET.CASH
    credit: 90
`)
	_, err := runLedger(t, dir, "post", "voucher", unbalanced)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "do not balance")

	out = mustRun(t, dir, "journal", "list", "-o", "yaml")
	var txns []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &txns))
	assert.Len(t, txns, 1, "the unbalanced voucher wrote nothing")
}

type statementOutput struct {
	ClosingBalance string `yaml:"closing_balance"`
	BroughtForward string `yaml:"brought_forward"`
	Entries        []struct {
		RunningBalance string `yaml:"running_balance"`
	} `yaml:"entries"`
	Meta struct {
		Total      int `yaml:"total"`
		TotalPages int `yaml:"total_pages"`
	} `yaml:"meta"`
}

func TestLedger(t *testing.T) {
	dir := newLedger(t)
	for _, amount := range []string{"100", "250", "75"} {
		mustRun(t, dir, "post", "cash", amount)
	}

	page := func(n int) statementOutput {
		out := mustRun(t, dir, "ledger", "cash", "ASSET.CASH", "--limit", "2", "--page", fmt.Sprint(n), "-o", "yaml")
		var st statementOutput
		require.NoError(t, yaml.Unmarshal([]byte(out), &st))
		return st
	}

	first, second := page(1), page(2)
	assert.Equal(t, 3, first.Meta.Total)
	assert.Equal(t, 2, first.Meta.TotalPages)
	require.Len(t, first.Entries, 2)
	require.Len(t, second.Entries, 1)
	assert.Equal(t, "425", first.ClosingBalance)
	assert.Equal(t, first.BroughtForward, second.Entries[0].RunningBalance)
	assert.Equal(t, "0", second.BroughtForward)

	_, err := runLedger(t, dir, "ledger", "cash", "ASSET.INVENTORY")
	require.Error(t, err)

	_, err = runLedger(t, dir, "ledger", "supplier", "99")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestReconcileScan(t *testing.T) {
	dir := newLedger(t)
	mustRun(t, dir, "post", "cash", "10")

	out := mustRun(t, dir, "reconcile", "scan")
	assert.Contains(t, out, "0 of 1 transactions unbalanced")

	_, err := runLedger(t, dir, "reconcile", "fix", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already balanced")
}

func TestJournalExportImport(t *testing.T) {
	src := newLedger(t)
	mustRun(t, src, "post", "cash", "500")
	mustRun(t, src, "post", "transfer", "ASSET.CASH", "ASSET.BANK", "200")
	export := filepath.Join(t.TempDir(), "journal.csv")
	mustRun(t, src, "journal", "export", export)

	dst := newLedger(t)
	out := mustRun(t, dst, "journal", "import", export)
	assert.Contains(t, out, "Imported 2 transactions")
	assert.True(t, balanceOf(t, dst, "ASSET.BANK").Equal(decimal.NewFromInt(200)))
}
