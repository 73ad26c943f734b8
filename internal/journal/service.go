// Package journal records business events as sets of ledger entries.
package journal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledger/internal/db"
	"github.com/cleared-dev/ledger/internal/model"
)

// AccountDirectory resolves account codes and lazily creates the equity
// accounts the posting helpers credit.
type AccountDirectory interface {
	Lookup(ctx context.Context, q db.Querier, code string) (*model.Account, error)
	EnsureAccount(ctx context.Context, a model.Account) (model.Account, error)
}

// Service provides the posting operations.
type Service struct {
	conn     *db.Connection
	accounts AccountDirectory
	log      zerolog.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the timestamp source for new transactions.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a journal Service.
func NewService(conn *db.Connection, accounts AccountDirectory, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		conn:     conn,
		accounts: accounts,
		log:      log.With().Str("component", "journal").Logger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Leg is one requested entry of a posting.
type Leg struct {
	AccountCode string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Narration   string
}

// PostParams holds the parameters of a raw posting.
type PostParams struct {
	ReferenceType string
	ReferenceID   int64
	Legs          []Leg
	// CreatedAt backdates the transaction; zero means now.
	CreatedAt time.Time
}

// Post resolves every leg's account and writes the transaction with all of its
// entries atomically. It does not check that debits equal credits.
func (s *Service) Post(ctx context.Context, p PostParams) (model.Transaction, error) {
	if err := checkLegs(p.Legs); err != nil {
		return model.Transaction{}, err
	}

	var txn model.Transaction
	err := s.conn.Transaction(ctx, func(tx *db.Tx) error {
		var err error
		txn, err = s.post(ctx, tx, p)
		return err
	})
	if err != nil {
		return model.Transaction{}, err
	}
	s.logPosted(txn)
	return txn, nil
}

func checkLegs(legs []Leg) error {
	if len(legs) == 0 {
		return fmt.Errorf("%w: a transaction needs at least one leg", model.ErrInvalidArgument)
	}
	if verrs := ValidateLegs(legs); len(verrs) > 0 {
		return fmt.Errorf("%w: %s", model.ErrInvalidArgument, joinErrors(verrs))
	}
	return nil
}

func (s *Service) post(ctx context.Context, q db.Querier, p PostParams) (model.Transaction, error) {
	entries := make([]model.Entry, 0, len(p.Legs))
	for _, leg := range p.Legs {
		acct, err := s.accounts.Lookup(ctx, q, leg.AccountCode)
		if err != nil {
			return model.Transaction{}, err
		}
		if acct == nil {
			return model.Transaction{}, fmt.Errorf("%w: account %q", model.ErrNotFound, leg.AccountCode)
		}
		entries = append(entries, model.Entry{
			AccountID: acct.ID,
			Debit:     leg.Debit.Round(2),
			Credit:    leg.Credit.Round(2),
			Narration: leg.Narration,
			Account:   acct,
		})
	}

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	txn := model.Transaction{
		ReferenceType: p.ReferenceType,
		ReferenceID:   p.ReferenceID,
		CreatedAt:     createdAt.UTC().Truncate(time.Microsecond),
		Entries:       entries,
	}
	if err := insertTransaction(ctx, q, &txn); err != nil {
		return model.Transaction{}, err
	}
	return txn, nil
}

func (s *Service) logPosted(txn model.Transaction) {
	debit, credit := txn.Totals()
	s.log.Info().
		Int64("transaction_id", txn.ID).
		Str("reference_type", txn.ReferenceType).
		Int64("reference_id", txn.ReferenceID).
		Int("entries", len(txn.Entries)).
		Str("debit", debit.StringFixed(2)).
		Str("credit", credit.StringFixed(2)).
		Msg("transaction posted")
}

var (
	openingBalanceAccount = model.Account{
		AccountNumber: "3002",
		Code:          model.CodeOpeningBalance,
		Name:          "Opening Balance Equity",
		Type:          model.AccountTypeEquity,
	}
	capitalAccount = model.Account{
		AccountNumber: "3001",
		Code:          model.CodeCapital,
		Name:          "Owner Capital",
		Type:          model.AccountTypeEquity,
	}
)

func requirePositive(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive, got %s", model.ErrInvalidArgument, amount)
	}
	if !model.HasAtMostTwoDecimals(amount) {
		return fmt.Errorf("%w: amount %s has more than 2 decimal places", model.ErrInvalidArgument, amount)
	}
	return nil
}

// CreateOpeningBalance debits accountCode and credits opening-balance equity.
func (s *Service) CreateOpeningBalance(ctx context.Context, accountCode string, amount decimal.Decimal) (model.Transaction, error) {
	if err := requirePositive(amount); err != nil {
		return model.Transaction{}, err
	}
	equity, err := s.accounts.EnsureAccount(ctx, openingBalanceAccount)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("ensuring opening balance account: %w", err)
	}

	return s.Post(ctx, PostParams{
		ReferenceType: model.RefOpeningBalance,
		Legs: []Leg{
			{AccountCode: accountCode, Debit: amount, Narration: "Opening balance"},
			{AccountCode: equity.Code, Credit: amount, Narration: "Opening balance"},
		},
	})
}

// AddCash injects owner capital into the cash account.
func (s *Service) AddCash(ctx context.Context, amount decimal.Decimal, narration string) (model.Transaction, error) {
	return s.addFunds(ctx, model.CodeCash, amount, narration, nil)
}

// AddBankBalance injects owner capital into a bank account.
func (s *Service) AddBankBalance(ctx context.Context, bankCode string, amount decimal.Decimal, narration string) (model.Transaction, error) {
	return s.addFunds(ctx, bankCode, amount, narration, func(a *model.Account) error {
		if !a.IsBank {
			return fmt.Errorf("%w: account %q is not a bank account", model.ErrInvalidArgument, a.Code)
		}
		return nil
	})
}

func (s *Service) addFunds(ctx context.Context, code string, amount decimal.Decimal, narration string, check func(*model.Account) error) (model.Transaction, error) {
	if err := requirePositive(amount); err != nil {
		return model.Transaction{}, err
	}
	capital, err := s.accounts.EnsureAccount(ctx, capitalAccount)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("ensuring capital account: %w", err)
	}

	var txn model.Transaction
	err = s.conn.Transaction(ctx, func(tx *db.Tx) error {
		acct, err := s.accounts.Lookup(ctx, tx, code)
		if err != nil {
			return err
		}
		if acct == nil {
			return fmt.Errorf("%w: account %q", model.ErrNotFound, code)
		}
		if check != nil {
			if err := check(acct); err != nil {
				return err
			}
		}

		refID, err := NextReferenceID(ctx, tx, model.RefCashAddition)
		if err != nil {
			return err
		}
		txn, err = s.post(ctx, tx, PostParams{
			ReferenceType: model.RefCashAddition,
			ReferenceID:   refID,
			Legs: []Leg{
				{AccountCode: acct.Code, Debit: amount, Narration: narration},
				{AccountCode: capital.Code, Credit: amount, Narration: narration},
			},
		})
		return err
	})
	if err != nil {
		return model.Transaction{}, err
	}
	s.logPosted(txn)
	return txn, nil
}

// TransferFunds moves amount between two cash/bank accounts.
func (s *Service) TransferFunds(ctx context.Context, fromCode, toCode string, amount decimal.Decimal, narration string) (model.Transaction, error) {
	if fromCode == toCode {
		return model.Transaction{}, fmt.Errorf("%w: cannot transfer from %q to itself", model.ErrInvalidArgument, fromCode)
	}
	if err := requirePositive(amount); err != nil {
		return model.Transaction{}, err
	}

	var txn model.Transaction
	err := s.conn.Transaction(ctx, func(tx *db.Tx) error {
		for _, code := range []string{fromCode, toCode} {
			acct, err := s.accounts.Lookup(ctx, tx, code)
			if err != nil {
				return err
			}
			if acct == nil {
				return fmt.Errorf("%w: account %q", model.ErrNotFound, code)
			}
			if !acct.IsLiquid() {
				return fmt.Errorf("%w: account %q is neither cash nor bank", model.ErrInvalidArgument, code)
			}
		}

		var err error
		txn, err = s.post(ctx, tx, PostParams{
			ReferenceType: model.RefFundTransfer,
			Legs: []Leg{
				{AccountCode: toCode, Debit: amount, Narration: narration},
				{AccountCode: fromCode, Credit: amount, Narration: narration},
			},
		})
		return err
	})
	if err != nil {
		return model.Transaction{}, err
	}
	s.logPosted(txn)
	return txn, nil
}

// CreateJournalVoucher posts manual lines as one transaction. Debits must
// equal credits exactly.
func (s *Service) CreateJournalVoucher(ctx context.Context, lines []Leg, referenceType string, referenceID int64) (model.Transaction, error) {
	if err := checkVoucher(lines); err != nil {
		return model.Transaction{}, err
	}
	if referenceType == "" {
		referenceType = model.RefManualJournal
	}
	return s.Post(ctx, PostParams{
		ReferenceType: referenceType,
		ReferenceID:   referenceID,
		Legs:          lines,
	})
}

func checkVoucher(lines []Leg) error {
	if err := checkLegs(lines); err != nil {
		return err
	}
	if verr := ValidateBalance(lines); verr != nil {
		return fmt.Errorf("%w: %s", model.ErrUnbalanced, verr.Description)
	}
	return nil
}

// Get returns the transaction with id and its entries.
func (s *Service) Get(ctx context.Context, id int64) (model.Transaction, error) {
	txn, err := ReadTransaction(ctx, s.conn, id, false)
	if err != nil {
		return model.Transaction{}, err
	}
	if txn == nil {
		return model.Transaction{}, fmt.Errorf("%w: transaction %d", model.ErrNotFound, id)
	}
	return *txn, nil
}

// ListParams narrows List results. A zero Limit returns everything.
type ListParams struct {
	ReferenceType string
	Limit         int
	Offset        int
}

// List returns transactions with their entries, oldest first.
func (s *Service) List(ctx context.Context, p ListParams) ([]model.Transaction, error) {
	return ReadTransactions(ctx, s.conn, p)
}

func joinErrors(verrs []ValidationError) string {
	msgs := make([]string, len(verrs))
	for i, ve := range verrs {
		msgs[i] = ve.Error()
	}
	return strings.Join(msgs, "; ")
}
