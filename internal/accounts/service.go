// Package accounts implements the chart-of-accounts directory.
package accounts

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/ledger/internal/db"
	"github.com/cleared-dev/ledger/internal/model"
)

// Service manages the chart of accounts.
type Service struct {
	conn *db.Connection
	log  zerolog.Logger
}

// NewService creates an account Service.
func NewService(conn *db.Connection, log zerolog.Logger) *Service {
	return &Service{conn: conn, log: log.With().Str("component", "accounts").Logger()}
}

// CreateParams holds the fields of a new account. Nil IsCash/IsBank are
// derived with ClassifyCode.
type CreateParams struct {
	Code          string
	Name          string
	AccountNumber string
	Type          model.AccountType
	IsCash        *bool
	IsBank        *bool
}

// Create validates and inserts a new account.
func (s *Service) Create(ctx context.Context, p CreateParams) (model.Account, error) {
	acct, err := buildAccount(p)
	if err != nil {
		return model.Account{}, err
	}

	err = s.conn.Transaction(ctx, func(tx *db.Tx) error {
		if err := checkUnique(ctx, tx, acct, 0); err != nil {
			return err
		}
		return insertAccount(ctx, tx, &acct)
	})
	if err != nil {
		return model.Account{}, err
	}

	s.log.Info().Str("code", acct.Code).Str("account_number", acct.AccountNumber).Msg("account created")
	return acct, nil
}

func buildAccount(p CreateParams) (model.Account, error) {
	acct := model.Account{
		Code:          strings.TrimSpace(p.Code),
		Name:          strings.TrimSpace(p.Name),
		AccountNumber: strings.TrimSpace(p.AccountNumber),
		Type:          p.Type,
	}
	switch {
	case acct.Code == "":
		return model.Account{}, fmt.Errorf("%w: account code is required", model.ErrInvalidArgument)
	case acct.Name == "":
		return model.Account{}, fmt.Errorf("%w: account name is required", model.ErrInvalidArgument)
	case acct.AccountNumber == "":
		return model.Account{}, fmt.Errorf("%w: account number is required", model.ErrInvalidArgument)
	case !acct.Type.Valid():
		return model.Account{}, fmt.Errorf("%w: unknown account type %q", model.ErrInvalidArgument, p.Type)
	}

	if p.IsCash != nil && p.IsBank != nil && *p.IsCash && *p.IsBank {
		return model.Account{}, fmt.Errorf("%w: account %q cannot be both cash and bank", model.ErrInvalidArgument, acct.Code)
	}

	inferred := ClassifyCode(acct.Code, acct.Type)
	if p.IsCash != nil {
		acct.IsCash = *p.IsCash
	} else {
		acct.IsCash = inferred == LiquidityCash && (p.IsBank == nil || !*p.IsBank)
	}
	if p.IsBank != nil {
		acct.IsBank = *p.IsBank
	} else {
		acct.IsBank = inferred == LiquidityBank && !acct.IsCash
	}
	return acct, nil
}

// FindByCode returns the account with code, or nil if there is none.
func (s *Service) FindByCode(ctx context.Context, code string) (*model.Account, error) {
	return Lookup(ctx, s.conn, code)
}

// Lookup resolves code through q, which may be an open transaction.
func (s *Service) Lookup(ctx context.Context, q db.Querier, code string) (*model.Account, error) {
	return Lookup(ctx, q, code)
}

// Get returns the account with id.
func (s *Service) Get(ctx context.Context, id int64) (model.Account, error) {
	a, err := findOne(ctx, s.conn, "a.id = ?", id)
	if err != nil {
		return model.Account{}, err
	}
	if a == nil {
		return model.Account{}, fmt.Errorf("%w: account %d", model.ErrNotFound, id)
	}
	return *a, nil
}

// Patch lists the fields to change on an account; nil fields are kept.
type Patch struct {
	Code          *string
	Name          *string
	AccountNumber *string
	Type          *model.AccountType
	IsCash        *bool
	IsBank        *bool
}

// Update applies p to the account with id.
func (s *Service) Update(ctx context.Context, id int64, p Patch) (model.Account, error) {
	var updated model.Account
	err := s.conn.Transaction(ctx, func(tx *db.Tx) error {
		current, err := findOne(ctx, tx, "a.id = ?", id)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("%w: account %d", model.ErrNotFound, id)
		}

		updated = *current
		if p.Code != nil {
			updated.Code = strings.TrimSpace(*p.Code)
		}
		if p.Name != nil {
			updated.Name = strings.TrimSpace(*p.Name)
		}
		if p.AccountNumber != nil {
			updated.AccountNumber = strings.TrimSpace(*p.AccountNumber)
		}
		if p.Type != nil {
			updated.Type = *p.Type
		}
		if p.IsCash != nil {
			updated.IsCash = *p.IsCash
		}
		if p.IsBank != nil {
			updated.IsBank = *p.IsBank
		}

		switch {
		case updated.Code == "" || updated.Name == "" || updated.AccountNumber == "":
			return fmt.Errorf("%w: code, name and account number cannot be empty", model.ErrInvalidArgument)
		case !updated.Type.Valid():
			return fmt.Errorf("%w: unknown account type %q", model.ErrInvalidArgument, updated.Type)
		case updated.IsCash && updated.IsBank:
			return fmt.Errorf("%w: account %q cannot be both cash and bank", model.ErrInvalidArgument, updated.Code)
		}

		if err := checkUnique(ctx, tx, updated, id); err != nil {
			return err
		}
		return updateAccount(ctx, tx, updated)
	})
	if err != nil {
		return model.Account{}, err
	}
	return updated, nil
}

// Remove deletes an account that owns no entries.
func (s *Service) Remove(ctx context.Context, id int64) error {
	err := s.conn.Transaction(ctx, func(tx *db.Tx) error {
		current, err := findOne(ctx, tx, "a.id = ?", id)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("%w: account %d", model.ErrNotFound, id)
		}

		n, err := countEntries(ctx, tx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: account %q has %d entries", model.ErrConflict, current.Code, n)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM ledger_accounts WHERE id = ?`, id); err != nil {
			if tx.Dialect().IsForeignKeyViolation(err) {
				return fmt.Errorf("%w: account %q is referenced by entries", model.ErrConflict, current.Code)
			}
			return fmt.Errorf("deleting account %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info().Int64("account_id", id).Msg("account removed")
	return nil
}

// Filter narrows List results.
type Filter struct {
	Type      *model.AccountType
	Liquidity LiquidityFilter
}

// List returns the accounts matching f.
func (s *Service) List(ctx context.Context, f Filter) ([]model.Account, error) {
	where, args := f.Liquidity.Where()
	if f.Type != nil {
		if where != "" {
			where += " AND "
		}
		where += "a.type = ?"
		args = append(args, string(*f.Type))
	}
	return listAccounts(ctx, s.conn, where, f.Liquidity.OrderBy(), args...)
}

// EnsureAccount returns the account with a.Code, creating it if absent. A
// missing or taken number is replaced by the next free one in the type range.
func (s *Service) EnsureAccount(ctx context.Context, a model.Account) (model.Account, error) {
	acct, _, err := s.ensure(ctx, a, TypeRange(a.Type))
	return acct, err
}

// AutoCreateExpenseAccount returns the expense account with code, creating it
// with the next number in ExpenseRange if absent.
func (s *Service) AutoCreateExpenseAccount(ctx context.Context, code, name string) (model.Account, error) {
	acct, _, err := s.ensure(ctx, model.Account{
		Code: code,
		Name: name,
		Type: model.AccountTypeExpense,
	}, ExpenseRange)
	return acct, err
}

// SupplierCode returns the liability account code for a supplier.
func SupplierCode(supplierID int64) string {
	return fmt.Sprintf("LIABILITY.SUPPLIER.%d", supplierID)
}

// CustomerCode returns the receivable account code for a customer.
func CustomerCode(customerID int64) string {
	return fmt.Sprintf("ASSET.RECEIVABLE.%d", customerID)
}

// GetOrCreateSupplierAccount returns the supplier's liability account,
// creating it in SupplierRange on first use.
func (s *Service) GetOrCreateSupplierAccount(ctx context.Context, supplierID int64, name string) (model.Account, error) {
	acct, _, err := s.ensure(ctx, model.Account{
		Code: SupplierCode(supplierID),
		Name: fmt.Sprintf("%s (supplier %d)", name, supplierID),
		Type: model.AccountTypeLiability,
	}, SupplierRange)
	return acct, err
}

// GetOrCreateCustomerAccount returns the customer's receivable account,
// creating it in CustomerRange on first use.
func (s *Service) GetOrCreateCustomerAccount(ctx context.Context, customerID int64, name string) (model.Account, error) {
	acct, _, err := s.ensure(ctx, model.Account{
		Code: CustomerCode(customerID),
		Name: fmt.Sprintf("%s (customer %d)", name, customerID),
		Type: model.AccountTypeAsset,
	}, CustomerRange)
	return acct, err
}

func (s *Service) ensure(ctx context.Context, a model.Account, r NumberRange) (model.Account, bool, error) {
	var (
		acct    model.Account
		created bool
	)
	err := s.conn.Transaction(ctx, func(tx *db.Tx) error {
		var err error
		acct, created, err = ensureTx(ctx, tx, a, r)
		return err
	})
	if err != nil {
		return model.Account{}, false, err
	}
	if created {
		s.log.Info().Str("code", acct.Code).Str("account_number", acct.AccountNumber).Msg("account auto-created")
	}
	return acct, created, nil
}

func ensureTx(ctx context.Context, q db.Querier, a model.Account, r NumberRange) (model.Account, bool, error) {
	existing, err := Lookup(ctx, q, a.Code)
	if err != nil {
		return model.Account{}, false, err
	}
	if existing != nil {
		return *existing, false, nil
	}
	if a.Code == "" || a.Name == "" || !a.Type.Valid() {
		return model.Account{}, false, fmt.Errorf("%w: incomplete account %q", model.ErrInvalidArgument, a.Code)
	}

	taken := a.AccountNumber == ""
	if !taken {
		other, err := findOne(ctx, q, "a.account_number = ?", a.AccountNumber)
		if err != nil {
			return model.Account{}, false, err
		}
		taken = other != nil
	}
	if taken {
		number, err := allocateNumber(ctx, q, r)
		if err != nil {
			return model.Account{}, false, err
		}
		a.AccountNumber = number
	}

	if err := checkUnique(ctx, q, a, 0); err != nil {
		return model.Account{}, false, err
	}
	if err := insertAccount(ctx, q, &a); err != nil {
		return model.Account{}, false, err
	}
	return a, true, nil
}

// EnsureBasicAccounts seeds the foundational accounts, skipping codes that
// already exist. It returns the accounts it created.
func (s *Service) EnsureBasicAccounts(ctx context.Context) ([]model.Account, error) {
	var created []model.Account
	err := s.conn.Transaction(ctx, func(tx *db.Tx) error {
		created = nil
		for _, seed := range BasicChart() {
			acct, isNew, err := ensureTx(ctx, tx, seed, TypeRange(seed.Type))
			if err != nil {
				return fmt.Errorf("seeding %s: %w", seed.Code, err)
			}
			if isNew {
				created = append(created, acct)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Int("created", len(created)).Msg("basic accounts ensured")
	return created, nil
}
