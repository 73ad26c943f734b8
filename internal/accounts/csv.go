package accounts

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/cleared-dev/ledger/internal/db"
	"github.com/cleared-dev/ledger/internal/model"
)

const (
	numFields = 6
	colNumber = 0
	colCode   = 1
	colName   = 2
	colType   = 3
	colCash   = 4
	colBank   = 5
)

// ReadAccounts reads a chart-of-accounts CSV.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var accounts []model.Account
	for i, rec := range records[1:] {
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes a chart-of-accounts CSV.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"account_number", "code", "name", "type", "is_cash", "is_bank"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colNumber] = acct.AccountNumber
	row[colCode] = acct.Code
	row[colName] = acct.Name
	row[colType] = string(acct.Type)
	row[colCash] = strconv.FormatBool(acct.IsCash)
	row[colBank] = strconv.FormatBool(acct.IsBank)
	return row
}

// UnmarshalAccount converts a CSV row to an Account. Empty flag columns
// parse as false.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != numFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	parseFlag := func(col int) (bool, error) {
		if record[col] == "" {
			return false, nil
		}
		v, err := strconv.ParseBool(record[col])
		if err != nil {
			return false, fmt.Errorf("parsing flag %q: %w", record[col], err)
		}
		return v, nil
	}

	isCash, err := parseFlag(colCash)
	if err != nil {
		return model.Account{}, err
	}
	isBank, err := parseFlag(colBank)
	if err != nil {
		return model.Account{}, err
	}

	return model.Account{
		AccountNumber: record[colNumber],
		Code:          record[colCode],
		Name:          record[colName],
		Type:          model.AccountType(record[colType]),
		IsCash:        isCash,
		IsBank:        isBank,
	}, nil
}

// ExportCSV writes every account, ordered by number.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	accts, err := s.List(ctx, Filter{})
	if err != nil {
		return err
	}
	return WriteAccounts(w, accts)
}

// ImportCSV creates the accounts in r whose codes don't exist yet. The whole
// file is imported in one transaction. It returns the number created.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (int, error) {
	rows, err := ReadAccounts(r)
	if err != nil {
		return 0, err
	}

	created := 0
	err = s.conn.Transaction(ctx, func(tx *db.Tx) error {
		created = 0
		for _, row := range rows {
			isCash, isBank := row.IsCash, row.IsBank
			acct, err := buildAccount(CreateParams{
				Code:          row.Code,
				Name:          row.Name,
				AccountNumber: row.AccountNumber,
				Type:          row.Type,
				IsCash:        &isCash,
				IsBank:        &isBank,
			})
			if err != nil {
				return fmt.Errorf("account %q: %w", row.Code, err)
			}

			existing, err := Lookup(ctx, tx, acct.Code)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}
			if err := checkUnique(ctx, tx, acct, 0); err != nil {
				return err
			}
			if err := insertAccount(ctx, tx, &acct); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.log.Info().Int("created", created).Msg("chart of accounts imported")
	return created, nil
}
