package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger/internal/accounts"
	"github.com/cleared-dev/ledger/internal/model"
)

func newAccountsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "accounts",
		Aliases: []string{"account"},
		Short:   "Manage the chart of accounts",
	}
	cmd.AddCommand(
		newAccountsCreateCommand(a),
		newAccountsListCommand(a),
		newAccountsShowCommand(a),
		newAccountsUpdateCommand(a),
		newAccountsDeleteCommand(a),
		newAccountsSeedCommand(a),
		newAccountsExportCommand(a),
		newAccountsImportCommand(a),
	)
	return cmd
}

func accountTable(w io.Writer, accts []model.Account) {
	fmt.Fprintln(w, "NUMBER\tCODE\tNAME\tTYPE\tCASH\tBANK")
	for _, acct := range accts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			acct.AccountNumber, acct.Code, acct.Name, acct.Type, yesNo(acct.IsCash), yesNo(acct.IsBank))
	}
}

func newAccountsCreateCommand(a *app) *cobra.Command {
	var p accounts.CreateParams
	var accountType string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p.Type = model.AccountType(accountType)
			p.IsCash = boolFlag(cmd, "cash")
			p.IsBank = boolFlag(cmd, "bank")

			acct, err := a.accounts.Create(cmd.Context(), p)
			if err != nil {
				return err
			}
			return a.render(cmd, acct, func(w io.Writer) {
				accountTable(w, []model.Account{acct})
			})
		},
	}

	cmd.Flags().StringVar(&p.Code, "code", "", "account code, e.g. ASSET.BANK_IBBL (required)")
	cmd.Flags().StringVar(&p.Name, "name", "", "account name (required)")
	cmd.Flags().StringVar(&p.AccountNumber, "number", "", "account number (required)")
	cmd.Flags().StringVar(&accountType, "type", "", "asset, liability, equity, income or expense (required)")
	cmd.Flags().Bool("cash", false, "mark as a cash account (inferred from the code when omitted)")
	cmd.Flags().Bool("bank", false, "mark as a bank account (inferred from the code when omitted)")
	for _, f := range []string{"code", "name", "number", "type"} {
		_ = cmd.MarkFlagRequired(f)
	}

	return cmd
}

func newAccountsListCommand(a *app) *cobra.Command {
	var accountType string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := accounts.Filter{
				Liquidity: accounts.FilterFromFlags(boolFlag(cmd, "cash"), boolFlag(cmd, "bank")),
			}
			if accountType != "" {
				t := model.AccountType(accountType)
				if !t.Valid() {
					return fmt.Errorf("%w: unknown account type %q", model.ErrInvalidArgument, accountType)
				}
				f.Type = &t
			}

			accts, err := a.accounts.List(cmd.Context(), f)
			if err != nil {
				return err
			}
			return a.render(cmd, accts, func(w io.Writer) {
				accountTable(w, accts)
			})
		},
	}

	cmd.Flags().StringVar(&accountType, "type", "", "only accounts of this type")
	cmd.Flags().Bool("cash", false, "filter on the cash flag (with --bank: cash or bank)")
	cmd.Flags().Bool("bank", false, "filter on the bank flag (with --cash: cash or bank)")

	return cmd
}

func newAccountsShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <code>",
		Short: "Show one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := a.findAccount(cmd, args[0])
			if err != nil {
				return err
			}
			return a.render(cmd, acct, func(w io.Writer) {
				accountTable(w, []model.Account{acct})
			})
		},
	}
}

func (a *app) findAccount(cmd *cobra.Command, code string) (model.Account, error) {
	acct, err := a.accounts.FindByCode(cmd.Context(), code)
	if err != nil {
		return model.Account{}, err
	}
	if acct == nil {
		return model.Account{}, fmt.Errorf("%w: account %q", model.ErrNotFound, code)
	}
	return *acct, nil
}

func newAccountsUpdateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <code>",
		Short: "Change fields of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := a.findAccount(cmd, args[0])
			if err != nil {
				return err
			}

			var p accounts.Patch
			str := func(name string) *string {
				if !cmd.Flags().Changed(name) {
					return nil
				}
				v, _ := cmd.Flags().GetString(name)
				return &v
			}
			p.Code = str("code")
			p.Name = str("name")
			p.AccountNumber = str("number")
			if t := str("type"); t != nil {
				at := model.AccountType(*t)
				p.Type = &at
			}
			p.IsCash = boolFlag(cmd, "cash")
			p.IsBank = boolFlag(cmd, "bank")

			updated, err := a.accounts.Update(cmd.Context(), acct.ID, p)
			if err != nil {
				return err
			}
			return a.render(cmd, updated, func(w io.Writer) {
				accountTable(w, []model.Account{updated})
			})
		},
	}

	cmd.Flags().String("code", "", "new code")
	cmd.Flags().String("name", "", "new name")
	cmd.Flags().String("number", "", "new account number")
	cmd.Flags().String("type", "", "new type")
	cmd.Flags().Bool("cash", false, "set the cash flag")
	cmd.Flags().Bool("bank", false, "set the bank flag")

	return cmd
}

func newAccountsDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <code>",
		Short: "Delete an account without entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := a.findAccount(cmd, args[0])
			if err != nil {
				return err
			}
			if err := a.accounts.Remove(cmd.Context(), acct.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted account %s (%s)\n", acct.Code, acct.AccountNumber)
			return nil
		},
	}
}

func newAccountsSeedCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create any missing basic accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := a.accounts.EnsureBasicAccounts(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %d accounts\n", len(created))
			if len(created) == 0 {
				return nil
			}
			return a.render(cmd, created, func(w io.Writer) {
				accountTable(w, created)
			})
		},
	}
}

func newAccountsExportCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write the chart of accounts as CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || args[0] == "-" {
				return a.accounts.ExportCSV(cmd.Context(), cmd.OutOrStdout())
			}
			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("creating %s: %w", args[0], err)
			}
			if err := a.accounts.ExportCSV(cmd.Context(), f); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
}

func newAccountsImportCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Create accounts from a CSV file, skipping existing codes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()

			n, err := a.accounts.ImportCSV(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d accounts\n", n)
			return nil
		},
	}
}
