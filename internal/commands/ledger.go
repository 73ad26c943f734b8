package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger/internal/statement"
)

func newLedgerCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Statements with running balances",
	}
	flags := cmd.PersistentFlags()
	flags.String("from", "", "first day of the window (YYYY-MM-DD)")
	flags.String("to", "", "last day of the window (YYYY-MM-DD)")
	flags.Int("page", 1, "page number")
	flags.Int("limit", -1, "lines per page (0 for all; default from config)")

	cmd.AddCommand(
		newLedgerEntityCommand(a, "supplier <supplier-id>", "Supplier payable ledger", func(cmd *cobra.Command, arg string, q statement.Query) (statement.Statement, error) {
			id, err := parseID(arg)
			if err != nil {
				return statement.Statement{}, err
			}
			return a.statements.SupplierLedger(cmd.Context(), id, q)
		}),
		newLedgerEntityCommand(a, "customer <customer-id>", "Customer receivable ledger", func(cmd *cobra.Command, arg string, q statement.Query) (statement.Statement, error) {
			id, err := parseID(arg)
			if err != nil {
				return statement.Statement{}, err
			}
			return a.statements.CustomerLedger(cmd.Context(), id, q)
		}),
		newLedgerEntityCommand(a, "cash <account-code>", "Cash or bank account ledger", func(cmd *cobra.Command, arg string, q statement.Query) (statement.Statement, error) {
			return a.statements.CashBankLedger(cmd.Context(), arg, q)
		}),
		newLedgerEntityCommand(a, "account <account-code>", "Ledger of any account", func(cmd *cobra.Command, arg string, q statement.Query) (statement.Statement, error) {
			return a.statements.AccountLedger(cmd.Context(), arg, q)
		}),
	)
	return cmd
}

type statementFunc func(cmd *cobra.Command, arg string, q statement.Query) (statement.Statement, error)

func newLedgerEntityCommand(a *app, use, short string, generate statementFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := a.statementQuery(cmd)
			if err != nil {
				return err
			}
			st, err := generate(cmd, args[0], q)
			if err != nil {
				return err
			}
			return a.render(cmd, st, func(w io.Writer) {
				statementTable(w, st)
			})
		},
	}
}

func (a *app) statementQuery(cmd *cobra.Command) (statement.Query, error) {
	var q statement.Query
	var err error
	if q.From, err = dateFlag(cmd, "from"); err != nil {
		return q, err
	}
	if q.To, err = dateFlag(cmd, "to"); err != nil {
		return q, err
	}
	if q.Page, err = cmd.Flags().GetInt("page"); err != nil {
		return q, err
	}
	if q.Limit, err = cmd.Flags().GetInt("limit"); err != nil {
		return q, err
	}
	if q.Limit < 0 {
		q.Limit = a.cfg.Reports.DefaultPageSize
	}
	return q, nil
}

func statementTable(w io.Writer, st statement.Statement) {
	fmt.Fprintf(w, "%s\t%s\t\t\t\t\t\n", st.Account.Code, st.Account.Name)
	fmt.Fprintf(w, "CLOSING BALANCE\t\t\t\t\t%s\t\n", money(st.ClosingBalance))
	fmt.Fprintln(w, "DATE\tREFERENCE\tTXN\tDEBIT\tCREDIT\tBALANCE\tNARRATION")
	for _, l := range st.Entries {
		ref := l.ReferenceType
		if l.ReferenceID != 0 {
			ref = fmt.Sprintf("%s #%d", l.ReferenceType, l.ReferenceID)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			l.Date.Format("2006-01-02 15:04"), ref, l.TransactionID,
			blankZero(l.Debit), blankZero(l.Credit), money(l.RunningBalance), l.Narration)
	}
	fmt.Fprintf(w, "BROUGHT FORWARD\t\t\t\t\t%s\t\n", money(st.BroughtForward))
	fmt.Fprintf(w, "OPENING BALANCE\t\t\t\t\t%s\t\n", money(st.OpeningBalance))
	if st.Meta != nil {
		fmt.Fprintf(w, "page %d of %d (%d entries)\t\t\t\t\t\t\n", st.Meta.Page, st.Meta.TotalPages, st.Meta.Total)
	}
}
