package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger/internal/accounts"
	"github.com/cleared-dev/ledger/internal/balance"
)

func newReportCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Balances and financial statements",
	}
	cmd.PersistentFlags().String("as-of", "", "include entries up to this date (YYYY-MM-DD)")
	cmd.AddCommand(
		newReportBalanceCommand(a),
		newReportBalancesCommand(a),
		newReportTrialCommand(a),
		newReportBalanceSheetCommand(a),
		newReportPnLCommand(a),
	)
	return cmd
}

func balanceTable(w io.Writer, rows []balance.Row) {
	fmt.Fprintln(w, "NUMBER\tCODE\tNAME\tTYPE\tDEBIT\tCREDIT\tBALANCE")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.AccountNumber, r.Code, r.Name, r.Type, money(r.Debit), money(r.Credit), money(r.Balance))
	}
}

func newReportBalanceCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <account-code>",
		Short: "Balance of one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asOf, err := dateFlag(cmd, "as-of")
			if err != nil {
				return err
			}
			row, err := a.balances.AccountBalance(cmd.Context(), args[0], asOf)
			if err != nil {
				return err
			}
			return a.render(cmd, row, func(w io.Writer) {
				balanceTable(w, []balance.Row{row})
			})
		},
	}
}

func newReportBalancesCommand(a *app) *cobra.Command {
	var activeOnly bool

	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Balances of all accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asOf, err := dateFlag(cmd, "as-of")
			if err != nil {
				return err
			}
			rows, err := a.balances.AllAccountBalances(cmd.Context(), balance.Filter{
				AsOf:      asOf,
				Liquidity: accounts.FilterFromFlags(boolFlag(cmd, "cash"), boolFlag(cmd, "bank")),
			})
			if err != nil {
				return err
			}
			if activeOnly {
				kept := rows[:0]
				for _, r := range rows {
					if r.HasActivity() {
						kept = append(kept, r)
					}
				}
				rows = kept
			}
			return a.render(cmd, rows, func(w io.Writer) {
				balanceTable(w, rows)
			})
		},
	}

	cmd.Flags().Bool("cash", false, "filter on the cash flag (with --bank: cash or bank)")
	cmd.Flags().Bool("bank", false, "filter on the bank flag (with --cash: cash or bank)")
	cmd.Flags().BoolVar(&activeOnly, "active", false, "hide accounts without entries")
	return cmd
}

func newReportTrialCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "trial",
		Short: "Trial balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asOf, err := dateFlag(cmd, "as-of")
			if err != nil {
				return err
			}
			tb, err := a.balances.TrialBalance(cmd.Context(), asOf)
			if err != nil {
				return err
			}
			return a.render(cmd, tb, func(w io.Writer) {
				fmt.Fprintln(w, "NUMBER\tCODE\tNAME\tDEBIT\tCREDIT")
				for _, it := range tb.Items {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
						it.AccountNumber, it.Code, it.Name, blankZero(it.DebitBalance), blankZero(it.CreditBalance))
				}
				fmt.Fprintf(w, "\t\tTOTAL\t%s\t%s\n", money(tb.Totals.TotalDebit), money(tb.Totals.TotalCredit))
				fmt.Fprintf(w, "\t\tDIFFERENCE\t%s\t%s\n", money(tb.Totals.Difference),
					status(tb.Totals.IsBalanced, "BALANCED", "UNBALANCED"))
			})
		},
	}
}

func sectionTable(w io.Writer, title string, s balance.Section) {
	fmt.Fprintf(w, "%s\t\t\n", title)
	for _, r := range s.Accounts {
		if r.HasActivity() {
			fmt.Fprintf(w, "  %s\t%s\t%s\n", r.Code, r.Name, money(r.Balance))
		}
	}
	fmt.Fprintf(w, "  TOTAL %s\t\t%s\n", title, money(s.Total))
}

func newReportBalanceSheetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "balance-sheet",
		Short: "Assets, liabilities and equity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asOf, err := dateFlag(cmd, "as-of")
			if err != nil {
				return err
			}
			bs, err := a.balances.BalanceSheet(cmd.Context(), asOf)
			if err != nil {
				return err
			}
			return a.render(cmd, bs, func(w io.Writer) {
				sectionTable(w, "ASSETS", bs.Assets)
				sectionTable(w, "LIABILITIES", bs.Liabilities)
				sectionTable(w, "EQUITY", bs.Equity)
				fmt.Fprintf(w, "  CURRENT EARNINGS\t\t%s\n", money(bs.CurrentEarnings))
				fmt.Fprintf(w, "LIABILITIES + EQUITY\t\t%s\n", money(bs.TotalLiabilitiesAndEquity))
				fmt.Fprintf(w, "%s\t\t\n", status(bs.IsBalanced, "BALANCED", "UNBALANCED"))
			})
		},
	}
}

func newReportPnLCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "pnl",
		Aliases: []string{"profit-and-loss"},
		Short:   "Income and expenses",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asOf, err := dateFlag(cmd, "as-of")
			if err != nil {
				return err
			}
			pl, err := a.balances.ProfitAndLoss(cmd.Context(), asOf)
			if err != nil {
				return err
			}
			return a.render(cmd, pl, func(w io.Writer) {
				sectionTable(w, "INCOME", pl.Income)
				sectionTable(w, "EXPENSES", pl.Expenses)
				fmt.Fprintf(w, "NET PROFIT\t\t%s\n", money(pl.NetProfit))
				if pl.NetLoss.IsPositive() {
					fmt.Fprintf(w, "NET LOSS\t\t%s\n", money(pl.NetLoss))
				}
			})
		},
	}
}
