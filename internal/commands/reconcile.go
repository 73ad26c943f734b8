package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newReconcileCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Find and repair unbalanced transactions",
	}
	cmd.AddCommand(newReconcileScanCommand(a), newReconcileFixCommand(a))
	return cmd
}

func newReconcileScanCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Report transactions whose debits and credits differ",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := a.reconcile.FindUnbalanced(cmd.Context())
			if err != nil {
				return err
			}
			return a.render(cmd, report, func(w io.Writer) {
				fmt.Fprintf(w, "%d of %d transactions unbalanced\n", report.UnbalancedCount, report.TotalTransactions)
				if report.UnbalancedCount == 0 {
					return
				}
				fmt.Fprintln(w, "TXN\tREFERENCE\tDEBIT\tCREDIT\tDIFFERENCE")
				for _, f := range report.Unbalanced {
					fmt.Fprintf(w, "%d\t%s #%d\t%s\t%s\t%s\n",
						f.TransactionID, f.ReferenceType, f.ReferenceID,
						money(f.TotalDebit), money(f.TotalCredit), status(false, "", money(f.Difference)))
				}
			})
		},
	}
}

func newReconcileFixCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fix <transaction-id>",
		Short: "Repair an unbalanced transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			result, err := a.reconcile.Fix(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.render(cmd, result, func(w io.Writer) {
				fmt.Fprintf(w, "Repaired transaction %d (%s): difference %s -> %s\n",
					result.TransactionID, result.ReferenceType,
					money(result.Before.Difference), money(result.After.Difference))
				fmt.Fprintln(w, "ENTRY\tACCOUNT\tSIDE\tBEFORE\tAFTER")
				for _, adj := range result.Adjustments {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
						adj.EntryID, adj.AccountCode, adj.Side, money(adj.Before), money(adj.After))
				}
			})
		},
	}
}
