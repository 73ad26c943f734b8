package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger/internal/journal"
	"github.com/cleared-dev/ledger/internal/model"
)

func newJournalCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Read, export and import the journal",
	}
	cmd.AddCommand(
		newJournalListCommand(a),
		newJournalShowCommand(a),
		newJournalExportCommand(a),
		newJournalImportCommand(a),
	)
	return cmd
}

func newJournalListCommand(a *app) *cobra.Command {
	var p journal.ListParams

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			txns, err := a.journal.List(cmd.Context(), p)
			if err != nil {
				return err
			}
			if txns == nil {
				txns = []model.Transaction{}
			}
			return a.render(cmd, txns, func(w io.Writer) {
				transactionTable(w, txns)
			})
		},
	}

	cmd.Flags().StringVar(&p.ReferenceType, "type", "", "only this reference type")
	cmd.Flags().IntVar(&p.Limit, "limit", 0, "maximum transactions (0 for all)")
	cmd.Flags().IntVar(&p.Offset, "offset", 0, "transactions to skip")
	return cmd
}

func newJournalShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <transaction-id>",
		Short: "Show one transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			txn, err := a.journal.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.renderTransaction(cmd, txn)
		},
	}
}

func newJournalExportCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write every entry as CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || args[0] == "-" {
				return a.journal.ExportCSV(cmd.Context(), cmd.OutOrStdout())
			}
			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("creating %s: %w", args[0], err)
			}
			if err := a.journal.ExportCSV(cmd.Context(), f); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
}

func newJournalImportCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Post every transaction of a journal CSV export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()

			n, err := a.journal.ImportCSV(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d transactions\n", n)
			return nil
		},
	}
}
