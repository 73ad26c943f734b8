package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/ledger/internal/journal"
	"github.com/cleared-dev/ledger/internal/model"
)

func newPostCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Record transactions",
	}
	cmd.AddCommand(
		newPostOpeningCommand(a),
		newPostCashCommand(a),
		newPostBankCommand(a),
		newPostTransferCommand(a),
		newPostVoucherCommand(a),
	)
	return cmd
}

func transactionTable(w io.Writer, txns []model.Transaction) {
	fmt.Fprintln(w, "TXN\tDATE\tREFERENCE\tACCOUNT\tDEBIT\tCREDIT\tNARRATION")
	for _, txn := range txns {
		ref := txn.ReferenceType
		if txn.ReferenceID != 0 {
			ref = fmt.Sprintf("%s #%d", txn.ReferenceType, txn.ReferenceID)
		}
		for i, e := range txn.Entries {
			id, date := "", ""
			if i == 0 {
				id = fmt.Sprint(txn.ID)
				date = txn.CreatedAt.Format(time.DateTime)
			} else {
				ref = ""
			}
			code := ""
			if e.Account != nil {
				code = e.Account.Code
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				id, date, ref, code, blankZero(e.Debit), blankZero(e.Credit), e.Narration)
		}
	}
}

func (a *app) renderTransaction(cmd *cobra.Command, txn model.Transaction) error {
	return a.render(cmd, txn, func(w io.Writer) {
		transactionTable(w, []model.Transaction{txn})
	})
}

func newPostOpeningCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "opening <account-code> <amount>",
		Short: "Post an opening balance against opening-balance equity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			txn, err := a.journal.CreateOpeningBalance(cmd.Context(), args[0], amount)
			if err != nil {
				return err
			}
			return a.renderTransaction(cmd, txn)
		},
	}
}

func newPostCashCommand(a *app) *cobra.Command {
	var narration string

	cmd := &cobra.Command{
		Use:   "cash <amount>",
		Short: "Add owner capital to the cash account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			txn, err := a.journal.AddCash(cmd.Context(), amount, narration)
			if err != nil {
				return err
			}
			return a.renderTransaction(cmd, txn)
		},
	}

	cmd.Flags().StringVarP(&narration, "narration", "n", "", "entry narration")
	return cmd
}

func newPostBankCommand(a *app) *cobra.Command {
	var narration string

	cmd := &cobra.Command{
		Use:   "bank <bank-code> <amount>",
		Short: "Add owner capital to a bank account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			txn, err := a.journal.AddBankBalance(cmd.Context(), args[0], amount, narration)
			if err != nil {
				return err
			}
			return a.renderTransaction(cmd, txn)
		},
	}

	cmd.Flags().StringVarP(&narration, "narration", "n", "", "entry narration")
	return cmd
}

func newPostTransferCommand(a *app) *cobra.Command {
	var narration string

	cmd := &cobra.Command{
		Use:   "transfer <from-code> <to-code> <amount>",
		Short: "Move funds between cash and bank accounts",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			txn, err := a.journal.TransferFunds(cmd.Context(), args[0], args[1], amount, narration)
			if err != nil {
				return err
			}
			return a.renderTransaction(cmd, txn)
		},
	}

	cmd.Flags().StringVarP(&narration, "narration", "n", "", "entry narration")
	return cmd
}

// voucherFile is the YAML layout read by "post voucher".
type voucherFile struct {
	ReferenceType string `yaml:"reference_type"`
	ReferenceID   int64  `yaml:"reference_id"`
	Lines         []struct {
		Account   string `yaml:"account"`
		Debit     string `yaml:"debit"`
		Credit    string `yaml:"credit"`
		Narration string `yaml:"narration"`
	} `yaml:"lines"`
}

func readVoucher(path string) (voucherFile, []journal.Leg, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return voucherFile{}, nil, fmt.Errorf("reading voucher: %w", err)
	}
	var vf voucherFile
	if err := yaml.Unmarshal(data, &vf); err != nil {
		return voucherFile{}, nil, fmt.Errorf("parsing voucher: %w", err)
	}

	legs := make([]journal.Leg, 0, len(vf.Lines))
	for i, l := range vf.Lines {
		leg := journal.Leg{AccountCode: l.Account, Narration: l.Narration}
		if l.Debit != "" {
			if leg.Debit, err = parseAmount(l.Debit); err != nil {
				return voucherFile{}, nil, fmt.Errorf("line %d: %w", i+1, err)
			}
		}
		if l.Credit != "" {
			if leg.Credit, err = parseAmount(l.Credit); err != nil {
				return voucherFile{}, nil, fmt.Errorf("line %d: %w", i+1, err)
			}
		}
		legs = append(legs, leg)
	}
	return vf, legs, nil
}

func newPostVoucherCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "voucher <file.yaml>",
		Short: "Post a balanced journal voucher read from a YAML file",
		Long: `Post a balanced journal voucher read from a YAML file:

  reference_type: manual_journal
  reference_id: 0
  lines:
    - account: EXPENSE.COGS
      debit: "40.00"
    - account: ASSET.CASH
      credit: "40.00"
      narration: stock write-off`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vf, legs, err := readVoucher(args[0])
			if err != nil {
				return err
			}
			txn, err := a.journal.CreateJournalVoucher(cmd.Context(), legs, vf.ReferenceType, vf.ReferenceID)
			if err != nil {
				return err
			}
			return a.renderTransaction(cmd, txn)
		},
	}
}
