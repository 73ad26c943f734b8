package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reference types written by the posting helpers. Collaborators may use any
// other tag.
const (
	RefOpeningBalance = "opening_balance"
	RefCashAddition   = "cash_addition"
	RefFundTransfer   = "fund_transfer"
	RefSale           = "sale"
	RefManualJournal  = "manual_journal"
	RefSupplierRefund = "supplier_refund"
)

// Entry is one leg of a transaction.
type Entry struct {
	ID            int64           `yaml:"id"`
	TransactionID int64           `yaml:"transaction_id"`
	AccountID     int64           `yaml:"account_id"`
	Debit         decimal.Decimal `yaml:"debit"`  // zero if credit side
	Credit        decimal.Decimal `yaml:"credit"` // zero if debit side
	Narration     string          `yaml:"narration,omitempty"`

	// Account is populated on reads.
	Account *Account `yaml:"account,omitempty"`
}

// Transaction is a business event recorded as a set of entries.
type Transaction struct {
	ID            int64     `yaml:"id"`
	ReferenceType string    `yaml:"reference_type"`
	ReferenceID   int64     `yaml:"reference_id"`
	CreatedAt     time.Time `yaml:"created_at"`
	Entries       []Entry   `yaml:"entries"`
}

// Totals sums the debit and credit sides of the transaction.
func (t Transaction) Totals() (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, e := range t.Entries {
		debit = debit.Add(e.Debit)
		credit = credit.Add(e.Credit)
	}
	return debit, credit
}

// Difference returns total debit minus total credit.
func (t Transaction) Difference() decimal.Decimal {
	d, c := t.Totals()
	return d.Sub(c)
}
