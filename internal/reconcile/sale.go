package reconcile

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledger/internal/model"
)

// SaleReconciler repairs sales whose collections exceed the discounted sale
// amount. Expected collections are the sales credit less the discount debit;
// actual collections are the receivable and cash/bank debits. The excess is
// taken off the receivable first and then off cash.
type SaleReconciler struct{}

// Repair implements Reconciler.
func (SaleReconciler) Repair(txn *model.Transaction) ([]Adjustment, error) {
	var (
		salesCredit    = decimal.Zero
		discountDebit  = decimal.Zero
		hasSales       bool
		hasDiscount    bool
		receivables    []int
		collections    []int
		actualReceived = decimal.Zero
	)
	for i, e := range txn.Entries {
		if e.Account == nil {
			continue
		}
		switch {
		case e.Account.Code == model.CodeSales:
			hasSales = true
			salesCredit = salesCredit.Add(e.Credit)
		case e.Account.Code == model.CodeSalesDiscount:
			hasDiscount = true
			discountDebit = discountDebit.Add(e.Debit)
		case isReceivable(e.Account):
			receivables = append(receivables, i)
			actualReceived = actualReceived.Add(e.Debit)
		case e.Account.IsLiquid():
			collections = append(collections, i)
			actualReceived = actualReceived.Add(e.Debit)
		}
	}
	if !hasSales || !hasDiscount {
		return nil, fmt.Errorf("%w: sale needs both %s and %s entries",
			model.ErrUnsupportedRepair, model.CodeSales, model.CodeSalesDiscount)
	}

	expected := salesCredit.Sub(discountDebit)
	excess := actualReceived.Sub(expected)
	if !excess.IsPositive() {
		return nil, fmt.Errorf("%w: collections %s do not exceed expected %s",
			model.ErrUnsupportedRepair, actualReceived.StringFixed(2), expected.StringFixed(2))
	}

	var adjustments []Adjustment
	for _, i := range append(receivables, collections...) {
		if !excess.IsPositive() {
			break
		}
		e := &txn.Entries[i]
		if !e.Debit.IsPositive() {
			continue
		}
		cut := decimal.Min(e.Debit, excess)
		adjustments = append(adjustments, Adjustment{
			EntryID:     e.ID,
			AccountCode: e.Account.Code,
			Side:        model.SideDebit,
			Before:      e.Debit,
			After:       e.Debit.Sub(cut),
		})
		e.Debit = e.Debit.Sub(cut)
		excess = excess.Sub(cut)
	}
	return adjustments, nil
}

func isReceivable(a *model.Account) bool {
	return a.Code == model.CodeReceivable || strings.HasPrefix(a.Code, "ASSET.RECEIVABLE.")
}
