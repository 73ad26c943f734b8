package balance

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledger/internal/model"
)

// TrialBalanceItem shows an account's balance on the side it falls.
type TrialBalanceItem struct {
	Row           `yaml:",inline"`
	Side          model.Side      `yaml:"side"`
	DebitBalance  decimal.Decimal `yaml:"debit_balance"`
	CreditBalance decimal.Decimal `yaml:"credit_balance"`
}

// TrialBalanceTotals sums raw debits and credits across all accounts.
type TrialBalanceTotals struct {
	TotalDebit  decimal.Decimal `yaml:"total_debit"`
	TotalCredit decimal.Decimal `yaml:"total_credit"`
	Difference  decimal.Decimal `yaml:"difference"`
	IsBalanced  bool            `yaml:"is_balanced"`
}

// TrialBalance is the pre-netting debit/credit check.
type TrialBalance struct {
	AsOf   *time.Time         `yaml:"as_of,omitempty"`
	Items  []TrialBalanceItem `yaml:"items"`
	Totals TrialBalanceTotals `yaml:"totals"`
}

// TrialBalance lists every account with activity and checks that total
// debits equal total credits within tolerance.
func (c *Calculator) TrialBalance(ctx context.Context, asOf *time.Time) (TrialBalance, error) {
	rows, err := c.AllAccountBalances(ctx, Filter{AsOf: asOf})
	if err != nil {
		return TrialBalance{}, err
	}

	tb := TrialBalance{AsOf: asOf, Items: []TrialBalanceItem{}}
	totalDebit, totalCredit := decimal.Zero, decimal.Zero
	for _, r := range rows {
		totalDebit = totalDebit.Add(r.Debit)
		totalCredit = totalCredit.Add(r.Credit)
		if !r.HasActivity() {
			continue
		}
		tb.Items = append(tb.Items, trialBalanceItem(r))
	}

	tb.Totals = TrialBalanceTotals{
		TotalDebit:  totalDebit,
		TotalCredit: totalCredit,
		Difference:  totalDebit.Sub(totalCredit),
		IsBalanced:  model.IsBalanced(totalDebit, totalCredit),
	}
	return tb, nil
}

func trialBalanceItem(r Row) TrialBalanceItem {
	item := TrialBalanceItem{Row: r, DebitBalance: decimal.Zero, CreditBalance: decimal.Zero}
	side := r.Type.NormalSide()
	amount := r.Balance
	if amount.IsNegative() {
		amount = amount.Neg()
		if side == model.SideDebit {
			side = model.SideCredit
		} else {
			side = model.SideDebit
		}
	}
	item.Side = side
	if side == model.SideDebit {
		item.DebitBalance = amount
	} else {
		item.CreditBalance = amount
	}
	return item
}

// Section is one bucket of a financial statement.
type Section struct {
	Accounts []Row           `yaml:"accounts"`
	Total    decimal.Decimal `yaml:"total"`
}

func (s *Section) add(r Row) {
	s.Accounts = append(s.Accounts, r)
	s.Total = s.Total.Add(r.Balance)
}

func newSection() Section {
	return Section{Accounts: []Row{}, Total: decimal.Zero}
}

// BalanceSheet partitions balances into assets, liabilities and equity.
type BalanceSheet struct {
	AsOf        *time.Time `yaml:"as_of,omitempty"`
	Assets      Section    `yaml:"assets"`
	Liabilities Section    `yaml:"liabilities"`
	Equity      Section    `yaml:"equity"`
	// CurrentEarnings is income minus expense not yet closed into equity.
	CurrentEarnings           decimal.Decimal `yaml:"current_earnings"`
	TotalLiabilitiesAndEquity decimal.Decimal `yaml:"total_liabilities_and_equity"`
	IsBalanced                bool            `yaml:"is_balanced"`
}

// BalanceSheet builds the balance sheet as of asOf.
func (c *Calculator) BalanceSheet(ctx context.Context, asOf *time.Time) (BalanceSheet, error) {
	rows, err := c.AllAccountBalances(ctx, Filter{AsOf: asOf})
	if err != nil {
		return BalanceSheet{}, err
	}

	bs := BalanceSheet{
		AsOf:            asOf,
		Assets:          newSection(),
		Liabilities:     newSection(),
		Equity:          newSection(),
		CurrentEarnings: decimal.Zero,
	}
	for _, r := range rows {
		switch r.Type {
		case model.AccountTypeAsset:
			bs.Assets.add(r)
		case model.AccountTypeLiability:
			bs.Liabilities.add(r)
		case model.AccountTypeEquity:
			bs.Equity.add(r)
		case model.AccountTypeIncome:
			bs.CurrentEarnings = bs.CurrentEarnings.Add(r.Balance)
		case model.AccountTypeExpense:
			bs.CurrentEarnings = bs.CurrentEarnings.Sub(r.Balance)
		}
	}
	bs.TotalLiabilitiesAndEquity = bs.Liabilities.Total.Add(bs.Equity.Total).Add(bs.CurrentEarnings)
	bs.IsBalanced = model.IsBalanced(bs.Assets.Total, bs.TotalLiabilitiesAndEquity)
	return bs, nil
}

// ProfitAndLoss partitions balances into income and expenses.
type ProfitAndLoss struct {
	AsOf      *time.Time      `yaml:"as_of,omitempty"`
	Income    Section         `yaml:"income"`
	Expenses  Section         `yaml:"expenses"`
	NetProfit decimal.Decimal `yaml:"net_profit"`
	NetLoss   decimal.Decimal `yaml:"net_loss"`
}

// ProfitAndLoss builds the income statement as of asOf. NetProfit may be
// negative; NetLoss is never negative.
func (c *Calculator) ProfitAndLoss(ctx context.Context, asOf *time.Time) (ProfitAndLoss, error) {
	rows, err := c.AllAccountBalances(ctx, Filter{AsOf: asOf})
	if err != nil {
		return ProfitAndLoss{}, err
	}

	pl := ProfitAndLoss{AsOf: asOf, Income: newSection(), Expenses: newSection()}
	for _, r := range rows {
		switch r.Type {
		case model.AccountTypeIncome:
			pl.Income.add(r)
		case model.AccountTypeExpense:
			pl.Expenses.add(r)
		}
	}
	pl.NetProfit = pl.Income.Total.Sub(pl.Expenses.Total)
	pl.NetLoss = decimal.Max(decimal.Zero, pl.Expenses.Total.Sub(pl.Income.Total))
	return pl, nil
}
