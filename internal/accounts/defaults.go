package accounts

import "github.com/cleared-dev/ledger/internal/model"

// BasicChart returns the foundational accounts seeded by EnsureBasicAccounts.
func BasicChart() []model.Account {
	return []model.Account{
		{AccountNumber: "1001", Code: model.CodeCash, Name: "Cash", Type: model.AccountTypeAsset, IsCash: true},
		{AccountNumber: "1002", Code: model.CodeBank, Name: "Bank", Type: model.AccountTypeAsset, IsBank: true},
		{AccountNumber: "1003", Code: model.CodeInventory, Name: "Inventory", Type: model.AccountTypeAsset},
		{AccountNumber: "1004", Code: model.CodeReceivable, Name: "Accounts Receivable", Type: model.AccountTypeAsset},
		{AccountNumber: "2001", Code: model.CodePayable, Name: "Accounts Payable", Type: model.AccountTypeLiability},
		{AccountNumber: "3001", Code: model.CodeCapital, Name: "Owner Capital", Type: model.AccountTypeEquity},
		{AccountNumber: "3002", Code: model.CodeOpeningBalance, Name: "Opening Balance Equity", Type: model.AccountTypeEquity},
		{AccountNumber: "4001", Code: model.CodeSales, Name: "Sales", Type: model.AccountTypeIncome},
		{AccountNumber: "5001", Code: model.CodeCOGS, Name: "Cost of Goods Sold", Type: model.AccountTypeExpense},
		{AccountNumber: "5002", Code: model.CodeSalesDiscount, Name: "Sales Discount", Type: model.AccountTypeExpense},
	}
}
