package core

// Report output structures. Field names are the JSON contract consumed by
// the report pages and the sheet exporter.

type (
	BalanceSheet struct {
		AsOnDate           Date  `json:"as_on_date"`
		TotalFundAvailable Money `json:"totalFundAvailable"`
		SurplusDeficit     Money `json:"surplusDeficit"`
		LiabilitiesTotal   Money `json:"liabilitiesTotal"`
		BankBalance        Money `json:"bankBalance"`
		FixedAssetsTotal   Money `json:"fixedAssetsTotal"`
		AssetsTotal        Money `json:"assetsTotal"`
	}

	CreditBuckets struct {
		FundIn      Money `json:"fund_in"`
		StudentFee  Money `json:"student_fee"`
		OtherCredit Money `json:"other_credit"`
		Total       Money `json:"total"`
	}

	DebitBuckets struct {
		FundOut      Money `json:"fund_out"`
		Salary       Money `json:"salary"`
		FixedAsset   Money `json:"fixed_asset"`
		OtherExpense Money `json:"other_expense"`
		Total        Money `json:"total"`
	}

	BankReportRow struct {
		Date    Date          `json:"date"`
		Credit  CreditBuckets `json:"credit"`
		Debit   DebitBuckets  `json:"debit"`
		Balance Money         `json:"balance"`
	}

	BankTotals struct {
		Credit CreditBuckets `json:"credit"`
		Debit  DebitBuckets  `json:"debit"`
	}

	BankReport struct {
		StartDate      Date            `json:"start_date"`
		EndDate        Date            `json:"end_date"`
		AccountID      *int64          `json:"account_id,omitempty"`
		OpeningBalance Money           `json:"openingBalance"`
		Rows           []BankReportRow `json:"rows"`
		MonthlyTotals  BankTotals      `json:"monthlyTotals"`
		ClosingBalance Money           `json:"closingBalance"`
	}

	IncomeExpenditureLine struct {
		Description      string `json:"description"`
		MonthAmount      Money  `json:"month_amount"`
		CumulativeAmount Money  `json:"cumulative_amount"`
	}

	IncomeExpenditure struct {
		StartDate                  Date                    `json:"start_date"`
		EndDate                    Date                    `json:"end_date"`
		Income                     []IncomeExpenditureLine `json:"income"`
		Expenditure                []IncomeExpenditureLine `json:"expenditure"`
		TotalMonthIncome           Money                   `json:"totalMonthIncome"`
		TotalCumulativeIncome      Money                   `json:"totalCumulativeIncome"`
		TotalMonthExpenditure      Money                   `json:"totalMonthExpenditure"`
		TotalCumulativeExpenditure Money                   `json:"totalCumulativeExpenditure"`
		MonthSurplusDeficit        Money                   `json:"monthSurplusDeficit"`
		CumulativeSurplusDeficit   Money                   `json:"cumulativeSurplusDeficit"`
	}

	ReceiptPaymentLine struct {
		Description string `json:"description"`
		Amount      Money  `json:"amount"`
		Type        string `json:"type"`
	}

	ReceiptPayment struct {
		StartDate      Date                 `json:"start_date"`
		EndDate        Date                 `json:"end_date"`
		OpeningBalance Money                `json:"openingBalance"`
		Receipts       []ReceiptPaymentLine `json:"receipts"`
		Payments       []ReceiptPaymentLine `json:"payments"`
		TotalReceipts  Money                `json:"totalReceipts"`
		TotalPayments  Money                `json:"totalPayments"`
		ClosingBalance Money                `json:"closingBalance"`
	}

	DueAmounts struct {
		Total Money `json:"total_amount"`
		Paid  Money `json:"paid_amount"`
		Due   Money `json:"due_amount"`
	}

	StudentDue struct {
		StudentID   string `json:"student_id"`
		StudentName string `json:"student_name"`
		DueAmounts
	}

	ClassDue struct {
		ClassName string       `json:"class_name"`
		Students  []StudentDue `json:"students"`
		DueAmounts
	}

	OrganizationDue struct {
		Organization string     `json:"organization"`
		Classes      []ClassDue `json:"classes"`
		DueAmounts
	}

	DueReport struct {
		Organizations []OrganizationDue `json:"organizations"`
		DueAmounts
	}
)

// Receipt and payment line types.
const (
	LineIncome  = "income"
	LineExpense = "expense"
	LineFund    = "fund"
)

// Add accumulates one fee's figures.
func (d *DueAmounts) Add(total, paid Money) {
	d.Total = d.Total.Add(total)
	d.Paid = d.Paid.Add(paid)
	d.Due = d.Total.Sub(d.Paid)
}
