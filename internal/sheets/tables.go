package sheets

import (
	"strconv"

	"schoolledger/internal/core"
)

func BalanceSheetTable(bs core.BalanceSheet) Table {
	return Table{
		Header: []string{"Item", "Amount"},
		Rows: [][]string{
			{"As on", bs.AsOnDate.String()},
			{"Total fund available", bs.TotalFundAvailable.String()},
			{"Surplus / deficit", bs.SurplusDeficit.String()},
			{"Liabilities total", bs.LiabilitiesTotal.String()},
			{"Bank balance", bs.BankBalance.String()},
			{"Fixed assets", bs.FixedAssetsTotal.String()},
			{"Assets total", bs.AssetsTotal.String()},
		},
	}
}

var bankHeader = []string{
	"Date",
	"Fund in", "Student fee", "Other credit", "Total credit",
	"Fund out", "Salary", "Fixed asset", "Other expense", "Total debit",
	"Balance",
}

func bankRow(label string, c core.CreditBuckets, d core.DebitBuckets, balance string) []string {
	return []string{
		label,
		c.FundIn.String(), c.StudentFee.String(), c.OtherCredit.String(), c.Total.String(),
		d.FundOut.String(), d.Salary.String(), d.FixedAsset.String(), d.OtherExpense.String(), d.Total.String(),
		balance,
	}
}

// BankReportTable writes the opening balance, one row per day and a totals
// row carrying the closing balance.
func BankReportTable(r core.BankReport) Table {
	t := Table{Header: bankHeader}
	blank := make([]string, len(bankHeader))
	opening := append([]string{"Opening balance"}, blank[2:]...)
	t.Rows = append(t.Rows, append(opening, r.OpeningBalance.String()))

	for _, row := range r.Rows {
		t.Rows = append(t.Rows, bankRow(row.Date.String(), row.Credit, row.Debit, row.Balance.String()))
	}
	t.Rows = append(t.Rows, bankRow("Total", r.MonthlyTotals.Credit, r.MonthlyTotals.Debit, r.ClosingBalance.String()))
	return t
}

func IncomeExpenditureTable(ie core.IncomeExpenditure) Table {
	t := Table{Header: []string{"Section", "Description", "Month", "Cumulative"}}
	for _, l := range ie.Income {
		t.Rows = append(t.Rows, []string{"Income", l.Description, l.MonthAmount.String(), l.CumulativeAmount.String()})
	}
	t.Rows = append(t.Rows, []string{"Income", "Total income", ie.TotalMonthIncome.String(), ie.TotalCumulativeIncome.String()})
	for _, l := range ie.Expenditure {
		t.Rows = append(t.Rows, []string{"Expenditure", l.Description, l.MonthAmount.String(), l.CumulativeAmount.String()})
	}
	t.Rows = append(t.Rows,
		[]string{"Expenditure", "Total expenditure", ie.TotalMonthExpenditure.String(), ie.TotalCumulativeExpenditure.String()},
		[]string{"", "Surplus / deficit", ie.MonthSurplusDeficit.String(), ie.CumulativeSurplusDeficit.String()},
	)
	return t
}

func ReceiptPaymentTable(rp core.ReceiptPayment) Table {
	t := Table{Header: []string{"Section", "Description", "Type", "Amount"}}
	t.Rows = append(t.Rows, []string{"Receipts", "Opening balance", "", rp.OpeningBalance.String()})
	for _, l := range rp.Receipts {
		t.Rows = append(t.Rows, []string{"Receipts", l.Description, l.Type, l.Amount.String()})
	}
	t.Rows = append(t.Rows, []string{"Receipts", "Total receipts", "", rp.TotalReceipts.String()})
	for _, l := range rp.Payments {
		t.Rows = append(t.Rows, []string{"Payments", l.Description, l.Type, l.Amount.String()})
	}
	t.Rows = append(t.Rows,
		[]string{"Payments", "Total payments", "", rp.TotalPayments.String()},
		[]string{"Payments", "Closing balance", "", rp.ClosingBalance.String()},
	)
	return t
}

// DueReportTable lists one row per student followed by class, organization
// and grand totals.
func DueReportTable(r core.DueReport) Table {
	t := Table{Header: []string{"Organization", "Class", "Student ID", "Student", "Total", "Paid", "Due"}}
	amounts := func(d core.DueAmounts) []string {
		return []string{d.Total.String(), d.Paid.String(), d.Due.String()}
	}
	for _, org := range r.Organizations {
		for _, class := range org.Classes {
			for _, st := range class.Students {
				t.Rows = append(t.Rows, append([]string{org.Organization, class.ClassName, st.StudentID, st.StudentName}, amounts(st.DueAmounts)...))
			}
			label := class.ClassName + " total (" + strconv.Itoa(len(class.Students)) + " students)"
			t.Rows = append(t.Rows, append([]string{org.Organization, label, "", ""}, amounts(class.DueAmounts)...))
		}
		t.Rows = append(t.Rows, append([]string{org.Organization + " total", "", "", ""}, amounts(org.DueAmounts)...))
	}
	t.Rows = append(t.Rows, append([]string{"Grand total", "", "", ""}, amounts(r.DueAmounts)...))
	return t
}
