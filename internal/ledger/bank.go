package ledger

import "schoolledger/internal/core"

// bucketTransaction adds tx to the credit or debit bucket it falls in for
// scope s. Rows that do not touch the scope are left out, as are transfers
// with both legs inside it.
func (l *Ledger) bucketTransaction(s Scope, tx core.Transaction, c *core.CreditBuckets, d *core.DebitBuckets) {
	src := s.Has(tx.AccountID)
	amt := tx.Amount

	switch tx.Type {
	case core.Income:
		if !src {
			return
		}
		if l.role(tx.IncomeCategoryID) == core.RoleStudentFee {
			c.StudentFee = c.StudentFee.Add(amt)
		} else {
			c.OtherCredit = c.OtherCredit.Add(amt)
		}
		c.Total = c.Total.Add(amt)

	case core.Expense:
		if !src {
			return
		}
		switch l.role(tx.ExpenseCategoryID) {
		case core.RoleSalary:
			d.Salary = d.Salary.Add(amt)
		case core.RoleFixedAsset:
			d.FixedAsset = d.FixedAsset.Add(amt)
		default:
			d.OtherExpense = d.OtherExpense.Add(amt)
		}
		d.Total = d.Total.Add(amt)

	case core.AssetPurchase:
		if !src {
			return
		}
		d.FixedAsset = d.FixedAsset.Add(amt)
		d.Total = d.Total.Add(amt)

	case core.Transfer:
		dst := tx.TransferToAccountID != nil && s.Has(*tx.TransferToAccountID)
		switch {
		case src && dst:
			// internal to the scope
		case src:
			d.FundOut = d.FundOut.Add(amt)
			d.Total = d.Total.Add(amt)
		case dst:
			c.FundIn = c.FundIn.Add(amt)
			c.Total = c.Total.Add(amt)
		}
	}
}

func bucketFundTransaction(ft core.FundTransaction, c *core.CreditBuckets, d *core.DebitBuckets) {
	if ft.Type == core.FundOut {
		d.FundOut = d.FundOut.Add(ft.Amount)
		d.Total = d.Total.Add(ft.Amount)
		return
	}
	c.FundIn = c.FundIn.Add(ft.Amount)
	c.Total = c.Total.Add(ft.Amount)
}

func addCredit(dst *core.CreditBuckets, src core.CreditBuckets) {
	dst.FundIn = dst.FundIn.Add(src.FundIn)
	dst.StudentFee = dst.StudentFee.Add(src.StudentFee)
	dst.OtherCredit = dst.OtherCredit.Add(src.OtherCredit)
	dst.Total = dst.Total.Add(src.Total)
}

func addDebit(dst *core.DebitBuckets, src core.DebitBuckets) {
	dst.FundOut = dst.FundOut.Add(src.FundOut)
	dst.Salary = dst.Salary.Add(src.Salary)
	dst.FixedAsset = dst.FixedAsset.Add(src.FixedAsset)
	dst.OtherExpense = dst.OtherExpense.Add(src.OtherExpense)
	dst.Total = dst.Total.Add(src.Total)
}

type dayTotals struct {
	credit core.CreditBuckets
	debit  core.DebitBuckets
}

// BankReport builds the day-by-day running balance for [start, end]. Every
// calendar day in the window gets a row; days without movement carry the
// previous balance forward. An inverted window yields no rows.
func (l *Ledger) BankReport(s Scope, start, end core.Date) core.BankReport {
	opening := l.OpeningBalance(s, start)
	report := core.BankReport{
		StartDate:      start,
		EndDate:        end,
		AccountID:      s.AccountID(),
		OpeningBalance: opening,
		Rows:           []core.BankReportRow{},
		ClosingBalance: opening,
	}
	if end.Before(start) {
		return report
	}

	days := make(map[int64]*dayTotals)
	at := func(d core.Date) *dayTotals {
		k := d.Ordinal()
		if days[k] == nil {
			days[k] = &dayTotals{}
		}
		return days[k]
	}
	for _, tx := range l.txs {
		if !inRange(tx.Date, &start, &end) {
			continue
		}
		dd := at(tx.Date)
		l.bucketTransaction(s, tx, &dd.credit, &dd.debit)
	}
	for _, ft := range l.ftxs {
		if !inRange(ft.Date, &start, &end) || !s.Has(ft.AccountID) {
			continue
		}
		dd := at(ft.Date)
		bucketFundTransaction(ft, &dd.credit, &dd.debit)
	}

	balance := opening
	for d := start; !d.After(end); d = d.AddDays(1) {
		row := core.BankReportRow{Date: d}
		if dd, ok := days[d.Ordinal()]; ok {
			row.Credit = dd.credit
			row.Debit = dd.debit
		}
		balance = balance.Add(row.Credit.Total).Sub(row.Debit.Total)
		row.Balance = balance
		addCredit(&report.MonthlyTotals.Credit, row.Credit)
		addDebit(&report.MonthlyTotals.Debit, row.Debit)
		report.Rows = append(report.Rows, row)
	}
	report.ClosingBalance = balance
	return report
}
