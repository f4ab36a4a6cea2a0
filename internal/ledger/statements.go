package ledger

import (
	"strings"

	"schoolledger/internal/core"
)

// Fallback line names for rows whose category or fund no longer resolves.
const (
	OtherIncomeName  = "Other Income"
	OtherExpenseName = "Other Expense"
	UnknownFundName  = "Unknown"
)

// Exclusions is a case-insensitive set of category names left out of the
// income/expenditure and receipts/payments statements.
type Exclusions map[string]struct{}

func NewExclusions(names []string) Exclusions {
	ex := make(Exclusions, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			ex[n] = struct{}{}
		}
	}
	return ex
}

func (e Exclusions) Has(name string) bool {
	_, ok := e[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// categoryLine resolves the grouping key and display name for a category
// reference. ok is false when the category is excluded.
func (l *Ledger) categoryLine(id *int64, fallback string, ex Exclusions) (key int64, name string, ok bool) {
	if id == nil {
		return 0, fallback, true
	}
	c, found := l.categories[*id]
	if !found {
		return 0, fallback, true
	}
	if ex.Has(c.Name) {
		return 0, "", false
	}
	return c.ID, c.Name, true
}

// IncomeExpenditure groups income and expense by category. Month amounts
// cover [start, end]; cumulative amounts cover everything up to end.
// Transfers and asset purchases are not income or expenditure.
func (l *Ledger) IncomeExpenditure(s Scope, start, end core.Date, ex Exclusions) core.IncomeExpenditure {
	income := newOrdered[int64, core.IncomeExpenditureLine]()
	expense := newOrdered[int64, core.IncomeExpenditureLine]()

	for _, tx := range l.txs {
		if tx.Date.After(end) || !s.Has(tx.AccountID) {
			continue
		}
		var (
			g        *ordered[int64, core.IncomeExpenditureLine]
			catID    *int64
			fallback string
		)
		switch tx.Type {
		case core.Income:
			g, catID, fallback = income, tx.IncomeCategoryID, OtherIncomeName
		case core.Expense:
			g, catID, fallback = expense, tx.ExpenseCategoryID, OtherExpenseName
		default:
			continue
		}
		key, name, ok := l.categoryLine(catID, fallback, ex)
		if !ok {
			continue
		}
		line := g.at(key, func() core.IncomeExpenditureLine {
			return core.IncomeExpenditureLine{Description: name}
		})
		line.CumulativeAmount = line.CumulativeAmount.Add(tx.Amount)
		if !tx.Date.Before(start) {
			line.MonthAmount = line.MonthAmount.Add(tx.Amount)
		}
	}

	r := core.IncomeExpenditure{
		StartDate:   start,
		EndDate:     end,
		Income:      make([]core.IncomeExpenditureLine, 0, income.len()),
		Expenditure: make([]core.IncomeExpenditureLine, 0, expense.len()),
	}
	income.each(func(_ int64, line *core.IncomeExpenditureLine) {
		r.Income = append(r.Income, *line)
		r.TotalMonthIncome = r.TotalMonthIncome.Add(line.MonthAmount)
		r.TotalCumulativeIncome = r.TotalCumulativeIncome.Add(line.CumulativeAmount)
	})
	expense.each(func(_ int64, line *core.IncomeExpenditureLine) {
		r.Expenditure = append(r.Expenditure, *line)
		r.TotalMonthExpenditure = r.TotalMonthExpenditure.Add(line.MonthAmount)
		r.TotalCumulativeExpenditure = r.TotalCumulativeExpenditure.Add(line.CumulativeAmount)
	})
	r.MonthSurplusDeficit = r.TotalMonthIncome.Sub(r.TotalMonthExpenditure)
	r.CumulativeSurplusDeficit = r.TotalCumulativeIncome.Sub(r.TotalCumulativeExpenditure)
	return r
}

// ReceiptPayment lists cash received and paid in [start, end]: income and
// expense by category, then fund movements by fund.
func (l *Ledger) ReceiptPayment(s Scope, start, end core.Date, ex Exclusions) core.ReceiptPayment {
	type key struct {
		kind string
		id   int64
	}
	receipts := newOrdered[key, core.ReceiptPaymentLine]()
	payments := newOrdered[key, core.ReceiptPaymentLine]()

	for _, tx := range l.txs {
		if !inRange(tx.Date, &start, &end) || !s.Has(tx.AccountID) {
			continue
		}
		var (
			g        *ordered[key, core.ReceiptPaymentLine]
			catID    *int64
			fallback string
			kind     string
		)
		switch tx.Type {
		case core.Income:
			g, catID, fallback, kind = receipts, tx.IncomeCategoryID, OtherIncomeName, core.LineIncome
		case core.Expense:
			g, catID, fallback, kind = payments, tx.ExpenseCategoryID, OtherExpenseName, core.LineExpense
		default:
			continue
		}
		id, name, ok := l.categoryLine(catID, fallback, ex)
		if !ok {
			continue
		}
		line := g.at(key{kind, id}, func() core.ReceiptPaymentLine {
			return core.ReceiptPaymentLine{Description: name, Type: kind}
		})
		line.Amount = line.Amount.Add(tx.Amount)
	}

	for _, ft := range l.ftxs {
		if !inRange(ft.Date, &start, &end) || !s.Has(ft.AccountID) {
			continue
		}
		g := receipts
		if ft.Type == core.FundOut {
			g = payments
		}
		line := g.at(key{core.LineFund, ft.FundID}, func() core.ReceiptPaymentLine {
			return core.ReceiptPaymentLine{Description: l.fundName(ft.FundID), Type: core.LineFund}
		})
		line.Amount = line.Amount.Add(ft.Amount)
	}

	opening := l.OpeningBalance(s, start)
	r := core.ReceiptPayment{
		StartDate:      start,
		EndDate:        end,
		OpeningBalance: opening,
		Receipts:       make([]core.ReceiptPaymentLine, 0, receipts.len()),
		Payments:       make([]core.ReceiptPaymentLine, 0, payments.len()),
	}
	receipts.each(func(_ key, line *core.ReceiptPaymentLine) {
		r.Receipts = append(r.Receipts, *line)
		r.TotalReceipts = r.TotalReceipts.Add(line.Amount)
	})
	payments.each(func(_ key, line *core.ReceiptPaymentLine) {
		r.Payments = append(r.Payments, *line)
		r.TotalPayments = r.TotalPayments.Add(line.Amount)
	})
	r.ClosingBalance = opening.Add(r.TotalReceipts).Sub(r.TotalPayments)
	return r
}

func (l *Ledger) fundName(id int64) string {
	if f, ok := l.funds[id]; ok {
		return f.Name
	}
	return UnknownFundName
}

// FundBalance is fund money in minus fund money out up to asOn, across all
// accounts.
func (l *Ledger) FundBalance(asOn core.Date) core.Money {
	var total core.Money
	for _, ft := range l.ftxs {
		if ft.Date.After(asOn) {
			continue
		}
		total = total.Add(fundDelta(ft))
	}
	return total
}

// FixedAssetsTotal sums the cost of active assets bought on or before asOn.
func FixedAssetsTotal(assets []core.FixedAsset, asOn core.Date) core.Money {
	var total core.Money
	for _, a := range assets {
		if a.Status != core.AssetActive || a.PurchaseDate.After(asOn) {
			continue
		}
		total = total.Add(a.Cost)
	}
	return total
}

// BalanceSheet states funds and accumulated surplus against bank holdings
// and fixed assets as on a date.
func (l *Ledger) BalanceSheet(asOn core.Date, ex Exclusions, assets []core.FixedAsset) core.BalanceSheet {
	ie := l.IncomeExpenditure(l.AggregateScope(), asOn, asOn, ex)

	bs := core.BalanceSheet{
		AsOnDate:           asOn,
		TotalFundAvailable: l.FundBalance(asOn),
		SurplusDeficit:     ie.CumulativeSurplusDeficit,
		BankBalance:        l.AggregateBalance(asOn),
		FixedAssetsTotal:   FixedAssetsTotal(assets, asOn),
	}
	bs.LiabilitiesTotal = bs.TotalFundAvailable.Add(bs.SurplusDeficit)
	bs.AssetsTotal = bs.BankBalance.Add(bs.FixedAssetsTotal)
	return bs
}
