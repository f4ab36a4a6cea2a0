package ledger

import (
	"testing"

	"schoolledger/internal/core"
)

func TestIncomeExpenditure_ExcludedCategory(t *testing.T) {
	cats := append(categories(), core.Category{ID: 7, Name: "Fixed Asset Purchase", Kind: core.ExpenseCategory, Role: core.RoleFixedAsset})
	l := New(Snapshot{
		Accounts:   []core.Account{account(1, 0)},
		Categories: cats,
		Transactions: []core.Transaction{
			income(1, 100, 5, id(1)),
			expense(1, 40, 6, id(5)),
			expense(1, 900, 7, id(7)),
		},
	})
	r := l.IncomeExpenditure(l.AggregateScope(), day(1), day(31), NewExclusions([]string{"fixed asset PURCHASE"}))

	for _, line := range r.Expenditure {
		if line.Description == "Fixed Asset Purchase" {
			t.Fatalf("excluded category present: %+v", line)
		}
	}
	if r.TotalMonthExpenditure != m(40) || r.TotalCumulativeExpenditure != m(40) {
		t.Fatalf("expenditure totals = %s/%s, want 40.00/40.00", r.TotalMonthExpenditure, r.TotalCumulativeExpenditure)
	}
	if r.MonthSurplusDeficit != m(60) {
		t.Fatalf("surplus = %s, want 60.00", r.MonthSurplusDeficit)
	}
}

func TestIncomeExpenditure_MonthAndCumulative(t *testing.T) {
	l := New(Snapshot{
		Accounts:   []core.Account{account(1, 0)},
		Categories: categories(),
		Transactions: []core.Transaction{
			income(1, 10, 1, id(2)),  // before window
			income(1, 50, 12, id(1)), // in window
			income(1, 5, 15, id(2)),  // in window
			income(1, 70, 25, id(1)), // after end
			expense(1, 8, 11, nil),   // missing category
			transfer(1, 2, 999, 12),
			{Type: core.AssetPurchase, AccountID: 1, Amount: m(333), Date: day(12)},
		},
	})
	r := l.IncomeExpenditure(l.AggregateScope(), day(10), day(20), nil)

	want := []core.IncomeExpenditureLine{
		{Description: "Donation", MonthAmount: m(5), CumulativeAmount: m(15)},
		{Description: "Student Fee", MonthAmount: m(50), CumulativeAmount: m(50)},
	}
	if len(r.Income) != len(want) {
		t.Fatalf("income lines = %+v", r.Income)
	}
	for i := range want {
		if r.Income[i] != want[i] {
			t.Errorf("income[%d] = %+v, want %+v", i, r.Income[i], want[i])
		}
	}
	if len(r.Expenditure) != 1 || r.Expenditure[0].Description != OtherExpenseName {
		t.Fatalf("expenditure = %+v", r.Expenditure)
	}
	if r.TotalCumulativeIncome != m(65) || r.CumulativeSurplusDeficit != m(57) {
		t.Fatalf("totals = %+v", r)
	}
}

func TestReceiptPayment(t *testing.T) {
	l := New(Snapshot{
		Accounts:   []core.Account{account(1, 200)},
		Categories: categories(),
		Funds:      []core.Fund{{ID: 1, Name: "Donor", Status: core.StatusActive}},
		Transactions: []core.Transaction{
			income(1, 30, 1, id(1)), // before window
			income(1, 100, 5, id(1)),
			income(1, 25, 6, id(1)),
			expense(1, 60, 7, id(3)),
			transfer(1, 2, 10, 8),
		},
		FundTransactions: []core.FundTransaction{
			fundTx(1, 1, core.FundIn, 40, 9),
			fundTx(2, 1, core.FundOut, 15, 9),
		},
	})
	s, _ := l.AccountScope(1)
	r := l.ReceiptPayment(s, day(5), day(10), nil)

	if r.OpeningBalance != m(230) {
		t.Fatalf("opening = %s, want 230.00", r.OpeningBalance)
	}
	wantReceipts := []core.ReceiptPaymentLine{
		{Description: "Student Fee", Amount: m(125), Type: core.LineIncome},
		{Description: "Donor", Amount: m(40), Type: core.LineFund},
	}
	wantPayments := []core.ReceiptPaymentLine{
		{Description: "Teacher Salary", Amount: m(60), Type: core.LineExpense},
		{Description: UnknownFundName, Amount: m(15), Type: core.LineFund},
	}
	if len(r.Receipts) != len(wantReceipts) || len(r.Payments) != len(wantPayments) {
		t.Fatalf("receipts=%+v payments=%+v", r.Receipts, r.Payments)
	}
	for i := range wantReceipts {
		if r.Receipts[i] != wantReceipts[i] {
			t.Errorf("receipt[%d] = %+v, want %+v", i, r.Receipts[i], wantReceipts[i])
		}
	}
	for i := range wantPayments {
		if r.Payments[i] != wantPayments[i] {
			t.Errorf("payment[%d] = %+v, want %+v", i, r.Payments[i], wantPayments[i])
		}
	}
	if r.TotalReceipts != m(165) || r.TotalPayments != m(75) || r.ClosingBalance != m(320) {
		t.Fatalf("totals receipts=%s payments=%s closing=%s", r.TotalReceipts, r.TotalPayments, r.ClosingBalance)
	}
}

func TestBalanceSheet(t *testing.T) {
	l := New(Snapshot{
		Accounts:   []core.Account{account(1, 1000), account(2, 0)},
		Categories: categories(),
		Transactions: []core.Transaction{
			income(1, 300, 2, id(1)),
			expense(1, 100, 3, id(5)),
			{Type: core.AssetPurchase, AccountID: 1, Amount: m(250), Date: day(4)},
			transfer(1, 2, 50, 5),
			income(1, 999, 20, id(1)), // after as-on date
		},
		FundTransactions: []core.FundTransaction{
			fundTx(1, 2, core.FundIn, 400, 6),
			fundTx(1, 2, core.FundOut, 100, 7),
		},
	})
	assets := []core.FixedAsset{
		{Name: "Projector", PurchaseDate: day(4), Cost: m(250), Status: core.AssetActive},
		{Name: "Old bus", PurchaseDate: day(1), Cost: m(5000), Status: core.AssetDisposed},
		{Name: "Piano", PurchaseDate: day(25), Cost: m(800), Status: core.AssetActive},
	}

	bs := l.BalanceSheet(day(10), nil, assets)

	want := core.BalanceSheet{
		AsOnDate:           day(10),
		TotalFundAvailable: m(300),
		SurplusDeficit:     m(200),
		LiabilitiesTotal:   m(500),
		BankBalance:        m(1250),
		FixedAssetsTotal:   m(250),
		AssetsTotal:        m(1500),
	}
	if bs != want {
		t.Fatalf("balance sheet = %+v, want %+v", bs, want)
	}
}
