package ledger

import (
	"testing"

	"schoolledger/internal/core"
)

func categories() []core.Category {
	return []core.Category{
		{ID: 1, Name: "Student Fee", Kind: core.IncomeCategory, Role: core.RoleStudentFee},
		{ID: 2, Name: "Donation", Kind: core.IncomeCategory, Role: core.RoleOther},
		{ID: 3, Name: "Teacher Salary", Kind: core.ExpenseCategory, Role: core.RoleSalary},
		{ID: 4, Name: "Lab Equipment", Kind: core.ExpenseCategory, Role: core.RoleFixedAsset},
		{ID: 5, Name: "Electricity", Kind: core.ExpenseCategory, Role: core.RoleOther},
		// Role is stored, never re-derived from the name.
		{ID: 6, Name: "Student Council Fund", Kind: core.IncomeCategory, Role: core.RoleOther},
	}
}

func TestBankReport_ZeroMovementDaysCarryBalance(t *testing.T) {
	l := New(Snapshot{
		Accounts:     []core.Account{account(1, 1000)},
		Transactions: []core.Transaction{income(1, 100, 2, nil)},
	})
	s, _ := l.AccountScope(1)

	r := l.BankReport(s, day(1), day(3))
	if len(r.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(r.Rows))
	}
	want := []core.Money{m(1000), m(1100), m(1100)}
	for i, row := range r.Rows {
		if row.Balance != want[i] {
			t.Errorf("row %d balance = %s, want %s", i, row.Balance, want[i])
		}
		if !row.Date.Equal(day(i + 1)) {
			t.Errorf("row %d date = %s", i, row.Date)
		}
	}
	if r.OpeningBalance != m(1000) || r.ClosingBalance != m(1100) {
		t.Fatalf("opening/closing = %s/%s", r.OpeningBalance, r.ClosingBalance)
	}
}

func TestBankReport_Buckets(t *testing.T) {
	l := New(Snapshot{
		Accounts:   []core.Account{account(1, 0), account(2, 0)},
		Categories: categories(),
		Funds:      []core.Fund{{ID: 1, Name: "Donor", Status: core.StatusActive}},
		Transactions: []core.Transaction{
			income(1, 500, 1, id(1)),
			income(1, 20, 1, id(2)),
			income(1, 7, 1, id(6)),
			income(1, 3, 1, id(99)), // dangling category
			expense(1, 200, 1, id(3)),
			expense(1, 50, 1, id(4)),
			expense(1, 10, 1, id(5)),
			expense(1, 1, 1, nil),
			{Type: core.AssetPurchase, AccountID: 1, Amount: m(80), Date: day(1)},
			transfer(1, 2, 40, 1),
			transfer(2, 1, 15, 1),
			income(2, 999, 1, id(1)), // other account
		},
		FundTransactions: []core.FundTransaction{
			fundTx(1, 1, core.FundIn, 60, 1),
			fundTx(1, 1, core.FundOut, 5, 1),
			fundTx(1, 2, core.FundIn, 1000, 1),
		},
	})
	s, _ := l.AccountScope(1)
	r := l.BankReport(s, day(1), day(1))
	row := r.Rows[0]

	wantCredit := core.CreditBuckets{FundIn: m(75), StudentFee: m(500), OtherCredit: m(30), Total: m(605)}
	wantDebit := core.DebitBuckets{FundOut: m(45), Salary: m(200), FixedAsset: m(130), OtherExpense: m(11), Total: m(386)}
	if row.Credit != wantCredit {
		t.Errorf("credit = %+v, want %+v", row.Credit, wantCredit)
	}
	if row.Debit != wantDebit {
		t.Errorf("debit = %+v, want %+v", row.Debit, wantDebit)
	}
	if row.Balance != m(219) {
		t.Errorf("balance = %s, want 219.00", row.Balance)
	}
	if r.MonthlyTotals.Credit != wantCredit || r.MonthlyTotals.Debit != wantDebit {
		t.Errorf("monthly totals = %+v", r.MonthlyTotals)
	}
	if got := mustBalance(t, l, 1, day(1)); got != r.ClosingBalance {
		t.Errorf("closing %s disagrees with Balance %s", r.ClosingBalance, got)
	}
}

func TestBankReport_AggregateSkipsInternalTransfers(t *testing.T) {
	l := New(Snapshot{
		Accounts: []core.Account{account(1, 1000), account(2, 1000)},
		Transactions: []core.Transaction{
			income(1, 10, 1, nil),
			transfer(1, 2, 300, 2),
			expense(2, 4, 3, nil),
		},
	})
	r := l.BankReport(l.AggregateScope(), day(2), day(3))

	if r.OpeningBalance != m(10) {
		t.Fatalf("opening = %s, want 10.00", r.OpeningBalance)
	}
	if !r.Rows[0].Credit.FundIn.IsZero() || !r.Rows[0].Debit.FundOut.IsZero() {
		t.Fatalf("internal transfer leaked into buckets: %+v", r.Rows[0])
	}
	if r.ClosingBalance != m(6) {
		t.Fatalf("closing = %s, want 6.00", r.ClosingBalance)
	}
	if r.AccountID != nil {
		t.Fatalf("aggregate report must not carry an account id")
	}
}

func TestBankReport_OpeningUsesRowsBeforeStart(t *testing.T) {
	l := New(Snapshot{
		Accounts: []core.Account{account(1, 100)},
		Transactions: []core.Transaction{
			income(1, 10, 9, nil),
			income(1, 20, 10, nil),
		},
	})
	s, _ := l.AccountScope(1)
	r := l.BankReport(s, day(10), day(11))
	if r.OpeningBalance != m(110) {
		t.Fatalf("opening = %s, want 110.00", r.OpeningBalance)
	}
	if r.Rows[0].Balance != m(130) {
		t.Fatalf("first row = %s, want 130.00", r.Rows[0].Balance)
	}
}

func TestBankReport_InvertedWindow(t *testing.T) {
	l := New(Snapshot{Accounts: []core.Account{account(1, 100)}})
	s, _ := l.AccountScope(1)
	r := l.BankReport(s, day(5), day(4))
	if len(r.Rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(r.Rows))
	}
	if r.ClosingBalance != r.OpeningBalance {
		t.Fatalf("closing must equal opening for an empty window")
	}
}

func TestBankReport_EmptyWindowStillEmitsDays(t *testing.T) {
	l := New(Snapshot{Accounts: []core.Account{account(1, 42)}})
	s, _ := l.AccountScope(1)
	r := l.BankReport(s, core.NewDate(2024, 2, 1), core.NewDate(2024, 2, 29))
	if len(r.Rows) != 29 {
		t.Fatalf("expected 29 rows, got %d", len(r.Rows))
	}
	for i := 1; i < len(r.Rows); i++ {
		if r.Rows[i].Balance != r.Rows[i-1].Balance {
			t.Fatalf("balance changed on a day without movement")
		}
	}
}
