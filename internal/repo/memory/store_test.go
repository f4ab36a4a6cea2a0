package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"schoolledger/internal/core"
	"schoolledger/internal/repo"
)

func TestStoreFiltersAndSummaries(t *testing.T) {
	ctx := context.Background()
	s := New()

	a, _ := s.CreateAccount(ctx, core.Account{Name: "Bank", Type: core.AccountBank, Status: core.StatusActive})
	b, _ := s.CreateAccount(ctx, core.Account{Name: "Cash", Type: core.AccountCash, Status: core.StatusActive})
	dest := b.ID

	add := func(tx core.Transaction) {
		t.Helper()
		if _, err := s.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	add(core.Transaction{Type: core.Income, AccountID: a.ID, Amount: core.Money{Cents: 100}, Date: core.NewDate(2025, 1, 10)})
	add(core.Transaction{Type: core.Income, AccountID: a.ID, Amount: core.Money{Cents: 50}, Date: core.NewDate(2025, 1, 2)})
	add(core.Transaction{Type: core.Transfer, AccountID: a.ID, TransferToAccountID: &dest, Amount: core.Money{Cents: 30}, Date: core.NewDate(2025, 1, 5)})
	add(core.Transaction{Type: core.Income, AccountID: a.ID, Amount: core.Money{Cents: 7}, Date: core.NewDate(2025, 2, 1)})

	from, to := core.NewDate(2025, 1, 1), core.NewDate(2025, 1, 31)
	rows, err := s.ListTransactions(ctx, repo.TransactionFilter{From: &from, To: &to})
	if err != nil || len(rows) != 3 {
		t.Fatalf("rows = %+v err=%v", rows, err)
	}
	if !rows[0].Date.Equal(core.NewDate(2025, 1, 2)) {
		t.Fatalf("rows must be date ordered, got %s first", rows[0].Date)
	}

	forB, _ := s.ListTransactions(ctx, repo.TransactionFilter{AccountID: &dest})
	if len(forB) != 1 || forB[0].Type != core.Transfer {
		t.Fatalf("account filter must match transfer destinations: %+v", forB)
	}

	sum, err := s.SummarizeTransactions(ctx, core.NewDate(2025, 2, 1), nil)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if len(sum) != 2 {
		t.Fatalf("expected income and transfer groups, got %+v", sum)
	}
	if sum[0].Type != core.Income || sum[0].Amount.Cents != 150 {
		t.Fatalf("income group = %+v", sum[0])
	}

	if _, err := s.GetAccount(ctx, 999); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()

	s, err := NewFromFile(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("missing seed must not fail: %v", err)
	}
	if accs, _ := s.ListAccounts(context.Background()); len(accs) != 0 {
		t.Fatalf("expected empty store")
	}

	path := filepath.Join(dir, "seed.yaml")
	seed := `accounts:
  - name: Main Bank
    type: bank
    opening_balance: "1500.50"
funds:
  - Donor Fund
categories:
  - name: Tuition Fee
    kind: income
  - name: Staff Salary
    kind: expense
  - name: Misc
    kind: expense
    role: other
`
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s, err = NewFromFile(path)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	accs, _ := s.ListAccounts(context.Background())
	if len(accs) != 1 || accs[0].OpeningBalance.Cents != 150050 {
		t.Fatalf("accounts = %+v", accs)
	}
	cats, _ := s.ListCategories(context.Background())
	if len(cats) != 3 || cats[0].Role != core.RoleStudentFee || cats[1].Role != core.RoleSalary {
		t.Fatalf("categories = %+v", cats)
	}
}

func TestFeeFilter(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.CreateFeeCollection(ctx, core.FeeCollection{Organization: "A", ClassName: "1", StudentID: "x", Total: core.Money{Cents: 10}, Paid: core.Money{Cents: 10}})
	s.CreateFeeCollection(ctx, core.FeeCollection{Organization: "A", ClassName: "2", StudentID: "y", Total: core.Money{Cents: 10}})
	s.CreateFeeCollection(ctx, core.FeeCollection{Organization: "B", ClassName: "1", StudentID: "z", Total: core.Money{Cents: 10}})

	got, _ := s.ListFeeCollections(ctx, repo.FeeFilter{Organization: "A", DueOnly: true})
	if len(got) != 1 || got[0].StudentID != "y" {
		t.Fatalf("fees = %+v", got)
	}
}

func TestNewFromFileRejectsInvalidRows(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]struct {
		seed string
		want error
	}{
		"blank fund": {
			seed: "funds:\n  - \"  \"\n",
			want: core.ErrEmptyName,
		},
		"bad account type": {
			seed: "accounts:\n  - name: Vault\n    type: safe\n",
			want: core.ErrInvalidAccountType,
		},
		"bad category kind": {
			seed: "categories:\n  - name: Gifts\n    kind: donation\n",
			want: core.ErrInvalidCategoryKind,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, "seed.yaml")
			if err := os.WriteFile(path, []byte(tc.seed), 0o644); err != nil {
				t.Fatalf("write seed: %v", err)
			}
			if _, err := NewFromFile(path); !errors.Is(err, tc.want) {
				t.Fatalf("NewFromFile() = %v, want %v", err, tc.want)
			}
		})
	}
}
