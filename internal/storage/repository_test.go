package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"schoolledger/internal/core"
	"schoolledger/internal/repo"
)

func newTestRepo(t *testing.T) *SQLRepository {
	t.Helper()
	r, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSQLiteRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	bank, err := r.CreateAccount(ctx, core.Account{Name: "Bank", Type: core.AccountBank, OpeningBalance: core.Money{Cents: 100000}, Status: core.StatusActive})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	cash, err := r.CreateAccount(ctx, core.Account{Name: "Cash", Type: core.AccountCash, Status: core.StatusActive})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	fee, err := r.CreateCategory(ctx, core.Category{Name: "Tuition Fee", Kind: core.IncomeCategory, Role: core.RoleStudentFee})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	fund, err := r.CreateFund(ctx, core.Fund{Name: "Donor", Status: core.StatusActive})
	if err != nil {
		t.Fatalf("create fund: %v", err)
	}

	dest := cash.ID
	rows := []core.Transaction{
		{Type: core.Income, AccountID: bank.ID, Amount: core.Money{Cents: 5000}, Date: core.NewDate(2025, 1, 3), IncomeCategoryID: &fee.ID},
		{Type: core.Income, AccountID: bank.ID, Amount: core.Money{Cents: 2500}, Date: core.NewDate(2025, 1, 20), IncomeCategoryID: &fee.ID},
		{Type: core.Transfer, AccountID: bank.ID, TransferToAccountID: &dest, Amount: core.Money{Cents: 1000}, Date: core.NewDate(2025, 2, 1)},
		{Type: core.Expense, AccountID: cash.ID, Amount: core.Money{Cents: 300}, Date: core.NewDate(2025, 2, 14), Description: "chalk"},
	}
	for _, tx := range rows {
		if _, err := r.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("create transaction: %v", err)
		}
	}
	if _, err := r.CreateFundTransaction(ctx, core.FundTransaction{FundID: fund.ID, AccountID: bank.ID, Type: core.FundIn, Amount: core.Money{Cents: 700}, Date: core.NewDate(2025, 1, 5)}); err != nil {
		t.Fatalf("create fund transaction: %v", err)
	}

	got, err := r.GetAccount(ctx, bank.ID)
	if err != nil || got.OpeningBalance.Cents != 100000 || got.Name != "Bank" {
		t.Fatalf("get account = %+v err=%v", got, err)
	}
	if _, err := r.GetAccount(ctx, 12345); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	from, to := core.NewDate(2025, 2, 1), core.NewDate(2025, 2, 28)
	feb, err := r.ListTransactions(ctx, repo.TransactionFilter{From: &from, To: &to, AccountID: &dest})
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(feb) != 2 {
		t.Fatalf("expected transfer and expense for cash in February, got %+v", feb)
	}
	if feb[0].TransferToAccountID == nil || *feb[0].TransferToAccountID != cash.ID {
		t.Fatalf("transfer destination lost: %+v", feb[0])
	}
	if feb[1].Description != "chalk" || !feb[1].Date.Equal(core.NewDate(2025, 2, 14)) {
		t.Fatalf("expense = %+v", feb[1])
	}

	sum, err := r.SummarizeTransactions(ctx, core.NewDate(2025, 2, 1), nil)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if len(sum) != 1 || sum[0].Amount.Cents != 7500 || sum[0].IncomeCategoryID == nil {
		t.Fatalf("summary = %+v", sum)
	}

	fsum, err := r.SummarizeFundTransactions(ctx, core.NewDate(2025, 3, 1), &bank.ID)
	if err != nil || len(fsum) != 1 || fsum[0].Amount.Cents != 700 {
		t.Fatalf("fund summary = %+v err=%v", fsum, err)
	}
}

func TestSQLiteRepositoryRejectsSelfTransfer(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	a, _ := r.CreateAccount(ctx, core.Account{Name: "Bank", Type: core.AccountBank, Status: core.StatusActive})
	self := a.ID
	_, err := r.CreateTransaction(ctx, core.Transaction{Type: core.Transfer, AccountID: a.ID, TransferToAccountID: &self, Amount: core.Money{Cents: 1}, Date: core.NewDate(2025, 1, 1)})
	if err == nil {
		t.Fatalf("schema must reject self transfers")
	}
}

func TestSQLiteRepositoryAssetsAndFees(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	r.CreateFixedAsset(ctx, core.FixedAsset{Name: "Projector", PurchaseDate: core.NewDate(2025, 1, 10), Cost: core.Money{Cents: 40000}, Status: core.AssetActive})
	r.CreateFixedAsset(ctx, core.FixedAsset{Name: "Bus", PurchaseDate: core.NewDate(2025, 6, 1), Cost: core.Money{Cents: 900000}, Status: core.AssetActive})

	assets, err := r.ListFixedAssets(ctx, core.NewDate(2025, 3, 1))
	if err != nil || len(assets) != 1 || assets[0].Name != "Projector" {
		t.Fatalf("assets = %+v err=%v", assets, err)
	}

	r.CreateFeeCollection(ctx, core.FeeCollection{Organization: "Main", ClassName: "V", StudentID: "s1", Total: core.Money{Cents: 1000}, Paid: core.Money{Cents: 1000}, DueDate: core.NewDate(2025, 1, 1)})
	r.CreateFeeCollection(ctx, core.FeeCollection{Organization: "Main", ClassName: "V", StudentID: "s2", Total: core.Money{Cents: 1000}, Paid: core.Money{Cents: 250}, DueDate: core.NewDate(2025, 1, 1)})

	fees, err := r.ListFeeCollections(ctx, repo.FeeFilter{Organization: "Main", DueOnly: true})
	if err != nil || len(fees) != 1 || fees[0].StudentID != "s2" || fees[0].Paid.Cents != 250 {
		t.Fatalf("fees = %+v err=%v", fees, err)
	}
}

func TestRebind(t *testing.T) {
	got := Postgres.rebind("SELECT * FROM t WHERE a = ? AND b <= ?")
	if got != "SELECT * FROM t WHERE a = $1 AND b <= $2" {
		t.Fatalf("rebind = %q", got)
	}
	if SQLite.rebind("a = ?") != "a = ?" {
		t.Fatalf("sqlite must keep ? placeholders")
	}
}
