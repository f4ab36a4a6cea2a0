// Package memory is an in-process ledger store used by the memory backend
// and by tests.
package memory

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"schoolledger/internal/core"
	"schoolledger/internal/repo"
)

type Store struct {
	mu     sync.Mutex
	nextID int64

	accounts   []core.Account
	funds      []core.Fund
	categories []core.Category
	txs        []core.Transaction
	ftxs       []core.FundTransaction
	assets     []core.FixedAsset
	fees       []core.FeeCollection
}

var _ repo.Repository = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// Seed is the reference data a memory store can start with.
type Seed struct {
	Accounts []struct {
		Name           string `yaml:"name"`
		Type           string `yaml:"type"`
		OpeningBalance string `yaml:"opening_balance"`
	} `yaml:"accounts"`
	Funds      []string `yaml:"funds"`
	Categories []struct {
		Name string `yaml:"name"`
		Kind string `yaml:"kind"`
		Role string `yaml:"role"`
	} `yaml:"categories"`
}

// NewFromFile returns a store seeded from a YAML file. A missing file
// yields an empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed Seed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if err := s.apply(seed); err != nil {
		return nil, fmt.Errorf("apply seed file: %w", err)
	}
	return s, nil
}

func (s *Store) apply(seed Seed) error {
	ctx := context.Background()
	for _, a := range seed.Accounts {
		cents := int64(0)
		if a.OpeningBalance != "" {
			c, err := core.ParseSignedDecimalToCents(a.OpeningBalance)
			if err != nil {
				return fmt.Errorf("account %q: %w", a.Name, err)
			}
			cents = c
		}
		acc := core.Account{Name: a.Name, Type: core.AccountType(a.Type), OpeningBalance: core.Money{Cents: cents}, Status: core.StatusActive}
		if err := acc.Validate(); err != nil {
			return fmt.Errorf("account %q: %w", a.Name, err)
		}
		if _, err := s.CreateAccount(ctx, acc); err != nil {
			return fmt.Errorf("account %q: %w", a.Name, err)
		}
	}
	for _, name := range seed.Funds {
		fund := core.Fund{Name: name, Status: core.StatusActive}
		if err := fund.Validate(); err != nil {
			return fmt.Errorf("fund %q: %w", name, err)
		}
		if _, err := s.CreateFund(ctx, fund); err != nil {
			return fmt.Errorf("fund %q: %w", name, err)
		}
	}
	for _, c := range seed.Categories {
		kind := core.CategoryKind(c.Kind)
		role := core.CategoryRole(c.Role)
		if role == "" {
			role = core.InferCategoryRole(kind, c.Name)
		}
		cat := core.Category{Name: c.Name, Kind: kind, Role: role}
		if err := cat.Validate(); err != nil {
			return fmt.Errorf("category %q: %w", c.Name, err)
		}
		if _, err := s.CreateCategory(ctx, cat); err != nil {
			return fmt.Errorf("category %q: %w", c.Name, err)
		}
	}
	return nil
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

func (s *Store) CreateAccount(_ context.Context, a core.Account) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.id()
	s.accounts = append(s.accounts, a)
	return a, nil
}

func (s *Store) CreateFund(_ context.Context, f core.Fund) (core.Fund, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.ID = s.id()
	s.funds = append(s.funds, f)
	return f, nil
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id()
	s.categories = append(s.categories, c)
	return c, nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.id()
	s.txs = append(s.txs, t)
	return t, nil
}

func (s *Store) CreateFundTransaction(_ context.Context, f core.FundTransaction) (core.FundTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.ID = s.id()
	s.ftxs = append(s.ftxs, f)
	return f, nil
}

func (s *Store) CreateFixedAsset(_ context.Context, a core.FixedAsset) (core.FixedAsset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.id()
	s.assets = append(s.assets, a)
	return a, nil
}

func (s *Store) CreateFeeCollection(_ context.Context, f core.FeeCollection) (core.FeeCollection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.ID = s.id()
	s.fees = append(s.fees, f)
	return f, nil
}

func (s *Store) ListAccounts(context.Context) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Account(nil), s.accounts...), nil
}

func (s *Store) GetAccount(_ context.Context, id int64) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return core.Account{}, repo.ErrNotFound
}

func (s *Store) ListCategories(context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.categories...), nil
}

func (s *Store) ListFunds(context.Context) ([]core.Fund, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Fund(nil), s.funds...), nil
}

func (s *Store) ListTransactions(_ context.Context, f repo.TransactionFilter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.txs {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Store) ListFundTransactions(_ context.Context, f repo.TransactionFilter) ([]core.FundTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.FundTransaction
	for _, t := range s.ftxs {
		if f.MatchesFund(t) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Store) SummarizeTransactions(ctx context.Context, before core.Date, accountID *int64) ([]core.Transaction, error) {
	to := before.AddDays(-1)
	rows, err := s.ListTransactions(ctx, repo.TransactionFilter{To: &to, AccountID: accountID})
	if err != nil {
		return nil, err
	}
	type key struct {
		typ           core.TransactionType
		account, dest int64
		inc, exp      int64
	}
	deref := func(p *int64) int64 {
		if p == nil {
			return 0
		}
		return *p
	}
	idx := map[key]int{}
	var out []core.Transaction
	for _, t := range rows {
		k := key{t.Type, t.AccountID, deref(t.TransferToAccountID), deref(t.IncomeCategoryID), deref(t.ExpenseCategoryID)}
		if i, ok := idx[k]; ok {
			out[i].Amount = out[i].Amount.Add(t.Amount)
			continue
		}
		idx[k] = len(out)
		t.ID = 0
		t.Description = ""
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) SummarizeFundTransactions(ctx context.Context, before core.Date, accountID *int64) ([]core.FundTransaction, error) {
	to := before.AddDays(-1)
	rows, err := s.ListFundTransactions(ctx, repo.TransactionFilter{To: &to, AccountID: accountID})
	if err != nil {
		return nil, err
	}
	type key struct {
		fund, account int64
		flow          core.FundFlow
	}
	idx := map[key]int{}
	var out []core.FundTransaction
	for _, t := range rows {
		k := key{t.FundID, t.AccountID, t.Type}
		if i, ok := idx[k]; ok {
			out[i].Amount = out[i].Amount.Add(t.Amount)
			continue
		}
		idx[k] = len(out)
		t.ID = 0
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) ListFixedAssets(_ context.Context, asOn core.Date) ([]core.FixedAsset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.FixedAsset
	for _, a := range s.assets {
		if !a.PurchaseDate.After(asOn) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) ListFeeCollections(_ context.Context, f repo.FeeFilter) ([]core.FeeCollection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.FeeCollection
	for _, c := range s.fees {
		if f.Matches(c) {
			out = append(out, c)
		}
	}
	return out, nil
}
