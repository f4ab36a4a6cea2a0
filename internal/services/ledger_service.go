package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"schoolledger/internal/core"
	"schoolledger/internal/metrics"
	"schoolledger/internal/repo"
)

var (
	// ErrValidation wraps every rejection of caller input.
	ErrValidation       = errors.New("validation failed")
	ErrFundNotFound     = errors.New("fund not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryMismatch = errors.New("category kind does not match transaction type")
)

// Invalidator is notified after every successful write.
type Invalidator interface {
	Invalidate()
}

// LedgerStore is what ingestion needs from the repository.
type LedgerStore interface {
	repo.AccountReader
	repo.TaxonomyReader
	repo.LedgerWriter
}

// LedgerService validates and records ledger rows.
type LedgerService struct {
	store       LedgerStore
	invalidator Invalidator
	metrics     metrics.Collector
}

func NewLedgerService(store LedgerStore, inv Invalidator, m metrics.Collector) *LedgerService {
	if m == nil {
		m = metrics.NoOpCollector{}
	}
	return &LedgerService{store: store, invalidator: inv, metrics: m}
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

// record finishes a write: metrics, cache invalidation and logging.
func (s *LedgerService) record(ctx context.Context, entity string, id int64, err error) {
	s.metrics.RecordIngest(entity, err == nil)
	if err != nil {
		if !errors.Is(err, ErrValidation) {
			slog.ErrorContext(ctx, "Failed to create ledger row", "entity", entity, "error", err)
		}
		return
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate()
	}
	slog.InfoContext(ctx, "Ledger row created", "entity", entity, "id", id)
}

func (s *LedgerService) CreateAccount(ctx context.Context, a core.Account) (out core.Account, err error) {
	defer func() { s.record(ctx, "account", out.ID, err) }()

	a.Name = strings.TrimSpace(a.Name)
	if a.Status == "" {
		a.Status = core.StatusActive
	}
	if err := a.Validate(); err != nil {
		return core.Account{}, invalid(err)
	}
	out, err = s.store.CreateAccount(ctx, a)
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	return out, nil
}

func (s *LedgerService) CreateFund(ctx context.Context, f core.Fund) (out core.Fund, err error) {
	defer func() { s.record(ctx, "fund", out.ID, err) }()

	f.Name = strings.TrimSpace(f.Name)
	if f.Status == "" {
		f.Status = core.StatusActive
	}
	if err := f.Validate(); err != nil {
		return core.Fund{}, invalid(err)
	}
	out, err = s.store.CreateFund(ctx, f)
	if err != nil {
		return core.Fund{}, fmt.Errorf("create fund: %w", err)
	}
	return out, nil
}

// CreateCategory stores a category. Without an explicit role, one is
// inferred from the name.
func (s *LedgerService) CreateCategory(ctx context.Context, c core.Category) (out core.Category, err error) {
	defer func() { s.record(ctx, "category", out.ID, err) }()

	c.Name = strings.TrimSpace(c.Name)
	if c.Role == "" {
		c.Role = core.InferCategoryRole(c.Kind, c.Name)
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, invalid(err)
	}
	out, err = s.store.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return out, nil
}

// CreateTransaction records a money movement after checking that every
// referenced account and category exists.
func (s *LedgerService) CreateTransaction(ctx context.Context, t core.Transaction) (out core.Transaction, err error) {
	defer func() { s.record(ctx, "transaction", out.ID, err) }()

	if err := t.Validate(); err != nil {
		return core.Transaction{}, invalid(err)
	}
	if err := s.requireAccount(ctx, t.AccountID); err != nil {
		return core.Transaction{}, err
	}
	if t.TransferToAccountID != nil {
		if err := s.requireAccount(ctx, *t.TransferToAccountID); err != nil {
			return core.Transaction{}, err
		}
	}
	if err := s.checkCategories(ctx, t); err != nil {
		return core.Transaction{}, err
	}

	out, err = s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return out, nil
}

func (s *LedgerService) CreateFundTransaction(ctx context.Context, f core.FundTransaction) (out core.FundTransaction, err error) {
	defer func() { s.record(ctx, "fund_transaction", out.ID, err) }()

	if err := f.Validate(); err != nil {
		return core.FundTransaction{}, invalid(err)
	}
	if err := s.requireAccount(ctx, f.AccountID); err != nil {
		return core.FundTransaction{}, err
	}
	funds, err := s.store.ListFunds(ctx)
	if err != nil {
		return core.FundTransaction{}, fmt.Errorf("list funds: %w", err)
	}
	found := false
	for _, fund := range funds {
		if fund.ID == f.FundID {
			found = true
			break
		}
	}
	if !found {
		return core.FundTransaction{}, invalid(fmt.Errorf("%w: %d", ErrFundNotFound, f.FundID))
	}

	out, err = s.store.CreateFundTransaction(ctx, f)
	if err != nil {
		return core.FundTransaction{}, fmt.Errorf("create fund transaction: %w", err)
	}
	return out, nil
}

func (s *LedgerService) CreateFixedAsset(ctx context.Context, a core.FixedAsset) (out core.FixedAsset, err error) {
	defer func() { s.record(ctx, "fixed_asset", out.ID, err) }()

	a.Name = strings.TrimSpace(a.Name)
	if a.Status == "" {
		a.Status = core.AssetActive
	}
	if err := a.Validate(); err != nil {
		return core.FixedAsset{}, invalid(err)
	}
	out, err = s.store.CreateFixedAsset(ctx, a)
	if err != nil {
		return core.FixedAsset{}, fmt.Errorf("create fixed asset: %w", err)
	}
	return out, nil
}

func (s *LedgerService) CreateFeeCollection(ctx context.Context, f core.FeeCollection) (out core.FeeCollection, err error) {
	defer func() { s.record(ctx, "fee_collection", out.ID, err) }()

	if err := f.Validate(); err != nil {
		return core.FeeCollection{}, invalid(err)
	}
	out, err = s.store.CreateFeeCollection(ctx, f)
	if err != nil {
		return core.FeeCollection{}, fmt.Errorf("create fee collection: %w", err)
	}
	return out, nil
}

func (s *LedgerService) requireAccount(ctx context.Context, id int64) error {
	_, err := s.store.GetAccount(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return fmt.Errorf("%w: %d", ErrAccountNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("get account %d: %w", id, err)
	}
	return nil
}

func (s *LedgerService) checkCategories(ctx context.Context, t core.Transaction) error {
	if t.IncomeCategoryID == nil && t.ExpenseCategoryID == nil {
		return nil
	}
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	kinds := make(map[int64]core.CategoryKind, len(cats))
	for _, c := range cats {
		kinds[c.ID] = c.Kind
	}

	check := func(id *int64, want core.CategoryKind) error {
		if id == nil {
			return nil
		}
		kind, ok := kinds[*id]
		if !ok {
			return invalid(fmt.Errorf("%w: %d", ErrCategoryNotFound, *id))
		}
		if kind != want {
			return invalid(fmt.Errorf("%w: category %d is %s", ErrCategoryMismatch, *id, kind))
		}
		return nil
	}
	if err := check(t.IncomeCategoryID, core.IncomeCategory); err != nil {
		return err
	}
	return check(t.ExpenseCategoryID, core.ExpenseCategory)
}
