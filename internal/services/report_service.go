package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"schoolledger/internal/cache"
	"schoolledger/internal/core"
	"schoolledger/internal/ledger"
	"schoolledger/internal/metrics"
	"schoolledger/internal/repo"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrInvalidRange    = errors.New("end date is before start date")
	ErrRangeTooLong    = errors.New("date range too long")
)

// Report kinds, used as cache key prefixes, metric labels and export kinds.
const (
	KindBalanceSheet      = "balance_sheet"
	KindBank              = "bank"
	KindIncomeExpenditure = "income_expenditure"
	KindReceiptPayment    = "receipt_payment"
	KindDue               = "due"
	KindBalance           = "balance"
)

// ReportSettings tunes report computation.
type ReportSettings struct {
	ExcludedCategories []string
	// BankReportMaxDays bounds the bank report window. Zero means unbounded.
	BankReportMaxDays int
	LoadTimeout       time.Duration
}

// ReportService loads ledger rows for a window and runs the calculator over
// them. Results are cached until the next write.
type ReportService struct {
	store   repo.LedgerReader
	cache   cache.Cache[any]
	metrics metrics.Collector
	exclude ledger.Exclusions
	maxDays int
	timeout time.Duration

	// generation counts invalidations. A result computed across an
	// invalidation is returned but never cached.
	mu         sync.Mutex
	generation uint64
}

func NewReportService(store repo.LedgerReader, c cache.Cache[any], m metrics.Collector, settings ReportSettings) *ReportService {
	if m == nil {
		m = metrics.NoOpCollector{}
	}
	return &ReportService{
		store:   store,
		cache:   c,
		metrics: m,
		exclude: ledger.NewExclusions(settings.ExcludedCategories),
		maxDays: settings.BankReportMaxDays,
		timeout: settings.LoadTimeout,
	}
}

// Invalidate drops every cached report.
func (s *ReportService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	if s.cache == nil {
		return
	}
	if n := s.cache.Purge(); n > 0 {
		slog.Debug("Report cache purged", "entries", n)
	}
}

func (s *ReportService) currentGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// remember caches a result unless a write landed since gen was read.
func (s *ReportService) remember(key string, v any, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return false
	}
	s.cache.Set(key, v)
	return true
}

// window is the slice of history a report needs: everything before From is
// summarized, rows in [From, To] are loaded individually. A nil To skips
// the row load.
type window struct {
	From      core.Date
	To        *core.Date
	AccountID *int64
}

func (s *ReportService) load(ctx context.Context, w window) (*ledger.Ledger, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var snap ledger.Snapshot
	var history, rows []core.Transaction
	var fundHistory, fundRows []core.FundTransaction

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.Accounts, err = s.store.ListAccounts(gctx)
		return wrap("list accounts", err)
	})
	g.Go(func() error {
		var err error
		snap.Categories, err = s.store.ListCategories(gctx)
		return wrap("list categories", err)
	})
	g.Go(func() error {
		var err error
		snap.Funds, err = s.store.ListFunds(gctx)
		return wrap("list funds", err)
	})
	g.Go(func() error {
		var err error
		history, err = s.store.SummarizeTransactions(gctx, w.From, w.AccountID)
		return wrap("summarize transactions", err)
	})
	g.Go(func() error {
		var err error
		fundHistory, err = s.store.SummarizeFundTransactions(gctx, w.From, w.AccountID)
		return wrap("summarize fund transactions", err)
	})
	if w.To != nil {
		filter := repo.TransactionFilter{From: &w.From, To: w.To, AccountID: w.AccountID}
		g.Go(func() error {
			var err error
			rows, err = s.store.ListTransactions(gctx, filter)
			return wrap("list transactions", err)
		})
		g.Go(func() error {
			var err error
			fundRows, err = s.store.ListFundTransactions(gctx, filter)
			return wrap("list fund transactions", err)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap.Transactions = append(history, rows...)
	snap.FundTransactions = append(fundHistory, fundRows...)
	return ledger.New(snap), nil
}

func wrap(op string, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *ReportService) scope(l *ledger.Ledger, accountID *int64) (ledger.Scope, error) {
	sc, err := l.Scope(accountID)
	if errors.Is(err, ledger.ErrUnknownAccount) {
		return sc, fmt.Errorf("%w: %d", ErrAccountNotFound, *accountID)
	}
	return sc, err
}

func checkRange(start, end core.Date) error {
	if end.Before(start) {
		return ErrInvalidRange
	}
	return nil
}

// cached runs compute under the report cache and records metrics.
func cached[T any](ctx context.Context, s *ReportService, kind, key string, compute func() (T, error)) (T, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			if out, ok := v.(T); ok {
				s.metrics.RecordCacheLookup(kind, true)
				return out, nil
			}
		}
		s.metrics.RecordCacheLookup(kind, false)
	}

	gen := s.currentGeneration()
	started := time.Now()
	out, err := compute()
	s.metrics.RecordReport(kind, err == nil, time.Since(started))
	if err != nil {
		slog.WarnContext(ctx, "Report failed", "kind", kind, "key", key, "error", err)
		return out, err
	}

	if s.cache != nil && !s.remember(key, out, gen) {
		slog.DebugContext(ctx, "Report outdated by a write, not cached", "kind", kind)
	}
	slog.DebugContext(ctx, "Report computed", "kind", kind, "duration", time.Since(started))
	return out, nil
}

// cacheKey quotes each part so separators inside filter values cannot
// collide with the join.
func cacheKey(kind string, parts ...string) string {
	key := kind
	for _, p := range parts {
		key += "|" + strconv.Quote(p)
	}
	return key
}

func accountKey(id *int64) string {
	if id == nil {
		return "all"
	}
	return strconv.FormatInt(*id, 10)
}

// BalanceSheet reports funds, surplus, bank balance and fixed assets as on
// the given date over all active accounts.
func (s *ReportService) BalanceSheet(ctx context.Context, asOn core.Date) (core.BalanceSheet, error) {
	key := cacheKey(KindBalanceSheet, asOn.String())
	return cached(ctx, s, KindBalanceSheet, key, func() (core.BalanceSheet, error) {
		var l *ledger.Ledger
		var assets []core.FixedAsset

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			l, err = s.load(gctx, window{From: asOn.AddDays(1)})
			return err
		})
		g.Go(func() error {
			var err error
			assets, err = s.store.ListFixedAssets(gctx, asOn)
			return wrap("list fixed assets", err)
		})
		if err := g.Wait(); err != nil {
			return core.BalanceSheet{}, fmt.Errorf("load balance sheet: %w", err)
		}
		return l.BalanceSheet(asOn, s.exclude, assets), nil
	})
}

// BankReport returns daily credit and debit buckets with running balances.
func (s *ReportService) BankReport(ctx context.Context, start, end core.Date, accountID *int64) (core.BankReport, error) {
	if err := checkRange(start, end); err != nil {
		return core.BankReport{}, err
	}
	if s.maxDays > 0 && end.Ordinal()-start.Ordinal()+1 > int64(s.maxDays) {
		return core.BankReport{}, fmt.Errorf("%w: at most %d days", ErrRangeTooLong, s.maxDays)
	}

	key := cacheKey(KindBank, start.String(), end.String(), accountKey(accountID))
	return cached(ctx, s, KindBank, key, func() (core.BankReport, error) {
		l, err := s.load(ctx, window{From: start, To: &end, AccountID: accountID})
		if err != nil {
			return core.BankReport{}, fmt.Errorf("load bank report: %w", err)
		}
		sc, err := s.scope(l, accountID)
		if err != nil {
			return core.BankReport{}, err
		}
		return l.BankReport(sc, start, end), nil
	})
}

// IncomeExpenditure returns month and cumulative amounts per category. The
// cumulative column runs from the start of history up to end.
func (s *ReportService) IncomeExpenditure(ctx context.Context, start, end core.Date, accountID *int64) (core.IncomeExpenditure, error) {
	if err := checkRange(start, end); err != nil {
		return core.IncomeExpenditure{}, err
	}

	key := cacheKey(KindIncomeExpenditure, start.String(), end.String(), accountKey(accountID))
	return cached(ctx, s, KindIncomeExpenditure, key, func() (core.IncomeExpenditure, error) {
		l, err := s.load(ctx, window{From: start, To: &end, AccountID: accountID})
		if err != nil {
			return core.IncomeExpenditure{}, fmt.Errorf("load income expenditure: %w", err)
		}
		sc, err := s.scope(l, accountID)
		if err != nil {
			return core.IncomeExpenditure{}, err
		}
		return l.IncomeExpenditure(sc, start, end, s.exclude), nil
	})
}

// ReceiptPayment returns receipts and payments for the window with the
// scope's opening and closing balances.
func (s *ReportService) ReceiptPayment(ctx context.Context, start, end core.Date, accountID *int64) (core.ReceiptPayment, error) {
	if err := checkRange(start, end); err != nil {
		return core.ReceiptPayment{}, err
	}

	key := cacheKey(KindReceiptPayment, start.String(), end.String(), accountKey(accountID))
	return cached(ctx, s, KindReceiptPayment, key, func() (core.ReceiptPayment, error) {
		l, err := s.load(ctx, window{From: start, To: &end, AccountID: accountID})
		if err != nil {
			return core.ReceiptPayment{}, fmt.Errorf("load receipt payment: %w", err)
		}
		sc, err := s.scope(l, accountID)
		if err != nil {
			return core.ReceiptPayment{}, err
		}
		return l.ReceiptPayment(sc, start, end, s.exclude), nil
	})
}

// DueReport groups outstanding fees by organization, class and student.
// Empty filters match everything.
func (s *ReportService) DueReport(ctx context.Context, organization, className string) (core.DueReport, error) {
	key := cacheKey(KindDue, organization, className)
	return cached(ctx, s, KindDue, key, func() (core.DueReport, error) {
		records, err := s.store.ListFeeCollections(ctx, repo.FeeFilter{
			Organization: organization,
			ClassName:    className,
			DueOnly:      true,
		})
		if err != nil {
			return core.DueReport{}, fmt.Errorf("list fee collections: %w", err)
		}
		return ledger.DueReport(records), nil
	})
}

// Balance returns one account's balance at the end of asOf.
func (s *ReportService) Balance(ctx context.Context, accountID int64, asOf core.Date) (core.Money, error) {
	key := cacheKey(KindBalance, accountKey(&accountID), asOf.String())
	return cached(ctx, s, KindBalance, key, func() (core.Money, error) {
		l, err := s.load(ctx, window{From: asOf.AddDays(1), AccountID: &accountID})
		if err != nil {
			return core.Money{}, fmt.Errorf("load balance: %w", err)
		}
		bal, err := l.Balance(accountID, asOf)
		if errors.Is(err, ledger.ErrUnknownAccount) {
			return core.Money{}, fmt.Errorf("%w: %d", ErrAccountNotFound, accountID)
		}
		return bal, err
	})
}
