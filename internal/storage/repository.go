package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"schoolledger/internal/core"
	"schoolledger/internal/repo"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// SQLRepository implements repo.Repository over SQLite or PostgreSQL.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
	queries *Queries
}

var _ repo.Repository = (*SQLRepository)(nil)

// NewSQLiteRepository opens (creating if needed) a SQLite database file and
// migrates it.
func NewSQLiteRepository(dbPath string) (*SQLRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	// Foreign keys are off by default in SQLite.
	return open(SQLite, dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
}

// NewPostgresRepository connects to PostgreSQL through the pgx stdlib driver
// and migrates the schema.
func NewPostgresRepository(url string) (*SQLRepository, error) {
	return open(Postgres, url)
}

func open(d Dialect, dsn string) (*SQLRepository, error) {
	db, err := sql.Open(d.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", d, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(d, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLRepository{
		db:      db,
		dialect: d,
		queries: New(db, d),
	}, nil
}

func (r *SQLRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLRepository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	id, err := r.queries.CreateAccount(ctx, a)
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	a.ID = id
	slog.InfoContext(ctx, "Account saved", "id", id, "name", a.Name, "type", a.Type)
	return a, nil
}

func (r *SQLRepository) CreateFund(ctx context.Context, f core.Fund) (core.Fund, error) {
	id, err := r.queries.CreateFund(ctx, f)
	if err != nil {
		return core.Fund{}, fmt.Errorf("create fund: %w", err)
	}
	f.ID = id
	slog.InfoContext(ctx, "Fund saved", "id", id, "name", f.Name)
	return f, nil
}

func (r *SQLRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	id, err := r.queries.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	c.ID = id
	slog.InfoContext(ctx, "Category saved", "id", id, "name", c.Name, "kind", c.Kind, "role", c.Role)
	return c, nil
}

func (r *SQLRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	id, err := r.queries.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	t.ID = id
	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"type", t.Type,
		"account_id", t.AccountID,
		"amount_cents", t.Amount.Cents,
		"date", t.Date.String())
	return t, nil
}

func (r *SQLRepository) CreateFundTransaction(ctx context.Context, f core.FundTransaction) (core.FundTransaction, error) {
	id, err := r.queries.CreateFundTransaction(ctx, f)
	if err != nil {
		return core.FundTransaction{}, fmt.Errorf("create fund transaction: %w", err)
	}
	f.ID = id
	slog.InfoContext(ctx, "Fund transaction saved",
		"id", id,
		"fund_id", f.FundID,
		"account_id", f.AccountID,
		"direction", f.Type,
		"amount_cents", f.Amount.Cents)
	return f, nil
}

func (r *SQLRepository) CreateFixedAsset(ctx context.Context, a core.FixedAsset) (core.FixedAsset, error) {
	id, err := r.queries.CreateFixedAsset(ctx, a)
	if err != nil {
		return core.FixedAsset{}, fmt.Errorf("create fixed asset: %w", err)
	}
	a.ID = id
	slog.InfoContext(ctx, "Fixed asset saved", "id", id, "name", a.Name, "cost_cents", a.Cost.Cents)
	return a, nil
}

func (r *SQLRepository) CreateFeeCollection(ctx context.Context, f core.FeeCollection) (core.FeeCollection, error) {
	id, err := r.queries.CreateFeeCollection(ctx, f)
	if err != nil {
		return core.FeeCollection{}, fmt.Errorf("create fee collection: %w", err)
	}
	f.ID = id
	slog.InfoContext(ctx, "Fee collection saved", "id", id, "student_id", f.StudentID, "organization", f.Organization)
	return f, nil
}

func (r *SQLRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	accounts, err := r.queries.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

func (r *SQLRepository) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	a, err := r.queries.GetAccount(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, repo.ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account %d: %w", id, err)
	}
	return a, nil
}

func (r *SQLRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	cats, err := r.queries.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

func (r *SQLRepository) ListFunds(ctx context.Context) ([]core.Fund, error) {
	funds, err := r.queries.ListFunds(ctx)
	if err != nil {
		return nil, fmt.Errorf("list funds: %w", err)
	}
	return funds, nil
}

func (r *SQLRepository) ListTransactions(ctx context.Context, f repo.TransactionFilter) ([]core.Transaction, error) {
	txs, err := r.queries.ListTransactions(ctx, f.From, f.To, f.AccountID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (r *SQLRepository) SummarizeTransactions(ctx context.Context, before core.Date, accountID *int64) ([]core.Transaction, error) {
	txs, err := r.queries.SummarizeTransactions(ctx, before, accountID)
	if err != nil {
		return nil, fmt.Errorf("summarize transactions: %w", err)
	}
	return txs, nil
}

func (r *SQLRepository) ListFundTransactions(ctx context.Context, f repo.TransactionFilter) ([]core.FundTransaction, error) {
	ftxs, err := r.queries.ListFundTransactions(ctx, f.From, f.To, f.AccountID)
	if err != nil {
		return nil, fmt.Errorf("list fund transactions: %w", err)
	}
	return ftxs, nil
}

func (r *SQLRepository) SummarizeFundTransactions(ctx context.Context, before core.Date, accountID *int64) ([]core.FundTransaction, error) {
	ftxs, err := r.queries.SummarizeFundTransactions(ctx, before, accountID)
	if err != nil {
		return nil, fmt.Errorf("summarize fund transactions: %w", err)
	}
	return ftxs, nil
}

func (r *SQLRepository) ListFixedAssets(ctx context.Context, asOn core.Date) ([]core.FixedAsset, error) {
	assets, err := r.queries.ListFixedAssets(ctx, asOn)
	if err != nil {
		return nil, fmt.Errorf("list fixed assets: %w", err)
	}
	return assets, nil
}

func (r *SQLRepository) ListFeeCollections(ctx context.Context, f repo.FeeFilter) ([]core.FeeCollection, error) {
	fees, err := r.queries.ListFeeCollections(ctx, f.Organization, f.ClassName, f.DueOnly)
	if err != nil {
		return nil, fmt.Errorf("list fee collections: %w", err)
	}
	return fees, nil
}
