package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"schoolledger/internal/core"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries holds the hand-written statements for both dialects. Statements
// use ? placeholders and are rebound per dialect.
type Queries struct {
	db      DBTX
	dialect Dialect
}

func New(db DBTX, d Dialect) *Queries {
	return &Queries{db: db, dialect: d}
}

func (q *Queries) queryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return q.db.QueryRowContext(ctx, q.dialect.rebind(query), args...)
}

func (q *Queries) query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return q.db.QueryContext(ctx, q.dialect.rebind(query), args...)
}

const createAccount = `INSERT INTO accounts (name, type, opening_balance_cents, status)
VALUES (?, ?, ?, ?)
RETURNING id`

func (q *Queries) CreateAccount(ctx context.Context, a core.Account) (int64, error) {
	var id int64
	err := q.queryRow(ctx, createAccount, a.Name, string(a.Type), a.OpeningBalance.Cents, string(a.Status)).Scan(&id)
	return id, err
}

const selectAccounts = `SELECT id, name, type, opening_balance_cents, status FROM accounts`

func scanAccount(s interface{ Scan(...any) error }) (core.Account, error) {
	var (
		a            core.Account
		typ, status  string
		openingCents int64
	)
	if err := s.Scan(&a.ID, &a.Name, &typ, &openingCents, &status); err != nil {
		return core.Account{}, err
	}
	a.Type = core.AccountType(typ)
	a.Status = core.Status(status)
	a.OpeningBalance = core.Money{Cents: openingCents}
	return a, nil
}

func (q *Queries) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := q.query(ctx, selectAccounts+` ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (q *Queries) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	return scanAccount(q.queryRow(ctx, selectAccounts+` WHERE id = ?`, id))
}

const createFund = `INSERT INTO funds (name, status) VALUES (?, ?) RETURNING id`

func (q *Queries) CreateFund(ctx context.Context, f core.Fund) (int64, error) {
	var id int64
	err := q.queryRow(ctx, createFund, f.Name, string(f.Status)).Scan(&id)
	return id, err
}

const listFunds = `SELECT id, name, status FROM funds ORDER BY id`

func (q *Queries) ListFunds(ctx context.Context) ([]core.Fund, error) {
	rows, err := q.query(ctx, listFunds)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []core.Fund
	for rows.Next() {
		var (
			f      core.Fund
			status string
		)
		if err := rows.Scan(&f.ID, &f.Name, &status); err != nil {
			return nil, err
		}
		f.Status = core.Status(status)
		out = append(out, f)
	}
	return out, rows.Err()
}

const createCategory = `INSERT INTO categories (name, kind, role) VALUES (?, ?, ?) RETURNING id`

func (q *Queries) CreateCategory(ctx context.Context, c core.Category) (int64, error) {
	var id int64
	err := q.queryRow(ctx, createCategory, c.Name, string(c.Kind), string(c.Role)).Scan(&id)
	return id, err
}

const listCategories = `SELECT id, name, kind, role FROM categories ORDER BY id`

func (q *Queries) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := q.query(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []core.Category
	for rows.Next() {
		var (
			c          core.Category
			kind, role string
		)
		if err := rows.Scan(&c.ID, &c.Name, &kind, &role); err != nil {
			return nil, err
		}
		c.Kind = core.CategoryKind(kind)
		c.Role = core.CategoryRole(role)
		out = append(out, c)
	}
	return out, rows.Err()
}

const createTransaction = `INSERT INTO transactions
(type, account_id, transfer_to_account_id, amount_cents, transaction_date, income_category_id, expense_category_id, description)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id`

func (q *Queries) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	var id int64
	err := q.queryRow(ctx, createTransaction,
		string(t.Type),
		t.AccountID,
		nullInt64(t.TransferToAccountID),
		t.Amount.Cents,
		q.dialect.dateArg(t.Date),
		nullInt64(t.IncomeCategoryID),
		nullInt64(t.ExpenseCategoryID),
		t.Description,
	).Scan(&id)
	return id, err
}

// window appends the date and account predicates shared by the ledger row
// queries. accountCols lists the columns an account filter may match.
func (q *Queries) window(where []string, args []interface{}, from, to, before *core.Date, accountID *int64, accountCols ...string) ([]string, []interface{}) {
	if from != nil {
		where = append(where, "transaction_date >= ?")
		args = append(args, q.dialect.dateArg(*from))
	}
	if to != nil {
		where = append(where, "transaction_date <= ?")
		args = append(args, q.dialect.dateArg(*to))
	}
	if before != nil {
		where = append(where, "transaction_date < ?")
		args = append(args, q.dialect.dateArg(*before))
	}
	if accountID != nil {
		ors := make([]string, len(accountCols))
		for i, c := range accountCols {
			ors[i] = c + " = ?"
			args = append(args, *accountID)
		}
		where = append(where, "("+strings.Join(ors, " OR ")+")")
	}
	return where, args
}

func whereClause(where []string) string {
	if len(where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(where, " AND ")
}

const listTransactions = `SELECT id, type, account_id, transfer_to_account_id, amount_cents,
CAST(transaction_date AS TEXT), income_category_id, expense_category_id, description
FROM transactions`

func (q *Queries) ListTransactions(ctx context.Context, from, to *core.Date, accountID *int64) ([]core.Transaction, error) {
	where, args := q.window(nil, nil, from, to, nil, accountID, "account_id", "transfer_to_account_id")
	rows, err := q.query(ctx, listTransactions+whereClause(where)+` ORDER BY transaction_date, id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []core.Transaction
	for rows.Next() {
		var (
			t                     core.Transaction
			typ, date             string
			cents                 int64
			dest, income, expense sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &typ, &t.AccountID, &dest, &cents, &date, &income, &expense, &t.Description); err != nil {
			return nil, err
		}
		if t.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("transaction %d date %q: %w", t.ID, date, err)
		}
		t.Type = core.TransactionType(typ)
		t.Amount = core.Money{Cents: cents}
		t.TransferToAccountID = int64Ptr(dest)
		t.IncomeCategoryID = int64Ptr(income)
		t.ExpenseCategoryID = int64Ptr(expense)
		out = append(out, t)
	}
	return out, rows.Err()
}

const summarizeTransactions = `SELECT type, account_id, transfer_to_account_id,
CAST(SUM(amount_cents) AS BIGINT), CAST(MIN(transaction_date) AS TEXT),
income_category_id, expense_category_id
FROM transactions`

const summarizeTransactionsGroup = ` GROUP BY type, account_id, transfer_to_account_id, income_category_id, expense_category_id
ORDER BY MIN(transaction_date), MIN(id)`

func (q *Queries) SummarizeTransactions(ctx context.Context, before core.Date, accountID *int64) ([]core.Transaction, error) {
	where, args := q.window(nil, nil, nil, nil, &before, accountID, "account_id", "transfer_to_account_id")
	rows, err := q.query(ctx, summarizeTransactions+whereClause(where)+summarizeTransactionsGroup, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []core.Transaction
	for rows.Next() {
		var (
			t                     core.Transaction
			typ, date             string
			cents                 int64
			dest, income, expense sql.NullInt64
		)
		if err := rows.Scan(&typ, &t.AccountID, &dest, &cents, &date, &income, &expense); err != nil {
			return nil, err
		}
		if t.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("summary date %q: %w", date, err)
		}
		t.Type = core.TransactionType(typ)
		t.Amount = core.Money{Cents: cents}
		t.TransferToAccountID = int64Ptr(dest)
		t.IncomeCategoryID = int64Ptr(income)
		t.ExpenseCategoryID = int64Ptr(expense)
		out = append(out, t)
	}
	return out, rows.Err()
}

const createFundTransaction = `INSERT INTO fund_transactions
(fund_id, account_id, transaction_type, amount_cents, transaction_date)
VALUES (?, ?, ?, ?, ?)
RETURNING id`

func (q *Queries) CreateFundTransaction(ctx context.Context, f core.FundTransaction) (int64, error) {
	var id int64
	err := q.queryRow(ctx, createFundTransaction,
		f.FundID, f.AccountID, string(f.Type), f.Amount.Cents, q.dialect.dateArg(f.Date),
	).Scan(&id)
	return id, err
}

const listFundTransactions = `SELECT id, fund_id, account_id, transaction_type, amount_cents,
CAST(transaction_date AS TEXT)
FROM fund_transactions`

func (q *Queries) ListFundTransactions(ctx context.Context, from, to *core.Date, accountID *int64) ([]core.FundTransaction, error) {
	where, args := q.window(nil, nil, from, to, nil, accountID, "account_id")
	rows, err := q.query(ctx, listFundTransactions+whereClause(where)+` ORDER BY transaction_date, id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []core.FundTransaction
	for rows.Next() {
		var (
			f         core.FundTransaction
			typ, date string
			cents     int64
		)
		if err := rows.Scan(&f.ID, &f.FundID, &f.AccountID, &typ, &cents, &date); err != nil {
			return nil, err
		}
		if f.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("fund transaction %d date %q: %w", f.ID, date, err)
		}
		f.Type = core.FundFlow(typ)
		f.Amount = core.Money{Cents: cents}
		out = append(out, f)
	}
	return out, rows.Err()
}

const summarizeFundTransactions = `SELECT fund_id, account_id, transaction_type,
CAST(SUM(amount_cents) AS BIGINT), CAST(MIN(transaction_date) AS TEXT)
FROM fund_transactions`

const summarizeFundTransactionsGroup = ` GROUP BY fund_id, account_id, transaction_type
ORDER BY MIN(transaction_date), MIN(id)`

func (q *Queries) SummarizeFundTransactions(ctx context.Context, before core.Date, accountID *int64) ([]core.FundTransaction, error) {
	where, args := q.window(nil, nil, nil, nil, &before, accountID, "account_id")
	rows, err := q.query(ctx, summarizeFundTransactions+whereClause(where)+summarizeFundTransactionsGroup, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []core.FundTransaction
	for rows.Next() {
		var (
			f         core.FundTransaction
			typ, date string
			cents     int64
		)
		if err := rows.Scan(&f.FundID, &f.AccountID, &typ, &cents, &date); err != nil {
			return nil, err
		}
		if f.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("summary date %q: %w", date, err)
		}
		f.Type = core.FundFlow(typ)
		f.Amount = core.Money{Cents: cents}
		out = append(out, f)
	}
	return out, rows.Err()
}

const createFixedAsset = `INSERT INTO fixed_assets (name, purchase_date, cost_cents, status)
VALUES (?, ?, ?, ?)
RETURNING id`

func (q *Queries) CreateFixedAsset(ctx context.Context, a core.FixedAsset) (int64, error) {
	var id int64
	err := q.queryRow(ctx, createFixedAsset, a.Name, q.dialect.dateArg(a.PurchaseDate), a.Cost.Cents, string(a.Status)).Scan(&id)
	return id, err
}

const listFixedAssets = `SELECT id, name, CAST(purchase_date AS TEXT), cost_cents, status
FROM fixed_assets
WHERE purchase_date <= ?
ORDER BY purchase_date, id`

func (q *Queries) ListFixedAssets(ctx context.Context, asOn core.Date) ([]core.FixedAsset, error) {
	rows, err := q.query(ctx, listFixedAssets, q.dialect.dateArg(asOn))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []core.FixedAsset
	for rows.Next() {
		var (
			a            core.FixedAsset
			date, status string
			cents        int64
		)
		if err := rows.Scan(&a.ID, &a.Name, &date, &cents, &status); err != nil {
			return nil, err
		}
		if a.PurchaseDate, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("fixed asset %d date %q: %w", a.ID, date, err)
		}
		a.Cost = core.Money{Cents: cents}
		a.Status = core.AssetStatus(status)
		out = append(out, a)
	}
	return out, rows.Err()
}

const createFeeCollection = `INSERT INTO fee_collections
(organization, class_name, student_id, student_name, total_amount_cents, paid_amount_cents, due_date)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING id`

func (q *Queries) CreateFeeCollection(ctx context.Context, f core.FeeCollection) (int64, error) {
	var id int64
	err := q.queryRow(ctx, createFeeCollection,
		f.Organization, f.ClassName, f.StudentID, f.StudentName, f.Total.Cents, f.Paid.Cents, q.dialect.dateArg(f.DueDate),
	).Scan(&id)
	return id, err
}

const listFeeCollections = `SELECT id, organization, class_name, student_id, student_name,
total_amount_cents, paid_amount_cents, CAST(due_date AS TEXT)
FROM fee_collections`

func (q *Queries) ListFeeCollections(ctx context.Context, organization, className string, dueOnly bool) ([]core.FeeCollection, error) {
	var (
		where []string
		args  []interface{}
	)
	if organization != "" {
		where = append(where, "organization = ?")
		args = append(args, organization)
	}
	if className != "" {
		where = append(where, "class_name = ?")
		args = append(args, className)
	}
	if dueOnly {
		where = append(where, "paid_amount_cents < total_amount_cents")
	}
	rows, err := q.query(ctx, listFeeCollections+whereClause(where)+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []core.FeeCollection
	for rows.Next() {
		var (
			f           core.FeeCollection
			total, paid int64
			date        string
		)
		if err := rows.Scan(&f.ID, &f.Organization, &f.ClassName, &f.StudentID, &f.StudentName, &total, &paid, &date); err != nil {
			return nil, err
		}
		if f.DueDate, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("fee collection %d date %q: %w", f.ID, date, err)
		}
		f.Total = core.Money{Cents: total}
		f.Paid = core.Money{Cents: paid}
		out = append(out, f)
	}
	return out, rows.Err()
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
