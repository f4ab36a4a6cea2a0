// Package repo declares the persistence ports the report and ingestion
// services depend on.
package repo

import (
	"context"
	"errors"

	"schoolledger/internal/core"
)

var ErrNotFound = errors.New("not found")

// TransactionFilter narrows ledger rows by an inclusive date window and,
// optionally, an account. For transfers the account matches either leg.
type TransactionFilter struct {
	From      *core.Date
	To        *core.Date
	AccountID *int64
}

// FeeFilter narrows fee collection rows. Empty strings match everything.
type FeeFilter struct {
	Organization string
	ClassName    string
	DueOnly      bool
}

// Ports for the ledger store.
type (
	AccountReader interface {
		ListAccounts(ctx context.Context) ([]core.Account, error)
		GetAccount(ctx context.Context, id int64) (core.Account, error)
	}

	TaxonomyReader interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
		ListFunds(ctx context.Context) ([]core.Fund, error)
	}

	TransactionReader interface {
		ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error)
		// SummarizeTransactions collapses every row dated before `before`
		// into one row per (type, account, destination, category) with the
		// amounts summed, so history never has to be loaded row by row.
		SummarizeTransactions(ctx context.Context, before core.Date, accountID *int64) ([]core.Transaction, error)
		ListFundTransactions(ctx context.Context, f TransactionFilter) ([]core.FundTransaction, error)
		// SummarizeFundTransactions is SummarizeTransactions for fund rows,
		// grouped by (fund, account, direction).
		SummarizeFundTransactions(ctx context.Context, before core.Date, accountID *int64) ([]core.FundTransaction, error)
	}

	AssetReader interface {
		// ListFixedAssets returns assets purchased on or before asOn.
		ListFixedAssets(ctx context.Context, asOn core.Date) ([]core.FixedAsset, error)
	}

	FeeReader interface {
		ListFeeCollections(ctx context.Context, f FeeFilter) ([]core.FeeCollection, error)
	}

	LedgerReader interface {
		AccountReader
		TaxonomyReader
		TransactionReader
		AssetReader
		FeeReader
	}

	// LedgerWriter persists validated rows and returns them with their
	// assigned ids.
	LedgerWriter interface {
		CreateAccount(ctx context.Context, a core.Account) (core.Account, error)
		CreateFund(ctx context.Context, f core.Fund) (core.Fund, error)
		CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		CreateFundTransaction(ctx context.Context, f core.FundTransaction) (core.FundTransaction, error)
		CreateFixedAsset(ctx context.Context, a core.FixedAsset) (core.FixedAsset, error)
		CreateFeeCollection(ctx context.Context, f core.FeeCollection) (core.FeeCollection, error)
	}

	Repository interface {
		LedgerReader
		LedgerWriter
		Ping(ctx context.Context) error
		Close() error
	}
)

// Matches reports whether a transaction passes the filter.
func (f TransactionFilter) Matches(t core.Transaction) bool {
	if !f.inWindow(t.Date) {
		return false
	}
	if f.AccountID == nil {
		return true
	}
	if t.AccountID == *f.AccountID {
		return true
	}
	return t.TransferToAccountID != nil && *t.TransferToAccountID == *f.AccountID
}

// MatchesFund reports whether a fund transaction passes the filter.
func (f TransactionFilter) MatchesFund(t core.FundTransaction) bool {
	if !f.inWindow(t.Date) {
		return false
	}
	return f.AccountID == nil || t.AccountID == *f.AccountID
}

func (f TransactionFilter) inWindow(d core.Date) bool {
	if f.From != nil && d.Before(*f.From) {
		return false
	}
	if f.To != nil && d.After(*f.To) {
		return false
	}
	return true
}

// Matches reports whether a fee collection passes the filter.
func (f FeeFilter) Matches(c core.FeeCollection) bool {
	if f.Organization != "" && f.Organization != c.Organization {
		return false
	}
	if f.ClassName != "" && f.ClassName != c.ClassName {
		return false
	}
	return !f.DueOnly || c.IsDue()
}
