// Package ledger computes account balances and accounting reports over an
// already-fetched snapshot of ledger rows.
//
// Everything here is a pure function of its inputs: no storage access, no
// wall clock. Report dates are passed in by the caller and compared as
// calendar days.
package ledger

import (
	"errors"

	"schoolledger/internal/core"
)

var ErrUnknownAccount = errors.New("unknown account")

// Snapshot is the set of rows a report runs over. Transactions and fund
// transactions may be pre-filtered by date; rows dated after the report
// boundary are ignored either way.
type Snapshot struct {
	Accounts         []core.Account
	Categories       []core.Category
	Funds            []core.Fund
	Transactions     []core.Transaction
	FundTransactions []core.FundTransaction
}

// Ledger is an immutable, indexed view of a Snapshot.
type Ledger struct {
	accounts   []core.Account
	byID       map[int64]core.Account
	categories map[int64]core.Category
	funds      map[int64]core.Fund
	txs        []core.Transaction
	ftxs       []core.FundTransaction
}

func New(s Snapshot) *Ledger {
	l := &Ledger{
		accounts:   s.Accounts,
		byID:       make(map[int64]core.Account, len(s.Accounts)),
		categories: make(map[int64]core.Category, len(s.Categories)),
		funds:      make(map[int64]core.Fund, len(s.Funds)),
		txs:        s.Transactions,
		ftxs:       s.FundTransactions,
	}
	for _, a := range s.Accounts {
		l.byID[a.ID] = a
	}
	for _, c := range s.Categories {
		l.categories[c.ID] = c
	}
	for _, f := range s.Funds {
		l.funds[f.ID] = f
	}
	return l
}

// Scope selects the accounts a report covers and the opening balance it
// starts from.
type Scope struct {
	accountID *int64
	opening   core.Money
	members   map[int64]struct{}
}

// AccountScope covers a single account starting from its opening balance.
func (l *Ledger) AccountScope(id int64) (Scope, error) {
	a, ok := l.byID[id]
	if !ok {
		return Scope{}, ErrUnknownAccount
	}
	return Scope{
		accountID: &id,
		opening:   a.OpeningBalance,
		members:   map[int64]struct{}{id: {}},
	}, nil
}

// AggregateScope covers every active account. Its opening contribution is
// zero: aggregate reports start from net movement only.
func (l *Ledger) AggregateScope() Scope {
	s := Scope{members: make(map[int64]struct{}, len(l.accounts))}
	for _, a := range l.accounts {
		if a.IsActive() {
			s.members[a.ID] = struct{}{}
		}
	}
	return s
}

// Scope returns the single-account scope when accountID is set and the
// aggregate scope otherwise.
func (l *Ledger) Scope(accountID *int64) (Scope, error) {
	if accountID == nil {
		return l.AggregateScope(), nil
	}
	return l.AccountScope(*accountID)
}

func (s Scope) Has(accountID int64) bool {
	_, ok := s.members[accountID]
	return ok
}

// AccountID is nil for aggregate scopes.
func (s Scope) AccountID() *int64 {
	return s.accountID
}

// Balance returns the balance of one account at the end of asOf:
// opening balance plus every movement dated on or before asOf.
func (l *Ledger) Balance(accountID int64, asOf core.Date) (core.Money, error) {
	s, err := l.AccountScope(accountID)
	if err != nil {
		return core.Money{}, err
	}
	return s.opening.Add(l.movement(s, nil, &asOf)), nil
}

// AggregateBalance sums Balance over every active account. Transfers between
// two active accounts cancel out.
func (l *Ledger) AggregateBalance(asOf core.Date) core.Money {
	var total core.Money
	for _, a := range l.accounts {
		if !a.IsActive() {
			continue
		}
		b, _ := l.Balance(a.ID, asOf)
		total = total.Add(b)
	}
	return total
}

// OpeningBalance is the scope's balance from rows strictly before start.
func (l *Ledger) OpeningBalance(s Scope, start core.Date) core.Money {
	before := start.AddDays(-1)
	return s.opening.Add(l.movement(s, nil, &before))
}

// Movement is the signed net movement on the scope for rows dated in
// [from, to]. A nil bound is open.
func (l *Ledger) Movement(s Scope, from, to *core.Date) core.Money {
	return l.movement(s, from, to)
}

func (l *Ledger) movement(s Scope, from, to *core.Date) core.Money {
	var total core.Money
	for _, tx := range l.txs {
		if !inRange(tx.Date, from, to) {
			continue
		}
		var c core.CreditBuckets
		var d core.DebitBuckets
		l.bucketTransaction(s, tx, &c, &d)
		total = total.Add(c.Total).Sub(d.Total)
	}
	for _, ft := range l.ftxs {
		if !inRange(ft.Date, from, to) || !s.Has(ft.AccountID) {
			continue
		}
		total = total.Add(fundDelta(ft))
	}
	return total
}

func fundDelta(ft core.FundTransaction) core.Money {
	if ft.Type == core.FundOut {
		return ft.Amount.Neg()
	}
	return ft.Amount
}

func (l *Ledger) role(categoryID *int64) core.CategoryRole {
	if categoryID == nil {
		return core.RoleOther
	}
	c, ok := l.categories[*categoryID]
	if !ok {
		return core.RoleOther
	}
	return c.Role
}

func inRange(d core.Date, from, to *core.Date) bool {
	o := d.Ordinal()
	if from != nil && o < from.Ordinal() {
		return false
	}
	if to != nil && o > to.Ordinal() {
		return false
	}
	return true
}
