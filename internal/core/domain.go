package core

import (
	"errors"
	"strings"
	"time"
)

const (
	AccountBank          AccountType = "bank"
	AccountCash          AccountType = "cash"
	AccountMobileBanking AccountType = "mobile_banking"

	StatusActive   Status = "active"
	StatusInactive Status = "inactive"

	Income        TransactionType = "income"
	Expense       TransactionType = "expense"
	Transfer      TransactionType = "transfer"
	AssetPurchase TransactionType = "asset_purchase"

	FundIn  FundFlow = "in"
	FundOut FundFlow = "out"

	IncomeCategory  CategoryKind = "income"
	ExpenseCategory CategoryKind = "expense"

	RoleStudentFee CategoryRole = "student_fee"
	RoleSalary     CategoryRole = "salary"
	RoleFixedAsset CategoryRole = "fixed_asset"
	RoleOther      CategoryRole = "other"

	AssetActive   AssetStatus = "active"
	AssetDisposed AssetStatus = "disposed"
)

type (
	AccountType     string
	Status          string
	TransactionType string
	FundFlow        string
	CategoryKind    string
	CategoryRole    string
	AssetStatus     string

	// Date is a calendar day at UTC midnight. Time of day never takes part
	// in ledger comparisons.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Account struct {
		ID             int64       `json:"id"`
		Name           string      `json:"name"`
		Type           AccountType `json:"type"`
		OpeningBalance Money       `json:"opening_balance"`
		Status         Status      `json:"status"`
	}

	Fund struct {
		ID     int64  `json:"id"`
		Name   string `json:"name"`
		Status Status `json:"status"`
	}

	Category struct {
		ID   int64        `json:"id"`
		Name string       `json:"name"`
		Kind CategoryKind `json:"kind"`
		Role CategoryRole `json:"role"`
	}

	Transaction struct {
		ID                  int64           `json:"id"`
		Type                TransactionType `json:"type"`
		AccountID           int64           `json:"account_id"`
		TransferToAccountID *int64          `json:"transfer_to_account_id,omitempty"`
		Amount              Money           `json:"amount"`
		Date                Date            `json:"transaction_date"`
		IncomeCategoryID    *int64          `json:"income_category_id,omitempty"`
		ExpenseCategoryID   *int64          `json:"expense_category_id,omitempty"`
		Description         string          `json:"description,omitempty"`
	}

	FundTransaction struct {
		ID        int64    `json:"id"`
		FundID    int64    `json:"fund_id"`
		AccountID int64    `json:"account_id"`
		Type      FundFlow `json:"transaction_type"`
		Amount    Money    `json:"amount"`
		Date      Date     `json:"transaction_date"`
	}

	FixedAsset struct {
		ID           int64       `json:"id"`
		Name         string      `json:"name"`
		PurchaseDate Date        `json:"purchase_date"`
		Cost         Money       `json:"cost"`
		Status       AssetStatus `json:"status"`
	}

	// FeeCollection is one billed fee for a student. It is a due record
	// while Paid < Total.
	FeeCollection struct {
		ID           int64  `json:"id"`
		Organization string `json:"organization"`
		ClassName    string `json:"class_name"`
		StudentID    string `json:"student_id"`
		StudentName  string `json:"student_name"`
		Total        Money  `json:"total_amount"`
		Paid         Money  `json:"paid_amount"`
		DueDate      Date   `json:"due_date"`
	}
)

var (
	ErrInvalidDate            = errors.New("invalid date")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrEmptyName              = errors.New("empty name")
	ErrInvalidAccountType     = errors.New("invalid account type")
	ErrInvalidStatus          = errors.New("invalid status")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrInvalidFundFlow        = errors.New("invalid fund transaction type")
	ErrInvalidCategoryKind    = errors.New("invalid category kind")
	ErrInvalidCategoryRole    = errors.New("invalid category role")
	ErrMissingAccount         = errors.New("missing account")
	ErrMissingFund            = errors.New("missing fund")
	ErrMissingTransferAccount = errors.New("transfer requires a destination account")
	ErrSelfTransfer           = errors.New("transfer destination must differ from source")
	ErrUnexpectedTransferTo   = errors.New("only transfers may set a destination account")
	ErrPaidExceedsTotal       = errors.New("paid amount exceeds total amount")
	ErrEmptyStudentID         = errors.New("empty student id")
	ErrMisplacedCategory      = errors.New("category field does not match transaction type")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return DateOf(t), nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(time.DateOnly)
}

// AddDays returns the date n calendar days later (or earlier for n < 0).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// Ordinal is the number of days since the Unix epoch, usable as a map key.
func (d Date) Ordinal() int64 {
	return d.Unix() / 86400
}

func (d Date) Before(o Date) bool { return d.Ordinal() < o.Ordinal() }
func (d Date) After(o Date) bool  { return d.Ordinal() > o.Ordinal() }
func (d Date) Equal(o Date) bool  { return d.Ordinal() == o.Ordinal() }

// FirstOfMonth returns the first day of d's month.
func (d Date) FirstOfMonth() Date {
	return NewDate(d.Year(), int(d.Month()), 1)
}

// LastOfMonth returns the last day of d's month.
func (d Date) LastOfMonth() Date {
	return Date{Time: d.FirstOfMonth().Time.AddDate(0, 1, -1)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (t AccountType) IsValid() bool {
	switch t {
	case AccountBank, AccountCash, AccountMobileBanking:
		return true
	}
	return false
}

func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusInactive
}

func (t TransactionType) IsValid() bool {
	switch t {
	case Income, Expense, Transfer, AssetPurchase:
		return true
	}
	return false
}

func (r CategoryRole) IsValid() bool {
	switch r {
	case RoleStudentFee, RoleSalary, RoleFixedAsset, RoleOther:
		return true
	}
	return false
}

// InferCategoryRole derives a role from a category name. It is applied once,
// when a category is created without an explicit role; reports only read the
// stored role.
func InferCategoryRole(kind CategoryKind, name string) CategoryRole {
	n := strings.ToLower(name)
	switch kind {
	case IncomeCategory:
		if strings.Contains(n, "student") || strings.Contains(n, "fee") {
			return RoleStudentFee
		}
	case ExpenseCategory:
		if strings.Contains(n, "salary") || strings.Contains(n, "wage") {
			return RoleSalary
		}
		if strings.Contains(n, "asset") || strings.Contains(n, "equipment") {
			return RoleFixedAsset
		}
	}
	return RoleOther
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if !a.Type.IsValid() {
		return ErrInvalidAccountType
	}
	if !a.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

// IsActive reports whether the account takes part in aggregate reports.
func (a Account) IsActive() bool {
	return a.Status == StatusActive
}

func (f Fund) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return ErrEmptyName
	}
	if !f.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.Kind != IncomeCategory && c.Kind != ExpenseCategory {
		return ErrInvalidCategoryKind
	}
	if !c.Role.IsValid() {
		return ErrInvalidCategoryRole
	}
	return nil
}

// Validate checks the row shape. Account existence is checked by the caller,
// which owns the account table.
func (t Transaction) Validate() error {
	if !t.Type.IsValid() {
		return ErrInvalidTransactionType
	}
	if t.AccountID <= 0 {
		return ErrMissingAccount
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if t.Type == Transfer {
		if t.TransferToAccountID == nil || *t.TransferToAccountID <= 0 {
			return ErrMissingTransferAccount
		}
		if *t.TransferToAccountID == t.AccountID {
			return ErrSelfTransfer
		}
	} else if t.TransferToAccountID != nil {
		return ErrUnexpectedTransferTo
	}
	return t.validateCategories()
}

// validateCategories allows an income category on income rows and an
// expense category on expense and asset purchase rows. Transfers carry none.
func (t Transaction) validateCategories() error {
	switch t.Type {
	case Income:
		if t.ExpenseCategoryID != nil {
			return ErrMisplacedCategory
		}
	case Expense, AssetPurchase:
		if t.IncomeCategoryID != nil {
			return ErrMisplacedCategory
		}
	case Transfer:
		if t.IncomeCategoryID != nil || t.ExpenseCategoryID != nil {
			return ErrMisplacedCategory
		}
	}
	return nil
}

func (f FundTransaction) Validate() error {
	if f.FundID <= 0 {
		return ErrMissingFund
	}
	if f.AccountID <= 0 {
		return ErrMissingAccount
	}
	if f.Type != FundIn && f.Type != FundOut {
		return ErrInvalidFundFlow
	}
	if err := f.Amount.Validate(); err != nil {
		return err
	}
	return f.Date.Validate()
}

func (a FixedAsset) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if err := a.PurchaseDate.Validate(); err != nil {
		return err
	}
	if err := a.Cost.Validate(); err != nil {
		return err
	}
	if a.Status != AssetActive && a.Status != AssetDisposed {
		return ErrInvalidStatus
	}
	return nil
}

func (f FeeCollection) Validate() error {
	if strings.TrimSpace(f.Organization) == "" || strings.TrimSpace(f.ClassName) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(f.StudentID) == "" {
		return ErrEmptyStudentID
	}
	if err := f.Total.Validate(); err != nil {
		return err
	}
	if f.Paid.Cents < 0 {
		return ErrInvalidAmount
	}
	if f.Paid.Cents > f.Total.Cents {
		return ErrPaidExceedsTotal
	}
	return f.DueDate.Validate()
}

// IsDue reports whether the fee still has an outstanding balance.
func (f FeeCollection) IsDue() bool {
	return f.Paid.Cents < f.Total.Cents
}
