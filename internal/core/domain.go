package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// DateFormat is the calendar-date text form used on disk and in the database.
const DateFormat = "2006-01-02"

// compactDateFormat is accepted on input only.
const compactDateFormat = "20060102"

// Default descriptions used when an entry is recorded without one.
const (
	DefaultIncomeDescription  = "Income"
	DefaultExpenseDescription = "Expense"
	DefaultNeutralDescription = "Transaction"
)

type (
	// Date is a calendar date at midnight UTC.
	Date struct {
		time.Time
	}

	// OwnerID identifies the owner that scopes relational data.
	OwnerID int64

	// Owner is an authenticated account. PasswordHash is opaque to the core.
	Owner struct {
		ID           OwnerID
		Username     string
		PasswordHash string
		CreatedAt    time.Time
	}

	// Transaction is one dated, signed monetary entry. It is immutable once
	// constructed; the only derived copy is WithHandle.
	Transaction struct {
		date        Date
		amount      float64
		description string
		handle      Handle
	}
)

var (
	ErrMissingDate   = errors.New("date is required")
	ErrFutureDate    = errors.New("date is in the future")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
)

// NewDate creates a new Date from year, month, day
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// Today returns the current local calendar date.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate accepts YYYY-MM-DD and YYYYMMDD.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{DateFormat, compactDateFormat} {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// String formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateFormat)
}

// Equal reports whether d and o are the same calendar day.
func (d Date) Equal(o Date) bool {
	return d.Time.Equal(o.Time)
}

// Before reports whether d is strictly before o.
func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }

// After reports whether d is strictly after o.
func (d Date) After(o Date) bool { return d.Time.After(o.Time) }

// Between reports whether d lies in the closed interval [from, to].
func (d Date) Between(from, to Date) bool {
	return !d.Before(from) && !d.After(to)
}

// NewTransaction validates and normalizes a record. The description is
// trimmed and replaced by a sign-derived default when empty.
func NewTransaction(date Date, amount float64, description string) (Transaction, error) {
	if date.IsZero() {
		return Transaction{}, ErrMissingDate
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Transaction{}, fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}
	return RestoreTransaction(date, amount, description, Handle{}), nil
}

// NewEntry is NewTransaction for user-entered data: dates after today are
// rejected.
func NewEntry(date Date, amount float64, description string) (Transaction, error) {
	if date.After(Today()) {
		return Transaction{}, fmt.Errorf("%w: %s", ErrFutureDate, date)
	}
	return NewTransaction(date, amount, description)
}

// RestoreTransaction rebuilds a record read back from storage. It performs
// no validation, so legacy rows with a missing date survive the load and
// are later ignored by period reports.
func RestoreTransaction(date Date, amount float64, description string, h Handle) Transaction {
	return Transaction{
		date:        date,
		amount:      amount,
		description: normalizeDescription(description, amount),
		handle:      h,
	}
}

func normalizeDescription(desc string, amount float64) string {
	// A line break would split the persisted record in two.
	desc = strings.TrimSpace(strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(desc))
	if desc != "" {
		return desc
	}
	switch {
	case amount > 0:
		return DefaultIncomeDescription
	case amount < 0:
		return DefaultExpenseDescription
	default:
		return DefaultNeutralDescription
	}
}

func (t Transaction) Date() Date          { return t.date }
func (t Transaction) Amount() float64     { return t.amount }
func (t Transaction) Description() string { return t.description }
func (t Transaction) Handle() Handle      { return t.handle }

// IsIncome reports a strictly positive amount.
func (t Transaction) IsIncome() bool { return t.amount > 0 }

// IsExpense reports a strictly negative amount.
func (t Transaction) IsExpense() bool { return t.amount < 0 }

// Kind is the type discriminator stored alongside relational rows. Zero
// amounts are filed as income.
func (t Transaction) Kind() string {
	if t.amount >= 0 {
		return KindIncome
	}
	return KindExpense
}

// WithHandle returns a copy of t carrying h.
func (t Transaction) WithHandle(h Handle) Transaction {
	t.handle = h
	return t
}

// WithoutHandle returns a copy of t with no identity.
func (t Transaction) WithoutHandle() Transaction {
	t.handle = Handle{}
	return t
}

func (t Transaction) String() string {
	kind := "Income"
	if t.amount < 0 {
		kind = "Expense"
	}
	return fmt.Sprintf("%s | %.2f | %s | %s", t.date, math.Abs(t.amount), kind, t.description)
}

// Type discriminator values.
const (
	KindIncome  = "INCOME"
	KindExpense = "EXPENSE"
)
