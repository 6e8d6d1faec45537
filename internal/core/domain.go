package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// DefaultCategory is substituted when a caller supplies a blank category.
const DefaultCategory = "Other"

type (
	// TransactionType is the closed set of transaction directions. The sign
	// of a transaction is carried here, never in the stored amount.
	TransactionType string

	Money struct {
		Cents int64
	}

	// Transaction is an immutable monetary event tied to one account.
	// Timestamp is assigned by the store at insert time.
	Transaction struct {
		ID          int64
		AccountID   int64
		Timestamp   time.Time
		Amount      Money
		Type        TransactionType
		Category    string
		Description string
	}

	// Account is a named bucket of transactions. Balance is derived from
	// the transaction set on every read and is never persisted.
	Account struct {
		ID        int64
		Name      string
		CreatedAt time.Time
		Balance   Money
	}

	// DateRange bounds a query by timestamp. A zero Start or End leaves
	// that side open. Both bounds are inclusive.
	DateRange struct {
		Start time.Time
		End   time.Time
	}
)

var (
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrInvalidType     = errors.New("transaction type must be 'income' or 'expense'")
	ErrInvalidLimit    = errors.New("limit must be positive")
	ErrInvalidDate     = errors.New("invalid date")
	ErrEmptyName       = errors.New("empty account name")
	ErrEmptyCategory   = errors.New("empty category")
	ErrAccountNotFound = errors.New("account not found")
)

// ParseTransactionType maps free-form input onto the closed enum.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.TrimSpace(strings.ToLower(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	default:
		return "", ErrInvalidType
	}
}

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidType
	}
}

// Sign returns the display prefix for the type: "+" for income, "-" for
// expense, "" for anything else.
func (t TransactionType) Sign() string {
	switch t {
	case Income:
		return "+"
	case Expense:
		return "-"
	default:
		return ""
	}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (tx Transaction) Validate() error {
	if err := tx.Type.Validate(); err != nil {
		return err
	}
	if err := tx.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(tx.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// NormalizeCategory trims whitespace and falls back to DefaultCategory
// when nothing remains.
func NormalizeCategory(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultCategory
	}
	return s
}

// Contains reports whether ts falls inside the range, bounds included.
func (r DateRange) Contains(ts time.Time) bool {
	if !r.Start.IsZero() && ts.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && ts.After(r.End) {
		return false
	}
	return true
}

// IsZero reports whether both bounds are open.
func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}
