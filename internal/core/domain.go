package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"

	// MaxDescriptionLen bounds transaction descriptions.
	MaxDescriptionLen = 200
)

type (
	TransactionType string

	// User is a registered account. Password holds the scrypt hash in
	// <hexHash>.<hexSalt> form and is never serialized outward.
	User struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		Password string `json:"-"`
	}

	// Transaction is a single income or expense ledger entry owned by
	// one user. Amount is a decimal string to avoid floating-point
	// drift on the wire and in storage.
	Transaction struct {
		ID          int64           `json:"id"`
		UserID      int64           `json:"userId"`
		Amount      string          `json:"amount"`
		Category    string          `json:"category"`
		Merchant    string          `json:"merchant"`
		Date        time.Time       `json:"date"`
		Description string          `json:"description"`
		Type        TransactionType `json:"type"`
	}

	// TransactionInput carries the caller-supplied fields of a new
	// transaction; the id and owning user are assigned by the store.
	TransactionInput struct {
		Amount      string
		Category    string
		Merchant    string
		Date        time.Time
		Description string
		Type        TransactionType
	}

	// TransactionUpdate is a partial update; nil fields are left as-is.
	TransactionUpdate struct {
		Amount      *string
		Category    *string
		Merchant    *string
		Date        *time.Time
		Description *string
		Type        *TransactionType
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrZeroDate         = errors.New("date is required")
	ErrEmptyUsername    = errors.New("empty username")
	ErrEmptyPassword    = errors.New("empty password")
)

// Valid reports whether t is one of the two supported entry types.
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (in TransactionInput) Validate() error {
	if _, err := ParseAmountToCents(in.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(in.Category) == "" {
		return ErrEmptyCategory
	}
	if in.Date.IsZero() {
		return ErrZeroDate
	}
	if strings.TrimSpace(in.Description) == "" {
		return ErrEmptyDescription
	}
	if len(in.Description) > MaxDescriptionLen {
		return errors.New("description too long")
	}
	if !in.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

// Apply returns a copy of t with the non-nil fields of u applied.
func (u TransactionUpdate) Apply(t Transaction) Transaction {
	if u.Amount != nil {
		t.Amount = *u.Amount
	}
	if u.Category != nil {
		t.Category = *u.Category
	}
	if u.Merchant != nil {
		t.Merchant = *u.Merchant
	}
	if u.Date != nil {
		t.Date = *u.Date
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Type != nil {
		t.Type = *u.Type
	}
	return t
}
