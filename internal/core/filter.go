package core

import (
	"strings"
	"time"
)

// TransactionFilter narrows a user's transaction list. All criteria
// are optional and combined with AND; the zero filter matches every
// transaction.
type TransactionFilter struct {
	Search    string
	Category  string
	Merchant  string
	StartDate time.Time
	EndDate   time.Time
}

// IsZero reports whether no criterion is set.
func (f TransactionFilter) IsZero() bool {
	return f.Search == "" && f.Category == "" && f.Merchant == "" &&
		f.StartDate.IsZero() && f.EndDate.IsZero()
}

// Match reports whether t satisfies every set criterion.
//
// Search is a case-insensitive substring match over description,
// category and merchant; category is an exact match; merchant is a
// case-insensitive substring match (a row with an empty merchant is
// still a valid target, it simply never contains a non-empty needle).
// The date range is inclusive on both ends.
func (f TransactionFilter) Match(t Transaction) bool {
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Description), needle) &&
			!strings.Contains(strings.ToLower(t.Category), needle) &&
			!strings.Contains(strings.ToLower(t.Merchant), needle) {
			return false
		}
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.Merchant != "" && !strings.Contains(strings.ToLower(t.Merchant), strings.ToLower(f.Merchant)) {
		return false
	}
	if !f.StartDate.IsZero() && t.Date.Before(f.StartDate) {
		return false
	}
	if !f.EndDate.IsZero() && t.Date.After(f.EndDate) {
		return false
	}
	return true
}

// Apply returns the transactions matching f, preserving order.
func (f TransactionFilter) Apply(list []Transaction) []Transaction {
	if f.IsZero() {
		return list
	}
	out := make([]Transaction, 0, len(list))
	for _, t := range list {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}
