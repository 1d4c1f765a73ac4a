package contract

import (
	"net/url"
	"strings"
	"time"

	"fintrack/internal/core"
)

// FieldError is the wire shape of a validation failure: the first
// offending field and a human-readable message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Credentials is the request body for register and login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c Credentials) Validate() *FieldError {
	if strings.TrimSpace(c.Username) == "" {
		return &FieldError{Field: "username", Message: "username is required"}
	}
	if c.Password == "" {
		return &FieldError{Field: "password", Message: "password is required"}
	}
	return nil
}

// TransactionPayload is the request body for creating a transaction.
// Date accepts RFC 3339 or plain YYYY-MM-DD.
type TransactionPayload struct {
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Merchant    string `json:"merchant"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// Validate checks the payload and converts it to a domain input.
func (p TransactionPayload) Validate() (core.TransactionInput, *FieldError) {
	var in core.TransactionInput
	if _, err := core.ParseAmountToCents(p.Amount); err != nil {
		return in, &FieldError{Field: "amount", Message: "amount must be a positive decimal number"}
	}
	if strings.TrimSpace(p.Category) == "" {
		return in, &FieldError{Field: "category", Message: "category is required"}
	}
	date, err := ParseDate(p.Date)
	if err != nil {
		return in, &FieldError{Field: "date", Message: "date must be RFC 3339 or YYYY-MM-DD"}
	}
	if strings.TrimSpace(p.Description) == "" {
		return in, &FieldError{Field: "description", Message: "description is required"}
	}
	if len(p.Description) > core.MaxDescriptionLen {
		return in, &FieldError{Field: "description", Message: "description is too long"}
	}
	t := core.TransactionType(p.Type)
	if !t.Valid() {
		return in, &FieldError{Field: "type", Message: `type must be "income" or "expense"`}
	}
	return core.TransactionInput{
		Amount:      strings.TrimSpace(p.Amount),
		Category:    p.Category,
		Merchant:    p.Merchant,
		Date:        date,
		Description: p.Description,
		Type:        t,
	}, nil
}

// TransactionPatch is the request body for a partial update; absent
// fields leave the stored value unchanged.
type TransactionPatch struct {
	Amount      *string `json:"amount,omitempty"`
	Category    *string `json:"category,omitempty"`
	Merchant    *string `json:"merchant,omitempty"`
	Date        *string `json:"date,omitempty"`
	Description *string `json:"description,omitempty"`
	Type        *string `json:"type,omitempty"`
}

// Validate checks the supplied fields and converts them to a domain
// update.
func (p TransactionPatch) Validate() (core.TransactionUpdate, *FieldError) {
	var upd core.TransactionUpdate
	if p.Amount != nil {
		if _, err := core.ParseAmountToCents(*p.Amount); err != nil {
			return upd, &FieldError{Field: "amount", Message: "amount must be a positive decimal number"}
		}
		trimmed := strings.TrimSpace(*p.Amount)
		upd.Amount = &trimmed
	}
	if p.Category != nil {
		if strings.TrimSpace(*p.Category) == "" {
			return upd, &FieldError{Field: "category", Message: "category cannot be empty"}
		}
		upd.Category = p.Category
	}
	if p.Merchant != nil {
		upd.Merchant = p.Merchant
	}
	if p.Date != nil {
		date, err := ParseDate(*p.Date)
		if err != nil {
			return upd, &FieldError{Field: "date", Message: "date must be RFC 3339 or YYYY-MM-DD"}
		}
		upd.Date = &date
	}
	if p.Description != nil {
		if strings.TrimSpace(*p.Description) == "" {
			return upd, &FieldError{Field: "description", Message: "description cannot be empty"}
		}
		if len(*p.Description) > core.MaxDescriptionLen {
			return upd, &FieldError{Field: "description", Message: "description is too long"}
		}
		upd.Description = p.Description
	}
	if p.Type != nil {
		t := core.TransactionType(*p.Type)
		if !t.Valid() {
			return upd, &FieldError{Field: "type", Message: `type must be "income" or "expense"`}
		}
		upd.Type = &t
	}
	return upd, nil
}

// ParseDate parses a transaction date, RFC 3339 first and plain
// YYYY-MM-DD as a fallback.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// Query parameter names of the transaction list filter.
const (
	QuerySearch    = "search"
	QueryCategory  = "category"
	QueryMerchant  = "merchant"
	QueryStartDate = "startDate"
	QueryEndDate   = "endDate"
)

// EncodeFilter renders a filter as list-endpoint query parameters.
func EncodeFilter(f core.TransactionFilter) url.Values {
	q := url.Values{}
	if f.Search != "" {
		q.Set(QuerySearch, f.Search)
	}
	if f.Category != "" {
		q.Set(QueryCategory, f.Category)
	}
	if f.Merchant != "" {
		q.Set(QueryMerchant, f.Merchant)
	}
	if !f.StartDate.IsZero() {
		q.Set(QueryStartDate, f.StartDate.Format(time.RFC3339))
	}
	if !f.EndDate.IsZero() {
		q.Set(QueryEndDate, f.EndDate.Format(time.RFC3339))
	}
	return q
}

// DecodeFilter parses list-endpoint query parameters into a filter.
func DecodeFilter(q url.Values) (core.TransactionFilter, *FieldError) {
	f := core.TransactionFilter{
		Search:   q.Get(QuerySearch),
		Category: q.Get(QueryCategory),
		Merchant: q.Get(QueryMerchant),
	}
	if v := q.Get(QueryStartDate); v != "" {
		date, err := ParseDate(v)
		if err != nil {
			return f, &FieldError{Field: QueryStartDate, Message: "startDate must be RFC 3339 or YYYY-MM-DD"}
		}
		f.StartDate = date
	}
	if v := q.Get(QueryEndDate); v != "" {
		date, err := ParseDate(v)
		if err != nil {
			return f, &FieldError{Field: QueryEndDate, Message: "endDate must be RFC 3339 or YYYY-MM-DD"}
		}
		f.EndDate = date
	}
	return f, nil
}
