package core

import "sort"

// CategoryAmount is one slice of the expense breakdown chart.
type CategoryAmount struct {
	Category string `json:"category"`
	Amount   string `json:"amount"`
}

// Summary is the dashboard aggregate for one user: income and expense
// totals, the resulting balance, and the per-category expense
// breakdown. Amounts are formatted decimal strings.
type Summary struct {
	Income     string           `json:"income"`
	Expense    string           `json:"expense"`
	Balance    string           `json:"balance"`
	ByCategory []CategoryAmount `json:"byCategory"`
}

// Summarize aggregates a transaction list into dashboard totals.
// Income adds to the balance, expense subtracts; the category
// breakdown covers expenses only. Rows whose amount fails to parse
// are skipped rather than poisoning the totals.
func Summarize(list []Transaction) Summary {
	var incomeCents, expenseCents int64
	byCategory := make(map[string]int64)

	for _, t := range list {
		cents, err := ParseAmountToCents(t.Amount)
		if err != nil {
			continue
		}
		switch t.Type {
		case Income:
			incomeCents += cents
		case Expense:
			expenseCents += cents
			byCategory[t.Category] += cents
		}
	}

	names := make([]string, 0, len(byCategory))
	for name := range byCategory {
		names = append(names, name)
	}
	sort.Strings(names)

	s := Summary{
		Income:     FormatCents(incomeCents),
		Expense:    FormatCents(expenseCents),
		Balance:    FormatCents(incomeCents - expenseCents),
		ByCategory: make([]CategoryAmount, 0, len(names)),
	}
	for _, name := range names {
		s.ByCategory = append(s.ByCategory, CategoryAmount{
			Category: name,
			Amount:   FormatCents(byCategory[name]),
		})
	}
	return s
}
