package core

// UncategorizedLabel substitutes for an empty or missing category in
// summary breakdowns.
const UncategorizedLabel = "Uncategorized"

// CategoryTotal is one row of a summary breakdown.
type CategoryTotal struct {
	Category string `json:"category"`
	Total    Money  `json:"total"`
}

// Summary aggregates one owner's entries over a period window. It is
// derived on every request and never persisted.
type Summary struct {
	PeriodKey     string          `json:"periodKey"`
	TotalIncome   Money           `json:"totalIncome"`
	TotalExpenses Money           `json:"totalExpenses"`
	Balance       Money           `json:"balance"`
	ByCategory    []CategoryTotal `json:"byCategory"`
}

// Summarize reduces entries into a Summary in a single order-independent
// pass. Entries outside the window are skipped, so callers may hand over
// a superset without affecting the result.
//
// byCategory covers income and expense entries together, keyed by
// category with empty categories folded into UncategorizedLabel; rows
// keep the insertion order of first encounter. Zero matching entries is
// not an error: all totals stay 0 and the breakdown stays empty.
func Summarize(p Period, entries []Entry) Summary {
	s := Summary{
		PeriodKey:  p.Key(),
		ByCategory: []CategoryTotal{},
	}

	index := make(map[string]int)
	for _, e := range entries {
		if !p.Contains(e.OccurredAt) {
			continue
		}
		switch e.Kind {
		case Income:
			s.TotalIncome.Cents += e.Amount.Cents
		case Expense:
			s.TotalExpenses.Cents += e.Amount.Cents
		default:
			continue
		}

		cat := e.Category
		if cat == "" {
			cat = UncategorizedLabel
		}
		i, seen := index[cat]
		if !seen {
			i = len(s.ByCategory)
			index[cat] = i
			s.ByCategory = append(s.ByCategory, CategoryTotal{Category: cat})
		}
		s.ByCategory[i].Total.Cents += e.Amount.Cents
	}

	s.Balance.Cents = s.TotalIncome.Cents - s.TotalExpenses.Cents
	return s
}
