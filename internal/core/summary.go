package core

// CategoryAmount is an expense total aggregated under one category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// SpendingSummary is the per-category expense breakdown for one account
// over an optional date window. Entries arrive ordered by amount
// descending; categories without matching expenses are absent.
type SpendingSummary struct {
	Entries []CategoryAmount
	Total   Money
}

// NewSpendingSummary computes the grand total over the given entries.
func NewSpendingSummary(entries []CategoryAmount) SpendingSummary {
	s := SpendingSummary{Entries: entries}
	for _, e := range entries {
		s.Total.Cents += e.Amount.Cents
	}
	return s
}

// Percent returns the share of the total held by one entry, in percent.
// A zero total yields 0.
func (s SpendingSummary) Percent(e CategoryAmount) float64 {
	if s.Total.Cents == 0 {
		return 0
	}
	return float64(e.Amount.Cents) / float64(s.Total.Cents) * 100
}

// IsEmpty reports whether no expenses matched the window.
func (s SpendingSummary) IsEmpty() bool {
	return len(s.Entries) == 0
}
