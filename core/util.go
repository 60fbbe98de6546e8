package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the scale of every stored amount.
const MoneyPlaces = 2

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// MonthRange returns [first day of t's month, first day of the next month).
func MonthRange(t time.Time) (time.Time, time.Time) {
	y, m, _ := t.UTC().Date()
	from := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

// IsMoney reports whether d fits the stored money scale, e.g. 10.5 or 10.50 but not 10.505.
func IsMoney(d decimal.Decimal) bool {
	return d.Equal(d.Round(MoneyPlaces))
}
