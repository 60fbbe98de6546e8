package fees

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/bursary/core"
)

func TestMaster_FineAsOf(t *testing.T) {
	due := time.Date(2021, time.March, 10, 0, 0, 0, 0, time.UTC)
	base := Master{DueDate: core.NewDate(due), Amount: decimal.NewFromInt(1000)}

	with := func(fineType, pct, fixed string, perDay bool) Master {
		m := base
		m.FineType = fineType
		m.PercentageFineAmount = decimal.RequireFromString(pct)
		m.FixedFineAmount = decimal.RequireFromString(fixed)
		m.PerDay = perDay
		return m
	}

	tests := []struct {
		name     string
		master   Master
		asOf     time.Time
		wantDays int
		want     string
	}{
		{name: "no fine", master: with(FineNone, "0", "0", false), asOf: due.AddDate(0, 0, 5), wantDays: 5, want: "0"},
		{name: "before due date", master: with(FineFixed, "0", "50", false), asOf: due.AddDate(0, 0, -1), want: "0"},
		{name: "on due date", master: with(FineFixed, "0", "50", false), asOf: due.Add(23 * time.Hour), want: "0"},
		{name: "fixed once", master: with(FineFixed, "0", "50", false), asOf: due.AddDate(0, 0, 3), wantDays: 3, want: "50"},
		{name: "fixed per day", master: with(FineFixed, "0", "50", true), asOf: due.AddDate(0, 0, 3), wantDays: 3, want: "150"},
		{name: "percentage once", master: with(FinePercentage, "2.5", "0", false), asOf: due.AddDate(0, 0, 4), wantDays: 4, want: "25"},
		{name: "percentage per day", master: with(FinePercentage, "2.5", "0", true), asOf: due.AddDate(0, 0, 4), wantDays: 4, want: "100"},
		{name: "no due date", master: func() Master { m := with(FineFixed, "0", "50", false); m.DueDate = core.Date{}; return m }(), asOf: due, want: "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantDays, tt.master.DaysOverdue(tt.asOf))
			got := tt.master.FineAsOf(tt.asOf)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "fine = %s; want %s", got, tt.want)
		})
	}
}
