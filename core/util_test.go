package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestIsMoney(t *testing.T) {
	tests := []struct {
		amount string
		want   bool
	}{
		{amount: "10", want: true},
		{amount: "10.5", want: true},
		{amount: "10.50", want: true},
		{amount: "10.500", want: true},
		{amount: "0.01", want: true},
		{amount: "0.001"},
		{amount: "400.005"},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, IsMoney(decimal.RequireFromString(tt.amount)))
		})
	}
}
