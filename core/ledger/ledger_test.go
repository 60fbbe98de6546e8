package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name   string
		paid   string
		amount string
		want   Status
	}{
		{name: "nothing paid", paid: "0", amount: "1000", want: StatusUnpaid},
		{name: "some paid", paid: "400", amount: "1000", want: StatusPartial},
		{name: "all paid", paid: "1000", amount: "1000", want: StatusPaid},
		{name: "zero amount", paid: "0", amount: "0", want: StatusPaid},
		{name: "cents short", paid: "999.99", amount: "1000", want: StatusPartial},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(dec(tt.paid), dec(tt.amount)))
		})
	}
}

func TestEntry_ApplyPartial(t *testing.T) {
	now := time.Now().UTC()
	fresh := NewEntry(1, 1, dec("1000"), now)
	require.NoError(t, fresh.Check())
	assert.Equal(t, StatusUnpaid, fresh.Status)

	tests := []struct {
		name          string
		entry         Entry
		amount        string
		wantErr       error
		wantPaid      string
		wantRemaining string
		wantStatus    Status
	}{
		{name: "zero amount", entry: fresh, amount: "0", wantErr: ErrAmountRequired},
		{name: "negative amount", entry: fresh, amount: "-5", wantErr: ErrAmountRequired},
		{name: "first partial", entry: fresh, amount: "400", wantPaid: "400", wantRemaining: "600", wantStatus: StatusPartial},
		{name: "exact amount", entry: fresh, amount: "1000", wantPaid: "1000", wantRemaining: "0", wantStatus: StatusPaid},
		{name: "overpayment", entry: fresh, amount: "1000.01", wantErr: ErrOverpayment},
		{name: "sub-cent amount", entry: fresh, amount: "0.001", wantErr: ErrAmountScale},
		{name: "sub-cent remainder", entry: fresh, amount: "400.005", wantErr: ErrAmountScale},
		{name: "trailing zeros", entry: fresh, amount: "400.500", wantPaid: "400.5", wantRemaining: "599.5", wantStatus: StatusPartial},
		{
			name: "completes a partial", amount: "600", wantPaid: "1000", wantRemaining: "0", wantStatus: StatusPaid,
			entry: func() Entry { e, _ := fresh.ApplyPartial(dec("400"), now); return e }(),
		},
		{
			name: "overpays a partial", amount: "601", wantErr: ErrOverpayment,
			entry: func() Entry { e, _ := fresh.ApplyPartial(dec("400"), now); return e }(),
		},
		{
			name: "paid entry", amount: "1", wantErr: ErrOverpayment,
			entry: func() Entry { e, _ := fresh.Settle(now); return e }(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.entry.ApplyPartial(dec(tt.amount), now)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				assert.Equal(t, tt.entry, got, "entry must be left unchanged")
				return
			}
			require.NoError(t, err)
			assert.True(t, dec(tt.wantPaid).Equal(got.PaidAmount), "paid = %s; want %s", got.PaidAmount, tt.wantPaid)
			assert.True(t, dec(tt.wantRemaining).Equal(got.RemainingAmount), "remaining = %s; want %s", got.RemainingAmount, tt.wantRemaining)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.NoError(t, got.Check())
		})
	}
}

func TestEntry_Settle(t *testing.T) {
	now := time.Now().UTC()
	fresh := NewEntry(1, 1, dec("1000"), now)
	partial, err := fresh.ApplyPartial(dec("250.50"), now)
	require.NoError(t, err)
	paid, _ := fresh.Settle(now)

	tests := []struct {
		name      string
		entry     Entry
		wantDelta string
	}{
		{name: "unpaid", entry: fresh, wantDelta: "1000"},
		{name: "partial", entry: partial, wantDelta: "749.50"},
		{name: "already paid", entry: paid, wantDelta: "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, delta := tt.entry.Settle(now)
			assert.True(t, dec(tt.wantDelta).Equal(delta), "delta = %s; want %s", delta, tt.wantDelta)
			assert.True(t, got.PaidAmount.Equal(got.Amount))
			assert.True(t, got.RemainingAmount.IsZero())
			assert.Equal(t, StatusPaid, got.Status)
			assert.NoError(t, got.Check())
		})
	}
}

func TestEntry_Check(t *testing.T) {
	now := time.Now().UTC()
	ok := NewEntry(1, 1, dec("100"), now)

	badSum := ok
	badSum.PaidAmount = dec("10")

	badStatus := ok
	badStatus.Status = StatusPaid

	negative := ok
	negative.PaidAmount = dec("-10")
	negative.RemainingAmount = dec("110")

	assert.NoError(t, ok.Check())
	assert.Error(t, badSum.Check())
	assert.Error(t, badStatus.Check())
	assert.Error(t, negative.Check())
}

func TestMethod(t *testing.T) {
	assert.True(t, MethodCash.Valid())
	assert.False(t, Method("cheque").Valid())
	assert.True(t, MethodNagad.IsMFS())
	assert.False(t, MethodBank.IsMFS())
}
