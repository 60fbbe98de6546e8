package ledger

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/bursary/core"
)

var (
	ErrAmountRequired = errors.New("paid amount is required for partial payment")
	ErrOverpayment    = errors.New("paid amount cannot exceed total fee amount")
	ErrAmountScale    = errors.New("paid amount cannot have more than 2 decimal places")
)

// DeriveStatus returns the Status matching paid out of amount.
func DeriveStatus(paid, amount decimal.Decimal) Status {
	switch {
	case paid.IsZero():
		if amount.IsZero() {
			return StatusPaid
		}
		return StatusUnpaid
	case paid.GreaterThanOrEqual(amount):
		return StatusPaid
	default:
		return StatusPartial
	}
}

// NewEntry returns an Unpaid entry owing amount.
func NewEntry(studentID, feesMasterID int, amount decimal.Decimal, now time.Time) Entry {
	return Entry{
		StudentID:       studentID,
		FeesMasterID:    feesMasterID,
		Amount:          amount,
		PaidAmount:      decimal.Zero,
		RemainingAmount: amount,
		Status:          DeriveStatus(decimal.Zero, amount),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Check verifies the balance and status invariants of e.
func (e Entry) Check() error {
	if e.PaidAmount.IsNegative() || e.RemainingAmount.IsNegative() {
		return fmt.Errorf("student fee %d: negative balance (paid %s, remaining %s)", e.ID, e.PaidAmount, e.RemainingAmount)
	}
	if !e.PaidAmount.Add(e.RemainingAmount).Equal(e.Amount) {
		return fmt.Errorf("student fee %d: paid %s + remaining %s != amount %s", e.ID, e.PaidAmount, e.RemainingAmount, e.Amount)
	}
	if want := DeriveStatus(e.PaidAmount, e.Amount); e.Status != want {
		return fmt.Errorf("student fee %d: status %s, want %s", e.ID, e.Status, want)
	}
	return nil
}

func (e Entry) IsPaid() bool {
	return e.Status == StatusPaid
}

// withPaid returns e with paid applied and the remaining amount and status recomputed.
func (e Entry) withPaid(paid decimal.Decimal, now time.Time) Entry {
	e.PaidAmount = paid
	e.RemainingAmount = e.Amount.Sub(paid)
	e.Status = DeriveStatus(paid, e.Amount)
	e.UpdatedAt = now
	return e
}

// Settle marks e fully paid whatever its previous state.
// It returns the updated entry and the amount received by this settlement: zero when e was already Paid.
func (e Entry) Settle(now time.Time) (Entry, decimal.Decimal) {
	delta := e.Amount.Sub(e.PaidAmount)
	return e.withPaid(e.Amount, now), delta
}

// ApplyPartial adds amount to what was already paid on e.
// amount must be positive, in whole cents, and the cumulative paid amount must not exceed e.Amount.
func (e Entry) ApplyPartial(amount decimal.Decimal, now time.Time) (Entry, error) {
	if !amount.IsPositive() {
		return e, ErrAmountRequired
	}
	if !core.IsMoney(amount) {
		return e, ErrAmountScale
	}
	paid := e.PaidAmount.Add(amount)
	if paid.GreaterThan(e.Amount) {
		return e, ErrOverpayment
	}
	return e.withPaid(paid, now), nil
}
