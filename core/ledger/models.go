package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/trezcool/bursary/core"
	"github.com/trezcool/bursary/core/fees"
)

// Status of a ledger entry, always derived from its paid amount.
type Status string

const (
	StatusUnpaid  Status = "Unpaid"
	StatusPartial Status = "Partial"
	StatusPaid    Status = "Paid"
)

// Method a payment was made with.
type Method string

const (
	MethodCash   Method = "cash"
	MethodBank   Method = "bank"
	MethodBkash  Method = "bkash"
	MethodNagad  Method = "nagad"
	MethodRocket Method = "rocket"
)

var (
	Methods    = []Method{MethodCash, MethodBank, MethodBkash, MethodNagad, MethodRocket}
	MFSMethods = []Method{MethodBkash, MethodNagad, MethodRocket}
)

func (m Method) Valid() bool {
	for _, v := range Methods {
		if m == v {
			return true
		}
	}
	return false
}

// IsMFS reports whether m is a mobile-financial-service method.
func (m Method) IsMFS() bool {
	for _, v := range MFSMethods {
		if m == v {
			return true
		}
	}
	return false
}

// Entry is one student's obligation for one fees master.
// PaidAmount + RemainingAmount == Amount at all times.
type Entry struct {
	ID              int             `json:"student_fees_id"`
	StudentID       int             `json:"student_id"`
	FeesMasterID    int             `json:"fees_master_id"`
	Amount          decimal.Decimal `json:"amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	Status          Status          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// EntryDetail is an Entry joined to its fees master, as shown on a student's fees page.
type EntryDetail struct {
	Entry
	Master fees.Master     `json:"fees_master"`
	Fine   decimal.Decimal `json:"fine"`
}

// Payment is an append-only record of one collection against a ledger entry.
// PaidAmount is the amount received by that collection, not the cumulative total.
type Payment struct {
	ID            int             `json:"id"`
	ReceiptNo     string          `json:"receipt_no"`
	LedgerEntryID int             `json:"student_fees_id"`
	StudentID     int             `json:"student_id"`
	ClassID       *int            `json:"class_id"`
	SectionID     *int            `json:"section_id"`
	SessionID     *int            `json:"session_id"`
	Method        Method          `json:"method"`
	BankAccountID *int            `json:"bank_account_id"`
	MfsID         *int            `json:"mfs_id"`
	PaymentDate   core.Date       `json:"payment_date"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	Remarks       string          `json:"remarks"`
	CreatedBy     *int            `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
}

type PaymentFilter struct {
	StudentID     int       `query:"student_id"`
	LedgerEntryID int       `query:"student_fees_id"`
	Method        Method    `query:"method"`
	From          core.Date `query:"from"`
	To            core.Date `query:"to"` // inclusive
}

// MethodTotal is the sum of payments received with one method.
type MethodTotal struct {
	Method Method          `json:"method"`
	Total  decimal.Decimal `json:"total"`
	Count  int             `json:"count"`
}
