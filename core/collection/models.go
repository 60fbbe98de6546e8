package collection

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/trezcool/bursary/core"
	"github.com/trezcool/bursary/core/ledger"
)

// PaymentType selects how a collection is applied to a ledger entry.
type PaymentType string

const (
	// FullSettle pays off whatever remains, ignoring any supplied amount.
	FullSettle PaymentType = "Paid"
	// PartialAmount adds the supplied amount to what was already paid.
	PartialAmount PaymentType = "Partial"
)

var PaymentTypes = []PaymentType{FullSettle, PartialAmount}

// Request is one payment to apply against a ledger entry.
type Request struct {
	LedgerEntryID int             `json:"student_fees_id" validate:"required,gt=0"`
	StudentID     int             `json:"student_id" validate:"omitempty,gt=0"`
	PaymentType   PaymentType     `json:"payment_type" validate:"required,payment_type"`
	PaidAmount    decimal.Decimal `json:"paid_amount" validate:"gte=0"`
	Method        ledger.Method   `json:"method" validate:"required,payment_method"`
	BankAccountID *int            `json:"bank_account_id" validate:"omitempty,gt=0"`
	MfsID         *int            `json:"mfs_id" validate:"omitempty,gt=0"`
	PaymentDate   core.Date       `json:"payment_date"` // today when omitted
	Remarks       string          `json:"remarks" validate:"max=255"`
}

func (r *Request) clean() {
	r.Method = ledger.Method(core.CleanString(string(r.Method), true /* lower */))
	r.Remarks = core.CleanString(r.Remarks)
}

// Batch is a sequence of requests collected atomically.
type Batch []Request

// Validate checks every request; field errors of a multi-item batch name the failing item.
func (b Batch) Validate(validate *validator.Validate) error {
	if len(b) == 0 {
		return core.NewValidationError(ErrEmptyBatch)
	}
	for i := range b {
		b[i].clean()
		err := validate.Struct(&b[i])
		if err == nil {
			continue
		}
		if verrs, ok := err.(validator.ValidationErrors); ok && len(b) > 1 {
			return core.NewItemValidationError(i, verrs)
		}
		return err
	}
	return nil
}

// Result is the ledger entry's state after a collection.
type Result struct {
	LedgerEntryID   int             `json:"student_fees_id"`
	ReceiptNo       string          `json:"receipt_no"`
	PaidAmount      decimal.Decimal `json:"paid_amount"` // cumulative
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	Status          ledger.Status   `json:"status"`
}

type receiptLine struct {
	ReceiptNo       string
	PaymentDate     core.Date
	Method          ledger.Method
	PaidAmount      decimal.Decimal
	RemainingAmount decimal.Decimal
	Status          ledger.Status
}

// receiptData feeds the payment_receipt email templates.
type receiptData struct {
	StudentName string
	RollNo      int
	Currency    string
	Total       decimal.Decimal
	Lines       []receiptLine
}
