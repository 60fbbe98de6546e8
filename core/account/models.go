package account

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/trezcool/bursary/core"
	"github.com/trezcool/bursary/core/ledger"
)

// BankAccount receives payments made with the bank method.
type BankAccount struct {
	ID            int       `json:"id"`
	BankName      string    `json:"bank_name"`
	AccountName   string    `json:"account_name"`
	AccountNumber string    `json:"account_number"`
	Branch        string    `json:"branch"`
	CreatedAt     time.Time `json:"created_at"`
}

// MfsAccount receives payments made with a mobile-financial-service method.
type MfsAccount struct {
	ID          int           `json:"id"`
	AccountName string        `json:"account_name"`
	MfsNumber   string        `json:"mfs_number"`
	MfsType     ledger.Method `json:"mfs_type"`
	CreatedAt   time.Time     `json:"created_at"`
}

type NewBankAccount struct {
	BankName      string `json:"bank_name" validate:"required,max=100"`
	AccountName   string `json:"account_name" validate:"required,max=100"`
	AccountNumber string `json:"account_number" validate:"required,max=50"`
	Branch        string `json:"branch" validate:"max=100"`
}

func (nba *NewBankAccount) Validate(validate *validator.Validate) error {
	nba.BankName = core.CleanString(nba.BankName)
	nba.AccountName = core.CleanString(nba.AccountName)
	nba.AccountNumber = core.CleanString(nba.AccountNumber)
	nba.Branch = core.CleanString(nba.Branch)
	return validate.Struct(nba)
}

type NewMfsAccount struct {
	AccountName string        `json:"account_name" validate:"required,max=100"`
	MfsNumber   string        `json:"mfs_number" validate:"required,max=30"`
	MfsType     ledger.Method `json:"mfs_type" validate:"required,mfs_type"`
}

func (nma *NewMfsAccount) Validate(validate *validator.Validate) error {
	nma.AccountName = core.CleanString(nma.AccountName)
	nma.MfsNumber = core.CleanString(nma.MfsNumber)
	nma.MfsType = ledger.Method(core.CleanString(string(nma.MfsType), true /* lower */))
	return validate.Struct(nma)
}

// SummaryFilter bounds a payment summary; both dates are inclusive.
type SummaryFilter struct {
	From core.Date `query:"from"`
	To   core.Date `query:"to"`
}

// Summary totals the payments received within a date range.
type Summary struct {
	From   core.Date       `json:"from"`
	To     core.Date       `json:"to"`
	Cash   decimal.Decimal `json:"cash"`
	Bank   decimal.Decimal `json:"bank"`
	Mfs    decimal.Decimal `json:"mfs"`
	Bkash  decimal.Decimal `json:"bkash"`
	Nagad  decimal.Decimal `json:"nagad"`
	Rocket decimal.Decimal `json:"rocket"`
	Total  decimal.Decimal `json:"total"`
	Count  int             `json:"count"`
}

// NewSummary folds per-method totals into a Summary.
func NewSummary(from, to core.Date, totals []ledger.MethodTotal) Summary {
	sum := Summary{
		From:   from,
		To:     to,
		Cash:   decimal.Zero,
		Bank:   decimal.Zero,
		Mfs:    decimal.Zero,
		Bkash:  decimal.Zero,
		Nagad:  decimal.Zero,
		Rocket: decimal.Zero,
		Total:  decimal.Zero,
	}
	for _, mt := range totals {
		switch mt.Method {
		case ledger.MethodCash:
			sum.Cash = sum.Cash.Add(mt.Total)
		case ledger.MethodBank:
			sum.Bank = sum.Bank.Add(mt.Total)
		case ledger.MethodBkash:
			sum.Bkash = sum.Bkash.Add(mt.Total)
		case ledger.MethodNagad:
			sum.Nagad = sum.Nagad.Add(mt.Total)
		case ledger.MethodRocket:
			sum.Rocket = sum.Rocket.Add(mt.Total)
		}
		if mt.Method.IsMFS() {
			sum.Mfs = sum.Mfs.Add(mt.Total)
		}
		sum.Total = sum.Total.Add(mt.Total)
		sum.Count += mt.Count
	}
	return sum
}
