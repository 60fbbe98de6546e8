package fees

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/trezcool/bursary/core"
)

// Fine types
const (
	FineNone       = "none"
	FinePercentage = "percentage"
	FineFixed      = "fixed"
)

var (
	FineTypes = []string{FineNone, FinePercentage, FineFixed}

	hundred = decimal.NewFromInt(100)
)

type Group struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Type struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Master is a billing line (due date, amount, fine policy) shared by many students.
type Master struct {
	ID                   int             `json:"id"`
	FeesGroupID          int             `json:"fees_group_id"`
	FeesGroupName        string          `json:"fees_group_name"`
	FeesTypeID           int             `json:"fees_type_id"`
	FeesTypeName         string          `json:"fees_type_name"`
	DueDate              core.Date       `json:"due_date"`
	Amount               decimal.Decimal `json:"amount"`
	FineType             string          `json:"fine_type"`
	PercentageFineAmount decimal.Decimal `json:"percentage_fine_amount"`
	FixedFineAmount      decimal.Decimal `json:"fixed_fine_amount"`
	PerDay               bool            `json:"per_day"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// DaysOverdue counts the whole days between the due date and asOf; 0 when not yet overdue.
func (m Master) DaysOverdue(asOf time.Time) int {
	on := core.NewDate(asOf)
	if m.DueDate.IsZero() || !on.After(m.DueDate.Time) {
		return 0
	}
	return int(on.Sub(m.DueDate.Time).Hours() / 24)
}

// FineAsOf computes the late fine owed on the full amount at asOf.
func (m Master) FineAsOf(asOf time.Time) decimal.Decimal {
	days := m.DaysOverdue(asOf)
	if days == 0 {
		return decimal.Zero
	}

	var fine decimal.Decimal
	switch m.FineType {
	case FinePercentage:
		fine = m.Amount.Mul(m.PercentageFineAmount).Div(hundred).Round(2)
	case FineFixed:
		fine = m.FixedFineAmount
	default:
		return decimal.Zero
	}
	if m.PerDay {
		fine = fine.Mul(decimal.NewFromInt(int64(days)))
	}
	return fine
}

// GroupInput is used to create or update a Group.
type GroupInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=255"`
}

func (in *GroupInput) Validate(validate *validator.Validate) error {
	in.Name = core.CleanString(in.Name)
	in.Description = core.CleanString(in.Description)
	return validate.Struct(in)
}

// TypeInput is used to create or update a Type.
type TypeInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Code        string `json:"code" validate:"required,max=30,alphanum_"`
	Description string `json:"description" validate:"max=255"`
}

func (in *TypeInput) Validate(validate *validator.Validate) error {
	in.Name = core.CleanString(in.Name)
	in.Code = core.CleanString(in.Code, true /* lower */)
	in.Description = core.CleanString(in.Description)
	return validate.Struct(in)
}

// MasterInput is used to create or update a Master.
type MasterInput struct {
	FeesGroupID          int             `json:"fees_group_id" validate:"required,gt=0"`
	FeesTypeID           int             `json:"fees_type_id" validate:"required,gt=0"`
	DueDate              core.Date       `json:"due_date" validate:"required"`
	Amount               decimal.Decimal `json:"amount" validate:"gt=0"`
	FineType             string          `json:"fine_type" validate:"omitempty,fine_type"`
	PercentageFineAmount decimal.Decimal `json:"percentage_fine_amount" validate:"gte=0,lte=100"`
	FixedFineAmount      decimal.Decimal `json:"fixed_fine_amount" validate:"gte=0"`
	PerDay               bool            `json:"per_day"`
}

func (in *MasterInput) Validate(validate *validator.Validate) error {
	in.FineType = core.CleanString(in.FineType, true /* lower */)
	if in.FineType == "" {
		in.FineType = FineNone
	}
	return validate.Struct(in)
}

type MasterFilter struct {
	FeesGroupID int `query:"fees_group_id"`
	FeesTypeID  int `query:"fees_type_id"`
}
