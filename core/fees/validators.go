package fees

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/bursary/core"
)

var (
	fineTypeTag  = "fine_type"
	fineTypeText = "fine type must be one of none, percentage or fixed"

	fineAmountTag  = "fine_amount"
	fineAmountText = "a fine amount greater than 0 is required for this fine type"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(fineTypeTag, fineTypeValidation)
	core.RegisterCustomTranslation(validate, translator, fineTypeTag, fineTypeText)

	validate.RegisterStructValidation(masterStructValidation, MasterInput{})
	core.RegisterCustomTranslation(validate, translator, fineAmountTag, fineAmountText)
}

func fineTypeValidation(fl validator.FieldLevel) bool {
	ft := fl.Field().String()
	for _, t := range FineTypes {
		if ft == t {
			return true
		}
	}
	return false
}

// masterStructValidation checks amounts are in whole cents and that the fine amount matching the fine type is set.
func masterStructValidation(sl validator.StructLevel) {
	in, ok := sl.Current().Interface().(MasterInput)
	if !ok {
		return
	}
	if !core.IsMoney(in.Amount) {
		sl.ReportError(in.Amount, "amount", "Amount", core.MoneyTag, "")
	}
	if !core.IsMoney(in.PercentageFineAmount) {
		sl.ReportError(in.PercentageFineAmount, "percentage_fine_amount", "PercentageFineAmount", core.MoneyTag, "")
	}
	if !core.IsMoney(in.FixedFineAmount) {
		sl.ReportError(in.FixedFineAmount, "fixed_fine_amount", "FixedFineAmount", core.MoneyTag, "")
	}

	switch in.FineType {
	case FinePercentage:
		if !in.PercentageFineAmount.IsPositive() {
			sl.ReportError(in.PercentageFineAmount, "percentage_fine_amount", "PercentageFineAmount", fineAmountTag, "")
		}
	case FineFixed:
		if !in.FixedFineAmount.IsPositive() {
			sl.ReportError(in.FixedFineAmount, "fixed_fine_amount", "FixedFineAmount", fineAmountTag, "")
		}
	}
}
