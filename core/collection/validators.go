package collection

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/bursary/core"
	"github.com/trezcool/bursary/core/ledger"
)

var (
	paymentTypeTag  = "payment_type"
	paymentTypeText = "payment type must be either Paid or Partial"

	paymentMethodTag  = "payment_method"
	paymentMethodText = "method must be one of cash, bank, bkash, nagad or rocket"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(paymentTypeTag, paymentTypeValidation)
	core.RegisterCustomTranslation(validate, translator, paymentTypeTag, paymentTypeText)

	_ = validate.RegisterValidation(paymentMethodTag, paymentMethodValidation)
	core.RegisterCustomTranslation(validate, translator, paymentMethodTag, paymentMethodText)
}

func paymentTypeValidation(fl validator.FieldLevel) bool {
	pt := PaymentType(fl.Field().String())
	for _, t := range PaymentTypes {
		if pt == t {
			return true
		}
	}
	return false
}

func paymentMethodValidation(fl validator.FieldLevel) bool {
	return ledger.Method(fl.Field().String()).Valid()
}
