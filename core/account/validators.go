package account

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/bursary/core"
	"github.com/trezcool/bursary/core/ledger"
)

var (
	mfsTypeTag  = "mfs_type"
	mfsTypeText = "mfs type must be one of bkash, nagad or rocket"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(mfsTypeTag, mfsTypeValidation)
	core.RegisterCustomTranslation(validate, translator, mfsTypeTag, mfsTypeText)
}

func mfsTypeValidation(fl validator.FieldLevel) bool {
	return ledger.Method(fl.Field().String()).IsMFS()
}
