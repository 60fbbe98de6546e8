package promotion

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/bursary/core"
)

var (
	examResultTag  = "exam_result"
	examResultText = "current result must be either Pass or Fail"

	nextSessionTag  = "next_session"
	nextSessionText = "next session must be either Continue or Leave"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(examResultTag, func(fl validator.FieldLevel) bool {
		r := Result(fl.Field().String())
		return r == ResultPass || r == ResultFail
	})
	core.RegisterCustomTranslation(validate, translator, examResultTag, examResultText)

	_ = validate.RegisterValidation(nextSessionTag, func(fl validator.FieldLevel) bool {
		ns := NextSession(fl.Field().String())
		return ns == NextSessionContinue || ns == NextSessionLeave
	})
	core.RegisterCustomTranslation(validate, translator, nextSessionTag, nextSessionText)
}
