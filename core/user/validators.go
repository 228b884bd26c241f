package user

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/ropeacademy/academy/core"
)

var (
	iratalevelTag  = "iratalevel"
	iratalevelText = "level must be one of 1, 2 or 3"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(iratalevelTag, iratalevelValidation)
	core.RegisterCustomTranslation(validate, translator, iratalevelTag, iratalevelText)
}

// Custom Validators

// iratalevelValidation accepts a known IRATA level; LevelUnknown stands for "not provided".
func iratalevelValidation(fl validator.FieldLevel) bool {
	level := int(fl.Field().Int())
	return level >= LevelUnknown && level <= Level3
}
