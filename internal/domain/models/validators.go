package models

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// tsCodePattern matches exchange-suffixed codes such as 000001.SZ or 600000.SH.
var tsCodePattern = regexp.MustCompile(`^[0-9]{6}\.(SZ|SH|BJ)$`)

// RegisterValidators adds the custom tags used by request models.
func RegisterValidators(v *validator.Validate) error {
	return v.RegisterValidation("tscode", func(fl validator.FieldLevel) bool {
		return tsCodePattern.MatchString(fl.Field().String())
	})
}
