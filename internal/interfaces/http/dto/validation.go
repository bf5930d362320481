package dto

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validationOnce sync.Once

// RegisterValidations installs the custom binding rules the request DTOs
// rely on. Safe to call more than once; gin's binding validator is a
// process-wide singleton.
func RegisterValidations() {
	validationOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("decimal", validateDecimal)
	})
}

// validateDecimal accepts strings that parse as arbitrary-precision
// decimal numbers. Quantities and money amounts travel as strings to
// avoid float rounding on the wire.
func validateDecimal(fl validator.FieldLevel) bool {
	_, err := decimal.NewFromString(fl.Field().String())
	return err == nil
}
