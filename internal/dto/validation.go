package dto

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/skillmatch-hu/skillmatch-api/internal/models"
)

// RegisterValidators installs custom binding rules on gin's validator
// engine. Call once at startup.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("requesttype", func(fl validator.FieldLevel) bool {
		switch models.RequestType(fl.Field().String()) {
		case models.RequestCompletion, models.RequestCancellation:
			return true
		default:
			return false
		}
	})
}
