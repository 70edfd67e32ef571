package controllers

import (
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"bus_backoffice/internal/services"
)

// RegisterValidators adds the "clock" (HH:MM[:SS]) and "weekdays"
// (comma-separated weekday names) tags to gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	if err := v.RegisterValidation("clock", validateClock); err != nil {
		return err
	}
	return v.RegisterValidation("weekdays", validateWeekdays)
}

func validateClock(fl validator.FieldLevel) bool {
	_, err := services.ParseClock(fl.Field().String())
	return err == nil
}

func validateWeekdays(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	if strings.TrimSpace(raw) == "" {
		return true
	}
	_, err := services.NormalizeDaysOfWeek(raw)
	return err == nil
}
