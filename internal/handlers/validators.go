package handlers

import (
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"elderlink/internal/models"
)

// RegisterValidators adds the custom binding tags used by request structs:
// role (a known user role) and future (a time after now).
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	if err := v.RegisterValidation("role", validRole); err != nil {
		return err
	}
	return v.RegisterValidation("future", inFuture)
}

func validRole(fl validator.FieldLevel) bool {
	return models.Role(fl.Field().String()).Valid()
}

func inFuture(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	return ok && t.After(time.Now())
}
