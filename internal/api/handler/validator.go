package handler

import (
	"github.com/helpdesk-roster/rosterweb/internal/core/validation"
)

// echoValidator lets Echo call c.Validate(req). Failures are 400
// *domain.APIError values with per-field messages.
type echoValidator struct{}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
func NewValidator() *echoValidator {
	return &echoValidator{}
}

// Validate satisfies the echo.Validator interface.
func (echoValidator) Validate(i any) error {
	return validation.Struct(i)
}
