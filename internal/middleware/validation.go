package middleware

import (
	"staff-quiz/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// ValidationMiddleware provides request validation middleware
type ValidationMiddleware struct {
	validator *validation.Validator
}

// NewValidationMiddleware creates a new validation middleware instance
func NewValidationMiddleware() *ValidationMiddleware {
	return &ValidationMiddleware{
		validator: validation.NewValidator(),
	}
}

// ValidateIDParams checks that every named path parameter is a well formed
// identifier.
func (vm *ValidationMiddleware) ValidateIDParams(params ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, name := range params {
			if errors := vm.validator.ValidateID(name, c.Params(name)); len(errors) > 0 {
				return errors // This will be handled by ErrorHandler middleware
			}
		}
		return c.Next()
	}
}
