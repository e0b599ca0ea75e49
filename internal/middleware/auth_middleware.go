package middleware

import (
	"context"
	"strings"

	"staff-quiz/internal/dto"
	"staff-quiz/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	AuthorizationHeader = "Authorization"
	BearerSchema        = "Bearer "
	StaffClaimsKey      = "staffClaims" // Key for storing claims in fiber.Ctx locals
)

// StaffTokenValidator verifies bearer tokens issued by the sign-in service.
type StaffTokenValidator interface {
	ValidateStaffToken(ctx context.Context, tokenString string) (*dto.StaffClaims, error)
}

// Protected requires a valid staff bearer token and stores its claims in the
// request locals.
func Protected(validator StaffTokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(AuthorizationHeader)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Code:    "MISSING_AUTH_HEADER",
				Message: "Authorization header is missing",
				Status:  fiber.StatusUnauthorized,
			})
		}

		if !strings.HasPrefix(authHeader, BearerSchema) {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Code:    "INVALID_AUTH_SCHEME",
				Message: "Authorization scheme is not Bearer",
				Status:  fiber.StatusUnauthorized,
			})
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, BearerSchema))
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Code:    "EMPTY_TOKEN",
				Message: "Token is empty",
				Status:  fiber.StatusUnauthorized,
			})
		}

		claims, err := validator.ValidateStaffToken(c.Context(), tokenString)
		if err != nil {
			logger.Get().Debug("Staff token rejected", zap.String("path", c.Path()), zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Code:    "INVALID_TOKEN",
				Message: "Token is invalid or expired",
				Status:  fiber.StatusUnauthorized,
			})
		}

		c.Locals(StaffClaimsKey, claims)
		return c.Next()
	}
}

// RequireManager must run after Protected.
func RequireManager() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := StaffFromContext(c)
		if claims == nil || !claims.IsManager() {
			return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
				Code:    "FORBIDDEN",
				Message: "Manager access is required",
				Status:  fiber.StatusForbidden,
			})
		}
		return c.Next()
	}
}

// StaffFromContext returns the claims stored by Protected, or nil.
func StaffFromContext(c *fiber.Ctx) *dto.StaffClaims {
	claims, _ := c.Locals(StaffClaimsKey).(*dto.StaffClaims)
	return claims
}
