package handler

import (
	"staff-quiz/internal/domain"
	"staff-quiz/internal/dto"
	"staff-quiz/internal/logger"
	"staff-quiz/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// currentStaff returns the caller verified by middleware.Protected.
func currentStaff(c *fiber.Ctx) (*dto.StaffClaims, error) {
	claims := middleware.StaffFromContext(c)
	if claims == nil {
		logger.Get().Warn("Staff claims not found in context", zap.String("path", c.Path()))
		return nil, domain.NewUnauthorizedError("staff identity not found in context")
	}
	return claims, nil
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return domain.ValidationErrors{domain.NewInvalidFormatError("body", "malformed JSON")}
	}
	return nil
}

func toDomainAnswers(in []dto.AnswerRequest) []domain.Answer {
	out := make([]domain.Answer, len(in))
	for i, a := range in {
		out[i] = domain.Answer{QuestionID: a.QuestionID, SelectedOptions: a.SelectedOptions}
	}
	return out
}
