package handler

import (
	"staff-quiz/internal/domain"
	"staff-quiz/internal/dto"
	"staff-quiz/internal/service"
	"staff-quiz/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// QuizAdminHandler serves manager-only quiz management routes.
type QuizAdminHandler struct {
	admin     service.QuizAdmin
	recorder  service.AttemptRecorder
	validator *validation.Validator
}

func NewQuizAdminHandler(admin service.QuizAdmin, recorder service.AttemptRecorder) *QuizAdminHandler {
	return &QuizAdminHandler{admin: admin, recorder: recorder, validator: validation.NewValidator()}
}

// CreateQuiz godoc
// @Summary Create a quiz
// @Description Creates a quiz over one or more question banks and snapshots the pool size
// @Tags quizzes
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateQuizRequest true "Quiz definition"
// @Success 201 {object} dto.QuizResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 403 {object} middleware.ErrorResponse
// @Router /quizzes [post]
func (h *QuizAdminHandler) CreateQuiz(c *fiber.Ctx) error {
	caller, err := currentStaff(c)
	if err != nil {
		return err
	}
	var req dto.CreateQuizRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if errs := h.validator.ValidateCreateQuizRequest(&req); len(errs) > 0 {
		return errs
	}
	resp, err := h.admin.CreateQuiz(c.Context(), caller.RestaurantID, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// DeleteQuiz godoc
// @Summary Delete a quiz
// @Description Deletes the quiz with all of its attempts and progress
// @Tags quizzes
// @Security ApiKeyAuth
// @Param quizId path string true "Quiz ID"
// @Success 204
// @Failure 403 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /quizzes/{quizId} [delete]
func (h *QuizAdminHandler) DeleteQuiz(c *fiber.Ctx) error {
	caller, err := currentStaff(c)
	if err != nil {
		return err
	}
	if err := h.recorder.DeleteQuizCascade(c.Context(), c.Params("quizId"), caller.RestaurantID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ResnapshotQuiz godoc
// @Summary Refresh the pool size of a quiz
// @Description Recounts the active questions in the quiz's banks. Existing progress keeps its original denominator.
// @Tags quizzes
// @Security ApiKeyAuth
// @Produce json
// @Param quizId path string true "Quiz ID"
// @Success 200 {object} dto.ResnapshotResponse
// @Failure 403 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /quizzes/{quizId}/resnapshot [post]
func (h *QuizAdminHandler) ResnapshotQuiz(c *fiber.Ctx) error {
	caller, err := currentStaff(c)
	if err != nil {
		return err
	}
	resp, err := h.admin.ResnapshotQuiz(c.Context(), c.Params("quizId"), caller.RestaurantID)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// SetAvailability godoc
// @Summary Publish or hide a quiz
// @Description Hidden quizzes cannot be started and their attempts are left out of average scores
// @Tags quizzes
// @Security ApiKeyAuth
// @Accept json
// @Param quizId path string true "Quiz ID"
// @Param request body dto.AvailabilityRequest true "Availability"
// @Success 204
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 403 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /quizzes/{quizId}/availability [put]
func (h *QuizAdminHandler) SetAvailability(c *fiber.Ctx) error {
	caller, err := currentStaff(c)
	if err != nil {
		return err
	}
	var req dto.AvailabilityRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Available == nil {
		return domain.ValidationErrors{domain.NewMissingFieldError("available")}
	}
	if err := h.admin.SetAvailability(c.Context(), c.Params("quizId"), caller.RestaurantID, *req.Available); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
