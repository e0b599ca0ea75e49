package handler

import (
	"staff-quiz/internal/domain"
	"staff-quiz/internal/dto"
	"staff-quiz/internal/logger"
	"staff-quiz/internal/service"
	"staff-quiz/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// TrainingHandler serves attempts and progress reporting to staff.
type TrainingHandler struct {
	recorder  service.AttemptRecorder
	scores    service.ScoreAggregator
	validator *validation.Validator
}

func NewTrainingHandler(recorder service.AttemptRecorder, scores service.ScoreAggregator) *TrainingHandler {
	return &TrainingHandler{recorder: recorder, scores: scores, validator: validation.NewValidator()}
}

// StartAttempt godoc
// @Summary Start a quiz attempt
// @Description Selects questions for the caller, preferring ones not yet seen, and returns an attempt token
// @Tags attempts
// @Security ApiKeyAuth
// @Produce json
// @Param quizId path string true "Quiz ID"
// @Success 201 {object} dto.StartAttemptResponse
// @Failure 403 {object} middleware.ErrorResponse "Role is not eligible"
// @Failure 404 {object} middleware.ErrorResponse "Quiz not found"
// @Failure 429 {object} middleware.ErrorResponse "Retake cooldown has not elapsed"
// @Router /quizzes/{quizId}/attempts [post]
func (h *TrainingHandler) StartAttempt(c *fiber.Ctx) error {
	staff, err := currentStaff(c)
	if err != nil {
		return err
	}
	resp, err := h.recorder.StartAttempt(c.Context(), c.Params("quizId"), staff.StaffID, staff.RestaurantID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// SubmitAttempt godoc
// @Summary Submit an attempt
// @Description Grades the answers for the attempt identified by the token and records progress
// @Tags attempts
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param token path string true "Attempt token"
// @Param request body dto.SubmitAttemptRequest true "Answers"
// @Success 200 {object} dto.SubmitAttemptResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 404 {object} middleware.ErrorResponse "Attempt not found or expired"
// @Failure 409 {object} middleware.ErrorResponse "Submission already in progress"
// @Failure 429 {object} middleware.ErrorResponse "Retake cooldown has not elapsed"
// @Router /attempts/{token}/submit [post]
func (h *TrainingHandler) SubmitAttempt(c *fiber.Ctx) error {
	staff, err := currentStaff(c)
	if err != nil {
		return err
	}
	req, err := h.parseSubmit(c)
	if err != nil {
		return err
	}
	resp, err := h.recorder.Submit(c.Context(), c.Params("token"), staff.StaffID, staff.RestaurantID, toDomainAnswers(req.Answers))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// SubmitByQuiz godoc
// @Summary Submit the open attempt of a quiz
// @Description Grades the caller's open attempt for the quiz
// @Tags attempts
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param quizId path string true "Quiz ID"
// @Param request body dto.SubmitAttemptRequest true "Answers"
// @Success 200 {object} dto.SubmitAttemptResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 404 {object} middleware.ErrorResponse "No open attempt"
// @Failure 409 {object} middleware.ErrorResponse "Submission already in progress"
// @Router /quizzes/{quizId}/submit [post]
func (h *TrainingHandler) SubmitByQuiz(c *fiber.Ctx) error {
	staff, err := currentStaff(c)
	if err != nil {
		return err
	}
	req, err := h.parseSubmit(c)
	if err != nil {
		return err
	}
	resp, err := h.recorder.SubmitByQuiz(c.Context(), c.Params("quizId"), staff.StaffID, staff.RestaurantID, toDomainAnswers(req.Answers))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func (h *TrainingHandler) parseSubmit(c *fiber.Ctx) (*dto.SubmitAttemptRequest, error) {
	var req dto.SubmitAttemptRequest
	if err := parseBody(c, &req); err != nil {
		return nil, err
	}
	if errs := h.validator.ValidateSubmitAttemptRequest(&req); len(errs) > 0 {
		return nil, errs
	}
	return &req, nil
}

// targetStaff resolves the staff member a report is about. Staff may only
// read their own reports; managers may read anyone in their restaurant.
func targetStaff(c *fiber.Ctx) (string, *dto.StaffClaims, error) {
	caller, err := currentStaff(c)
	if err != nil {
		return "", nil, err
	}
	staffID := c.Params("staffId")
	if staffID != caller.StaffID && !caller.IsManager() {
		logger.Get().Info("Staff report access denied",
			zap.String("caller", caller.StaffID), zap.String("target", staffID))
		return "", nil, domain.NewForbiddenError("cannot view another staff member's progress")
	}
	return staffID, caller, nil
}

// GetStaffProgress godoc
// @Summary Get staff progress
// @Description Average score, quizzes taken and per quiz coverage of a staff member
// @Tags progress
// @Security ApiKeyAuth
// @Produce json
// @Param staffId path string true "Staff ID"
// @Success 200 {object} dto.StaffProgressResponse
// @Failure 403 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse "Staff member not found"
// @Router /staff/{staffId}/progress [get]
func (h *TrainingHandler) GetStaffProgress(c *fiber.Ctx) error {
	staffID, caller, err := targetStaff(c)
	if err != nil {
		return err
	}
	resp, err := h.scores.StaffProgress(c.Context(), staffID, caller.RestaurantID)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// GetStaffAverage godoc
// @Summary Get staff average score
// @Description Mean percentage over attempts on currently available quizzes
// @Tags progress
// @Security ApiKeyAuth
// @Produce json
// @Param staffId path string true "Staff ID"
// @Success 200 {object} dto.StaffAverageResponse
// @Failure 403 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse "Staff member not found"
// @Router /staff/{staffId}/average [get]
func (h *TrainingHandler) GetStaffAverage(c *fiber.Ctx) error {
	staffID, caller, err := targetStaff(c)
	if err != nil {
		return err
	}
	avg, err := h.scores.AverageScoreForStaff(c.Context(), staffID, caller.RestaurantID)
	if err != nil {
		return err
	}
	return c.JSON(dto.StaffAverageResponse{
		StaffID:      staffID,
		AverageScore: avg.AverageScore,
		QuizzesTaken: avg.QuizzesTaken,
	})
}

// GetStaffQuizSummary godoc
// @Summary Get staff progress on one quiz
// @Description Coverage, completion and average score of a staff member on a quiz
// @Tags progress
// @Security ApiKeyAuth
// @Produce json
// @Param staffId path string true "Staff ID"
// @Param quizId path string true "Quiz ID"
// @Success 200 {object} dto.QuizProgressSummary
// @Failure 403 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse "Staff member or quiz not found"
// @Router /staff/{staffId}/quizzes/{quizId} [get]
func (h *TrainingHandler) GetStaffQuizSummary(c *fiber.Ctx) error {
	staffID, caller, err := targetStaff(c)
	if err != nil {
		return err
	}
	summary, err := h.scores.PerQuizSummary(c.Context(), staffID, c.Params("quizId"), caller.RestaurantID)
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

// GetStaffAttempts godoc
// @Summary List attempts of a staff member
// @Description Attempt history, newest first
// @Tags progress
// @Security ApiKeyAuth
// @Produce json
// @Param staffId path string true "Staff ID"
// @Success 200 {array} dto.AttemptSummary
// @Failure 403 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse "Staff member not found"
// @Router /staff/{staffId}/attempts [get]
func (h *TrainingHandler) GetStaffAttempts(c *fiber.Ctx) error {
	staffID, caller, err := targetStaff(c)
	if err != nil {
		return err
	}
	attempts, err := h.recorder.ListAttempts(c.Context(), staffID, caller.RestaurantID)
	if err != nil {
		return err
	}
	return c.JSON(attempts)
}

// GetRestaurantRollup godoc
// @Summary Restaurant rollup
// @Description Per staff average score, quizzes taken and assignable quiz count for the caller's restaurant
// @Tags progress
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} dto.RestaurantRollupResponse
// @Failure 403 {object} middleware.ErrorResponse
// @Router /restaurant/rollup [get]
func (h *TrainingHandler) GetRestaurantRollup(c *fiber.Ctx) error {
	caller, err := currentStaff(c)
	if err != nil {
		return err
	}
	resp, err := h.scores.RestaurantRollup(c.Context(), caller.RestaurantID)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
