package service

import (
	"context"

	"staff-quiz/internal/domain"
	"staff-quiz/internal/dto"
	"staff-quiz/internal/logger"
	"staff-quiz/internal/util"

	"go.uber.org/zap"
)

// QuizAdmin manages quiz definitions for restaurant managers.
type QuizAdmin interface {
	CreateQuiz(ctx context.Context, restaurantID string, req dto.CreateQuizRequest) (*dto.QuizResponse, error)
	// ResnapshotQuiz refreshes the stored pool size from the current banks.
	// Existing progress records keep the snapshot they were created with.
	ResnapshotQuiz(ctx context.Context, quizID, restaurantID string) (*dto.ResnapshotResponse, error)
	SetAvailability(ctx context.Context, quizID, restaurantID string, available bool) error
}

type quizAdmin struct {
	quizzes domain.QuizRepository
	source  QuestionSource
	clock   domain.Clock
}

func NewQuizAdmin(quizzes domain.QuizRepository, source QuestionSource, clock domain.Clock) QuizAdmin {
	return &quizAdmin{quizzes: quizzes, source: source, clock: clock}
}

func toQuizResponse(q *domain.Quiz) *dto.QuizResponse {
	eligible := q.EligibleRoleIDs
	if eligible == nil {
		eligible = []string{}
	}
	return &dto.QuizResponse{
		ID:                   q.ID,
		Title:                q.Title,
		Description:          q.Description,
		SourceBankIDs:        q.SourceBankIDs,
		TotalUniqueQuestions: q.TotalUniqueQuestions,
		QuestionsPerAttempt:  q.QuestionsPerAttempt,
		Available:            q.Available,
		EligibleRoleIDs:      eligible,
		RetakeCooldownHours:  q.RetakeCooldownHours,
		CreatedAt:            q.CreatedAt,
	}
}

func (a *quizAdmin) CreateQuiz(ctx context.Context, restaurantID string, req dto.CreateQuizRequest) (*dto.QuizResponse, error) {
	now := a.clock.Now()
	quiz := &domain.Quiz{
		ID:                  util.NewULID(),
		RestaurantID:        restaurantID,
		Title:               req.Title,
		Description:         req.Description,
		SourceBankIDs:       util.UniqueStrings(req.SourceBankIDs),
		QuestionsPerAttempt: req.QuestionsPerAttempt,
		Available:           req.Available,
		EligibleRoleIDs:     util.UniqueStrings(req.EligibleRoleIDs),
		RetakeCooldownHours: req.RetakeCooldownHours,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := quiz.Validate(); err != nil {
		return nil, err
	}

	total, err := a.source.Count(ctx, quiz)
	if err != nil {
		logger.Get().Error("Failed to count question pool", zap.Strings("bank_ids", quiz.SourceBankIDs), zap.Error(err))
		return nil, domain.NewInternalError("failed to count question pool", err)
	}
	if total == 0 {
		logger.Get().Warn("Quiz created over banks without active questions", zap.String("quiz_id", quiz.ID))
	}
	quiz.TotalUniqueQuestions = total

	if err := a.quizzes.Create(ctx, quiz); err != nil {
		logger.Get().Error("Failed to create quiz", zap.String("title", quiz.Title), zap.Error(err))
		return nil, domain.NewInternalError("failed to create quiz", err)
	}
	logger.Get().Info("Quiz created",
		zap.String("quiz_id", quiz.ID),
		zap.String("restaurant_id", restaurantID),
		zap.Int("total_unique_questions", total))
	return toQuizResponse(quiz), nil
}

func (a *quizAdmin) ResnapshotQuiz(ctx context.Context, quizID, restaurantID string) (*dto.ResnapshotResponse, error) {
	quiz, err := loadQuiz(ctx, a.quizzes, quizID, restaurantID)
	if err != nil {
		return nil, err
	}
	if err := a.source.Invalidate(ctx, quiz.ID); err != nil {
		logger.Get().Warn("Failed to invalidate question pool", zap.String("quiz_id", quiz.ID), zap.Error(err))
	}
	total, err := a.source.Count(ctx, quiz)
	if err != nil {
		logger.Get().Error("Failed to count question pool", zap.String("quiz_id", quiz.ID), zap.Error(err))
		return nil, domain.NewInternalError("failed to count question pool", err)
	}
	if err := a.quizzes.UpdateSnapshot(ctx, quiz.ID, total, a.clock.Now()); err != nil {
		if domain.HasCode(err, domain.CodeNotFound) {
			return nil, err
		}
		logger.Get().Error("Failed to update quiz snapshot", zap.String("quiz_id", quiz.ID), zap.Error(err))
		return nil, domain.NewInternalError("failed to update quiz snapshot", err)
	}
	logger.Get().Info("Quiz re-snapshotted",
		zap.String("quiz_id", quiz.ID),
		zap.Int("previous_total", quiz.TotalUniqueQuestions),
		zap.Int("total_unique_questions", total))
	return &dto.ResnapshotResponse{
		QuizID:               quiz.ID,
		PreviousTotal:        quiz.TotalUniqueQuestions,
		TotalUniqueQuestions: total,
	}, nil
}

func (a *quizAdmin) SetAvailability(ctx context.Context, quizID, restaurantID string, available bool) error {
	quiz, err := loadQuiz(ctx, a.quizzes, quizID, restaurantID)
	if err != nil {
		return err
	}
	if err := a.quizzes.SetAvailability(ctx, quiz.ID, available, a.clock.Now()); err != nil {
		if domain.HasCode(err, domain.CodeNotFound) {
			return err
		}
		logger.Get().Error("Failed to set quiz availability", zap.String("quiz_id", quiz.ID), zap.Error(err))
		return domain.NewInternalError("failed to set quiz availability", err)
	}
	if err := a.source.Invalidate(ctx, quiz.ID); err != nil {
		logger.Get().Warn("Failed to invalidate question pool", zap.String("quiz_id", quiz.ID), zap.Error(err))
	}
	logger.Get().Info("Quiz availability changed", zap.String("quiz_id", quiz.ID), zap.Bool("available", available))
	return nil
}
