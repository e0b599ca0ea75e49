package service

import (
	"context"
	"time"

	"staff-quiz/internal/cache"
	"staff-quiz/internal/config"
	"staff-quiz/internal/domain"
	"staff-quiz/internal/dto"
	"staff-quiz/internal/logger"
	"staff-quiz/internal/util"

	"go.uber.org/zap"
)

// AttemptRecorder starts attempts, grades submissions and records them
// together with the coverage ledger.
type AttemptRecorder interface {
	StartAttempt(ctx context.Context, quizID, staffID, restaurantID string) (*dto.StartAttemptResponse, error)
	Submit(ctx context.Context, attemptToken, staffID, restaurantID string, answers []domain.Answer) (*dto.SubmitAttemptResponse, error)
	// SubmitByQuiz grades the staff member's open attempt for the quiz.
	SubmitByQuiz(ctx context.Context, quizID, staffID, restaurantID string, answers []domain.Answer) (*dto.SubmitAttemptResponse, error)
	DeleteQuizCascade(ctx context.Context, quizID, restaurantID string) error
	ListAttempts(ctx context.Context, staffID, restaurantID string) ([]dto.AttemptSummary, error)
}

// AttemptRecorderDeps groups the collaborators of the recorder.
type AttemptRecorderDeps struct {
	Quizzes   domain.QuizRepository
	Questions domain.QuestionRepository
	Staff     domain.StaffRepository
	Attempts  domain.AttemptRepository
	Progress  domain.ProgressRepository
	Tx        domain.TransactionManager
	Tracker   ProgressTracker
	Gate      CooldownGate
	Source    QuestionSource
	Sessions  domain.AttemptSessionStore
	Cache     domain.Cache
	Tokens    TokenService
	Notifier  domain.TrainingNotifier
	Clock     domain.Clock
}

type attemptRecorder struct {
	AttemptRecorderDeps
	cfg config.TrainingConfig
}

func NewAttemptRecorder(deps AttemptRecorderDeps, cfg config.TrainingConfig) AttemptRecorder {
	if cfg.AttemptSessionTTL <= 0 {
		cfg.AttemptSessionTTL = 2 * time.Hour
	}
	if cfg.SubmissionLockTTL <= 0 {
		cfg.SubmissionLockTTL = 30 * time.Second
	}
	return &attemptRecorder{AttemptRecorderDeps: deps, cfg: cfg}
}

// loadQuiz resolves a quiz inside a restaurant. Quizzes of other restaurants
// are reported as missing.
func loadQuiz(ctx context.Context, quizzes domain.QuizRepository, quizID, restaurantID string) (*domain.Quiz, error) {
	quiz, err := quizzes.GetByID(ctx, quizID)
	if err != nil {
		logger.Get().Error("Failed to load quiz", zap.String("quiz_id", quizID), zap.Error(err))
		return nil, domain.NewInternalError("failed to load quiz", err)
	}
	if quiz == nil || !quiz.BelongsTo(restaurantID) {
		return nil, domain.NewNotFoundError("quiz not found")
	}
	return quiz, nil
}

func loadStaff(ctx context.Context, staff domain.StaffRepository, staffID, restaurantID string) (*domain.StaffMember, error) {
	member, err := staff.GetByID(ctx, staffID)
	if err != nil {
		logger.Get().Error("Failed to load staff member", zap.String("staff_id", staffID), zap.Error(err))
		return nil, domain.NewInternalError("failed to load staff member", err)
	}
	if member == nil || member.RestaurantID != restaurantID {
		return nil, domain.NewNotFoundError("staff member not found")
	}
	return member, nil
}

func (r *attemptRecorder) ensureCooldown(ctx context.Context, staffID string, quiz *domain.Quiz, at time.Time) error {
	decision, err := r.Gate.CanAttempt(ctx, staffID, quiz, at)
	if err != nil {
		logger.Get().Error("Failed to evaluate cooldown",
			zap.String("staff_id", staffID), zap.String("quiz_id", quiz.ID), zap.Error(err))
		return domain.NewInternalError("failed to evaluate retake cooldown", err)
	}
	if !decision.Allowed {
		return domain.NewTooSoonError(*decision.NextEligibleAt)
	}
	return nil
}

func (r *attemptRecorder) StartAttempt(ctx context.Context, quizID, staffID, restaurantID string) (*dto.StartAttemptResponse, error) {
	staff, err := loadStaff(ctx, r.Staff, staffID, restaurantID)
	if err != nil {
		return nil, err
	}
	quiz, err := loadQuiz(ctx, r.Quizzes, quizID, restaurantID)
	if err != nil {
		return nil, err
	}
	if err := checkAccess(staff, quiz); err != nil {
		return nil, err
	}

	now := r.Clock.Now()
	if err := r.ensureCooldown(ctx, staffID, quiz, now); err != nil {
		return nil, err
	}

	session, err := r.Sessions.FindOpen(ctx, staffID, quizID)
	if err != nil {
		logger.Get().Warn("Failed to look up open attempt", zap.String("staff_id", staffID), zap.Error(err))
		session = nil
	}
	if session != nil && !now.Before(session.ExpiresAt) {
		session = nil
	}

	var questions []dto.PresentedQuestion
	if session != nil {
		questions, err = r.reusableQuestions(ctx, session)
		if err != nil {
			return nil, err
		}
		if questions == nil {
			r.discardSession(ctx, session)
			session = nil
		}
	}

	if session == nil {
		ids, err := r.Tracker.SelectQuestionsForAttempt(ctx, staff, quiz)
		if err != nil {
			return nil, err
		}
		// The cached pool can name questions removed since it was loaded.
		questions, err = r.presentedQuestions(ctx, ids)
		if err != nil {
			return nil, err
		}
		if len(questions) == 0 {
			return nil, domain.NewValidationError("quiz has no active questions")
		}
		ids = make([]string, len(questions))
		for i, q := range questions {
			ids[i] = q.ID
		}
		session = &domain.AttemptSession{
			ID:           util.NewULID(),
			StaffID:      staffID,
			QuizID:       quiz.ID,
			RestaurantID: restaurantID,
			QuestionIDs:  ids,
			StartedAt:    now,
			ExpiresAt:    now.Add(r.cfg.AttemptSessionTTL),
		}
		if err := r.Sessions.Save(ctx, session, r.cfg.AttemptSessionTTL); err != nil {
			logger.Get().Error("Failed to save attempt session", zap.String("quiz_id", quiz.ID), zap.Error(err))
			return nil, domain.NewInternalError("failed to start attempt", err)
		}
	}

	token, err := r.Tokens.IssueAttemptToken(session)
	if err != nil {
		return nil, domain.NewInternalError("failed to issue attempt token", err)
	}

	logger.Get().Info("Attempt started",
		zap.String("session_id", session.ID),
		zap.String("staff_id", staffID),
		zap.String("quiz_id", quiz.ID),
		zap.Int("questions", len(session.QuestionIDs)))

	return &dto.StartAttemptResponse{
		AttemptToken: token,
		Questions:    questions,
		ExpiresAt:    session.ExpiresAt,
	}, nil
}

// reusableQuestions returns the questions of an open session, or nil when the
// session was already recorded or one of its questions no longer exists.
func (r *attemptRecorder) reusableQuestions(ctx context.Context, session *domain.AttemptSession) ([]dto.PresentedQuestion, error) {
	recorded, err := r.Attempts.Exists(ctx, session.ID)
	if err != nil {
		logger.Get().Error("Failed to check attempt", zap.String("session_id", session.ID), zap.Error(err))
		return nil, domain.NewInternalError("failed to start attempt", err)
	}
	if recorded {
		return nil, nil
	}
	questions, err := r.presentedQuestions(ctx, session.QuestionIDs)
	if err != nil {
		return nil, err
	}
	if len(questions) != len(session.QuestionIDs) {
		logger.Get().Warn("Open attempt references removed questions",
			zap.String("session_id", session.ID),
			zap.Int("expected", len(session.QuestionIDs)),
			zap.Int("found", len(questions)))
		return nil, nil
	}
	return questions, nil
}

func (r *attemptRecorder) discardSession(ctx context.Context, session *domain.AttemptSession) {
	if err := r.Sessions.Delete(context.WithoutCancel(ctx), session); err != nil {
		logger.Get().Warn("Failed to discard attempt session", zap.String("session_id", session.ID), zap.Error(err))
	}
}

func (r *attemptRecorder) presentedQuestions(ctx context.Context, ids []string) ([]dto.PresentedQuestion, error) {
	byID, err := r.questionsByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PresentedQuestion, 0, len(ids))
	for _, id := range ids {
		q, ok := byID[id]
		if !ok {
			continue
		}
		options := make([]string, len(q.Options))
		for i, opt := range q.Options {
			options[i] = opt.Text
		}
		out = append(out, dto.PresentedQuestion{ID: q.ID, Text: q.Text, Type: string(q.Type), Options: options})
	}
	return out, nil
}

func (r *attemptRecorder) questionsByID(ctx context.Context, ids []string) (map[string]*domain.Question, error) {
	questions, err := r.Questions.GetByIDs(ctx, ids)
	if err != nil {
		logger.Get().Error("Failed to load questions", zap.Int("count", len(ids)), zap.Error(err))
		return nil, domain.NewInternalError("failed to load questions", err)
	}
	byID := make(map[string]*domain.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	return byID, nil
}

func (r *attemptRecorder) Submit(ctx context.Context, attemptToken, staffID, restaurantID string, answers []domain.Answer) (*dto.SubmitAttemptResponse, error) {
	claims, err := r.Tokens.ParseAttemptToken(attemptToken)
	if err != nil || claims.StaffID != staffID || claims.RestaurantID != restaurantID {
		return nil, domain.NewNotFoundError("attempt not found")
	}
	session, err := r.Sessions.Get(ctx, claims.SessionID)
	if err != nil {
		logger.Get().Error("Failed to load attempt session", zap.String("session_id", claims.SessionID), zap.Error(err))
		return nil, domain.NewInternalError("failed to load attempt", err)
	}
	if session == nil || session.StaffID != staffID || session.RestaurantID != restaurantID {
		return nil, domain.NewNotFoundError("attempt not found or expired")
	}
	return r.submitSession(ctx, session, answers)
}

func (r *attemptRecorder) SubmitByQuiz(ctx context.Context, quizID, staffID, restaurantID string, answers []domain.Answer) (*dto.SubmitAttemptResponse, error) {
	session, err := r.Sessions.FindOpen(ctx, staffID, quizID)
	if err != nil {
		logger.Get().Error("Failed to find open attempt", zap.String("quiz_id", quizID), zap.Error(err))
		return nil, domain.NewInternalError("failed to load attempt", err)
	}
	if session == nil || session.RestaurantID != restaurantID {
		return nil, domain.NewNotFoundError("no open attempt for this quiz")
	}
	return r.submitSession(ctx, session, answers)
}

// alignAnswers orders answers by the presented question list. Every presented
// question needs exactly one answer.
func alignAnswers(presented []string, answers []domain.Answer) ([]domain.Answer, error) {
	if len(answers) != len(presented) {
		return nil, domain.NewValidationError("answer count does not match the presented questions").
			WithContext("expected", len(presented)).
			WithContext("received", len(answers))
	}
	byQuestion := make(map[string]domain.Answer, len(answers))
	for _, a := range answers {
		if _, dup := byQuestion[a.QuestionID]; dup {
			return nil, domain.NewValidationError("question answered more than once").WithContext("question_id", a.QuestionID)
		}
		byQuestion[a.QuestionID] = a
	}
	aligned := make([]domain.Answer, len(presented))
	for i, id := range presented {
		a, ok := byQuestion[id]
		if !ok {
			return nil, domain.NewValidationError("answer missing for a presented question").WithContext("question_id", id)
		}
		aligned[i] = domain.Answer{QuestionID: id, SelectedOptions: a.SelectedOptions}
	}
	return aligned, nil
}

// grade scores aligned answers. A question that no longer exists is graded
// as incorrect.
func grade(aligned []domain.Answer, byID map[string]*domain.Question) (int, []dto.CorrectAnswer, error) {
	score := 0
	key := make([]dto.CorrectAnswer, 0, len(aligned))
	for _, a := range aligned {
		q, ok := byID[a.QuestionID]
		if !ok {
			key = append(key, dto.CorrectAnswer{QuestionID: a.QuestionID, CorrectOptions: []int{}})
			continue
		}
		if !q.OptionInRange(a.SelectedOptions) {
			return 0, nil, domain.NewValidationError("selected option out of range").WithContext("question_id", q.ID)
		}
		correct := q.IsAnsweredBy(a.SelectedOptions)
		if correct {
			score++
		}
		options := q.CorrectOptions()
		if options == nil {
			options = []int{}
		}
		key = append(key, dto.CorrectAnswer{QuestionID: q.ID, CorrectOptions: options, IsCorrect: correct})
	}
	return score, key, nil
}

func (r *attemptRecorder) submitSession(ctx context.Context, session *domain.AttemptSession, answers []domain.Answer) (*dto.SubmitAttemptResponse, error) {
	log := logger.Get().With(
		zap.String("session_id", session.ID),
		zap.String("staff_id", session.StaffID),
		zap.String("quiz_id", session.QuizID))

	quiz, err := loadQuiz(ctx, r.Quizzes, session.QuizID, session.RestaurantID)
	if err != nil {
		return nil, err
	}

	lockKey := cache.SubmitLockKey(session.StaffID, session.QuizID)
	lockToken := util.NewULID()
	acquired, err := r.Cache.SetNX(ctx, lockKey, lockToken, r.cfg.SubmissionLockTTL)
	if err != nil {
		log.Error("Failed to acquire submission lock", zap.Error(err))
		return nil, domain.NewInternalError("failed to submit attempt", err)
	}
	if !acquired {
		return nil, domain.NewConflictError("a submission for this quiz is already in progress")
	}
	defer func() {
		released, err := r.Cache.DeleteIfValue(context.WithoutCancel(ctx), lockKey, lockToken)
		if err != nil {
			log.Warn("Failed to release submission lock", zap.Error(err))
		} else if !released {
			log.Warn("Submission lock expired before release", zap.Duration("ttl", r.cfg.SubmissionLockTTL))
		}
	}()

	// A concurrent submission may have consumed the session before the lock
	// was taken.
	current, err := r.Sessions.Get(ctx, session.ID)
	if err != nil {
		log.Error("Failed to reload attempt session", zap.Error(err))
		return nil, domain.NewInternalError("failed to submit attempt", err)
	}
	if current == nil {
		return nil, domain.NewNotFoundError("attempt not found or expired")
	}
	// The attempt id is the session id, so a session whose removal failed
	// after commit is still recognized as consumed.
	recorded, err := r.Attempts.Exists(ctx, session.ID)
	if err != nil {
		log.Error("Failed to check attempt", zap.Error(err))
		return nil, domain.NewInternalError("failed to submit attempt", err)
	}
	if recorded {
		r.discardSession(ctx, session)
		return nil, domain.NewNotFoundError("attempt not found or expired")
	}

	at := r.Clock.Now()
	if err := r.ensureCooldown(ctx, session.StaffID, quiz, at); err != nil {
		return nil, err
	}

	aligned, err := alignAnswers(session.QuestionIDs, answers)
	if err != nil {
		return nil, err
	}
	byID, err := r.questionsByID(ctx, session.QuestionIDs)
	if err != nil {
		return nil, err
	}
	score, key, err := grade(aligned, byID)
	if err != nil {
		return nil, err
	}

	attempt := &domain.QuizAttempt{
		ID:           session.ID,
		StaffID:      session.StaffID,
		QuizID:       quiz.ID,
		RestaurantID: quiz.RestaurantID,
		QuestionIDs:  session.QuestionIDs,
		Answers:      aligned,
		Score:        score,
		AttemptedAt:  at,
	}

	var seen *SeenResult
	err = r.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := r.Attempts.Create(txCtx, attempt); err != nil {
			return err
		}
		var err error
		seen, err = r.Tracker.RecordSeen(txCtx, session.StaffID, quiz, session.QuestionIDs, at)
		return err
	})
	if err != nil {
		log.Error("Failed to record attempt", zap.Error(err))
		return nil, domain.NewInternalError("failed to record attempt", err)
	}

	if err := r.Sessions.Delete(context.WithoutCancel(ctx), session); err != nil {
		log.Warn("Failed to consume attempt session", zap.Error(err))
	}

	event := domain.AttemptRecordedEvent{
		AttemptID:        attempt.ID,
		StaffID:          attempt.StaffID,
		QuizID:           attempt.QuizID,
		RestaurantID:     attempt.RestaurantID,
		Score:            score,
		TotalQuestions:   attempt.TotalQuestions(),
		CompletedOverall: seen.Progress.CompletedOverall,
		BecameCompleted:  seen.BecameCompleted,
		AttemptedAt:      at,
	}
	if err := r.Notifier.NotifyAttemptRecorded(ctx, event); err != nil {
		log.Warn("Failed to notify attempt recorded", zap.String("attempt_id", attempt.ID), zap.Error(err))
	}

	log.Info("Attempt recorded",
		zap.String("attempt_id", attempt.ID),
		zap.Int("score", score),
		zap.Int("total", attempt.TotalQuestions()),
		zap.Bool("completed_overall", seen.Progress.CompletedOverall))

	return &dto.SubmitAttemptResponse{
		AttemptID:        attempt.ID,
		Score:            score,
		TotalQuestions:   attempt.TotalQuestions(),
		CorrectAnswers:   key,
		CompletedOverall: seen.Progress.CompletedOverall,
	}, nil
}

// DeleteQuizCascade removes the quiz with its progress and attempts in one
// transaction.
func (r *attemptRecorder) DeleteQuizCascade(ctx context.Context, quizID, restaurantID string) error {
	quiz, err := loadQuiz(ctx, r.Quizzes, quizID, restaurantID)
	if err != nil {
		return err
	}

	err = r.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := r.Progress.DeleteByQuiz(txCtx, quiz.ID); err != nil {
			return err
		}
		if err := r.Attempts.DeleteByQuiz(txCtx, quiz.ID); err != nil {
			return err
		}
		return r.Quizzes.Delete(txCtx, quiz.ID)
	})
	if err != nil {
		logger.Get().Error("Failed to delete quiz", zap.String("quiz_id", quizID), zap.Error(err))
		return domain.NewInternalError("failed to delete quiz", err)
	}

	if err := r.Source.Invalidate(ctx, quiz.ID); err != nil {
		logger.Get().Warn("Failed to invalidate question pool", zap.String("quiz_id", quiz.ID), zap.Error(err))
	}
	logger.Get().Info("Quiz deleted", zap.String("quiz_id", quiz.ID), zap.String("restaurant_id", restaurantID))
	return nil
}

// ListAttempts returns the attempt history of a staff member, newest first.
func (r *attemptRecorder) ListAttempts(ctx context.Context, staffID, restaurantID string) ([]dto.AttemptSummary, error) {
	if _, err := loadStaff(ctx, r.Staff, staffID, restaurantID); err != nil {
		return nil, err
	}
	attempts, err := r.Attempts.ListByStaff(ctx, staffID, restaurantID)
	if err != nil {
		logger.Get().Error("Failed to list attempts", zap.String("staff_id", staffID), zap.Error(err))
		return nil, domain.NewInternalError("failed to list attempts", err)
	}
	quizByID, err := quizzesForAttempts(ctx, r.Quizzes, attempts)
	if err != nil {
		return nil, err
	}

	out := make([]dto.AttemptSummary, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, dto.AttemptSummary{
			AttemptID:      a.ID,
			QuizID:         a.QuizID,
			QuizTitle:      quizTitle(quizByID, a.QuizID),
			Score:          a.Score,
			TotalQuestions: a.TotalQuestions(),
			Percentage:     util.RoundToOneDecimal(a.Percentage()),
			AttemptedAt:    a.AttemptedAt,
		})
	}
	return out, nil
}
