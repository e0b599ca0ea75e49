package service

import (
	"context"
	"time"

	"staff-quiz/internal/domain"
	"staff-quiz/internal/logger"
	"staff-quiz/internal/util"

	"go.uber.org/zap"
)

// ProgressTracker decides which questions a staff member sees next and keeps
// the per quiz coverage ledger.
type ProgressTracker interface {
	// SelectQuestionsForAttempt has no side effects.
	SelectQuestionsForAttempt(ctx context.Context, staff *domain.StaffMember, quiz *domain.Quiz) ([]string, error)
	// RecordSeen unions ids into the seen set, creating the ledger on first use.
	RecordSeen(ctx context.Context, staffID string, quiz *domain.Quiz, questionIDs []string, at time.Time) (*SeenResult, error)
	GetProgress(ctx context.Context, staffID, quizID string) (*domain.StaffQuizProgress, error)
}

// SeenResult is the ledger after a RecordSeen call.
type SeenResult struct {
	Progress        *domain.StaffQuizProgress
	BecameCompleted bool
}

type progressTracker struct {
	progress domain.ProgressRepository
	source   QuestionSource
	rnd      domain.RandomSource
}

func NewProgressTracker(progress domain.ProgressRepository, source QuestionSource, rnd domain.RandomSource) ProgressTracker {
	return &progressTracker{progress: progress, source: source, rnd: rnd}
}

// checkAccess hides unpublished quizzes and enforces role eligibility.
func checkAccess(staff *domain.StaffMember, quiz *domain.Quiz) error {
	if !quiz.Available {
		return domain.NewNotFoundError("quiz not found")
	}
	if !quiz.IsAssignableTo(staff.RoleID) {
		return domain.NewForbiddenError("quiz is not assigned to this role")
	}
	return nil
}

func (t *progressTracker) SelectQuestionsForAttempt(ctx context.Context, staff *domain.StaffMember, quiz *domain.Quiz) ([]string, error) {
	if err := checkAccess(staff, quiz); err != nil {
		return nil, err
	}

	pool, err := t.source.ActiveQuestionIDs(ctx, quiz)
	if err != nil {
		logger.Get().Error("Failed to load question pool", zap.String("quiz_id", quiz.ID), zap.Error(err))
		return nil, domain.NewInternalError("failed to load question pool", err)
	}

	progress, err := t.progress.GetByStaffAndQuiz(ctx, staff.ID, quiz.ID)
	if err != nil {
		logger.Get().Error("Failed to load progress",
			zap.String("staff_id", staff.ID), zap.String("quiz_id", quiz.ID), zap.Error(err))
		return nil, domain.NewInternalError("failed to load progress", err)
	}
	var seen map[string]struct{}
	if progress != nil {
		seen = progress.SeenSet()
	}

	return selectBatch(pool, seen, quiz.QuestionsPerAttempt, t.rnd), nil
}

// selectBatch draws n ids preferring those not yet seen. When fewer than n
// unseen ids remain it takes all of them and tops up from the seen part of
// the pool. The result holds min(n, |pool|) distinct ids in random order.
func selectBatch(pool []string, seen map[string]struct{}, n int, rnd domain.RandomSource) []string {
	pool = util.UniqueStrings(pool)
	if n > len(pool) {
		n = len(pool)
	}
	if n <= 0 {
		return []string{}
	}

	var unseen, reused []string
	for _, id := range pool {
		if _, ok := seen[id]; ok {
			reused = append(reused, id)
		} else {
			unseen = append(unseen, id)
		}
	}

	var picked []string
	if len(unseen) >= n {
		picked = drawWithoutReplacement(unseen, n, rnd)
	} else {
		picked = append(picked, unseen...)
		picked = append(picked, drawWithoutReplacement(reused, n-len(unseen), rnd)...)
	}

	rnd.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	return picked
}

// drawWithoutReplacement runs a partial Fisher-Yates shuffle over a copy of ids.
func drawWithoutReplacement(ids []string, k int, rnd domain.RandomSource) []string {
	buf := make([]string, len(ids))
	copy(buf, ids)
	for i := 0; i < k; i++ {
		j := i + rnd.Intn(len(buf)-i)
		buf[i], buf[j] = buf[j], buf[i]
	}
	return buf[:k]
}

func (t *progressTracker) RecordSeen(ctx context.Context, staffID string, quiz *domain.Quiz, questionIDs []string, at time.Time) (*SeenResult, error) {
	before, err := t.progress.GetByStaffAndQuiz(ctx, staffID, quiz.ID)
	if err != nil {
		return nil, err
	}

	// An existing record keeps the snapshot it was created with.
	baseline := before
	if baseline == nil {
		baseline = domain.NewStaffQuizProgress(util.NewULID(), staffID, quiz, at)
	}
	update := domain.SeenUpdate{
		ProgressID:           baseline.ID,
		StaffID:              staffID,
		QuizID:               quiz.ID,
		RestaurantID:         quiz.RestaurantID,
		TotalUniqueQuestions: baseline.TotalUniqueQuestions,
		QuestionIDs:          questionIDs,
		At:                   at,
	}
	if err := t.progress.ApplySeen(ctx, update); err != nil {
		return nil, err
	}

	after, err := t.progress.GetByStaffAndQuiz(ctx, staffID, quiz.ID)
	if err != nil {
		return nil, err
	}
	if after == nil {
		return nil, domain.NewInternalError("progress missing after update", nil)
	}
	return &SeenResult{Progress: after, BecameCompleted: after.CompletedOverall && !baseline.CompletedOverall}, nil
}

func (t *progressTracker) GetProgress(ctx context.Context, staffID, quizID string) (*domain.StaffQuizProgress, error) {
	return t.progress.GetByStaffAndQuiz(ctx, staffID, quizID)
}
