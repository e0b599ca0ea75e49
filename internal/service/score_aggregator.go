package service

import (
	"context"
	"sort"

	"staff-quiz/internal/domain"
	"staff-quiz/internal/dto"
	"staff-quiz/internal/logger"
	"staff-quiz/internal/util"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// StaffAverage is the normalized average over qualifying attempts.
type StaffAverage struct {
	AverageScore *float64
	QuizzesTaken int
}

// ScoreAggregator builds read-only reports over attempts and progress.
type ScoreAggregator interface {
	AverageScoreForStaff(ctx context.Context, staffID, restaurantID string) (*StaffAverage, error)
	PerQuizSummary(ctx context.Context, staffID, quizID, restaurantID string) (*dto.QuizProgressSummary, error)
	StaffProgress(ctx context.Context, staffID, restaurantID string) (*dto.StaffProgressResponse, error)
	RestaurantRollup(ctx context.Context, restaurantID string) (*dto.RestaurantRollupResponse, error)
}

type scoreAggregator struct {
	quizzes  domain.QuizRepository
	staff    domain.StaffRepository
	attempts domain.AttemptRepository
	progress domain.ProgressRepository
}

func NewScoreAggregator(quizzes domain.QuizRepository, staff domain.StaffRepository, attempts domain.AttemptRepository, progress domain.ProgressRepository) ScoreAggregator {
	return &scoreAggregator{quizzes: quizzes, staff: staff, attempts: attempts, progress: progress}
}

// quizzesForAttempts resolves the quizzes referenced by attempts in one query.
// Quizzes that no longer exist are simply absent from the map.
func quizzesForAttempts(ctx context.Context, quizzes domain.QuizRepository, attempts []*domain.QuizAttempt) (map[string]*domain.Quiz, error) {
	ids := make([]string, 0, len(attempts))
	for _, a := range attempts {
		ids = append(ids, a.QuizID)
	}
	return quizzesByID(ctx, quizzes, util.UniqueStrings(ids))
}

func quizzesByID(ctx context.Context, quizzes domain.QuizRepository, ids []string) (map[string]*domain.Quiz, error) {
	out := make(map[string]*domain.Quiz, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	found, err := quizzes.GetByIDs(ctx, ids)
	if err != nil {
		logger.Get().Error("Failed to load quizzes", zap.Int("count", len(ids)), zap.Error(err))
		return nil, domain.NewInternalError("failed to load quizzes", err)
	}
	for _, q := range found {
		out[q.ID] = q
	}
	return out, nil
}

func quizTitle(byID map[string]*domain.Quiz, quizID string) string {
	if q, ok := byID[quizID]; ok {
		return q.Title
	}
	return domain.DeletedQuizTitle
}

// averageOf normalizes every attempt to a percentage and averages them. Only
// attempts whose quiz is available and owned by restaurantID count.
func averageOf(attempts []*domain.QuizAttempt, available map[string]*domain.Quiz, restaurantID string) StaffAverage {
	var percentages []float64
	taken := make(map[string]struct{})
	for _, a := range attempts {
		q, ok := available[a.QuizID]
		if !ok || !q.Available || !q.BelongsTo(restaurantID) {
			continue
		}
		percentages = append(percentages, a.Percentage())
		taken[a.QuizID] = struct{}{}
	}
	return StaffAverage{AverageScore: util.MeanPercentage(percentages), QuizzesTaken: len(taken)}
}

func (s *scoreAggregator) AverageScoreForStaff(ctx context.Context, staffID, restaurantID string) (*StaffAverage, error) {
	if _, err := loadStaff(ctx, s.staff, staffID, restaurantID); err != nil {
		return nil, err
	}
	attempts, err := s.attempts.ListByStaff(ctx, staffID, restaurantID)
	if err != nil {
		logger.Get().Error("Failed to list attempts", zap.String("staff_id", staffID), zap.Error(err))
		return nil, domain.NewInternalError("failed to list attempts", err)
	}
	byID, err := quizzesForAttempts(ctx, s.quizzes, attempts)
	if err != nil {
		return nil, err
	}
	avg := averageOf(attempts, byID, restaurantID)
	return &avg, nil
}

func (s *scoreAggregator) PerQuizSummary(ctx context.Context, staffID, quizID, restaurantID string) (*dto.QuizProgressSummary, error) {
	if _, err := loadStaff(ctx, s.staff, staffID, restaurantID); err != nil {
		return nil, err
	}
	quiz, err := loadQuiz(ctx, s.quizzes, quizID, restaurantID)
	if err != nil {
		return nil, err
	}

	var (
		attempts []*domain.QuizAttempt
		progress *domain.StaffQuizProgress
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		attempts, err = s.attempts.ListByStaff(gctx, staffID, restaurantID)
		return err
	})
	g.Go(func() error {
		var err error
		progress, err = s.progress.GetByStaffAndQuiz(gctx, staffID, quizID)
		return err
	})
	if err := g.Wait(); err != nil {
		logger.Get().Error("Failed to load quiz summary",
			zap.String("staff_id", staffID), zap.String("quiz_id", quizID), zap.Error(err))
		return nil, domain.NewInternalError("failed to load quiz summary", err)
	}

	summary := summarizeQuiz(quiz.ID, quiz.Title, filterByQuiz(attempts, quiz.ID), progress)
	return &summary, nil
}

func filterByQuiz(attempts []*domain.QuizAttempt, quizID string) []*domain.QuizAttempt {
	var out []*domain.QuizAttempt
	for _, a := range attempts {
		if a.QuizID == quizID {
			out = append(out, a)
		}
	}
	return out
}

// summarizeQuiz builds the per quiz entry from the attempts on that quiz and
// its progress record, either of which may be empty.
func summarizeQuiz(quizID, title string, attempts []*domain.QuizAttempt, progress *domain.StaffQuizProgress) dto.QuizProgressSummary {
	summary := dto.QuizProgressSummary{QuizID: quizID, Title: title}

	percentages := make([]float64, 0, len(attempts))
	for _, a := range attempts {
		percentages = append(percentages, a.Percentage())
		if summary.LastAttemptTimestamp == nil || a.AttemptedAt.After(*summary.LastAttemptTimestamp) {
			t := a.AttemptedAt
			summary.LastAttemptTimestamp = &t
		}
	}
	summary.AverageScoreForQuiz = util.MeanPercentage(percentages)

	if progress != nil {
		summary.OverallProgressPercentage = util.RoundToOneDecimal(progress.CoveragePercentage())
		summary.IsCompletedOverall = progress.CompletedOverall
		if progress.LastAttemptAt != nil &&
			(summary.LastAttemptTimestamp == nil || progress.LastAttemptAt.After(*summary.LastAttemptTimestamp)) {
			t := *progress.LastAttemptAt
			summary.LastAttemptTimestamp = &t
		}
	}
	return summary
}

func (s *scoreAggregator) StaffProgress(ctx context.Context, staffID, restaurantID string) (*dto.StaffProgressResponse, error) {
	if _, err := loadStaff(ctx, s.staff, staffID, restaurantID); err != nil {
		return nil, err
	}

	var (
		attempts []*domain.QuizAttempt
		progress []*domain.StaffQuizProgress
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		attempts, err = s.attempts.ListByStaff(gctx, staffID, restaurantID)
		return err
	})
	g.Go(func() error {
		var err error
		progress, err = s.progress.ListByStaff(gctx, staffID, restaurantID)
		return err
	})
	if err := g.Wait(); err != nil {
		logger.Get().Error("Failed to load staff progress", zap.String("staff_id", staffID), zap.Error(err))
		return nil, domain.NewInternalError("failed to load staff progress", err)
	}

	attemptsByQuiz := make(map[string][]*domain.QuizAttempt)
	progressByQuiz := make(map[string]*domain.StaffQuizProgress, len(progress))
	var quizIDs []string
	for _, a := range attempts {
		if _, ok := attemptsByQuiz[a.QuizID]; !ok {
			quizIDs = append(quizIDs, a.QuizID)
		}
		attemptsByQuiz[a.QuizID] = append(attemptsByQuiz[a.QuizID], a)
	}
	for _, p := range progress {
		progressByQuiz[p.QuizID] = p
		if _, ok := attemptsByQuiz[p.QuizID]; !ok {
			quizIDs = append(quizIDs, p.QuizID)
		}
	}
	quizIDs = util.UniqueStrings(quizIDs)

	byID, err := quizzesByID(ctx, s.quizzes, quizIDs)
	if err != nil {
		return nil, err
	}

	avg := averageOf(attempts, byID, restaurantID)
	perQuiz := make([]dto.QuizProgressSummary, 0, len(quizIDs))
	for _, id := range quizIDs {
		perQuiz = append(perQuiz, summarizeQuiz(id, quizTitle(byID, id), attemptsByQuiz[id], progressByQuiz[id]))
	}
	sort.SliceStable(perQuiz, func(i, j int) bool { return perQuiz[i].Title < perQuiz[j].Title })

	return &dto.StaffProgressResponse{
		StaffID:      staffID,
		AverageScore: avg.AverageScore,
		QuizzesTaken: avg.QuizzesTaken,
		PerQuiz:      perQuiz,
	}, nil
}

func (s *scoreAggregator) RestaurantRollup(ctx context.Context, restaurantID string) (*dto.RestaurantRollupResponse, error) {
	var (
		staff     []*domain.StaffMember
		available []*domain.Quiz
		attempts  []*domain.QuizAttempt
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		staff, err = s.staff.ListByRestaurant(gctx, restaurantID)
		return err
	})
	g.Go(func() error {
		var err error
		available, err = s.quizzes.ListAvailableByRestaurant(gctx, restaurantID)
		return err
	})
	g.Go(func() error {
		var err error
		attempts, err = s.attempts.ListByRestaurant(gctx, restaurantID)
		return err
	})
	if err := g.Wait(); err != nil {
		logger.Get().Error("Failed to load restaurant rollup", zap.String("restaurant_id", restaurantID), zap.Error(err))
		return nil, domain.NewInternalError("failed to load restaurant rollup", err)
	}

	availableByID := make(map[string]*domain.Quiz, len(available))
	for _, q := range available {
		availableByID[q.ID] = q
	}
	attemptsByStaff := make(map[string][]*domain.QuizAttempt)
	for _, a := range attempts {
		attemptsByStaff[a.StaffID] = append(attemptsByStaff[a.StaffID], a)
	}

	entries := make([]dto.StaffRollupEntry, 0, len(staff))
	for _, member := range staff {
		avg := averageOf(attemptsByStaff[member.ID], availableByID, restaurantID)
		assignable := 0
		for _, q := range available {
			if q.IsAssignableTo(member.RoleID) {
				assignable++
			}
		}
		entries = append(entries, dto.StaffRollupEntry{
			StaffID:                member.ID,
			Name:                   member.Name,
			RoleID:                 member.RoleID,
			AverageScore:           avg.AverageScore,
			QuizzesTaken:           avg.QuizzesTaken,
			AssignableQuizzesCount: assignable,
		})
	}

	logger.Get().Debug("Restaurant rollup built",
		zap.String("restaurant_id", restaurantID), zap.Int("staff", len(entries)))
	return &dto.RestaurantRollupResponse{RestaurantID: restaurantID, Staff: entries}, nil
}
