package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"staff-quiz/internal/domain"
	"staff-quiz/internal/repository/models"
	"staff-quiz/internal/util"

	"github.com/jmoiron/sqlx"
)

const progressColumns = `id, staff_id, quiz_id, restaurant_id, total_unique_questions, completed_overall,
	last_attempt_at, created_at, updated_at`

const (
	// upsertProgressQuery creates the record on first submission. The snapshot
	// total is only written on insert.
	upsertProgressQuery = `MERGE INTO staff_quiz_progress p
	USING (SELECT :1 AS staff_id, :2 AS quiz_id FROM dual) src
	ON (p.staff_id = src.staff_id AND p.quiz_id = src.quiz_id)
	WHEN MATCHED THEN UPDATE SET p.last_attempt_at = :3, p.updated_at = :4
	WHEN NOT MATCHED THEN INSERT (id, staff_id, quiz_id, restaurant_id, total_unique_questions, completed_overall, last_attempt_at, created_at, updated_at)
	VALUES (:5, src.staff_id, src.quiz_id, :6, :7, 0, :8, :9, :10)`

	// mergeSeenQuery adds one id to the seen set and never removes any.
	mergeSeenQuery = `MERGE INTO staff_quiz_seen_questions s
	USING (SELECT :1 AS staff_id, :2 AS quiz_id, :3 AS question_id FROM dual) src
	ON (s.staff_id = src.staff_id AND s.quiz_id = src.quiz_id AND s.question_id = src.question_id)
	WHEN NOT MATCHED THEN INSERT (staff_id, quiz_id, question_id, first_seen_at)
	VALUES (src.staff_id, src.quiz_id, src.question_id, :4)`

	refreshCompletionQuery = `UPDATE staff_quiz_progress p
	SET completed_overall = CASE
		WHEN (SELECT COUNT(*) FROM staff_quiz_seen_questions s
		      WHERE s.staff_id = p.staff_id AND s.quiz_id = p.quiz_id) >= p.total_unique_questions
		THEN 1 ELSE 0 END
	WHERE p.staff_id = :1 AND p.quiz_id = :2`
)

type sqlxProgressRepository struct {
	db *sqlx.DB
}

// NewSQLXProgressRepository creates a progress repository backed by sqlx.
func NewSQLXProgressRepository(db *sqlx.DB) domain.ProgressRepository {
	return &sqlxProgressRepository{db: db}
}

func toDomainProgress(m *models.StaffQuizProgress, seen []string) *domain.StaffQuizProgress {
	if m == nil {
		return nil
	}
	if seen == nil {
		seen = []string{}
	}
	return &domain.StaffQuizProgress{
		ID:                   m.ID,
		StaffID:              m.StaffID,
		QuizID:               m.QuizID,
		RestaurantID:         m.RestaurantID,
		SeenQuestionIDs:      seen,
		TotalUniqueQuestions: m.TotalUniqueQuestions,
		CompletedOverall:     m.CompletedOverall == 1,
		LastAttemptAt:        util.NullTimeToPtr(m.LastAttemptAt),
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

func (r *sqlxProgressRepository) GetByStaffAndQuiz(ctx context.Context, staffID, quizID string) (*domain.StaffQuizProgress, error) {
	exec := GetExecutor(ctx, r.db)

	var m models.StaffQuizProgress
	query := `SELECT ` + progressColumns + ` FROM staff_quiz_progress WHERE staff_id = :1 AND quiz_id = :2`
	if err := exec.GetContext(ctx, &m, query, staffID, quizID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}

	var seen []string
	seenQuery := `SELECT question_id FROM staff_quiz_seen_questions WHERE staff_id = :1 AND quiz_id = :2 ORDER BY first_seen_at, question_id`
	if err := exec.SelectContext(ctx, &seen, seenQuery, staffID, quizID); err != nil {
		return nil, fmt.Errorf("failed to get seen questions: %w", err)
	}
	return toDomainProgress(&m, seen), nil
}

func (r *sqlxProgressRepository) ListByStaff(ctx context.Context, staffID, restaurantID string) ([]*domain.StaffQuizProgress, error) {
	exec := GetExecutor(ctx, r.db)

	var rows []models.StaffQuizProgress
	query := `SELECT ` + progressColumns + ` FROM staff_quiz_progress WHERE staff_id = :1 AND restaurant_id = :2 ORDER BY created_at`
	if err := exec.SelectContext(ctx, &rows, query, staffID, restaurantID); err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	if len(rows) == 0 {
		return []*domain.StaffQuizProgress{}, nil
	}

	var seenRows []models.SeenQuestion
	seenQuery := `SELECT quiz_id, question_id FROM staff_quiz_seen_questions WHERE staff_id = :1 ORDER BY first_seen_at, question_id`
	if err := exec.SelectContext(ctx, &seenRows, seenQuery, staffID); err != nil {
		return nil, fmt.Errorf("failed to list seen questions: %w", err)
	}
	seenByQuiz := make(map[string][]string)
	for _, s := range seenRows {
		seenByQuiz[s.QuizID] = append(seenByQuiz[s.QuizID], s.QuestionID)
	}

	out := make([]*domain.StaffQuizProgress, 0, len(rows))
	for i := range rows {
		out = append(out, toDomainProgress(&rows[i], seenByQuiz[rows[i].QuizID]))
	}
	return out, nil
}

// ApplySeen upserts the progress row, merges every id into the seen set and
// recomputes completion from the stored set. Callers run it inside the
// attempt transaction so concurrent submissions serialize on the row.
func (r *sqlxProgressRepository) ApplySeen(ctx context.Context, u domain.SeenUpdate) error {
	exec := GetExecutor(ctx, r.db)

	_, err := exec.ExecContext(ctx, upsertProgressQuery,
		u.StaffID, u.QuizID,
		u.At, u.At,
		u.ProgressID, u.RestaurantID, u.TotalUniqueQuestions, u.At, u.At, u.At,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert progress: %w", err)
	}

	for _, questionID := range util.UniqueStrings(u.QuestionIDs) {
		if _, err := exec.ExecContext(ctx, mergeSeenQuery, u.StaffID, u.QuizID, questionID, u.At); err != nil {
			return fmt.Errorf("failed to merge seen question: %w", err)
		}
	}

	if _, err := exec.ExecContext(ctx, refreshCompletionQuery, u.StaffID, u.QuizID); err != nil {
		return fmt.Errorf("failed to refresh completion: %w", err)
	}
	return nil
}

func (r *sqlxProgressRepository) DeleteByQuiz(ctx context.Context, quizID string) error {
	exec := GetExecutor(ctx, r.db)
	if _, err := exec.ExecContext(ctx, `DELETE FROM staff_quiz_seen_questions WHERE quiz_id = :1`, quizID); err != nil {
		return fmt.Errorf("failed to delete seen questions: %w", err)
	}
	if _, err := exec.ExecContext(ctx, `DELETE FROM staff_quiz_progress WHERE quiz_id = :1`, quizID); err != nil {
		return fmt.Errorf("failed to delete progress: %w", err)
	}
	return nil
}
