package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"staff-quiz/internal/domain"
	"staff-quiz/internal/repository/models"
	"staff-quiz/internal/util"

	"github.com/jmoiron/sqlx"
)

const attemptColumns = `id, staff_id, quiz_id, restaurant_id, question_ids, answers, score, total_questions, attempted_at`

// sqlxAttemptRepository implements domain.AttemptRepository using sqlx.
type sqlxAttemptRepository struct {
	db *sqlx.DB
}

// NewSQLXAttemptRepository creates a new instance of sqlxAttemptRepository.
func NewSQLXAttemptRepository(db *sqlx.DB) domain.AttemptRepository {
	return &sqlxAttemptRepository{db: db}
}

func toDomainAttempt(m *models.QuizAttempt) *domain.QuizAttempt {
	if m == nil {
		return nil
	}
	return &domain.QuizAttempt{
		ID:           m.ID,
		StaffID:      m.StaffID,
		QuizID:       m.QuizID,
		RestaurantID: m.RestaurantID,
		QuestionIDs:  []string(m.QuestionIDs),
		Answers:      []domain.Answer(m.Answers),
		Score:        m.Score,
		AttemptedAt:  m.AttemptedAt,
	}
}

func fromDomainAttempt(a *domain.QuizAttempt) *models.QuizAttempt {
	if a == nil {
		return nil
	}
	return &models.QuizAttempt{
		ID:             a.ID,
		StaffID:        a.StaffID,
		QuizID:         a.QuizID,
		RestaurantID:   a.RestaurantID,
		QuestionIDs:    models.StringList(a.QuestionIDs),
		Answers:        models.AnswerList(a.Answers),
		Score:          a.Score,
		TotalQuestions: len(a.QuestionIDs),
		AttemptedAt:    a.AttemptedAt,
	}
}

// Create inserts a new attempt. Attempts are never updated afterwards.
func (r *sqlxAttemptRepository) Create(ctx context.Context, attempt *domain.QuizAttempt) error {
	m := fromDomainAttempt(attempt)
	if m.AttemptedAt.IsZero() {
		m.AttemptedAt = time.Now().UTC()
	}

	questionIDs, err := m.QuestionIDs.Value()
	if err != nil {
		return fmt.Errorf("failed to encode question ids: %w", err)
	}
	answers, err := m.Answers.Value()
	if err != nil {
		return fmt.Errorf("failed to encode answers: %w", err)
	}

	query := `INSERT INTO quiz_attempts (` + attemptColumns + `)
	          VALUES (:1, :2, :3, :4, :5, :6, :7, :8, :9)`
	_, err = GetExecutor(ctx, r.db).ExecContext(ctx, query,
		m.ID,
		m.StaffID,
		m.QuizID,
		m.RestaurantID,
		questionIDs,
		answers,
		m.Score,
		m.TotalQuestions,
		m.AttemptedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create quiz attempt: %w", err)
	}
	return nil
}

// Exists reports whether an attempt with the given id was recorded.
func (r *sqlxAttemptRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM quiz_attempts WHERE id = :1`
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &count, query, id); err != nil {
		return false, fmt.Errorf("failed to check quiz attempt: %w", err)
	}
	return count > 0, nil
}

// LastAttemptAt returns the most recent attempt time, or nil if there is none.
func (r *sqlxAttemptRepository) LastAttemptAt(ctx context.Context, staffID, quizID string) (*time.Time, error) {
	var last sql.NullTime
	query := `SELECT MAX(attempted_at) FROM quiz_attempts WHERE staff_id = :1 AND quiz_id = :2`
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &last, query, staffID, quizID); err != nil {
		return nil, fmt.Errorf("failed to get last attempt time: %w", err)
	}
	return util.NullTimeToPtr(last), nil
}

func (r *sqlxAttemptRepository) ListByStaff(ctx context.Context, staffID, restaurantID string) ([]*domain.QuizAttempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM quiz_attempts
	          WHERE staff_id = :1 AND restaurant_id = :2 ORDER BY attempted_at DESC`
	return r.list(ctx, query, staffID, restaurantID)
}

func (r *sqlxAttemptRepository) ListByRestaurant(ctx context.Context, restaurantID string) ([]*domain.QuizAttempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM quiz_attempts WHERE restaurant_id = :1 ORDER BY attempted_at DESC`
	return r.list(ctx, query, restaurantID)
}

func (r *sqlxAttemptRepository) DeleteByQuiz(ctx context.Context, quizID string) error {
	if _, err := GetExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM quiz_attempts WHERE quiz_id = :1`, quizID); err != nil {
		return fmt.Errorf("failed to delete quiz attempts: %w", err)
	}
	return nil
}

func (r *sqlxAttemptRepository) list(ctx context.Context, query string, args ...interface{}) ([]*domain.QuizAttempt, error) {
	var rows []models.QuizAttempt
	if err := GetExecutor(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list quiz attempts: %w", err)
	}
	attempts := make([]*domain.QuizAttempt, 0, len(rows))
	for i := range rows {
		attempts = append(attempts, toDomainAttempt(&rows[i]))
	}
	return attempts, nil
}
