package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"staff-quiz/internal/domain"
	"staff-quiz/internal/repository/models"
	"staff-quiz/internal/util"

	"github.com/jmoiron/sqlx"
)

const quizColumns = `id, restaurant_id, title, description, source_bank_ids, total_unique_questions,
	questions_per_attempt, is_available, eligible_role_ids, retake_cooldown_hours, created_at, updated_at`

// sqlxQuizRepository implements domain.QuizRepository using sqlx.
type sqlxQuizRepository struct {
	db *sqlx.DB
}

// NewSQLXQuizRepository creates a new instance of sqlxQuizRepository.
func NewSQLXQuizRepository(db *sqlx.DB) domain.QuizRepository {
	return &sqlxQuizRepository{db: db}
}

func toDomainQuiz(m *models.Quiz) *domain.Quiz {
	if m == nil {
		return nil
	}
	return &domain.Quiz{
		ID:                   m.ID,
		RestaurantID:         m.RestaurantID,
		Title:                m.Title,
		Description:          m.Description.String,
		SourceBankIDs:        []string(m.SourceBankIDs),
		TotalUniqueQuestions: m.TotalUniqueQuestions,
		QuestionsPerAttempt:  m.QuestionsPerAttempt,
		Available:            m.IsAvailable == 1,
		EligibleRoleIDs:      []string(m.EligibleRoleIDs),
		RetakeCooldownHours:  m.RetakeCooldownHours,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

func fromDomainQuiz(q *domain.Quiz) *models.Quiz {
	if q == nil {
		return nil
	}
	return &models.Quiz{
		ID:                   q.ID,
		RestaurantID:         q.RestaurantID,
		Title:                q.Title,
		Description:          util.StringToNullString(q.Description),
		SourceBankIDs:        models.StringList(q.SourceBankIDs),
		TotalUniqueQuestions: q.TotalUniqueQuestions,
		QuestionsPerAttempt:  q.QuestionsPerAttempt,
		IsAvailable:          util.BoolToInt(q.Available),
		EligibleRoleIDs:      models.StringList(q.EligibleRoleIDs),
		RetakeCooldownHours:  q.RetakeCooldownHours,
		CreatedAt:            q.CreatedAt,
		UpdatedAt:            q.UpdatedAt,
	}
}

func (r *sqlxQuizRepository) GetByID(ctx context.Context, id string) (*domain.Quiz, error) {
	var m models.Quiz
	query := `SELECT ` + quizColumns + ` FROM quizzes WHERE id = :1`
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &m, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get quiz by id: %w", err)
	}
	return toDomainQuiz(&m), nil
}

func (r *sqlxQuizRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Quiz, error) {
	ids = util.UniqueStrings(ids)
	if len(ids) == 0 {
		return []*domain.Quiz{}, nil
	}
	var rows []models.Quiz
	for _, chunk := range chunkIDs(ids, maxInListSize) {
		query := `SELECT ` + quizColumns + ` FROM quizzes WHERE id IN (` + util.OraclePlaceholders(1, len(chunk)) + `)`
		var part []models.Quiz
		if err := GetExecutor(ctx, r.db).SelectContext(ctx, &part, query, util.StringsToArgs(chunk)...); err != nil {
			return nil, fmt.Errorf("failed to get quizzes by ids: %w", err)
		}
		rows = append(rows, part...)
	}
	return toDomainQuizzes(rows), nil
}

func (r *sqlxQuizRepository) ListAvailableByRestaurant(ctx context.Context, restaurantID string) ([]*domain.Quiz, error) {
	query := `SELECT ` + quizColumns + ` FROM quizzes WHERE restaurant_id = :1 AND is_available = 1 ORDER BY created_at`

	var rows []models.Quiz
	if err := GetExecutor(ctx, r.db).SelectContext(ctx, &rows, query, restaurantID); err != nil {
		return nil, fmt.Errorf("failed to list available quizzes: %w", err)
	}
	return toDomainQuizzes(rows), nil
}

func (r *sqlxQuizRepository) Create(ctx context.Context, quiz *domain.Quiz) error {
	m := fromDomainQuiz(quiz)
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now

	sourceBanks, err := m.SourceBankIDs.Value()
	if err != nil {
		return fmt.Errorf("failed to encode source bank ids: %w", err)
	}
	roles, err := m.EligibleRoleIDs.Value()
	if err != nil {
		return fmt.Errorf("failed to encode eligible roles: %w", err)
	}

	query := `INSERT INTO quizzes (` + quizColumns + `)
	          VALUES (:1, :2, :3, :4, :5, :6, :7, :8, :9, :10, :11, :12)`
	_, err = GetExecutor(ctx, r.db).ExecContext(ctx, query,
		m.ID,
		m.RestaurantID,
		m.Title,
		m.Description,
		sourceBanks,
		m.TotalUniqueQuestions,
		m.QuestionsPerAttempt,
		m.IsAvailable,
		roles,
		m.RetakeCooldownHours,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create quiz: %w", err)
	}
	quiz.CreatedAt, quiz.UpdatedAt = m.CreatedAt, m.UpdatedAt
	return nil
}

func (r *sqlxQuizRepository) UpdateSnapshot(ctx context.Context, id string, totalUniqueQuestions int, at time.Time) error {
	query := `UPDATE quizzes SET total_unique_questions = :1, updated_at = :2 WHERE id = :3`
	return r.execSingle(ctx, "update quiz snapshot", query, totalUniqueQuestions, at, id)
}

func (r *sqlxQuizRepository) SetAvailability(ctx context.Context, id string, available bool, at time.Time) error {
	query := `UPDATE quizzes SET is_available = :1, updated_at = :2 WHERE id = :3`
	return r.execSingle(ctx, "set quiz availability", query, util.BoolToInt(available), at, id)
}

func (r *sqlxQuizRepository) Delete(ctx context.Context, id string) error {
	return r.execSingle(ctx, "delete quiz", `DELETE FROM quizzes WHERE id = :1`, id)
}

// execSingle runs a statement that must touch exactly one quiz row.
func (r *sqlxQuizRepository) execSingle(ctx context.Context, op, query string, args ...interface{}) error {
	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func toDomainQuizzes(rows []models.Quiz) []*domain.Quiz {
	quizzes := make([]*domain.Quiz, 0, len(rows))
	for i := range rows {
		quizzes = append(quizzes, toDomainQuiz(&rows[i]))
	}
	return quizzes
}
