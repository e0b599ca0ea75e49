package repository

import (
	"context"
	"fmt"
	"time"

	"staff-quiz/internal/domain"
	"staff-quiz/internal/repository/models"
	"staff-quiz/internal/util"

	"github.com/jmoiron/sqlx"
)

const questionColumns = `id, bank_id, restaurant_id, question_text, question_type, options, categories,
	knowledge_category, authorship, review_status, created_at, updated_at`

type sqlxQuestionRepository struct {
	db *sqlx.DB
}

// NewSQLXQuestionRepository creates a question bank repository backed by sqlx.
func NewSQLXQuestionRepository(db *sqlx.DB) domain.QuestionRepository {
	return &sqlxQuestionRepository{db: db}
}

func toDomainQuestion(m *models.Question) *domain.Question {
	if m == nil {
		return nil
	}
	return &domain.Question{
		ID:                m.ID,
		BankID:            m.BankID,
		RestaurantID:      m.RestaurantID,
		Text:              m.QuestionText,
		Type:              domain.QuestionType(m.QuestionType),
		Options:           []domain.Option(m.Options),
		Categories:        []string(m.Categories),
		KnowledgeCategory: domain.KnowledgeCategory(m.KnowledgeCategory.String),
		Authorship:        domain.Authorship(m.Authorship),
		ReviewStatus:      domain.ReviewStatus(m.ReviewStatus),
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func fromDomainQuestion(q *domain.Question) *models.Question {
	if q == nil {
		return nil
	}
	return &models.Question{
		ID:                q.ID,
		BankID:            q.BankID,
		RestaurantID:      q.RestaurantID,
		QuestionText:      q.Text,
		QuestionType:      string(q.Type),
		Options:           models.OptionList(q.Options),
		Categories:        models.StringList(q.Categories),
		KnowledgeCategory: util.StringToNullString(string(q.KnowledgeCategory)),
		Authorship:        string(q.Authorship),
		ReviewStatus:      string(q.ReviewStatus),
		CreatedAt:         q.CreatedAt,
		UpdatedAt:         q.UpdatedAt,
	}
}

// ListActiveIDsByBanks returns the ids of active questions in the given banks,
// scoped to the restaurant, in a stable order.
func (r *sqlxQuestionRepository) ListActiveIDsByBanks(ctx context.Context, restaurantID string, bankIDs []string) ([]string, error) {
	bankIDs = util.UniqueStrings(bankIDs)
	if len(bankIDs) == 0 {
		return []string{}, nil
	}
	query := `SELECT DISTINCT id FROM questions
	          WHERE restaurant_id = :1 AND review_status = 'active'
	          AND bank_id IN (` + util.OraclePlaceholders(2, len(bankIDs)) + `)
	          ORDER BY id`

	args := append([]interface{}{restaurantID}, util.StringsToArgs(bankIDs)...)
	var ids []string
	if err := GetExecutor(ctx, r.db).SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list active question ids: %w", err)
	}
	return ids, nil
}

func (r *sqlxQuestionRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Question, error) {
	ids = util.UniqueStrings(ids)
	if len(ids) == 0 {
		return []*domain.Question{}, nil
	}
	var rows []models.Question
	for _, chunk := range chunkIDs(ids, maxInListSize) {
		query := `SELECT ` + questionColumns + ` FROM questions WHERE id IN (` + util.OraclePlaceholders(1, len(chunk)) + `)`
		var part []models.Question
		if err := GetExecutor(ctx, r.db).SelectContext(ctx, &part, query, util.StringsToArgs(chunk)...); err != nil {
			return nil, fmt.Errorf("failed to get questions by ids: %w", err)
		}
		rows = append(rows, part...)
	}
	questions := make([]*domain.Question, 0, len(rows))
	for i := range rows {
		questions = append(questions, toDomainQuestion(&rows[i]))
	}
	return questions, nil
}

func (r *sqlxQuestionRepository) ListTextsByBank(ctx context.Context, bankID string) ([]string, error) {
	var texts []string
	query := `SELECT question_text FROM questions WHERE bank_id = :1`
	if err := GetExecutor(ctx, r.db).SelectContext(ctx, &texts, query, bankID); err != nil {
		return nil, fmt.Errorf("failed to list question texts: %w", err)
	}
	return texts, nil
}

func (r *sqlxQuestionRepository) Create(ctx context.Context, question *domain.Question) error {
	m := fromDomainQuestion(question)
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now

	options, err := m.Options.Value()
	if err != nil {
		return fmt.Errorf("failed to encode options: %w", err)
	}
	categories, err := m.Categories.Value()
	if err != nil {
		return fmt.Errorf("failed to encode categories: %w", err)
	}

	query := `INSERT INTO questions (` + questionColumns + `)
	          VALUES (:1, :2, :3, :4, :5, :6, :7, :8, :9, :10, :11, :12)`
	_, err = GetExecutor(ctx, r.db).ExecContext(ctx, query,
		m.ID,
		m.BankID,
		m.RestaurantID,
		m.QuestionText,
		m.QuestionType,
		options,
		categories,
		m.KnowledgeCategory,
		m.Authorship,
		m.ReviewStatus,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

func (r *sqlxQuestionRepository) UpdateReviewStatus(ctx context.Context, id string, status domain.ReviewStatus, at time.Time) error {
	query := `UPDATE questions SET review_status = :1, updated_at = :2 WHERE id = :3`
	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, query, string(status), at, id)
	if err != nil {
		return fmt.Errorf("failed to update review status: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return domain.NewNotFoundError("question not found")
	}
	return nil
}
