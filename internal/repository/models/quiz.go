package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"staff-quiz/internal/domain"
)

// JSONList stores a slice as a JSON array in a CLOB column.
type JSONList[T any] []T

// Value implements the driver.Valuer interface
func (l JSONList[T]) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]T(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the sql.Scanner interface
func (l *JSONList[T]) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*l = JSONList[T]{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("JSONList Scan: unsupported type " + fmt.Sprintf("%T", value))
	}
	if len(raw) == 0 || string(raw) == "null" {
		*l = JSONList[T]{}
		return nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

type StringList = JSONList[string]
type OptionList = JSONList[domain.Option]
type AnswerList = JSONList[domain.Answer]

// Quiz maps the quizzes table.
type Quiz struct {
	ID                   string         `db:"ID"`
	RestaurantID         string         `db:"RESTAURANT_ID"`
	Title                string         `db:"TITLE"`
	Description          sql.NullString `db:"DESCRIPTION"`
	SourceBankIDs        StringList     `db:"SOURCE_BANK_IDS"`
	TotalUniqueQuestions int            `db:"TOTAL_UNIQUE_QUESTIONS"`
	QuestionsPerAttempt  int            `db:"QUESTIONS_PER_ATTEMPT"`
	IsAvailable          int            `db:"IS_AVAILABLE"`
	EligibleRoleIDs      StringList     `db:"ELIGIBLE_ROLE_IDS"`
	RetakeCooldownHours  int            `db:"RETAKE_COOLDOWN_HOURS"`
	CreatedAt            time.Time      `db:"CREATED_AT"`
	UpdatedAt            time.Time      `db:"UPDATED_AT"`
}

// Question maps the questions table.
type Question struct {
	ID                string         `db:"ID"`
	BankID            string         `db:"BANK_ID"`
	RestaurantID      string         `db:"RESTAURANT_ID"`
	QuestionText      string         `db:"QUESTION_TEXT"`
	QuestionType      string         `db:"QUESTION_TYPE"`
	Options           OptionList     `db:"OPTIONS"`
	Categories        StringList     `db:"CATEGORIES"`
	KnowledgeCategory sql.NullString `db:"KNOWLEDGE_CATEGORY"`
	Authorship        string         `db:"AUTHORSHIP"`
	ReviewStatus      string         `db:"REVIEW_STATUS"`
	CreatedAt         time.Time      `db:"CREATED_AT"`
	UpdatedAt         time.Time      `db:"UPDATED_AT"`
}
