package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// MaxOptions bounds the number of options on a choice question.
const MaxOptions = 6

// QuestionType is the closed set of supported question kinds.
type QuestionType string

const (
	QuestionTypeSingleChoice   QuestionType = "single_choice"
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeTrueFalse      QuestionType = "true_false"
)

// ParseQuestionType rejects anything outside the closed set.
func ParseQuestionType(s string) (QuestionType, error) {
	switch t := QuestionType(strings.ToLower(strings.TrimSpace(s))); t {
	case QuestionTypeSingleChoice, QuestionTypeMultipleChoice, QuestionTypeTrueFalse:
		return t, nil
	default:
		return "", NewValidationError(fmt.Sprintf("unsupported question type: %q", s))
	}
}

type KnowledgeCategory string

const (
	KnowledgeFood       KnowledgeCategory = "food"
	KnowledgeBeverage   KnowledgeCategory = "beverage"
	KnowledgeWine       KnowledgeCategory = "wine"
	KnowledgeProcedures KnowledgeCategory = "procedures"
)

func (k KnowledgeCategory) valid() bool {
	switch k {
	case "", KnowledgeFood, KnowledgeBeverage, KnowledgeWine, KnowledgeProcedures:
		return true
	}
	return false
}

type Authorship string

const (
	AuthorshipHuman     Authorship = "human"
	AuthorshipGenerated Authorship = "generated"
)

type ReviewStatus string

const (
	ReviewPending ReviewStatus = "pending"
	ReviewActive  ReviewStatus = "active"
)

// Option is one answer choice. Options are identified by their index.
type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// Question belongs to exactly one bank. Only active questions enter quiz pools.
type Question struct {
	ID                string
	BankID            string
	RestaurantID      string
	Text              string
	Type              QuestionType
	Options           []Option
	Categories        []string
	KnowledgeCategory KnowledgeCategory
	Authorship        Authorship
	ReviewStatus      ReviewStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewQuestion builds a question and enforces the per-type option rules.
func NewQuestion(id, bankID, restaurantID, text string, qType QuestionType, options []Option, categories []string) (*Question, error) {
	q := &Question{
		ID:           id,
		BankID:       bankID,
		RestaurantID: restaurantID,
		Text:         strings.TrimSpace(text),
		Type:         qType,
		Options:      options,
		Categories:   categories,
		Authorship:   AuthorshipHuman,
		ReviewStatus: ReviewActive,
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

func (q *Question) Validate() error {
	if q.Text == "" {
		return NewValidationError("question text is required")
	}
	if q.BankID == "" {
		return NewValidationError("question bank id is required")
	}
	if len(q.Categories) == 0 {
		return NewValidationError("at least one category is required")
	}
	if !q.KnowledgeCategory.valid() {
		return NewValidationError(fmt.Sprintf("unsupported knowledge category: %q", q.KnowledgeCategory))
	}
	for i, opt := range q.Options {
		if strings.TrimSpace(opt.Text) == "" {
			return NewValidationError(fmt.Sprintf("option %d has no text", i))
		}
	}

	correct := len(q.CorrectOptions())
	switch q.Type {
	case QuestionTypeTrueFalse:
		if len(q.Options) != 2 {
			return NewValidationError("true/false questions need exactly 2 options")
		}
		if correct != 1 {
			return NewValidationError("true/false questions need exactly 1 correct option")
		}
	case QuestionTypeSingleChoice:
		if len(q.Options) < 2 || len(q.Options) > MaxOptions {
			return NewValidationError(fmt.Sprintf("single choice questions need 2 to %d options", MaxOptions))
		}
		if correct != 1 {
			return NewValidationError("single choice questions need exactly 1 correct option")
		}
	case QuestionTypeMultipleChoice:
		if len(q.Options) < 2 || len(q.Options) > MaxOptions {
			return NewValidationError(fmt.Sprintf("multiple choice questions need 2 to %d options", MaxOptions))
		}
		if correct < 1 {
			return NewValidationError("multiple choice questions need at least 1 correct option")
		}
	default:
		return NewValidationError(fmt.Sprintf("unsupported question type: %q", q.Type))
	}
	return nil
}

// CorrectOptions returns the indexes of the correct options in ascending order.
func (q *Question) CorrectOptions() []int {
	var idx []int
	for i, opt := range q.Options {
		if opt.IsCorrect {
			idx = append(idx, i)
		}
	}
	return idx
}

// IsAnsweredBy grades a selection. Multiple choice requires the exact set of
// correct options; there is no partial credit.
func (q *Question) IsAnsweredBy(selected []int) bool {
	want := q.CorrectOptions()
	got := normalizeSelection(selected)
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if want[i] != got[i] {
			return false
		}
	}
	return true
}

// OptionInRange reports whether every selected index points at an option.
func (q *Question) OptionInRange(selected []int) bool {
	for _, i := range selected {
		if i < 0 || i >= len(q.Options) {
			return false
		}
	}
	return true
}

func normalizeSelection(selected []int) []int {
	seen := make(map[int]struct{}, len(selected))
	out := make([]int, 0, len(selected))
	for _, i := range selected {
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
