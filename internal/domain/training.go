package domain

import (
	"math"
	"time"
)

// StaffMember is read-only data owned by the staff directory.
type StaffMember struct {
	ID           string
	RestaurantID string
	Name         string
	RoleID       string
	CreatedAt    time.Time
}

// StaffQuizProgress tracks which questions of a quiz a staff member has been shown.
type StaffQuizProgress struct {
	ID                   string
	StaffID              string
	QuizID               string
	RestaurantID         string
	SeenQuestionIDs      []string
	TotalUniqueQuestions int // snapshot taken when the record was created
	CompletedOverall     bool
	LastAttemptAt        *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// NewStaffQuizProgress starts an empty record using the quiz's current snapshot.
func NewStaffQuizProgress(id, staffID string, quiz *Quiz, at time.Time) *StaffQuizProgress {
	return &StaffQuizProgress{
		ID:                   id,
		StaffID:              staffID,
		QuizID:               quiz.ID,
		RestaurantID:         quiz.RestaurantID,
		TotalUniqueQuestions: quiz.TotalUniqueQuestions,
		CreatedAt:            at,
		UpdatedAt:            at,
	}
}

// SeenSet returns the seen ids as a set.
func (p *StaffQuizProgress) SeenSet() map[string]struct{} {
	set := make(map[string]struct{}, len(p.SeenQuestionIDs))
	for _, id := range p.SeenQuestionIDs {
		set[id] = struct{}{}
	}
	return set
}

// MarkSeen unions ids into the seen set and refreshes completion. Applying the
// same ids twice leaves the record unchanged apart from LastAttemptAt.
func (p *StaffQuizProgress) MarkSeen(ids []string, at time.Time) {
	set := p.SeenSet()
	for _, id := range ids {
		if _, ok := set[id]; ok {
			continue
		}
		set[id] = struct{}{}
		p.SeenQuestionIDs = append(p.SeenQuestionIDs, id)
	}
	p.CompletedOverall = len(p.SeenQuestionIDs) >= p.Denominator()
	t := at
	p.LastAttemptAt = &t
	p.UpdatedAt = at
}

// Denominator is the coverage base. It never drops below the seen count so
// coverage stays within 0..100 when the pool grew after the snapshot.
func (p *StaffQuizProgress) Denominator() int {
	if len(p.SeenQuestionIDs) > p.TotalUniqueQuestions {
		return len(p.SeenQuestionIDs)
	}
	return p.TotalUniqueQuestions
}

// CoveragePercentage is |seen| / total * 100, unrounded.
func (p *StaffQuizProgress) CoveragePercentage() float64 {
	total := p.Denominator()
	if total == 0 {
		return 0
	}
	return math.Min(100, float64(len(p.SeenQuestionIDs))/float64(total)*100)
}

// Answer is the staff member's selection for one presented question.
type Answer struct {
	QuestionID      string `json:"question_id"`
	SelectedOptions []int  `json:"selected_options"`
}

// QuizAttempt is an immutable graded submission.
type QuizAttempt struct {
	ID           string
	StaffID      string
	QuizID       string
	RestaurantID string
	QuestionIDs  []string // as presented, in order
	Answers      []Answer
	Score        int
	AttemptedAt  time.Time
}

// TotalQuestions is the number of questions presented in the attempt.
func (a *QuizAttempt) TotalQuestions() int {
	return len(a.QuestionIDs)
}

// Percentage normalizes the score against the presented count.
func (a *QuizAttempt) Percentage() float64 {
	if len(a.QuestionIDs) == 0 {
		return 0
	}
	return float64(a.Score) / float64(len(a.QuestionIDs)) * 100
}

// AttemptSession pins the questions presented when an attempt starts so the
// submission is graded against exactly that list.
type AttemptSession struct {
	ID           string    `json:"id"`
	StaffID      string    `json:"staff_id"`
	QuizID       string    `json:"quiz_id"`
	RestaurantID string    `json:"restaurant_id"`
	QuestionIDs  []string  `json:"question_ids"`
	StartedAt    time.Time `json:"started_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// SeenUpdate is the storage-level union applied when an attempt is recorded.
type SeenUpdate struct {
	ProgressID           string
	StaffID              string
	QuizID               string
	RestaurantID         string
	TotalUniqueQuestions int
	QuestionIDs          []string
	At                   time.Time
}

// AttemptRecordedEvent is published to collaborators after a submission commits.
type AttemptRecordedEvent struct {
	AttemptID        string    `json:"attempt_id"`
	StaffID          string    `json:"staff_id"`
	QuizID           string    `json:"quiz_id"`
	RestaurantID     string    `json:"restaurant_id"`
	Score            int       `json:"score"`
	TotalQuestions   int       `json:"total_questions"`
	CompletedOverall bool      `json:"completed_overall"`
	BecameCompleted  bool      `json:"became_completed"`
	AttemptedAt      time.Time `json:"attempted_at"`
}
