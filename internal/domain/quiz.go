package domain

import (
	"strings"
	"time"
)

// DeletedQuizTitle labels attempts whose quiz no longer resolves.
const DeletedQuizTitle = "Deleted quiz"

// MaxIDLength is the widest identifier the schema stores. Staff and
// restaurant ids come from an external directory and may be longer than a ULID.
const MaxIDLength = 64

// Quiz is an assignable training quiz drawing questions from one or more banks.
type Quiz struct {
	ID                   string
	RestaurantID         string
	Title                string
	Description          string
	SourceBankIDs        []string
	TotalUniqueQuestions int // snapshot of the pool size, refreshed only by an explicit re-snapshot
	QuestionsPerAttempt  int
	Available            bool
	EligibleRoleIDs      []string // empty means every role
	RetakeCooldownHours  int      // 0 allows unlimited retakes
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Validate checks the invariants a quiz must hold before it is stored.
func (q *Quiz) Validate() error {
	if strings.TrimSpace(q.Title) == "" {
		return NewValidationError("title is required")
	}
	if q.RestaurantID == "" {
		return NewValidationError("restaurant id is required")
	}
	if len(q.SourceBankIDs) == 0 {
		return NewValidationError("at least one source question bank is required")
	}
	if q.QuestionsPerAttempt <= 0 {
		return NewValidationError("questions per attempt must be positive")
	}
	if q.RetakeCooldownHours < 0 {
		return NewValidationError("retake cooldown cannot be negative")
	}
	if q.TotalUniqueQuestions < 0 {
		return NewValidationError("total unique questions cannot be negative")
	}
	return nil
}

// BelongsTo reports whether the quiz is owned by restaurantID.
func (q *Quiz) BelongsTo(restaurantID string) bool {
	return q != nil && q.RestaurantID == restaurantID
}

// IsAssignableTo reports whether staff holding roleID may take the quiz.
func (q *Quiz) IsAssignableTo(roleID string) bool {
	if len(q.EligibleRoleIDs) == 0 {
		return true
	}
	for _, id := range q.EligibleRoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

// CooldownDecision is the outcome of a retake eligibility check.
type CooldownDecision struct {
	Allowed        bool
	LastAttemptAt  *time.Time
	NextEligibleAt *time.Time
}

// EvaluateCooldown decides whether an attempt at time at is allowed given the
// previous attempt time and a cooldown in hours.
func EvaluateCooldown(lastAttemptAt *time.Time, cooldownHours int, at time.Time) CooldownDecision {
	if lastAttemptAt == nil || cooldownHours <= 0 {
		return CooldownDecision{Allowed: true, LastAttemptAt: lastAttemptAt}
	}
	next := lastAttemptAt.Add(time.Duration(cooldownHours) * time.Hour)
	return CooldownDecision{
		Allowed:        !at.Before(next),
		LastAttemptAt:  lastAttemptAt,
		NextEligibleAt: &next,
	}
}
