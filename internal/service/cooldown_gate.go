package service

import (
	"context"
	"time"

	"staff-quiz/internal/domain"
)

// CooldownGate decides whether a staff member may attempt a quiz again.
type CooldownGate interface {
	CanAttempt(ctx context.Context, staffID string, quiz *domain.Quiz, at time.Time) (domain.CooldownDecision, error)
}

type cooldownGate struct {
	attempts domain.AttemptRepository
}

func NewCooldownGate(attempts domain.AttemptRepository) CooldownGate {
	return &cooldownGate{attempts: attempts}
}

// CanAttempt evaluates the cooldown at time at. Callers pass the submission
// time when re-checking during submit.
func (g *cooldownGate) CanAttempt(ctx context.Context, staffID string, quiz *domain.Quiz, at time.Time) (domain.CooldownDecision, error) {
	if quiz.RetakeCooldownHours <= 0 {
		return domain.CooldownDecision{Allowed: true}, nil
	}
	last, err := g.attempts.LastAttemptAt(ctx, staffID, quiz.ID)
	if err != nil {
		return domain.CooldownDecision{}, err
	}
	return domain.EvaluateCooldown(last, quiz.RetakeCooldownHours, at), nil
}
