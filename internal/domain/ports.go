package domain

import (
	"context"
	"time"
)

// Clock abstracts time so cooldown checks are deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RandomSource drives question selection. Implementations must be safe for
// concurrent use.
type RandomSource interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// TrainingNotifier fans out recorded attempts to other training collaborators.
type TrainingNotifier interface {
	NotifyAttemptRecorded(ctx context.Context, event AttemptRecordedEvent) error
}

// QuestionCandidate is a raw question proposal from a generator. Candidates are
// validated through NewQuestion before they are stored.
type QuestionCandidate struct {
	Text              string   `json:"question"`
	Type              string   `json:"type"`
	Options           []Option `json:"options"`
	Categories        []string `json:"categories"`
	KnowledgeCategory string   `json:"knowledge_category"`
}

// GenerationRequest describes what a generator should produce.
type GenerationRequest struct {
	Topic             string
	KnowledgeCategory KnowledgeCategory
	Count             int
	ExistingTexts     []string
}

// QuestionGenerator emits question candidates for a bank.
type QuestionGenerator interface {
	GenerateQuestionCandidates(ctx context.Context, req GenerationRequest) ([]QuestionCandidate, error)
}
