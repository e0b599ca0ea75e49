package quizgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"staff-quiz/internal/domain"
	"staff-quiz/internal/logger"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

// LLMCaller is the subset of a langchaingo model used for generation.
// *ollama.LLM satisfies it.
type LLMCaller interface {
	Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error)
}

// OllamaQuestionGenerator implements domain.QuestionGenerator on a local LLM.
type OllamaQuestionGenerator struct {
	llm     LLMCaller
	timeout time.Duration
}

func NewOllamaQuestionGenerator(llm LLMCaller, timeout time.Duration) (*OllamaQuestionGenerator, error) {
	if llm == nil {
		return nil, errors.New("llm client cannot be nil")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OllamaQuestionGenerator{llm: llm, timeout: timeout}, nil
}

const generationPrompt = `You write training questions for restaurant staff.
Create %d unique questions about "%s" (knowledge area: %s).

Do not repeat or paraphrase any of these existing questions:
%s

Respond with ONLY a JSON array. Each element must look like:
{
  "question": "Which grape is Chablis made from?",
  "type": "single_choice",
  "options": [{"text": "Chardonnay", "is_correct": true}, {"text": "Pinot Noir", "is_correct": false}],
  "categories": ["wine"],
  "knowledge_category": "wine"
}

Rules:
1. "type" is one of single_choice, multiple_choice, true_false
2. single_choice has exactly one correct option, multiple_choice at least one
3. true_false has exactly two options, "True" and "False", one of them correct
4. Use at most 6 options
5. "categories" has at least one entry`

// GenerateQuestionCandidates asks the model for candidates and returns the
// ones that parse. Candidates still go through domain validation before
// they are stored.
func (g *OllamaQuestionGenerator) GenerateQuestionCandidates(ctx context.Context, req domain.GenerationRequest) ([]domain.QuestionCandidate, error) {
	l := logger.Get()
	if req.Count <= 0 {
		return []domain.QuestionCandidate{}, nil
	}

	existing := "(none)"
	if len(req.ExistingTexts) > 0 {
		existing = "- " + strings.Join(req.ExistingTexts, "\n- ")
	}
	area := string(req.KnowledgeCategory)
	if area == "" {
		area = "general"
	}
	prompt := fmt.Sprintf(generationPrompt, req.Count, req.Topic, area, existing)

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := g.llm.Call(callCtx, prompt, llms.WithTemperature(0.7))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			l.Error("LLM request timed out", zap.Error(err))
			return nil, fmt.Errorf("LLM request timed out: %w", err)
		}
		return nil, fmt.Errorf("LLM call failed: %w", err)
	}
	l.Debug("Raw LLM response received", zap.String("raw_response", raw))

	candidates, err := parseCandidates(raw)
	if err != nil {
		l.Error("Failed to parse LLM question candidates", zap.Error(err), zap.String("raw_response", raw))
		return nil, err
	}
	if len(candidates) > req.Count {
		candidates = candidates[:req.Count]
	}
	l.Info("Parsed question candidates", zap.Int("count", len(candidates)), zap.String("topic", req.Topic))
	return candidates, nil
}

// parseCandidates strips reasoning blocks and decodes the outermost JSON array.
func parseCandidates(raw string) ([]domain.QuestionCandidate, error) {
	cleaned := strings.TrimSpace(raw)
	if start := strings.Index(cleaned, "<think>"); start != -1 {
		if end := strings.Index(cleaned, "</think>"); end > start {
			cleaned = strings.TrimSpace(cleaned[:start] + cleaned[end+len("</think>"):])
		}
	}

	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON array found in LLM response")
	}

	var candidates []domain.QuestionCandidate
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &candidates); err != nil {
		return nil, fmt.Errorf("failed to unmarshal LLM response: %w", err)
	}

	out := candidates[:0]
	for _, c := range candidates {
		if strings.TrimSpace(c.Text) == "" || len(c.Options) == 0 {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

var _ domain.QuestionGenerator = (*OllamaQuestionGenerator)(nil)
