package service

import (
	"context"
	"strings"

	"staff-quiz/internal/domain"
	"staff-quiz/internal/logger"
	"staff-quiz/internal/util"

	"go.uber.org/zap"
)

// GenerateBankRequest asks for generated questions in one bank.
type GenerateBankRequest struct {
	RestaurantID      string
	BankID            string
	Topic             string
	KnowledgeCategory domain.KnowledgeCategory
	Count             int
}

// GenerateBankResult reports what a generation run stored.
type GenerateBankResult struct {
	Requested  int
	Generated  int
	Saved      []string
	Duplicates int
	Rejected   int
}

// QuestionBatchService fills question banks with generated questions and
// moves reviewed ones into the active pool.
type QuestionBatchService interface {
	GenerateForBank(ctx context.Context, req GenerateBankRequest) (*GenerateBankResult, error)
	// ImportQuestions stores authored questions. Topic and Count are ignored.
	ImportQuestions(ctx context.Context, req GenerateBankRequest, candidates []domain.QuestionCandidate) (*GenerateBankResult, error)
	ApproveQuestion(ctx context.Context, questionID, restaurantID string) error
}

type questionBatchService struct {
	questions    domain.QuestionRepository
	generator    domain.QuestionGenerator
	clock        domain.Clock
	defaultCount int
}

func NewQuestionBatchService(questions domain.QuestionRepository, generator domain.QuestionGenerator, clock domain.Clock, defaultCount int) QuestionBatchService {
	if defaultCount <= 0 {
		defaultCount = 5
	}
	return &questionBatchService{questions: questions, generator: generator, clock: clock, defaultCount: defaultCount}
}

func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// GenerateForBank stores every valid, non-duplicate candidate as a pending
// generated question. Pending questions stay out of quiz pools until approved.
func (s *questionBatchService) GenerateForBank(ctx context.Context, req GenerateBankRequest) (*GenerateBankResult, error) {
	if req.BankID == "" || req.RestaurantID == "" {
		return nil, domain.NewValidationError("bank id and restaurant id are required")
	}
	if req.Count <= 0 {
		req.Count = s.defaultCount
	}
	log := logger.Get().With(zap.String("bank_id", req.BankID), zap.String("restaurant_id", req.RestaurantID))
	log.Info("Starting question generation", zap.Int("count", req.Count))

	existing, known, err := s.knownTexts(ctx, log, req.BankID)
	if err != nil {
		return nil, err
	}

	topic := req.Topic
	if topic == "" {
		topic = req.BankID
	}
	candidates, err := s.generator.GenerateQuestionCandidates(ctx, domain.GenerationRequest{
		Topic:             topic,
		KnowledgeCategory: req.KnowledgeCategory,
		Count:             req.Count,
		ExistingTexts:     existing,
	})
	if err != nil {
		log.Error("Failed to generate question candidates", zap.Error(err))
		return nil, domain.NewInternalError("failed to generate question candidates", err)
	}

	result := &GenerateBankResult{Requested: req.Count}
	s.saveCandidates(ctx, log, req, candidates, known, domain.AuthorshipGenerated, result)

	log.Info("Question generation finished",
		zap.Int("generated", result.Generated),
		zap.Int("saved", len(result.Saved)),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("rejected", result.Rejected))
	return result, nil
}

// ImportQuestions stores authored questions directly in the active pool.
// Questions whose text already exists in the bank are skipped.
func (s *questionBatchService) ImportQuestions(ctx context.Context, req GenerateBankRequest, candidates []domain.QuestionCandidate) (*GenerateBankResult, error) {
	if req.BankID == "" || req.RestaurantID == "" {
		return nil, domain.NewValidationError("bank id and restaurant id are required")
	}
	log := logger.Get().With(zap.String("bank_id", req.BankID), zap.String("restaurant_id", req.RestaurantID))

	_, known, err := s.knownTexts(ctx, log, req.BankID)
	if err != nil {
		return nil, err
	}
	result := &GenerateBankResult{Requested: len(candidates)}
	s.saveCandidates(ctx, log, req, candidates, known, domain.AuthorshipHuman, result)

	log.Info("Question import finished",
		zap.Int("saved", len(result.Saved)),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("rejected", result.Rejected))
	return result, nil
}

func (s *questionBatchService) knownTexts(ctx context.Context, log *zap.Logger, bankID string) ([]string, map[string]struct{}, error) {
	existing, err := s.questions.ListTextsByBank(ctx, bankID)
	if err != nil {
		log.Error("Failed to fetch existing questions", zap.Error(err))
		return nil, nil, domain.NewInternalError("failed to fetch existing questions", err)
	}
	known := make(map[string]struct{}, len(existing))
	for _, text := range existing {
		known[normalizeText(text)] = struct{}{}
	}
	return existing, known, nil
}

// saveCandidates validates and stores candidates, updating result and known
// as it goes. Generated questions wait for review; authored ones are active.
func (s *questionBatchService) saveCandidates(ctx context.Context, log *zap.Logger, req GenerateBankRequest, candidates []domain.QuestionCandidate, known map[string]struct{}, authorship domain.Authorship, result *GenerateBankResult) {
	result.Generated = len(candidates)
	result.Saved = []string{}
	for _, c := range candidates {
		key := normalizeText(c.Text)
		if _, dup := known[key]; dup {
			result.Duplicates++
			log.Info("Skipped duplicate candidate", zap.String("question", c.Text))
			continue
		}

		q, err := s.buildQuestion(req, c, authorship)
		if err != nil {
			result.Rejected++
			log.Warn("Rejected invalid candidate", zap.String("question", c.Text), zap.Error(err))
			continue
		}
		if err := s.questions.Create(ctx, q); err != nil {
			log.Error("Failed to save question", zap.String("question", q.Text), zap.Error(err))
			continue
		}
		known[key] = struct{}{}
		result.Saved = append(result.Saved, q.ID)
	}
}

func (s *questionBatchService) buildQuestion(req GenerateBankRequest, c domain.QuestionCandidate, authorship domain.Authorship) (*domain.Question, error) {
	qType, err := domain.ParseQuestionType(c.Type)
	if err != nil {
		return nil, err
	}
	categories := c.Categories
	if len(categories) == 0 {
		fallback := req.Topic
		if fallback == "" {
			fallback = req.BankID
		}
		categories = []string{fallback}
	}
	q, err := domain.NewQuestion(util.NewULID(), req.BankID, req.RestaurantID, c.Text, qType, c.Options, categories)
	if err != nil {
		return nil, err
	}
	q.KnowledgeCategory = req.KnowledgeCategory
	if c.KnowledgeCategory != "" {
		q.KnowledgeCategory = domain.KnowledgeCategory(strings.ToLower(c.KnowledgeCategory))
	}
	q.Authorship = authorship
	if authorship == domain.AuthorshipGenerated {
		q.ReviewStatus = domain.ReviewPending
	}
	now := s.clock.Now()
	q.CreatedAt, q.UpdatedAt = now, now
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

// ApproveQuestion activates a reviewed question. Quiz pools pick it up once
// their cached entry expires.
func (s *questionBatchService) ApproveQuestion(ctx context.Context, questionID, restaurantID string) error {
	found, err := s.questions.GetByIDs(ctx, []string{questionID})
	if err != nil {
		logger.Get().Error("Failed to load question", zap.String("question_id", questionID), zap.Error(err))
		return domain.NewInternalError("failed to load question", err)
	}
	if len(found) == 0 || found[0].RestaurantID != restaurantID {
		return domain.NewNotFoundError("question not found")
	}
	if found[0].ReviewStatus == domain.ReviewActive {
		return nil
	}
	if err := s.questions.UpdateReviewStatus(ctx, questionID, domain.ReviewActive, s.clock.Now()); err != nil {
		if domain.HasCode(err, domain.CodeNotFound) {
			return err
		}
		logger.Get().Error("Failed to approve question", zap.String("question_id", questionID), zap.Error(err))
		return domain.NewInternalError("failed to approve question", err)
	}
	logger.Get().Info("Question approved", zap.String("question_id", questionID))
	return nil
}
