package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"staff-quiz/internal/cache"
	"staff-quiz/internal/domain"
	"staff-quiz/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// QuestionSource resolves the pool of active question ids a quiz draws from.
type QuestionSource interface {
	ActiveQuestionIDs(ctx context.Context, quiz *domain.Quiz) ([]string, error)
	// Count is the stable pool size used when a quiz is re-snapshotted.
	Count(ctx context.Context, quiz *domain.Quiz) (int, error)
	Invalidate(ctx context.Context, quizID string) error
}

// cachedQuestionSource reads pools from the question repository and keeps
// them in the cache for a short TTL. Concurrent misses for the same quiz
// share one load.
type cachedQuestionSource struct {
	questions domain.QuestionRepository
	cache     domain.Cache
	ttl       time.Duration
	sf        singleflight.Group
}

// NewQuestionSource creates a QuestionSource. A nil cache disables caching.
func NewQuestionSource(questions domain.QuestionRepository, c domain.Cache, ttl time.Duration) QuestionSource {
	return &cachedQuestionSource{questions: questions, cache: c, ttl: ttl}
}

func (s *cachedQuestionSource) ActiveQuestionIDs(ctx context.Context, quiz *domain.Quiz) ([]string, error) {
	key := cache.PoolKey(quiz.ID)
	if ids, ok := s.fromCache(ctx, key); ok {
		return ids, nil
	}

	// The load is shared, so it must not die with the first caller's request.
	loadCtx := context.WithoutCancel(ctx)
	ch := s.sf.DoChan(quiz.ID, func() (interface{}, error) {
		if ids, ok := s.fromCache(loadCtx, key); ok {
			return ids, nil
		}
		ids, err := s.questions.ListActiveIDsByBanks(loadCtx, quiz.RestaurantID, quiz.SourceBankIDs)
		if err != nil {
			return nil, err
		}
		s.store(loadCtx, key, ids)
		return ids, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	ids := res.Val.([]string)
	out := make([]string, len(ids))
	copy(out, ids)
	return out, nil
}

func (s *cachedQuestionSource) Count(ctx context.Context, quiz *domain.Quiz) (int, error) {
	ids, err := s.ActiveQuestionIDs(ctx, quiz)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (s *cachedQuestionSource) Invalidate(ctx context.Context, quizID string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, cache.PoolKey(quizID))
}

func (s *cachedQuestionSource) fromCache(ctx context.Context, key string) ([]string, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			logger.Get().Warn("Question pool cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		logger.Get().Warn("Discarding corrupt question pool cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return ids, true
}

func (s *cachedQuestionSource) store(ctx context.Context, key string, ids []string) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(data), s.ttl); err != nil {
		logger.Get().Warn("Question pool cache write failed", zap.String("key", key), zap.Error(err))
	}
}
