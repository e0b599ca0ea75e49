package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"staff-quiz/internal/cache"
	"staff-quiz/internal/domain"

	"github.com/redis/go-redis/v9"
)

// RedisSessionStore keeps started attempts in Redis. Each session is stored
// under its own key plus an index key per staff member and quiz so a restart
// returns the attempt already in progress.
type RedisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) domain.AttemptSessionStore {
	return &RedisSessionStore{client: client}
}

func (s *RedisSessionStore) Save(ctx context.Context, session *domain.AttemptSession, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal attempt session: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, cache.SessionKey(session.ID), data, ttl)
		pipe.Set(ctx, cache.OpenSessionKey(session.StaffID, session.QuizID), session.ID, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save attempt session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) (*domain.AttemptSession, error) {
	raw, err := s.client.Get(ctx, cache.SessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attempt session: %w", err)
	}
	var session domain.AttemptSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attempt session: %w", err)
	}
	return &session, nil
}

func (s *RedisSessionStore) FindOpen(ctx context.Context, staffID, quizID string) (*domain.AttemptSession, error) {
	sessionID, err := s.client.Get(ctx, cache.OpenSessionKey(staffID, quizID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find open attempt session: %w", err)
	}
	return s.Get(ctx, sessionID)
}

// Delete removes the session. The index key is only removed while it still
// points at this session.
func (s *RedisSessionStore) Delete(ctx context.Context, session *domain.AttemptSession) error {
	openKey := cache.OpenSessionKey(session.StaffID, session.QuizID)
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, openKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, cache.SessionKey(session.ID))
			if current == session.ID {
				pipe.Del(ctx, openKey)
			}
			return nil
		})
		return err
	}, openKey)
	if err != nil {
		return fmt.Errorf("failed to delete attempt session: %w", err)
	}
	return nil
}
