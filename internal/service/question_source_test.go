package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"staff-quiz/internal/cache"
	"staff-quiz/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestQuestionSource_CachesPool(t *testing.T) {
	repo := new(MockQuestionRepository)
	c := newMemCache()
	source := NewQuestionSource(repo, c, time.Minute)
	quiz := newTestQuiz(3, 2, 0)
	ctx := context.Background()

	repo.On("ListActiveIDsByBanks", mock.Anything, testRestaurant, []string{testBank}).
		Return([]string{"q1", "q2", "q3"}, nil).Once()

	ids, err := source.ActiveQuestionIDs(ctx, quiz)
	require.NoError(t, err)
	assert.Equal(t, []string{"q1", "q2", "q3"}, ids)

	ids[0] = "mutated"
	again, err := source.ActiveQuestionIDs(ctx, quiz)
	require.NoError(t, err)
	assert.Equal(t, []string{"q1", "q2", "q3"}, again)

	n, err := source.Count(ctx, quiz)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	cached, err := c.Get(ctx, cache.PoolKey(testQuiz))
	require.NoError(t, err)
	assert.JSONEq(t, `["q1","q2","q3"]`, cached)
	repo.AssertExpectations(t)
}

func TestQuestionSource_InvalidateReloads(t *testing.T) {
	repo := new(MockQuestionRepository)
	source := NewQuestionSource(repo, newMemCache(), time.Minute)
	quiz := newTestQuiz(3, 2, 0)
	ctx := context.Background()

	repo.On("ListActiveIDsByBanks", mock.Anything, testRestaurant, []string{testBank}).
		Return([]string{"q1"}, nil).Once()
	repo.On("ListActiveIDsByBanks", mock.Anything, testRestaurant, []string{testBank}).
		Return([]string{"q1", "q2"}, nil).Once()

	n, err := source.Count(ctx, quiz)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, source.Invalidate(ctx, testQuiz))
	n, err = source.Count(ctx, quiz)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	repo.AssertExpectations(t)
}

func TestQuestionSource_CacheFailuresFallBackToRepository(t *testing.T) {
	repo := new(MockQuestionRepository)
	c := new(MockCache)
	source := NewQuestionSource(repo, c, time.Minute)
	quiz := newTestQuiz(3, 2, 0)
	key := cache.PoolKey(testQuiz)

	c.On("Get", mock.Anything, key).Return("{not json", nil)
	c.On("Set", mock.Anything, key, `["q9"]`, time.Minute).Return(errors.New("redis: connection refused"))
	repo.On("ListActiveIDsByBanks", mock.Anything, testRestaurant, []string{testBank}).Return([]string{"q9"}, nil)

	ids, err := source.ActiveQuestionIDs(context.Background(), quiz)
	require.NoError(t, err)
	assert.Equal(t, []string{"q9"}, ids)
	c.AssertExpectations(t)
}

func TestQuestionSource_RepositoryError(t *testing.T) {
	repo := new(MockQuestionRepository)
	source := NewQuestionSource(repo, nil, 0)
	repo.On("ListActiveIDsByBanks", mock.Anything, testRestaurant, []string{testBank}).
		Return(nil, errors.New("ORA-12541: TNS:no listener"))

	_, err := source.ActiveQuestionIDs(context.Background(), newTestQuiz(3, 2, 0))
	assert.Error(t, err)
	assert.NoError(t, source.Invalidate(context.Background(), testQuiz))
}

func TestQuestionSource_OnlyActiveQuestions(t *testing.T) {
	pending := singleChoice("q-pending", testBank)
	pending.ReviewStatus = domain.ReviewPending
	other := singleChoice("q-other", "bank-2")
	repo := newMemQuestionRepo(singleChoice("q1", testBank), pending, other)

	ids, err := NewQuestionSource(repo, nil, 0).ActiveQuestionIDs(context.Background(), newTestQuiz(1, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"q1"}, ids)
}

// gatedQuestionRepo blocks pool loads until released and fails them when the
// load context is cancelled, the way the Oracle driver does.
type gatedQuestionRepo struct {
	*memQuestionRepo
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (r *gatedQuestionRepo) ListActiveIDsByBanks(ctx context.Context, restaurantID string, bankIDs []string) ([]string, error) {
	r.once.Do(func() { close(r.started) })
	<-r.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.memQuestionRepo.ListActiveIDsByBanks(ctx, restaurantID, bankIDs)
}

func TestQuestionSource_SharedLoadSurvivesCancelledCaller(t *testing.T) {
	repo := &gatedQuestionRepo{
		memQuestionRepo: newMemQuestionRepo(singleChoice("q1", testBank), singleChoice("q2", testBank)),
		started:         make(chan struct{}),
		release:         make(chan struct{}),
	}
	source := NewQuestionSource(repo, newMemCache(), time.Minute)
	quiz := newTestQuiz(2, 1, 0)

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := source.ActiveQuestionIDs(firstCtx, quiz)
		firstErr <- err
	}()
	<-repo.started

	type result struct {
		ids []string
		err error
	}
	second := make(chan result, 1)
	go func() {
		ids, err := source.ActiveQuestionIDs(context.Background(), quiz)
		second <- result{ids, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(repo.release)
	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, []string{"q1", "q2"}, got.ids)
}
