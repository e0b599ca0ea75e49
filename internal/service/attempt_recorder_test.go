package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"staff-quiz/internal/cache"
	"staff-quiz/internal/config"
	"staff-quiz/internal/domain"
	"staff-quiz/internal/dto"
	"staff-quiz/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testRestaurant = "rest-1"
	testStaff      = "staff-1"
	testQuiz       = "quiz-1"
	testBank       = "bank-1"
)

type testEnv struct {
	clock     *fakeClock
	quizzes   *memQuizRepo
	questions *memQuestionRepo
	staff     *memStaffRepo
	progress  *memProgressRepo
	attempts  *memAttemptRepo
	sessions  *memSessionStore
	cache     *memCache
	notifier  *recordingNotifier
	tx        *serialTx
	tokens    TokenService
	source    QuestionSource
	tracker   ProgressTracker
	recorder  AttemptRecorder
	scores    ScoreAggregator
}

func singleChoice(id, bank string) *domain.Question {
	return &domain.Question{
		ID:           id,
		BankID:       bank,
		RestaurantID: testRestaurant,
		Text:         "Question " + id,
		Type:         domain.QuestionTypeSingleChoice,
		Options:      []domain.Option{{Text: "right", IsCorrect: true}, {Text: "wrong"}, {Text: "also wrong"}},
		Categories:   []string{"menu"},
		Authorship:   domain.AuthorshipHuman,
		ReviewStatus: domain.ReviewActive,
	}
}

func newTestQuiz(total, perAttempt, cooldownHours int) *domain.Quiz {
	return &domain.Quiz{
		ID:                   testQuiz,
		RestaurantID:         testRestaurant,
		Title:                "Wine basics",
		SourceBankIDs:        []string{testBank},
		TotalUniqueQuestions: total,
		QuestionsPerAttempt:  perAttempt,
		Available:            true,
		RetakeCooldownHours:  cooldownHours,
	}
}

func newTestEnv(t *testing.T, quiz *domain.Quiz, poolSize int) *testEnv {
	t.Helper()
	env := &testEnv{
		clock:     newFakeClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)),
		quizzes:   newMemQuizRepo(quiz),
		questions: newMemQuestionRepo(),
		staff: newMemStaffRepo(
			&domain.StaffMember{ID: testStaff, RestaurantID: testRestaurant, Name: "Ana", RoleID: "server"},
			&domain.StaffMember{ID: "staff-2", RestaurantID: testRestaurant, Name: "Bo", RoleID: "bartender"},
		),
		progress: newMemProgressRepo(),
		attempts: &memAttemptRepo{},
		sessions: newMemSessionStore(),
		cache:    newMemCache(),
		notifier: &recordingNotifier{},
		tx:       &serialTx{},
	}
	env.tx.participants = []txParticipant{env.attempts, env.progress}
	for i := 1; i <= poolSize; i++ {
		require.NoError(t, env.questions.Create(context.Background(), singleChoice(fmt.Sprintf("q%d", i), testBank)))
	}

	tokens, err := NewTokenService(config.JWTConfig{SecretKey: "test-secret", Issuer: "staff-quiz"}, env.clock)
	require.NoError(t, err)
	env.tokens = tokens
	env.source = NewQuestionSource(env.questions, env.cache, time.Minute)
	env.tracker = NewProgressTracker(env.progress, env.source, util.NewLockedRand(42))
	env.recorder = NewAttemptRecorder(AttemptRecorderDeps{
		Quizzes:   env.quizzes,
		Questions: env.questions,
		Staff:     env.staff,
		Attempts:  env.attempts,
		Progress:  env.progress,
		Tx:        env.tx,
		Tracker:   env.tracker,
		Gate:      NewCooldownGate(env.attempts),
		Source:    env.source,
		Sessions:  env.sessions,
		Cache:     env.cache,
		Tokens:    env.tokens,
		Notifier:  env.notifier,
		Clock:     env.clock,
	}, config.TrainingConfig{AttemptSessionTTL: 2 * time.Hour, SubmissionLockTTL: 30 * time.Second})
	env.scores = NewScoreAggregator(env.quizzes, env.staff, env.attempts, env.progress)
	return env
}

func questionIDs(qs []dto.PresentedQuestion) []string {
	ids := make([]string, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
	}
	return ids
}

// answersFor answers the first `correct` questions with option 0 and the rest
// with option 1.
func answersFor(qs []dto.PresentedQuestion, correct int) []domain.Answer {
	answers := make([]domain.Answer, len(qs))
	for i, q := range qs {
		choice := 1
		if i < correct {
			choice = 0
		}
		answers[i] = domain.Answer{QuestionID: q.ID, SelectedOptions: []int{choice}}
	}
	return answers
}

func (env *testEnv) startAndSubmit(t *testing.T, correct int) (*dto.StartAttemptResponse, *dto.SubmitAttemptResponse) {
	t.Helper()
	ctx := context.Background()
	start, err := env.recorder.StartAttempt(ctx, testQuiz, testStaff, testRestaurant)
	require.NoError(t, err)
	res, err := env.recorder.Submit(ctx, start.AttemptToken, testStaff, testRestaurant, answersFor(start.Questions, correct))
	require.NoError(t, err)
	return start, res
}

func TestAttemptRecorder_SevenQuestionsThreePerAttemptDailyCooldown(t *testing.T) {
	env := newTestEnv(t, newTestQuiz(7, 3, 24), 7)
	ctx := context.Background()
	seen := map[string]struct{}{}

	first, res := env.startAndSubmit(t, 3)
	assert.Len(t, first.Questions, 3)
	assert.Equal(t, 3, res.Score)
	assert.False(t, res.CompletedOverall)
	for _, id := range questionIDs(first.Questions) {
		seen[id] = struct{}{}
	}

	_, err := env.recorder.StartAttempt(ctx, testQuiz, testStaff, testRestaurant)
	require.Error(t, err)
	assert.True(t, domain.HasCode(err, domain.CodeTooSoon))
	var de *domain.DomainError
	require.True(t, errors.As(err, &de))
	assert.Contains(t, de.Context, "next_eligible_at")

	env.clock.Advance(24 * time.Hour)
	second, res := env.startAndSubmit(t, 1)
	assert.Len(t, second.Questions, 3)
	for _, id := range questionIDs(second.Questions) {
		assert.NotContains(t, seen, id, "second attempt repeated a seen question")
		seen[id] = struct{}{}
	}
	assert.False(t, res.CompletedOverall)

	summary, err := env.scores.PerQuizSummary(ctx, testStaff, testQuiz, testRestaurant)
	require.NoError(t, err)
	assert.Equal(t, 85.7, summary.OverallProgressPercentage)

	env.clock.Advance(24 * time.Hour)
	third, res := env.startAndSubmit(t, 2)
	ids := questionIDs(third.Questions)
	assert.Len(t, ids, 3)
	assert.Len(t, util.UniqueStrings(ids), 3)
	unseen := 0
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			unseen++
		}
	}
	assert.Equal(t, 1, unseen, "the last unseen question must be included")
	assert.True(t, res.CompletedOverall)

	require.Len(t, env.notifier.events, 3)
	assert.True(t, env.notifier.events[2].BecameCompleted)
	assert.False(t, env.notifier.events[1].BecameCompleted)

	env.clock.Advance(24 * time.Hour)
	fourth, res := env.startAndSubmit(t, 0)
	assert.Len(t, util.UniqueStrings(questionIDs(fourth.Questions)), 3)
	assert.True(t, res.CompletedOverall)
	assert.False(t, env.notifier.events[3].BecameCompleted)

	progress, err := env.tracker.GetProgress(ctx, testStaff, testQuiz)
	require.NoError(t, err)
	assert.Len(t, progress.SeenQuestionIDs, 7)
	assert.Equal(t, 100.0, progress.CoveragePercentage())
}

func TestAttemptRecorder_CooldownBoundary(t *testing.T) {
	env := newTestEnv(t, newTestQuiz(5, 2, 24), 5)
	ctx := context.Background()
	env.startAndSubmit(t, 2)

	env.clock.Advance(24*time.Hour - time.Second)
	_, err := env.recorder.StartAttempt(ctx, testQuiz, testStaff, testRestaurant)
	assert.True(t, domain.HasCode(err, domain.CodeTooSoon))

	env.clock.Advance(time.Second)
	_, err = env.recorder.StartAttempt(ctx, testQuiz, testStaff, testRestaurant)
	assert.NoError(t, err)
}

func TestAttemptRecorder_CooldownRecheckedAtSubmit(t *testing.T) {
	env := newTestEnv(t, newTestQuiz(6, 2, 24), 6)
	ctx := context.Background()

	start, err := env.recorder.StartAttempt(ctx, testQuiz, testStaff, testRestaurant)
	require.NoError(t, err)
	// Another attempt lands between start and submit.
	require.NoError(t, env.attempts.Create(ctx, &domain.QuizAttempt{
		ID: "other", StaffID: testStaff, QuizID: testQuiz, RestaurantID: testRestaurant,
		QuestionIDs: []string{"q1"}, AttemptedAt: env.clock.Now(),
	}))

	_, err = env.recorder.Submit(ctx, start.AttemptToken, testStaff, testRestaurant, answersFor(start.Questions, 2))
	assert.True(t, domain.HasCode(err, domain.CodeTooSoon))
}

func TestAttemptRecorder_StartReusesOpenSession(t *testing.T) {
	env := newTestEnv(t, newTestQuiz(10, 3, 0), 10)
	ctx := context.Background()

	first, err := env.recorder.StartAttempt(ctx, testQuiz, testStaff, testRestaurant)
	require.NoError(t, err)
	second, err := env.recorder.StartAttempt(ctx, testQuiz, testStaff, testRestaurant)
	require.NoError(t, err)

	assert.Equal(t, questionIDs(first.Questions), questionIDs(second.Questions))
	for _, q := range first.Questions {
		assert.Len(t, q.Options, 3)
	}
}

func TestAttemptRecorder_StartAccessRules(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(q *domain.Quiz)
		staffID string
		rest    string
		code    domain.ErrorCode
	}{
		{name: "unavailable quiz is hidden", mutate: func(q *domain.Quiz) { q.Available = false }, staffID: testStaff, rest: testRestaurant, code: domain.CodeNotFound},
		{name: "ineligible role", mutate: func(q *domain.Quiz) { q.EligibleRoleIDs = []string{"sommelier"} }, staffID: testStaff, rest: testRestaurant, code: domain.CodeForbidden},
		{name: "other restaurant", mutate: func(q *domain.Quiz) { q.RestaurantID = "rest-2" }, staffID: testStaff, rest: testRestaurant, code: domain.CodeNotFound},
		{name: "unknown staff", mutate: func(q *domain.Quiz) {}, staffID: "ghost", rest: testRestaurant, code: domain.CodeNotFound},
		{name: "staff of another restaurant", mutate: func(q *domain.Quiz) {}, staffID: testStaff, rest: "rest-2", code: domain.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quiz := newTestQuiz(3, 2, 0)
			tt.mutate(quiz)
			env := newTestEnv(t, quiz, 3)
			_, err := env.recorder.StartAttempt(context.Background(), testQuiz, tt.staffID, tt.rest)
			assert.True(t, domain.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestAttemptRecorder_EligibleRoleMayStart(t *testing.T) {
	quiz := newTestQuiz(3, 2, 0)
	quiz.EligibleRoleIDs = []string{"server", "host"}
	env := newTestEnv(t, quiz, 3)
	_, err := env.recorder.StartAttempt(context.Background(), testQuiz, testStaff, testRestaurant)
	assert.NoError(t, err)
}

func TestAttemptRecorder_EmptyPool(t *testing.T) {
	env := newTestEnv(t, newTestQuiz(0, 3, 0), 0)
	_, err := env.recorder.StartAttempt(context.Background(), testQuiz, testStaff, testRestaurant)
	assert.True(t, domain.HasCode(err, domain.CodeValidation))
}

func TestAttemptRecorder_SubmitValidation(t *testing.T) {
	env := newTestEnv(t, newTestQuiz(5, 3, 0), 5)
	ctx := context.Background()
	start, err := env.recorder.StartAttempt(ctx, testQuiz, testStaff, testRestaurant)
	require.NoError(t, err)
	good := answersFor(start.Questions, 3)

	tests := []struct {
		name    string
		answers []domain.Answer
	}{
		{name: "too few answers", answers: good[:2]},
		{name: "duplicate question", answers: []domain.Answer{good[0], good[0], good[1]}},
		{name: "unknown question", answers: []domain.Answer{good[0], good[1], {QuestionID: "nope", SelectedOptions: []int{0}}}},
		{name: "option out of range", answers: []domain.Answer{good[0], good[1], {QuestionID: good[2].QuestionID, SelectedOptions: []int{7}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.recorder.Submit(ctx, start.AttemptToken, testStaff, testRestaurant, tt.answers)
			assert.True(t, domain.HasCode(err, domain.CodeValidation), "got %v", err)
		})
	}
	assert.Empty(t, env.attempts.attempts)

	// The session survives rejected submissions.
	reversed := []domain.Answer{good[2], good[0], good[1]}
	res, err := env.recorder.Submit(ctx, start.AttemptToken, testStaff, testRestaurant, reversed)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Score)
	require.Len(t, env.attempts.attempts, 1)
	assert.Equal(t, questionIDs(start.Questions), env.attempts.attempts[0].QuestionIDs)
	assert.Equal(t, good[0].QuestionID, env.attempts.attempts[0].Answers[0].QuestionID)
}

func TestAttemptRecorder_SubmitRejectsForeignToken(t *testing.T) {
	env := newTestEnv(t, newTestQuiz(5, 2, 0), 5)
	ctx := context.Background()
	start, err := env.recorder.StartAttempt(ctx, testQuiz, testStaff, testRestaurant)
	require.NoError(t, err)

	_, err = env.recorder.Submit(ctx, start.AttemptToken, "staff-2", testRestaurant, answersFor(start.Questions, 2))
	assert.True(t, domain.HasCode(err, domain.CodeNotFound))

	_, err = env.recorder.Submit(ctx, "not-a-token", testStaff, testRestaurant, answersFor(start.Questions, 2))
	assert.True(t, domain.HasCode(err, domain.CodeNotFound))
}

func TestAttemptRecorder_SessionConsumedOnSubmit(t *testing.T) {
	env := newTestEnv(t, newTestQuiz(5, 2, 0), 5)
	ctx := context.Background()
	start, _ := env.startAndSubmit(t, 2)

	_, err := env.recorder.Submit(ctx, start.AttemptToken, testStaff, testRestaurant, answersFor(start.Questions, 2))
	assert.True(t, domain.HasCode(err, domain.CodeNotFound))
	assert.Len(t, env.attempts.attempts, 1)
}

func TestAttemptRecorder_SubmitByQuiz(t *testing.T) {
	env := newTestEnv(t, newTestQuiz(5, 2, 0), 5)
	ctx := context.Background()

	_, err := env.recorder.SubmitByQuiz(ctx, testQuiz, testStaff, testRestaurant, nil)
	assert.True(t, domain.HasCode(err, domain.CodeNotFound))

	start, err := env.recorder.StartAttempt(ctx, testQuiz, testStaff, testRestaurant)
	require.NoError(t, err)
	res, err := env.recorder.SubmitByQuiz(ctx, testQuiz, testStaff, testRestaurant, answersFor(start.Questions, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Score)
	assert.Equal(t, 2, res.TotalQuestions)
	require.Len(t, res.CorrectAnswers, 2)
	assert.Equal(t, []int{0}, res.CorrectAnswers[1].CorrectOptions)
	assert.False(t, res.CorrectAnswers[1].IsCorrect)
}

func TestAttemptRecorder_ConflictWhileLockHeld(t *testing.T) {
	env := newTestEnv(t, newTestQuiz(5, 2, 0), 5)
	ctx := context.Background()
	start, err := env.recorder.StartAttempt(ctx, testQuiz, testStaff, testRestaurant)
	require.NoError(t, err)

	held, err := env.cache.SetNX(ctx, cache.SubmitLockKey(testStaff, testQuiz), "other", time.Minute)
	require.NoError(t, err)
	require.True(t, held)

	_, err = env.recorder.Submit(ctx, start.AttemptToken, testStaff, testRestaurant, answersFor(start.Questions, 2))
	assert.True(t, domain.HasCode(err, domain.CodeConflict))
	assert.Empty(t, env.attempts.attempts)

	lockKey := cache.SubmitLockKey(testStaff, testQuiz)
	owner, err := env.cache.Get(ctx, lockKey)
	require.NoError(t, err)
	assert.Equal(t, "other", owner, "a rejected submission must not release someone else's lock")

	require.NoError(t, env.cache.Delete(ctx, lockKey))
	_, err = env.recorder.Submit(ctx, start.AttemptToken, testStaff, testRestaurant, answersFor(start.Questions, 2))
	require.NoError(t, err)
	_, err = env.cache.Get(ctx, lockKey)
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestAttemptRecorder_ConcurrentSubmitsRecordOnce(t *testing.T) {
	env := newTestEnv(t, newTestQuiz(5, 3, 0), 5)
	ctx := context.Background()
	start, err := env.recorder.StartAttempt(ctx, testQuiz, testStaff, testRestaurant)
	require.NoError(t, err)
	answers := answersFor(start.Questions, 3)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.recorder.Submit(ctx, start.AttemptToken, testStaff, testRestaurant, answers)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			assert.True(t, domain.HasCode(err, domain.CodeConflict) || domain.HasCode(err, domain.CodeNotFound), "got %v", err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Len(t, env.attempts.attempts, 1)
	progress, err := env.tracker.GetProgress(ctx, testStaff, testQuiz)
	require.NoError(t, err)
	assert.Len(t, progress.SeenQuestionIDs, 3)
}

func TestAttemptRecorder_NotifierFailureIsNotSurfaced(t *testing.T) {
	env := newTestEnv(t, newTestQuiz(5, 2, 0), 5)
	env.notifier.err = errors.New("broker down")

	_, res := env.startAndSubmit(t, 2)
	assert.Equal(t, 2, res.Score)
	assert.Len(t, env.attempts.attempts, 1)
}

func TestAttemptRecorder_ProgressFailureRollsBackAttempt(t *testing.T) {
	env := newTestEnv(t, newTestQuiz(5, 2, 0), 5)
	ctx := context.Background()
	start, err := env.recorder.StartAttempt(ctx, testQuiz, testStaff, testRestaurant)
	require.NoError(t, err)
	env.progress.applyErr = errors.New("ORA-00060: deadlock detected")

	_, err = env.recorder.Submit(ctx, start.AttemptToken, testStaff, testRestaurant, answersFor(start.Questions, 2))
	assert.True(t, domain.HasCode(err, domain.CodeInternal))
	assert.Empty(t, env.notifier.events)
	assert.Equal(t, 1, env.tx.rollbacks)
	assert.Len(t, env.attempts.attempts, 0)
	progress, err := env.progress.GetByStaffAndQuiz(ctx, testStaff, testQuiz)
	require.NoError(t, err)
	assert.Nil(t, progress)

	// The session is kept so the staff member can retry.
	env.progress.applyErr = nil
	res, err := env.recorder.Submit(ctx, start.AttemptToken, testStaff, testRestaurant, answersFor(start.Questions, 2))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Score)
	assert.Len(t, env.attempts.attempts, 1)
	progress, err = env.progress.GetByStaffAndQuiz(ctx, testStaff, testQuiz)
	require.NoError(t, err)
	require.NotNil(t, progress)
	assert.Len(t, progress.SeenQuestionIDs, 2)
}

func TestAttemptRecorder_ReplayAfterFailedSessionRemoval(t *testing.T) {
	env := newTestEnv(t, newTestQuiz(5, 2, 0), 5)
	ctx := context.Background()
	start, err := env.recorder.StartAttempt(ctx, testQuiz, testStaff, testRestaurant)
	require.NoError(t, err)
	env.sessions.deleteErr = errors.New("redis: connection reset")

	res, err := env.recorder.Submit(ctx, start.AttemptToken, testStaff, testRestaurant, answersFor(start.Questions, 2))
	require.NoError(t, err)
	require.Len(t, env.sessions.sessions, 1)

	_, err = env.recorder.Submit(ctx, start.AttemptToken, testStaff, testRestaurant, answersFor(start.Questions, 2))
	assert.True(t, domain.HasCode(err, domain.CodeNotFound))
	_, err = env.recorder.SubmitByQuiz(ctx, testQuiz, testStaff, testRestaurant, answersFor(start.Questions, 2))
	assert.True(t, domain.HasCode(err, domain.CodeNotFound))
	require.Len(t, env.attempts.attempts, 1)
	assert.Equal(t, res.AttemptID, env.attempts.attempts[0].ID)

	// A restart does not hand back the recorded session.
	env.sessions.deleteErr = nil
	next, err := env.recorder.StartAttempt(ctx, testQuiz, testStaff, testRestaurant)
	require.NoError(t, err)
	assert.NotEqual(t, start.AttemptToken, next.AttemptToken)
	_, err = env.recorder.Submit(ctx, next.AttemptToken, testStaff, testRestaurant, answersFor(next.Questions, 1))
	require.NoError(t, err)
	assert.Len(t, env.attempts.attempts, 2)
}

func TestAttemptRecorder_StartReplacesSessionWithRemovedQuestion(t *testing.T) {
	env := newTestEnv(t, newTestQuiz(5, 2, 0), 5)
	ctx := context.Background()
	first, err := env.recorder.StartAttempt(ctx, testQuiz, testStaff, testRestaurant)
	require.NoError(t, err)
	removed := first.Questions[0].ID
	env.questions.remove(removed)

	second, err := env.recorder.StartAttempt(ctx, testQuiz, testStaff, testRestaurant)
	require.NoError(t, err)
	assert.NotEqual(t, first.AttemptToken, second.AttemptToken)
	assert.NotContains(t, questionIDs(second.Questions), removed)
	assert.Len(t, env.sessions.sessions, 1)

	_, err = env.recorder.Submit(ctx, first.AttemptToken, testStaff, testRestaurant, answersFor(first.Questions, 2))
	assert.True(t, domain.HasCode(err, domain.CodeNotFound))

	res, err := env.recorder.Submit(ctx, second.AttemptToken, testStaff, testRestaurant, answersFor(second.Questions, len(second.Questions)))
	require.NoError(t, err)
	assert.Equal(t, len(second.Questions), res.TotalQuestions)
}

func TestAttemptRecorder_DeleteQuizCascade(t *testing.T) {
	env := newTestEnv(t, newTestQuiz(5, 2, 0), 5)
	ctx := context.Background()
	other := newTestQuiz(5, 2, 0)
	other.ID = "quiz-2"
	require.NoError(t, env.quizzes.Create(ctx, other))

	env.startAndSubmit(t, 2)
	start, err := env.recorder.StartAttempt(ctx, "quiz-2", testStaff, testRestaurant)
	require.NoError(t, err)
	_, err = env.recorder.Submit(ctx, start.AttemptToken, testStaff, testRestaurant, answersFor(start.Questions, 1))
	require.NoError(t, err)
	require.NoError(t, env.cache.Set(ctx, cache.PoolKey(testQuiz), `["q1"]`, time.Minute))

	err = env.recorder.DeleteQuizCascade(ctx, testQuiz, "rest-2")
	assert.True(t, domain.HasCode(err, domain.CodeNotFound))

	require.NoError(t, env.recorder.DeleteQuizCascade(ctx, testQuiz, testRestaurant))

	q, _ := env.quizzes.GetByID(ctx, testQuiz)
	assert.Nil(t, q)
	p, _ := env.progress.GetByStaffAndQuiz(ctx, testStaff, testQuiz)
	assert.Nil(t, p)
	remaining, _ := env.attempts.ListByStaff(ctx, testStaff, testRestaurant)
	require.Len(t, remaining, 1)
	assert.Equal(t, "quiz-2", remaining[0].QuizID)
	_, err = env.cache.Get(ctx, cache.PoolKey(testQuiz))
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	p2, _ := env.progress.GetByStaffAndQuiz(ctx, testStaff, "quiz-2")
	assert.NotNil(t, p2)

	err = env.recorder.DeleteQuizCascade(ctx, testQuiz, testRestaurant)
	assert.True(t, domain.HasCode(err, domain.CodeNotFound))
}

func TestAttemptRecorder_ListAttempts(t *testing.T) {
	env := newTestEnv(t, newTestQuiz(5, 2, 0), 5)
	ctx := context.Background()
	env.startAndSubmit(t, 1)
	env.clock.Advance(time.Hour)
	env.startAndSubmit(t, 2)
	require.NoError(t, env.attempts.Create(ctx, &domain.QuizAttempt{
		ID: "orphan", StaffID: testStaff, QuizID: "gone", RestaurantID: testRestaurant,
		QuestionIDs: []string{"x", "y", "z"}, Score: 1, AttemptedAt: env.clock.Now().Add(time.Hour),
	}))

	list, err := env.recorder.ListAttempts(ctx, testStaff, testRestaurant)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, domain.DeletedQuizTitle, list[0].QuizTitle)
	assert.Equal(t, 33.3, list[0].Percentage)
	assert.Equal(t, "Wine basics", list[1].QuizTitle)
	assert.Equal(t, 100.0, list[1].Percentage)
	assert.Equal(t, 50.0, list[2].Percentage)
}

func TestGrade_MultipleChoiceNeedsExactSet(t *testing.T) {
	q := &domain.Question{
		ID:   "mc",
		Type: domain.QuestionTypeMultipleChoice,
		Options: []domain.Option{
			{Text: "Cava", IsCorrect: true}, {Text: "Rioja"}, {Text: "Prosecco", IsCorrect: true},
		},
	}
	byID := map[string]*domain.Question{"mc": q}

	tests := []struct {
		selected []int
		want     int
	}{
		{selected: []int{0, 2}, want: 1},
		{selected: []int{2, 0}, want: 1},
		{selected: []int{0}, want: 0},
		{selected: []int{0, 1, 2}, want: 0},
		{selected: []int{}, want: 0},
	}
	for _, tt := range tests {
		score, key, err := grade([]domain.Answer{{QuestionID: "mc", SelectedOptions: tt.selected}}, byID)
		require.NoError(t, err)
		assert.Equal(t, tt.want, score, "selected %v", tt.selected)
		assert.Equal(t, []int{0, 2}, key[0].CorrectOptions)
	}
}

func TestGrade_MissingQuestionIsIncorrect(t *testing.T) {
	score, key, err := grade([]domain.Answer{{QuestionID: "gone", SelectedOptions: []int{0}}}, map[string]*domain.Question{})
	require.NoError(t, err)
	assert.Equal(t, 0, score)
	assert.False(t, key[0].IsCorrect)
}
