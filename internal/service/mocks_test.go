package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"staff-quiz/internal/domain"

	"github.com/stretchr/testify/mock"
)

// --- MockQuestionRepository ---
type MockQuestionRepository struct {
	mock.Mock
}

func (m *MockQuestionRepository) ListActiveIDsByBanks(ctx context.Context, restaurantID string, bankIDs []string) ([]string, error) {
	args := m.Called(ctx, restaurantID, bankIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockQuestionRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Question, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Question), args.Error(1)
}

func (m *MockQuestionRepository) ListTextsByBank(ctx context.Context, bankID string) ([]string, error) {
	args := m.Called(ctx, bankID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockQuestionRepository) Create(ctx context.Context, question *domain.Question) error {
	args := m.Called(ctx, question)
	return args.Error(0)
}

func (m *MockQuestionRepository) UpdateReviewStatus(ctx context.Context, id string, status domain.ReviewStatus, at time.Time) error {
	args := m.Called(ctx, id, status, at)
	return args.Error(0)
}

// --- MockQuestionGenerator ---
type MockQuestionGenerator struct {
	mock.Mock
}

func (m *MockQuestionGenerator) GenerateQuestionCandidates(ctx context.Context, req domain.GenerationRequest) ([]domain.QuestionCandidate, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.QuestionCandidate), args.Error(1)
}

// --- MockCache ---
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) SetNX(ctx context.Context, key string, value string, expiration time.Duration) (bool, error) {
	args := m.Called(ctx, key, value, expiration)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) DeleteIfValue(ctx context.Context, key string, value string) (bool, error) {
	args := m.Called(ctx, key, value)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- In-memory fakes used by the scenario tests ---

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type memQuizRepo struct {
	mu      sync.Mutex
	quizzes map[string]*domain.Quiz
	err     error
}

func newMemQuizRepo(quizzes ...*domain.Quiz) *memQuizRepo {
	r := &memQuizRepo{quizzes: make(map[string]*domain.Quiz)}
	for _, q := range quizzes {
		r.quizzes[q.ID] = q
	}
	return r
}

func (r *memQuizRepo) GetByID(ctx context.Context, id string) (*domain.Quiz, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	q, ok := r.quizzes[id]
	if !ok {
		return nil, nil
	}
	cp := *q
	return &cp, nil
}

func (r *memQuizRepo) GetByIDs(ctx context.Context, ids []string) ([]*domain.Quiz, error) {
	var out []*domain.Quiz
	for _, id := range ids {
		q, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if q != nil {
			out = append(out, q)
		}
	}
	return out, nil
}

func (r *memQuizRepo) ListAvailableByRestaurant(ctx context.Context, restaurantID string) ([]*domain.Quiz, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Quiz
	for _, q := range r.quizzes {
		if q.Available && q.RestaurantID == restaurantID {
			cp := *q
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memQuizRepo) Create(ctx context.Context, quiz *domain.Quiz) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *quiz
	r.quizzes[quiz.ID] = &cp
	return nil
}

func (r *memQuizRepo) update(id string, fn func(q *domain.Quiz)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quizzes[id]
	if !ok {
		return domain.NewNotFoundError("quiz not found")
	}
	fn(q)
	return nil
}

func (r *memQuizRepo) UpdateSnapshot(ctx context.Context, id string, total int, at time.Time) error {
	return r.update(id, func(q *domain.Quiz) { q.TotalUniqueQuestions, q.UpdatedAt = total, at })
}

func (r *memQuizRepo) SetAvailability(ctx context.Context, id string, available bool, at time.Time) error {
	return r.update(id, func(q *domain.Quiz) { q.Available, q.UpdatedAt = available, at })
}

func (r *memQuizRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.quizzes, id)
	return nil
}

type memQuestionRepo struct {
	mu        sync.Mutex
	order     []string
	questions map[string]*domain.Question
}

func newMemQuestionRepo(questions ...*domain.Question) *memQuestionRepo {
	r := &memQuestionRepo{questions: make(map[string]*domain.Question)}
	for _, q := range questions {
		_ = r.Create(context.Background(), q)
	}
	return r
}

func (r *memQuestionRepo) ListActiveIDsByBanks(ctx context.Context, restaurantID string, bankIDs []string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	banks := make(map[string]struct{}, len(bankIDs))
	for _, b := range bankIDs {
		banks[b] = struct{}{}
	}
	ids := []string{}
	for _, id := range r.order {
		q := r.questions[id]
		if _, ok := banks[q.BankID]; ok && q.RestaurantID == restaurantID && q.ReviewStatus == domain.ReviewActive {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *memQuestionRepo) GetByIDs(ctx context.Context, ids []string) ([]*domain.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Question
	for _, id := range ids {
		if q, ok := r.questions[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (r *memQuestionRepo) ListTextsByBank(ctx context.Context, bankID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, id := range r.order {
		if r.questions[id].BankID == bankID {
			out = append(out, r.questions[id].Text)
		}
	}
	return out, nil
}

func (r *memQuestionRepo) Create(ctx context.Context, q *domain.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.questions[q.ID] = q
	r.order = append(r.order, q.ID)
	return nil
}

func (r *memQuestionRepo) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.questions, id)
	kept := make([]string, 0, len(r.order))
	for _, o := range r.order {
		if o != id {
			kept = append(kept, o)
		}
	}
	r.order = kept
}

func (r *memQuestionRepo) UpdateReviewStatus(ctx context.Context, id string, status domain.ReviewStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.questions[id]
	if !ok {
		return domain.NewNotFoundError("question not found")
	}
	q.ReviewStatus = status
	q.UpdatedAt = at
	return nil
}

type memStaffRepo struct {
	staff map[string]*domain.StaffMember
}

func newMemStaffRepo(members ...*domain.StaffMember) *memStaffRepo {
	r := &memStaffRepo{staff: make(map[string]*domain.StaffMember)}
	for _, m := range members {
		r.staff[m.ID] = m
	}
	return r
}

func (r *memStaffRepo) GetByID(ctx context.Context, id string) (*domain.StaffMember, error) {
	return r.staff[id], nil
}

func (r *memStaffRepo) ListByRestaurant(ctx context.Context, restaurantID string) ([]*domain.StaffMember, error) {
	var out []*domain.StaffMember
	for _, m := range r.staff {
		if m.RestaurantID == restaurantID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memProgressRepo struct {
	mu       sync.Mutex
	records  map[string]*domain.StaffQuizProgress
	applyErr error
}

func newMemProgressRepo() *memProgressRepo {
	return &memProgressRepo{records: make(map[string]*domain.StaffQuizProgress)}
}

func progressKey(staffID, quizID string) string { return staffID + "|" + quizID }

func copyProgress(p *domain.StaffQuizProgress) *domain.StaffQuizProgress {
	cp := *p
	cp.SeenQuestionIDs = append([]string(nil), p.SeenQuestionIDs...)
	return &cp
}

func (r *memProgressRepo) GetByStaffAndQuiz(ctx context.Context, staffID, quizID string) (*domain.StaffQuizProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.records[progressKey(staffID, quizID)]
	if !ok {
		return nil, nil
	}
	return copyProgress(p), nil
}

func (r *memProgressRepo) ListByStaff(ctx context.Context, staffID, restaurantID string) ([]*domain.StaffQuizProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.StaffQuizProgress
	for _, p := range r.records {
		if p.StaffID == staffID && p.RestaurantID == restaurantID {
			out = append(out, copyProgress(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuizID < out[j].QuizID })
	return out, nil
}

func (r *memProgressRepo) ApplySeen(ctx context.Context, u domain.SeenUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.applyErr != nil {
		return r.applyErr
	}
	key := progressKey(u.StaffID, u.QuizID)
	p, ok := r.records[key]
	if !ok {
		p = &domain.StaffQuizProgress{
			ID:                   u.ProgressID,
			StaffID:              u.StaffID,
			QuizID:               u.QuizID,
			RestaurantID:         u.RestaurantID,
			TotalUniqueQuestions: u.TotalUniqueQuestions,
			CreatedAt:            u.At,
		}
		r.records[key] = p
	}
	p.MarkSeen(u.QuestionIDs, u.At)
	return nil
}

func (r *memProgressRepo) snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved := make(map[string]*domain.StaffQuizProgress, len(r.records))
	for k, p := range r.records {
		saved[k] = copyProgress(p)
	}
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.records = saved
	}
}

func (r *memProgressRepo) DeleteByQuiz(ctx context.Context, quizID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, p := range r.records {
		if p.QuizID == quizID {
			delete(r.records, k)
		}
	}
	return nil
}

type memAttemptRepo struct {
	mu       sync.Mutex
	attempts []*domain.QuizAttempt
}

func (r *memAttemptRepo) Create(ctx context.Context, a *domain.QuizAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.attempts {
		if existing.ID == a.ID {
			return errors.New("ORA-00001: unique constraint violated")
		}
	}
	r.attempts = append(r.attempts, a)
	return nil
}

func (r *memAttemptRepo) snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved := append([]*domain.QuizAttempt(nil), r.attempts...)
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.attempts = saved
	}
}

func (r *memAttemptRepo) Exists(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.attempts {
		if a.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (r *memAttemptRepo) LastAttemptAt(ctx context.Context, staffID, quizID string) (*time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var last *time.Time
	for _, a := range r.attempts {
		if a.StaffID == staffID && a.QuizID == quizID && (last == nil || a.AttemptedAt.After(*last)) {
			t := a.AttemptedAt
			last = &t
		}
	}
	return last, nil
}

func (r *memAttemptRepo) filter(keep func(a *domain.QuizAttempt) bool) []*domain.QuizAttempt {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.QuizAttempt
	for i := len(r.attempts) - 1; i >= 0; i-- {
		if keep(r.attempts[i]) {
			out = append(out, r.attempts[i])
		}
	}
	return out
}

func (r *memAttemptRepo) ListByStaff(ctx context.Context, staffID, restaurantID string) ([]*domain.QuizAttempt, error) {
	return r.filter(func(a *domain.QuizAttempt) bool {
		return a.StaffID == staffID && a.RestaurantID == restaurantID
	}), nil
}

func (r *memAttemptRepo) ListByRestaurant(ctx context.Context, restaurantID string) ([]*domain.QuizAttempt, error) {
	return r.filter(func(a *domain.QuizAttempt) bool { return a.RestaurantID == restaurantID }), nil
}

func (r *memAttemptRepo) DeleteByQuiz(ctx context.Context, quizID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []*domain.QuizAttempt
	for _, a := range r.attempts {
		if a.QuizID != quizID {
			kept = append(kept, a)
		}
	}
	r.attempts = kept
	return nil
}

// txParticipant is an in-memory store that can roll back to a snapshot.
type txParticipant interface {
	snapshot() (restore func())
}

// serialTx runs transactions one at a time, mirroring row locks on the
// progress record. Participants are restored when fn fails.
type serialTx struct {
	mu           sync.Mutex
	count        int
	rollbacks    int
	participants []txParticipant
}

func (t *serialTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count++
	restores := make([]func(), len(t.participants))
	for i, p := range t.participants {
		restores[i] = p.snapshot()
	}
	if err := fn(ctx); err != nil {
		for _, restore := range restores {
			restore()
		}
		t.rollbacks++
		return err
	}
	return nil
}

type memCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMemCache() *memCache { return &memCache{entries: make(map[string]string)} }

func (c *memCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if !ok {
		return "", domain.ErrCacheMiss
	}
	return v, nil
}

func (c *memCache) Set(ctx context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *memCache) SetNX(ctx context.Context, key, value string, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		return false, nil
	}
	c.entries[key] = value
	return true, nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *memCache) DeleteIfValue(ctx context.Context, key, value string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries[key] != value {
		return false, nil
	}
	delete(c.entries, key)
	return true, nil
}

func (c *memCache) Ping(ctx context.Context) error { return nil }

type memSessionStore struct {
	mu        sync.Mutex
	sessions  map[string]*domain.AttemptSession
	deleteErr error
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[string]*domain.AttemptSession)}
}

func (s *memSessionStore) Save(ctx context.Context, session *domain.AttemptSession, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *session
	s.sessions[session.ID] = &cp
	return nil
}

func (s *memSessionStore) Get(ctx context.Context, id string) (*domain.AttemptSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *sess
	return &cp, nil
}

func (s *memSessionStore) FindOpen(ctx context.Context, staffID, quizID string) (*domain.AttemptSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.StaffID == staffID && sess.QuizID == quizID {
			cp := *sess
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memSessionStore) Delete(ctx context.Context, session *domain.AttemptSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.sessions, session.ID)
	return nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.AttemptRecordedEvent
	err    error
}

func (n *recordingNotifier) NotifyAttemptRecorded(ctx context.Context, e domain.AttemptRecordedEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return n.err
}
