package domain

import (
	"context"
	"time"
)

// Repositories return (nil, nil) when a single record is not found.

// QuizRepository defines the interface for quiz persistence
type QuizRepository interface {
	GetByID(ctx context.Context, id string) (*Quiz, error)
	GetByIDs(ctx context.Context, ids []string) ([]*Quiz, error)
	ListAvailableByRestaurant(ctx context.Context, restaurantID string) ([]*Quiz, error)
	Create(ctx context.Context, quiz *Quiz) error
	UpdateSnapshot(ctx context.Context, id string, totalUniqueQuestions int, at time.Time) error
	SetAvailability(ctx context.Context, id string, available bool, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// QuestionRepository defines the interface for question bank persistence
type QuestionRepository interface {
	ListActiveIDsByBanks(ctx context.Context, restaurantID string, bankIDs []string) ([]string, error)
	GetByIDs(ctx context.Context, ids []string) ([]*Question, error)
	ListTextsByBank(ctx context.Context, bankID string) ([]string, error)
	Create(ctx context.Context, question *Question) error
	UpdateReviewStatus(ctx context.Context, id string, status ReviewStatus, at time.Time) error
}

// StaffRepository reads staff directory data.
type StaffRepository interface {
	GetByID(ctx context.Context, id string) (*StaffMember, error)
	ListByRestaurant(ctx context.Context, restaurantID string) ([]*StaffMember, error)
}

// ProgressRepository persists per staff, per quiz coverage.
type ProgressRepository interface {
	GetByStaffAndQuiz(ctx context.Context, staffID, quizID string) (*StaffQuizProgress, error)
	ListByStaff(ctx context.Context, staffID, restaurantID string) ([]*StaffQuizProgress, error)
	// ApplySeen creates the record if needed and unions the ids into the seen
	// set. It never removes ids.
	ApplySeen(ctx context.Context, update SeenUpdate) error
	DeleteByQuiz(ctx context.Context, quizID string) error
}

// AttemptRepository persists immutable attempts.
type AttemptRepository interface {
	Create(ctx context.Context, attempt *QuizAttempt) error
	Exists(ctx context.Context, id string) (bool, error)
	LastAttemptAt(ctx context.Context, staffID, quizID string) (*time.Time, error)
	ListByStaff(ctx context.Context, staffID, restaurantID string) ([]*QuizAttempt, error)
	ListByRestaurant(ctx context.Context, restaurantID string) ([]*QuizAttempt, error)
	DeleteByQuiz(ctx context.Context, quizID string) error
}

// TransactionManager runs fn inside one storage transaction. Repositories
// called with the ctx passed to fn join that transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
