package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"staff-quiz/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionManager_CommitsAttemptAndProgressTogether(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()

	tm := NewTransactionManagerAdapter(db)
	attempts := NewSQLXAttemptRepository(db)
	progress := NewSQLXProgressRepository(db)
	at := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO quiz_attempts")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("MERGE INTO staff_quiz_progress")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("MERGE INTO staff_quiz_seen_questions")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE staff_quiz_progress p")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := tm.WithTransaction(context.Background(), func(ctx context.Context) error {
		if err := attempts.Create(ctx, &domain.QuizAttempt{ID: "a1", QuestionIDs: []string{"q1"}, AttemptedAt: at}); err != nil {
			return err
		}
		return progress.ApplySeen(ctx, domain.SeenUpdate{StaffID: "s1", QuizID: "quiz-1", QuestionIDs: []string{"q1"}, At: at})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionManager_RollsBackOnError(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()

	tm := NewTransactionManagerAdapter(db)
	attempts := NewSQLXAttemptRepository(db)
	progress := NewSQLXProgressRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO quiz_attempts")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("MERGE INTO staff_quiz_progress")).WillReturnError(errors.New("ORA-00001: unique constraint violated"))
	mock.ExpectRollback()

	err := tm.WithTransaction(context.Background(), func(ctx context.Context) error {
		if err := attempts.Create(ctx, &domain.QuizAttempt{ID: "a1", QuestionIDs: []string{"q1"}}); err != nil {
			return err
		}
		return progress.ApplySeen(ctx, domain.SeenUpdate{StaffID: "s1", QuizID: "quiz-1", QuestionIDs: []string{"q1"}, At: time.Now()})
	})
	assert.ErrorContains(t, err, "failed to upsert progress")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionManager_NestedCallReusesTransaction(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()
	tm := NewTransactionManagerAdapter(db)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := tm.WithTransaction(context.Background(), func(ctx context.Context) error {
		return tm.WithTransaction(ctx, func(inner context.Context) error {
			assert.Equal(t, ctx.Value(TransactionContextKey), inner.Value(TransactionContextKey))
			return nil
		})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetExecutor_DefaultsToDB(t *testing.T) {
	db, _ := setupTestDB(t)
	defer db.Close()
	assert.Equal(t, DBTX(db), GetExecutor(context.Background(), db))
}
