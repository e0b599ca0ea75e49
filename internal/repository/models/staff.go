package models

import (
	"database/sql"
	"time"
)

// StaffMember maps the staff_members table.
type StaffMember struct {
	ID           string    `db:"ID"`
	RestaurantID string    `db:"RESTAURANT_ID"`
	Name         string    `db:"NAME"`
	RoleID       string    `db:"ROLE_ID"`
	CreatedAt    time.Time `db:"CREATED_AT"`
}

// StaffQuizProgress maps staff_quiz_progress. Seen ids live in
// staff_quiz_seen_questions.
type StaffQuizProgress struct {
	ID                   string       `db:"ID"`
	StaffID              string       `db:"STAFF_ID"`
	QuizID               string       `db:"QUIZ_ID"`
	RestaurantID         string       `db:"RESTAURANT_ID"`
	TotalUniqueQuestions int          `db:"TOTAL_UNIQUE_QUESTIONS"`
	CompletedOverall     int          `db:"COMPLETED_OVERALL"`
	LastAttemptAt        sql.NullTime `db:"LAST_ATTEMPT_AT"`
	CreatedAt            time.Time    `db:"CREATED_AT"`
	UpdatedAt            time.Time    `db:"UPDATED_AT"`
}

// SeenQuestion is one row of staff_quiz_seen_questions.
type SeenQuestion struct {
	QuizID     string `db:"QUIZ_ID"`
	QuestionID string `db:"QUESTION_ID"`
}

// QuizAttempt maps quiz_attempts.
type QuizAttempt struct {
	ID             string     `db:"ID"`
	StaffID        string     `db:"STAFF_ID"`
	QuizID         string     `db:"QUIZ_ID"`
	RestaurantID   string     `db:"RESTAURANT_ID"`
	QuestionIDs    StringList `db:"QUESTION_IDS"`
	Answers        AnswerList `db:"ANSWERS"`
	Score          int        `db:"SCORE"`
	TotalQuestions int        `db:"TOTAL_QUESTIONS"`
	AttemptedAt    time.Time  `db:"ATTEMPTED_AT"`
}
