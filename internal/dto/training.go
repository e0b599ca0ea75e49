package dto

import "time"

// PresentedQuestion is a question as shown to staff. Correctness flags are withheld.
type PresentedQuestion struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Type    string   `json:"type"`
	Options []string `json:"options"`
}

// StartAttemptResponse is returned when an attempt starts.
// @Description Attempt token and the questions to answer
type StartAttemptResponse struct {
	AttemptToken string              `json:"attempt_token"`
	Questions    []PresentedQuestion `json:"questions"`
	ExpiresAt    time.Time           `json:"expires_at"`
}

// AnswerRequest is the selection for one presented question.
type AnswerRequest struct {
	QuestionID      string `json:"question_id"`
	SelectedOptions []int  `json:"selected_options"`
}

// SubmitAttemptRequest carries one answer per presented question.
// @Description Request body for submitting an attempt
type SubmitAttemptRequest struct {
	Answers []AnswerRequest `json:"answers"`
}

// CorrectAnswer is the answer key for one graded question.
type CorrectAnswer struct {
	QuestionID     string `json:"question_id"`
	CorrectOptions []int  `json:"correct_options"`
	IsCorrect      bool   `json:"is_correct"`
}

// SubmitAttemptResponse is the graded result.
type SubmitAttemptResponse struct {
	AttemptID        string          `json:"attempt_id"`
	Score            int             `json:"score"`
	TotalQuestions   int             `json:"total_questions"`
	CorrectAnswers   []CorrectAnswer `json:"correct_answers"`
	CompletedOverall bool            `json:"completed_overall"`
}

// QuizProgressSummary is one entry of a staff member's per-quiz breakdown.
type QuizProgressSummary struct {
	QuizID                    string     `json:"quiz_id"`
	Title                     string     `json:"title"`
	OverallProgressPercentage float64    `json:"overall_progress_percentage"`
	IsCompletedOverall        bool       `json:"is_completed_overall"`
	AverageScoreForQuiz       *float64   `json:"average_score_for_quiz"`
	LastAttemptTimestamp      *time.Time `json:"last_attempt_timestamp"`
}

// StaffProgressResponse is the progress view of one staff member.
// @Description Average score and per-quiz progress of a staff member
type StaffProgressResponse struct {
	StaffID      string                `json:"staff_id"`
	AverageScore *float64              `json:"average_score"`
	QuizzesTaken int                   `json:"quizzes_taken"`
	PerQuiz      []QuizProgressSummary `json:"per_quiz"`
}

// StaffAverageResponse is the overall average of one staff member.
type StaffAverageResponse struct {
	StaffID      string   `json:"staff_id"`
	AverageScore *float64 `json:"average_score"`
	QuizzesTaken int      `json:"quizzes_taken"`
}

// StaffRollupEntry summarizes one staff member for restaurant reporting.
type StaffRollupEntry struct {
	StaffID                string   `json:"staff_id"`
	Name                   string   `json:"name"`
	RoleID                 string   `json:"role_id"`
	AverageScore           *float64 `json:"average_score"`
	QuizzesTaken           int      `json:"quizzes_taken"`
	AssignableQuizzesCount int      `json:"assignable_quizzes_count"`
}

// RestaurantRollupResponse lists every staff member of a restaurant.
type RestaurantRollupResponse struct {
	RestaurantID string             `json:"restaurant_id"`
	Staff        []StaffRollupEntry `json:"staff"`
}

// AttemptSummary is one row of a staff member's attempt history.
type AttemptSummary struct {
	AttemptID      string    `json:"attempt_id"`
	QuizID         string    `json:"quiz_id"`
	QuizTitle      string    `json:"quiz_title"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	Percentage     float64   `json:"percentage"`
	AttemptedAt    time.Time `json:"attempted_at"`
}

// CreateQuizRequest defines a new quiz.
// @Description Request body for creating a quiz
type CreateQuizRequest struct {
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	SourceBankIDs       []string `json:"source_bank_ids"`
	QuestionsPerAttempt int      `json:"questions_per_attempt"`
	EligibleRoleIDs     []string `json:"eligible_role_ids"`
	RetakeCooldownHours int      `json:"retake_cooldown_hours"`
	Available           bool     `json:"available"`
}

// QuizResponse describes a quiz to managers.
type QuizResponse struct {
	ID                   string    `json:"id"`
	Title                string    `json:"title"`
	Description          string    `json:"description,omitempty"`
	SourceBankIDs        []string  `json:"source_bank_ids"`
	TotalUniqueQuestions int       `json:"total_unique_questions"`
	QuestionsPerAttempt  int       `json:"questions_per_attempt"`
	Available            bool      `json:"available"`
	EligibleRoleIDs      []string  `json:"eligible_role_ids"`
	RetakeCooldownHours  int       `json:"retake_cooldown_hours"`
	CreatedAt            time.Time `json:"created_at"`
}

// AvailabilityRequest publishes or hides a quiz.
type AvailabilityRequest struct {
	Available *bool `json:"available"`
}

// ResnapshotResponse reports the refreshed pool size.
type ResnapshotResponse struct {
	QuizID               string `json:"quiz_id"`
	PreviousTotal        int    `json:"previous_total"`
	TotalUniqueQuestions int    `json:"total_unique_questions"`
}
