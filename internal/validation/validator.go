package validation

import (
	"regexp"
	"strings"

	"staff-quiz/internal/domain"
	"staff-quiz/internal/dto"
)

const (
	maxTitleLength        = 200
	maxDescriptionLength  = 2000
	maxAnswers            = 100
	maxQuestionsPerQuiz   = 100
	maxCooldownHours      = 24 * 365
	maxGenerateCount      = 20
	maxSourceBanksPerQuiz = 20
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateID checks a path or body identifier.
func (v *Validator) ValidateID(field, id string) domain.ValidationErrors {
	var errors domain.ValidationErrors
	if strings.TrimSpace(id) == "" {
		errors = append(errors, domain.NewMissingFieldError(field))
	} else if !IsValidIdentifier(id) {
		errors = append(errors, domain.NewInvalidFormatError(field, id))
	}
	return errors
}

// ValidateSubmitAttemptRequest checks the shape of a submission. Whether the
// answers match the presented questions is decided by the service.
func (v *Validator) ValidateSubmitAttemptRequest(req *dto.SubmitAttemptRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if len(req.Answers) == 0 {
		errors = append(errors, domain.NewMissingFieldError("answers"))
		return errors
	}
	if len(req.Answers) > maxAnswers {
		errors = append(errors, domain.NewOutOfRangeError("answers", len(req.Answers), 1, maxAnswers))
	}

	for _, a := range req.Answers {
		if strings.TrimSpace(a.QuestionID) == "" {
			errors = append(errors, domain.NewMissingFieldError("answers.question_id"))
			continue
		}
		if !IsValidIdentifier(a.QuestionID) {
			errors = append(errors, domain.NewInvalidFormatError("answers.question_id", a.QuestionID))
		}
		if len(a.SelectedOptions) == 0 {
			errors = append(errors, domain.NewMissingFieldError("answers.selected_options"))
		}
		for _, idx := range a.SelectedOptions {
			if idx < 0 || idx >= domain.MaxOptions {
				errors = append(errors, domain.NewOutOfRangeError("answers.selected_options", idx, 0, domain.MaxOptions-1))
			}
		}
	}

	return errors
}

// ValidateCreateQuizRequest validates a new quiz definition.
func (v *Validator) ValidateCreateQuizRequest(req *dto.CreateQuizRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	title := strings.TrimSpace(req.Title)
	if title == "" {
		errors = append(errors, domain.NewMissingFieldError("title"))
	} else if len(title) > maxTitleLength {
		errors = append(errors, domain.NewOutOfRangeError("title", len(title), 1, maxTitleLength))
	}
	if len(req.Description) > maxDescriptionLength {
		errors = append(errors, domain.NewOutOfRangeError("description", len(req.Description), 0, maxDescriptionLength))
	}

	if len(req.SourceBankIDs) == 0 {
		errors = append(errors, domain.NewMissingFieldError("source_bank_ids"))
	} else if len(req.SourceBankIDs) > maxSourceBanksPerQuiz {
		errors = append(errors, domain.NewOutOfRangeError("source_bank_ids", len(req.SourceBankIDs), 1, maxSourceBanksPerQuiz))
	}
	for _, id := range req.SourceBankIDs {
		if !IsValidIdentifier(id) {
			errors = append(errors, domain.NewInvalidFormatError("source_bank_ids", id))
		}
	}
	for _, id := range req.EligibleRoleIDs {
		if !IsValidIdentifier(id) {
			errors = append(errors, domain.NewInvalidFormatError("eligible_role_ids", id))
		}
	}

	if req.QuestionsPerAttempt <= 0 || req.QuestionsPerAttempt > maxQuestionsPerQuiz {
		errors = append(errors, domain.NewOutOfRangeError("questions_per_attempt", req.QuestionsPerAttempt, 1, maxQuestionsPerQuiz))
	}
	if req.RetakeCooldownHours < 0 || req.RetakeCooldownHours > maxCooldownHours {
		errors = append(errors, domain.NewOutOfRangeError("retake_cooldown_hours", req.RetakeCooldownHours, 0, maxCooldownHours))
	}

	return errors
}

// ValidateGenerateRequest validates a question generation run.
func (v *Validator) ValidateGenerateRequest(bankID, knowledgeCategory string, count int) domain.ValidationErrors {
	errors := v.ValidateID("bank_id", bankID)

	switch domain.KnowledgeCategory(knowledgeCategory) {
	case "", domain.KnowledgeFood, domain.KnowledgeBeverage, domain.KnowledgeWine, domain.KnowledgeProcedures:
	default:
		errors = append(errors, domain.NewInvalidFormatError("knowledge_category", knowledgeCategory))
	}

	if count < 0 || count > maxGenerateCount {
		errors = append(errors, domain.NewOutOfRangeError("count", count, 1, maxGenerateCount))
	}
	return errors
}

// IsValidIdentifier accepts ULIDs and the slug-style ids used by the staff
// directory, up to the width the schema stores.
func IsValidIdentifier(s string) bool {
	if len(s) == 0 || len(s) > domain.MaxIDLength {
		return false
	}
	return identifierPattern.MatchString(s)
}
