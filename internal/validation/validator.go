package validation

import (
	"net/mail"
	"strings"

	"quizapp/internal/domain"
	"quizapp/internal/dto"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 50
	minPasswordLen = 6
	maxPasswordLen = 100
	maxTitleLen    = 200
)

// ValidateRegisterRequest checks the account-creation payload.
func ValidateRegisterRequest(req dto.RegisterRequest) error {
	var errs domain.ValidationErrors

	username := strings.TrimSpace(req.Username)
	if username == "" {
		errs = append(errs, domain.NewMissingFieldError("username"))
	} else if len(username) < minUsernameLen || len(username) > maxUsernameLen {
		errs = append(errs, domain.NewOutOfRangeError("username", len(username), minUsernameLen, maxUsernameLen))
	}

	if req.Email == "" {
		errs = append(errs, domain.NewMissingFieldError("email"))
	} else if _, err := mail.ParseAddress(req.Email); err != nil {
		errs = append(errs, domain.NewInvalidFormatError("email", req.Email))
	}

	if req.Password == "" {
		errs = append(errs, domain.NewMissingFieldError("password"))
	} else if len(req.Password) < minPasswordLen || len(req.Password) > maxPasswordLen {
		errs = append(errs, domain.NewOutOfRangeError("password", len(req.Password), minPasswordLen, maxPasswordLen))
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateLoginRequest checks the credential payload.
func ValidateLoginRequest(req dto.LoginRequest) error {
	var errs domain.ValidationErrors
	if strings.TrimSpace(req.Username) == "" {
		errs = append(errs, domain.NewMissingFieldError("username"))
	}
	if req.Password == "" {
		errs = append(errs, domain.NewMissingFieldError("password"))
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateStartAttemptRequest checks the attempt-start payload.
func ValidateStartAttemptRequest(req dto.StartAttemptRequest) error {
	if strings.TrimSpace(req.QuizID) == "" {
		return domain.ValidationErrors{domain.NewMissingFieldError("quizId")}
	}
	return nil
}

// ValidateSubmission checks the answer sheet: at least one answer, every
// answer names a question and no question is answered twice. Selected
// options may be empty; an empty selection is a deliberate blank.
func ValidateSubmission(sub dto.Submission) error {
	if len(sub.Answers) == 0 {
		return domain.ValidationErrors{domain.NewMissingFieldError("answers")}
	}
	var errs domain.ValidationErrors
	seen := make(map[string]struct{}, len(sub.Answers))
	for _, a := range sub.Answers {
		if strings.TrimSpace(a.QuestionID) == "" {
			errs = append(errs, domain.NewMissingFieldError("answers.questionId"))
			continue
		}
		if _, dup := seen[a.QuestionID]; dup {
			errs = append(errs, domain.ValidationError{
				Field:   "answers",
				Message: "duplicate answer for question " + a.QuestionID,
			})
		}
		seen[a.QuestionID] = struct{}{}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateQuizRequest checks the quiz create/update payload.
func ValidateQuizRequest(req dto.CreateQuizRequest) error {
	var errs domain.ValidationErrors
	title := strings.TrimSpace(req.Title)
	if title == "" {
		errs = append(errs, domain.NewMissingFieldError("title"))
	} else if len(title) > maxTitleLen {
		errs = append(errs, domain.NewOutOfRangeError("title", len(title), 1, maxTitleLen))
	}
	if req.TimeLimitMinutes < 0 {
		errs = append(errs, domain.ValidationError{Field: "timeLimitMinutes", Message: "must not be negative"})
	}
	if req.Difficulty != "" {
		switch domain.Difficulty(req.Difficulty) {
		case domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyHard, domain.DifficultyUnassigned:
		default:
			errs = append(errs, domain.NewInvalidFormatError("difficulty", req.Difficulty))
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateQuestionRequest checks the question payload before the structural
// option invariants are applied.
func ValidateQuestionRequest(req dto.QuestionRequest) error {
	var errs domain.ValidationErrors
	if strings.TrimSpace(req.Text) == "" {
		errs = append(errs, domain.NewMissingFieldError("text"))
	}
	switch domain.QuestionType(req.QuestionType) {
	case domain.QuestionSingleChoice, domain.QuestionMultipleChoice, domain.QuestionTrueFalse:
	default:
		errs = append(errs, domain.NewInvalidFormatError("questionType", req.QuestionType))
	}
	for _, o := range req.Options {
		if strings.TrimSpace(o.Text) == "" {
			errs = append(errs, domain.NewMissingFieldError("options.text"))
			break
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
