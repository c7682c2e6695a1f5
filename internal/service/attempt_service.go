package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"quizapp/internal/domain"
	"quizapp/internal/dto"
	"quizapp/internal/logger"
	"quizapp/internal/util"
)

// AttemptService drives the quiz-attempt state machine: one active attempt
// per user and quiz, terminal transitions to COMPLETED or ABANDONED, and
// set-equality scoring on submit.
type AttemptService interface {
	Start(ctx context.Context, userID, quizID string) (*dto.AttemptEnvelope, error)
	Resume(ctx context.Context, userID, quizID string) (*dto.AttemptEnvelope, error)
	StartOrResume(ctx context.Context, userID, quizID string) (*dto.AttemptEnvelope, error)
	Abandon(ctx context.Context, userID, quizID string) (*dto.QuizAttemptResponse, error)
	EndAndStart(ctx context.Context, userID, quizID string) (*dto.QuizAttemptResponse, error)
	Submit(ctx context.Context, userID, attemptID string, submission dto.Submission) (*dto.QuizResult, error)
	ListMine(ctx context.Context, userID string) ([]dto.QuizAttemptResponse, error)
	ListMineByQuiz(ctx context.Context, userID, quizID string) ([]dto.QuizAttemptResponse, error)
	GetMine(ctx context.Context, principal *domain.User, attemptID string) (*dto.DetailedAttempt, error)
	DeleteMine(ctx context.Context, principal *domain.User, attemptID string) error
	DeleteAllMine(ctx context.Context, userID string) error
	DeleteManyMine(ctx context.Context, principal *domain.User, attemptIDs []string) error
}

type attemptService struct {
	attemptRepo domain.AttemptRepository
	quizRepo    domain.QuizRepository
	txManager   domain.TransactionManager
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(attemptRepo domain.AttemptRepository, quizRepo domain.QuizRepository, txManager domain.TransactionManager) AttemptService {
	return &attemptService{
		attemptRepo: attemptRepo,
		quizRepo:    quizRepo,
		txManager:   txManager,
	}
}

// loadQuizForTaking loads the quiz aggregate and rejects unknown or
// unpublished quizzes.
func (s *attemptService) loadQuizForTaking(ctx context.Context, quizID string) (*domain.Quiz, error) {
	quiz, err := s.quizRepo.GetQuizByID(ctx, quizID)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	if quiz == nil || !quiz.IsPublished {
		return nil, domain.NewNotFoundError("Quiz", quizID)
	}
	return quiz, nil
}

func envelope(attempt *domain.QuizAttempt, quiz *domain.Quiz) *dto.AttemptEnvelope {
	return &dto.AttemptEnvelope{
		Attempt: dto.QuizAttemptResponseFromDomain(attempt),
		Quiz:    dto.QuizResponseFromDomain(quiz, true, false),
	}
}

// Start opens a new attempt. Fails when an attempt on the quiz is already
// in progress. The check and the insert run under row locks on the user's
// attempts for the quiz, so concurrent starts cannot both pass.
func (s *attemptService) Start(ctx context.Context, userID, quizID string) (*dto.AttemptEnvelope, error) {
	quiz, err := s.loadQuizForTaking(ctx, quizID)
	if err != nil {
		return nil, err
	}

	var attempt *domain.QuizAttempt
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.attemptRepo.LockUserQuizAttempts(txCtx, userID, quizID); err != nil {
			return domain.NewInternalError(err)
		}
		active, err := s.attemptRepo.GetActiveAttempt(txCtx, userID, quizID)
		if err != nil {
			return domain.NewInternalError(err)
		}
		if active != nil {
			return domain.NewActiveAttemptExistsError(quizID)
		}
		attempt = newAttempt(userID, quizID)
		if err := s.attemptRepo.CreateAttempt(txCtx, attempt); err != nil {
			return createAttemptError(err, quizID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Info("attempt started",
		zap.String("userId", userID), zap.String("quizId", quizID), zap.String("attemptId", attempt.ID))
	return envelope(attempt, quiz), nil
}

func newAttempt(userID, quizID string) *domain.QuizAttempt {
	return &domain.QuizAttempt{
		ID:        util.NewULID(),
		UserID:    userID,
		QuizID:    quizID,
		StartedAt: time.Now(),
		Status:    domain.AttemptInProgress,
	}
}

// Resume returns the in-progress attempt on the quiz, or a not-found error
// when there is none.
func (s *attemptService) Resume(ctx context.Context, userID, quizID string) (*dto.AttemptEnvelope, error) {
	quiz, err := s.loadQuizForTaking(ctx, quizID)
	if err != nil {
		return nil, err
	}
	active, err := s.attemptRepo.GetActiveAttempt(ctx, userID, quizID)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	if active == nil {
		return nil, domain.NewNotFoundError("Active attempt for quiz", quizID)
	}
	return envelope(active, quiz), nil
}

// StartOrResume returns the in-progress attempt when one exists, otherwise
// starts a new one.
func (s *attemptService) StartOrResume(ctx context.Context, userID, quizID string) (*dto.AttemptEnvelope, error) {
	quiz, err := s.loadQuizForTaking(ctx, quizID)
	if err != nil {
		return nil, err
	}

	var attempt *domain.QuizAttempt
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.attemptRepo.LockUserQuizAttempts(txCtx, userID, quizID); err != nil {
			return domain.NewInternalError(err)
		}
		active, err := s.attemptRepo.GetActiveAttempt(txCtx, userID, quizID)
		if err != nil {
			return domain.NewInternalError(err)
		}
		if active != nil {
			attempt = active
			return nil
		}
		attempt = newAttempt(userID, quizID)
		if err := s.attemptRepo.CreateAttempt(txCtx, attempt); err != nil {
			return createAttemptError(err, quizID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return envelope(attempt, quiz), nil
}

// Abandon moves the in-progress attempt on the quiz to ABANDONED.
func (s *attemptService) Abandon(ctx context.Context, userID, quizID string) (*dto.QuizAttemptResponse, error) {
	var attempt *domain.QuizAttempt
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.attemptRepo.LockUserQuizAttempts(txCtx, userID, quizID); err != nil {
			return domain.NewInternalError(err)
		}
		active, err := s.attemptRepo.GetActiveAttempt(txCtx, userID, quizID)
		if err != nil {
			return domain.NewInternalError(err)
		}
		if active == nil {
			return domain.NewNotFoundError("Active attempt for quiz", quizID)
		}
		attempt = active
		return s.finish(txCtx, attempt, domain.AttemptAbandoned, 0)
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Info("attempt abandoned",
		zap.String("userId", userID), zap.String("attemptId", attempt.ID))
	resp := dto.QuizAttemptResponseFromDomain(attempt)
	return &resp, nil
}

// EndAndStart abandons the in-progress attempt, if any, and starts a new
// one in the same transaction.
func (s *attemptService) EndAndStart(ctx context.Context, userID, quizID string) (*dto.QuizAttemptResponse, error) {
	if _, err := s.loadQuizForTaking(ctx, quizID); err != nil {
		return nil, err
	}

	var attempt *domain.QuizAttempt
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.attemptRepo.LockUserQuizAttempts(txCtx, userID, quizID); err != nil {
			return domain.NewInternalError(err)
		}
		active, err := s.attemptRepo.GetActiveAttempt(txCtx, userID, quizID)
		if err != nil {
			return domain.NewInternalError(err)
		}
		if active != nil {
			if err := s.finish(txCtx, active, domain.AttemptAbandoned, 0); err != nil {
				return err
			}
		}
		attempt = newAttempt(userID, quizID)
		if err := s.attemptRepo.CreateAttempt(txCtx, attempt); err != nil {
			return createAttemptError(err, quizID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := dto.QuizAttemptResponseFromDomain(attempt)
	return &resp, nil
}

// createAttemptError maps the duplicate-active-attempt insert rejection to
// the domain error; anything else is internal.
func createAttemptError(err error, quizID string) error {
	if errors.Is(err, domain.ErrDuplicateActiveAttempt) {
		return domain.NewActiveAttemptExistsError(quizID)
	}
	return domain.NewInternalError(err)
}

// finish applies a terminal transition and persists it.
func (s *attemptService) finish(ctx context.Context, attempt *domain.QuizAttempt, status domain.AttemptStatus, score int) error {
	now := time.Now()
	attempt.Status = status
	attempt.CompletedAt = &now
	attempt.Score = score
	attempt.TimeTakenSeconds = int(now.Sub(attempt.StartedAt).Seconds())
	if err := s.attemptRepo.FinishAttempt(ctx, attempt); err != nil {
		return domain.NewInternalError(err)
	}
	return nil
}

// Submit grades the answer sheet and completes the attempt. An answer is
// correct iff the selected option set equals the correct option set of the
// question; each correct answer is worth one point. Questions without a
// submitted answer score zero.
func (s *attemptService) Submit(ctx context.Context, userID, attemptID string, submission dto.Submission) (*dto.QuizResult, error) {
	if len(submission.Answers) == 0 {
		return nil, domain.NewBadRequestError("Submission contains no answers")
	}

	var result *dto.QuizResult
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		attempt, err := s.attemptRepo.GetAttemptByID(txCtx, attemptID)
		if err != nil {
			return domain.NewInternalError(err)
		}
		if attempt == nil {
			return domain.NewNotFoundError("Quiz attempt", attemptID)
		}
		if attempt.UserID != userID {
			return domain.NewForbiddenError("Attempt belongs to another user")
		}

		if err := s.attemptRepo.LockUserQuizAttempts(txCtx, attempt.UserID, attempt.QuizID); err != nil {
			return domain.NewInternalError(err)
		}
		// Re-read under the lock; a concurrent submit may have won.
		attempt, err = s.attemptRepo.GetAttemptByID(txCtx, attemptID)
		if err != nil {
			return domain.NewInternalError(err)
		}
		if attempt == nil || !attempt.IsActive() {
			return domain.NewInvalidQuizAttemptError("Attempt is not in progress")
		}

		quiz, err := s.quizRepo.GetQuizByID(txCtx, attempt.QuizID)
		if err != nil {
			return domain.NewInternalError(err)
		}
		if quiz == nil {
			return domain.NewNotFoundError("Quiz", attempt.QuizID)
		}

		selections := make(map[string][]string, len(submission.Answers))
		for _, a := range submission.Answers {
			if quiz.QuestionByID(a.QuestionID) == nil {
				return domain.NewBadRequestError("Answer references a question outside the quiz: " + a.QuestionID)
			}
			if _, dup := selections[a.QuestionID]; dup {
				return domain.NewBadRequestError("Duplicate answer for question: " + a.QuestionID)
			}
			selections[a.QuestionID] = a.SelectedOptionIDs
		}

		now := time.Now()
		score := 0
		answers := make([]domain.UserAnswer, 0, len(submission.Answers))
		questionResults := make([]dto.QuestionResult, 0, len(quiz.Questions))
		for i := range quiz.Questions {
			q := &quiz.Questions[i]
			selected, answered := selections[q.ID]
			if selected == nil {
				selected = []string{}
			}
			correctIDs := q.CorrectOptionIDs()
			isCorrect := answered && domain.ScoreAnswer(correctIDs, selected)
			if isCorrect {
				score++
			}
			if answered {
				answers = append(answers, domain.UserAnswer{
					ID:                util.NewULID(),
					AttemptID:         attempt.ID,
					QuestionID:        q.ID,
					SelectedOptionIDs: selected,
					IsCorrect:         isCorrect,
					AnsweredAt:        now,
				})
			}
			questionResults = append(questionResults, dto.QuestionResult{
				QuestionID:        q.ID,
				QuestionText:      q.Text,
				SelectedOptionIDs: selected,
				CorrectOptionIDs:  correctIDs,
				IsCorrect:         isCorrect,
				Explanation:       q.Explanation,
			})
		}

		if err := s.attemptRepo.SaveUserAnswers(txCtx, answers); err != nil {
			return domain.NewInternalError(err)
		}
		if err := s.finish(txCtx, attempt, domain.AttemptCompleted, score); err != nil {
			return err
		}

		result = &dto.QuizResult{
			AttemptID:        attempt.ID,
			QuizID:           quiz.ID,
			QuizTitle:        quiz.Title,
			Score:            score,
			MaxPossibleScore: len(quiz.Questions),
			Percentage:       util.Percentage(score, len(quiz.Questions)),
			TimeTakenSeconds: attempt.TimeTakenSeconds,
			CompletedAt:      *attempt.CompletedAt,
			QuestionResults:  questionResults,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Info("attempt submitted",
		zap.String("userId", userID), zap.String("attemptId", attemptID), zap.Int("score", result.Score))
	return result, nil
}

// ListMine returns every attempt of the user, newest first.
func (s *attemptService) ListMine(ctx context.Context, userID string) ([]dto.QuizAttemptResponse, error) {
	attempts, err := s.attemptRepo.ListAttemptsByUser(ctx, userID)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	return toAttemptResponses(attempts), nil
}

// ListMineByQuiz returns the user's attempt history on one quiz, newest
// first.
func (s *attemptService) ListMineByQuiz(ctx context.Context, userID, quizID string) ([]dto.QuizAttemptResponse, error) {
	attempts, err := s.attemptRepo.ListAttemptsByUserAndQuiz(ctx, userID, quizID)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	return toAttemptResponses(attempts), nil
}

func toAttemptResponses(attempts []domain.QuizAttempt) []dto.QuizAttemptResponse {
	responses := make([]dto.QuizAttemptResponse, 0, len(attempts))
	for i := range attempts {
		responses = append(responses, dto.QuizAttemptResponseFromDomain(&attempts[i]))
	}
	return responses
}

// GetMine loads one attempt with its answers. Owners and admins only.
func (s *attemptService) GetMine(ctx context.Context, principal *domain.User, attemptID string) (*dto.DetailedAttempt, error) {
	attempt, err := s.attemptRepo.GetAttemptByID(ctx, attemptID)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	if attempt == nil {
		return nil, domain.NewNotFoundError("Quiz attempt", attemptID)
	}
	if attempt.UserID != principal.ID && !principal.IsAdmin() {
		return nil, domain.NewForbiddenError("Attempt belongs to another user")
	}

	answers, err := s.attemptRepo.GetUserAnswers(ctx, attemptID)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	attempt.Answers = answers

	quizTitle := ""
	if quiz, err := s.quizRepo.GetQuizByID(ctx, attempt.QuizID); err == nil && quiz != nil {
		quizTitle = quiz.Title
	}

	detailed := dto.DetailedAttemptFromDomain(attempt, quizTitle)
	return &detailed, nil
}

// DeleteMine removes one attempt. Owners and admins only.
func (s *attemptService) DeleteMine(ctx context.Context, principal *domain.User, attemptID string) error {
	attempt, err := s.attemptRepo.GetAttemptByID(ctx, attemptID)
	if err != nil {
		return domain.NewInternalError(err)
	}
	if attempt == nil {
		return domain.NewNotFoundError("Quiz attempt", attemptID)
	}
	if attempt.UserID != principal.ID && !principal.IsAdmin() {
		return domain.NewForbiddenError("Attempt belongs to another user")
	}
	if err := s.attemptRepo.DeleteAttempt(ctx, attemptID); err != nil {
		return domain.NewInternalError(err)
	}
	return nil
}

// DeleteAllMine removes every attempt of the user.
func (s *attemptService) DeleteAllMine(ctx context.Context, userID string) error {
	if err := s.attemptRepo.DeleteAttemptsByUser(ctx, userID); err != nil {
		return domain.NewInternalError(err)
	}
	return nil
}

// DeleteManyMine removes the named attempts after checking every one is
// owned by the caller (admins may delete any). All or nothing.
func (s *attemptService) DeleteManyMine(ctx context.Context, principal *domain.User, attemptIDs []string) error {
	if len(attemptIDs) == 0 {
		return domain.NewBadRequestError("No attempt ids given")
	}
	return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		attempts, err := s.attemptRepo.GetAttemptsByIDs(txCtx, attemptIDs)
		if err != nil {
			return domain.NewInternalError(err)
		}
		if len(attempts) != len(attemptIDs) {
			return domain.NewNotFoundError("Quiz attempt", "one or more of the given ids")
		}
		for i := range attempts {
			if attempts[i].UserID != principal.ID && !principal.IsAdmin() {
				return domain.NewForbiddenError("Attempt belongs to another user")
			}
		}
		for _, id := range attemptIDs {
			if err := s.attemptRepo.DeleteAttempt(txCtx, id); err != nil {
				return domain.NewInternalError(err)
			}
		}
		return nil
	})
}
