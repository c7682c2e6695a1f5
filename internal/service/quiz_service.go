package service

import (
	"context"

	"go.uber.org/zap"

	"quizapp/internal/domain"
	"quizapp/internal/dto"
	"quizapp/internal/logger"
	"quizapp/internal/util"
)

// QuizService manages the quiz catalogue. Listing respects publication
// state; mutation is for administrators.
type QuizService interface {
	ListPublished(ctx context.Context) ([]dto.QuizResponse, error)
	ListAll(ctx context.Context) ([]dto.QuizResponse, error)
	GetQuiz(ctx context.Context, id string, principal *domain.User) (*dto.QuizResponse, error)
	CreateQuiz(ctx context.Context, req dto.CreateQuizRequest, createdBy string) (*dto.QuizResponse, error)
	UpdateQuiz(ctx context.Context, id string, req dto.CreateQuizRequest) (*dto.QuizResponse, error)
	DeleteQuiz(ctx context.Context, id string) error
	GetQuestions(ctx context.Context, quizID string, principal *domain.User) ([]dto.QuestionResponse, error)
	AddQuestion(ctx context.Context, quizID string, req dto.QuestionRequest) (*dto.QuestionResponse, error)
	UpdateQuestion(ctx context.Context, questionID string, req dto.QuestionRequest) (*dto.QuestionResponse, error)
	DeleteQuestion(ctx context.Context, questionID string) error
}

type quizService struct {
	quizRepo  domain.QuizRepository
	txManager domain.TransactionManager
}

// NewQuizService creates a new QuizService.
func NewQuizService(quizRepo domain.QuizRepository, txManager domain.TransactionManager) QuizService {
	return &quizService{quizRepo: quizRepo, txManager: txManager}
}

// ListPublished returns the headers of all published quizzes.
func (s *quizService) ListPublished(ctx context.Context) ([]dto.QuizResponse, error) {
	quizzes, err := s.quizRepo.ListQuizzes(ctx)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	responses := make([]dto.QuizResponse, 0, len(quizzes))
	for i := range quizzes {
		if !quizzes[i].IsPublished {
			continue
		}
		responses = append(responses, dto.QuizResponseFromDomain(&quizzes[i], false, false))
	}
	return responses, nil
}

// ListAll returns every quiz header, published or not.
func (s *quizService) ListAll(ctx context.Context) ([]dto.QuizResponse, error) {
	quizzes, err := s.quizRepo.ListQuizzes(ctx)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	responses := make([]dto.QuizResponse, 0, len(quizzes))
	for i := range quizzes {
		responses = append(responses, dto.QuizResponseFromDomain(&quizzes[i], false, false))
	}
	return responses, nil
}

// GetQuiz loads the full quiz. Correct options and explanations are only
// revealed to administrators; unpublished quizzes are invisible to others.
func (s *quizService) GetQuiz(ctx context.Context, id string, principal *domain.User) (*dto.QuizResponse, error) {
	quiz, err := s.quizRepo.GetQuizByID(ctx, id)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	isAdmin := principal != nil && principal.IsAdmin()
	if quiz == nil || (!quiz.IsPublished && !isAdmin) {
		return nil, domain.NewNotFoundError("Quiz", id)
	}
	resp := dto.QuizResponseFromDomain(quiz, true, isAdmin)
	return &resp, nil
}

// CreateQuiz creates a quiz header. Questions are added one by one.
func (s *quizService) CreateQuiz(ctx context.Context, req dto.CreateQuizRequest, createdBy string) (*dto.QuizResponse, error) {
	difficulty := domain.Difficulty(req.Difficulty)
	if difficulty == "" {
		difficulty = domain.DifficultyUnassigned
	}
	quiz := &domain.Quiz{
		ID:               util.NewULID(),
		Title:            req.Title,
		Description:      req.Description,
		TimeLimitMinutes: req.TimeLimitMinutes,
		IsPublished:      req.IsPublished,
		Difficulty:       difficulty,
		CreatedBy:        createdBy,
	}
	if err := s.quizRepo.CreateQuiz(ctx, quiz); err != nil {
		return nil, domain.NewInternalError(err)
	}

	logger.Get().Info("quiz created", zap.String("quizId", quiz.ID), zap.String("title", quiz.Title))
	resp := dto.QuizResponseFromDomain(quiz, false, true)
	return &resp, nil
}

// UpdateQuiz rewrites the quiz header fields.
func (s *quizService) UpdateQuiz(ctx context.Context, id string, req dto.CreateQuizRequest) (*dto.QuizResponse, error) {
	quiz, err := s.quizRepo.GetQuizByID(ctx, id)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	if quiz == nil {
		return nil, domain.NewNotFoundError("Quiz", id)
	}

	quiz.Title = req.Title
	quiz.Description = req.Description
	quiz.TimeLimitMinutes = req.TimeLimitMinutes
	quiz.IsPublished = req.IsPublished
	if req.Difficulty != "" {
		quiz.Difficulty = domain.Difficulty(req.Difficulty)
	}
	if err := s.quizRepo.UpdateQuiz(ctx, quiz); err != nil {
		return nil, domain.NewInternalError(err)
	}
	resp := dto.QuizResponseFromDomain(quiz, true, true)
	return &resp, nil
}

// DeleteQuiz removes the quiz and everything hanging off it.
func (s *quizService) DeleteQuiz(ctx context.Context, id string) error {
	quiz, err := s.quizRepo.GetQuizByID(ctx, id)
	if err != nil {
		return domain.NewInternalError(err)
	}
	if quiz == nil {
		return domain.NewNotFoundError("Quiz", id)
	}
	if err := s.quizRepo.DeleteQuiz(ctx, id); err != nil {
		return domain.NewInternalError(err)
	}
	logger.Get().Info("quiz deleted", zap.String("quizId", id))
	return nil
}

// GetQuestions lists the questions of a quiz. Correct options are only
// revealed to administrators; unpublished quizzes are invisible to others.
func (s *quizService) GetQuestions(ctx context.Context, quizID string, principal *domain.User) ([]dto.QuestionResponse, error) {
	quiz, err := s.quizRepo.GetQuizByID(ctx, quizID)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	isAdmin := principal != nil && principal.IsAdmin()
	if quiz == nil || (!quiz.IsPublished && !isAdmin) {
		return nil, domain.NewNotFoundError("Quiz", quizID)
	}
	responses := make([]dto.QuestionResponse, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		responses = append(responses, dto.QuestionResponseFromDomain(q, isAdmin))
	}
	return responses, nil
}

func questionFromRequest(req dto.QuestionRequest) *domain.Question {
	difficulty := domain.Difficulty(req.Difficulty)
	if difficulty == "" {
		difficulty = domain.DifficultyUnassigned
	}
	question := &domain.Question{
		ID:           util.NewULID(),
		Text:         req.Text,
		QuestionType: domain.QuestionType(req.QuestionType),
		Difficulty:   difficulty,
		Explanation:  req.Explanation,
	}
	for _, o := range req.Options {
		question.Options = append(question.Options, domain.Option{
			ID:         util.NewULID(),
			QuestionID: question.ID,
			Text:       o.Text,
			IsCorrect:  o.IsCorrect,
		})
	}
	return question
}

// AddQuestion appends a question to a quiz after validating its structure.
func (s *quizService) AddQuestion(ctx context.Context, quizID string, req dto.QuestionRequest) (*dto.QuestionResponse, error) {
	quiz, err := s.quizRepo.GetQuizByID(ctx, quizID)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	if quiz == nil {
		return nil, domain.NewNotFoundError("Quiz", quizID)
	}

	question := questionFromRequest(req)
	question.QuizID = quizID
	if err := question.ValidateStructure(); err != nil {
		return nil, err
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.quizRepo.AddQuestion(txCtx, question)
	})
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	resp := dto.QuestionResponseFromDomain(*question, true)
	return &resp, nil
}

// UpdateQuestion rewrites a question and replaces its options.
func (s *quizService) UpdateQuestion(ctx context.Context, questionID string, req dto.QuestionRequest) (*dto.QuestionResponse, error) {
	existing, err := s.quizRepo.GetQuestionByID(ctx, questionID)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	if existing == nil {
		return nil, domain.NewNotFoundError("Question", questionID)
	}

	question := questionFromRequest(req)
	question.ID = existing.ID
	question.QuizID = existing.QuizID
	for i := range question.Options {
		question.Options[i].QuestionID = question.ID
	}
	if err := question.ValidateStructure(); err != nil {
		return nil, err
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.quizRepo.UpdateQuestion(txCtx, question)
	})
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	resp := dto.QuestionResponseFromDomain(*question, true)
	return &resp, nil
}

// DeleteQuestion removes a question and its options.
func (s *quizService) DeleteQuestion(ctx context.Context, questionID string) error {
	existing, err := s.quizRepo.GetQuestionByID(ctx, questionID)
	if err != nil {
		return domain.NewInternalError(err)
	}
	if existing == nil {
		return domain.NewNotFoundError("Question", questionID)
	}
	if err := s.quizRepo.DeleteQuestion(ctx, questionID); err != nil {
		return domain.NewInternalError(err)
	}
	return nil
}
