package personality

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/marcucus/goldwen-backend/internal/services/moderation"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrUnknownQuestion = errors.New("unknown question")
)

const maxAnswerLength = 300

// Question is one questionnaire entry. Only active questions accept
// answers; required ones gate onboarding completion.
type Question struct {
	ID         int64  `json:"id"`
	Text       string `json:"text"`
	IsActive   bool   `json:"is_active"`
	IsRequired bool   `json:"is_required"`
}

type Answer struct {
	QuestionID int64  `json:"question_id"`
	Answer     string `json:"answer"`
}

type StoredAnswer struct {
	QuestionID int64     `json:"question_id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	CreatedAt  time.Time `json:"created_at"`
}

type Store interface {
	ListActiveQuestions(ctx context.Context) ([]Question, error)
	// ReplaceAnswers swaps the user's full answer set in one transaction.
	ReplaceAnswers(ctx context.Context, userID int64, answers []Answer) error
	ListAnswers(ctx context.Context, userID int64) ([]StoredAnswer, error)
}

type Moderator interface {
	ModerateTextBatch(ctx context.Context, texts []string) []moderation.Verdict
}

type Reconciler interface {
	Reconcile(ctx context.Context, userID int64) error
}

type Dependencies struct {
	Store      Store
	Moderator  Moderator
	Completion Reconciler
	Logger     *zap.Logger
}

type Service struct {
	store      Store
	moderator  Moderator
	completion Reconciler
	logger     *zap.Logger
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:      deps.Store,
		moderator:  deps.Moderator,
		completion: deps.Completion,
		logger:     logger,
	}
}

func (s *Service) ListQuestions(ctx context.Context) ([]Question, error) {
	if s.store == nil {
		return nil, fmt.Errorf("personality dependencies are not configured")
	}
	questions, err := s.store.ListActiveQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return questions, nil
}

// SubmitAnswers replaces the user's questionnaire answers. Answers to
// inactive or unknown questions are refused, free text is moderated, and
// one rejection aborts the whole submission.
func (s *Service) SubmitAnswers(ctx context.Context, userID int64, answers []Answer) error {
	if userID <= 0 || len(answers) == 0 {
		return ErrValidation
	}
	if s.store == nil || s.moderator == nil {
		return fmt.Errorf("personality dependencies are not configured")
	}

	questions, err := s.store.ListActiveQuestions(ctx)
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}
	active := make(map[int64]struct{}, len(questions))
	for _, q := range questions {
		active[q.ID] = struct{}{}
	}

	seen := make(map[int64]struct{}, len(answers))
	texts := make([]string, len(answers))
	for i, answer := range answers {
		if _, ok := active[answer.QuestionID]; !ok {
			return fmt.Errorf("question %d: %w", answer.QuestionID, ErrUnknownQuestion)
		}
		if _, dup := seen[answer.QuestionID]; dup {
			return fmt.Errorf("question %d answered twice: %w", answer.QuestionID, ErrValidation)
		}
		seen[answer.QuestionID] = struct{}{}

		text := strings.TrimSpace(answer.Answer)
		if text == "" {
			return fmt.Errorf("answer %d is empty: %w", i, ErrValidation)
		}
		if len(text) > maxAnswerLength {
			return fmt.Errorf("answer %d exceeds %d characters: %w", i, maxAnswerLength, ErrValidation)
		}
		answers[i].Answer = text
		texts[i] = text
	}

	verdicts := s.moderator.ModerateTextBatch(ctx, texts)
	var rejected []moderation.FieldRejection
	for i, verdict := range verdicts {
		if verdict.Approved {
			continue
		}
		rejected = append(rejected, moderation.FieldRejection{
			Field:  fmt.Sprintf("question:%d", answers[i].QuestionID),
			Reason: verdict.Reason,
		})
	}
	if len(rejected) > 0 {
		return &moderation.RejectedContentError{Fields: rejected}
	}

	if err := s.store.ReplaceAnswers(ctx, userID, answers); err != nil {
		return fmt.Errorf("replace questionnaire answers: %w", err)
	}

	s.logger.Info("questionnaire answers replaced",
		zap.Int64("user_id", userID), zap.Int("count", len(answers)))

	s.reconcile(ctx, userID)
	return nil
}

func (s *Service) ListAnswers(ctx context.Context, userID int64) ([]StoredAnswer, error) {
	if userID <= 0 {
		return nil, ErrValidation
	}
	if s.store == nil {
		return nil, fmt.Errorf("personality dependencies are not configured")
	}

	answers, err := s.store.ListAnswers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list questionnaire answers: %w", err)
	}
	return answers, nil
}

func (s *Service) reconcile(ctx context.Context, userID int64) {
	if s.completion == nil {
		return
	}
	if err := s.completion.Reconcile(ctx, userID); err != nil {
		s.logger.Error("completion reconcile failed",
			zap.Int64("user_id", userID), zap.Error(err))
	}
}
