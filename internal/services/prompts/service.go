package prompts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/marcucus/goldwen-backend/internal/services/moderation"
)

var ErrValidation = errors.New("validation error")

const maxAnswerLength = 500

// Answer pairs a prompt with the user's free-text response.
type Answer struct {
	PromptID int64  `json:"prompt_id"`
	Answer   string `json:"answer"`
}

// StoredAnswer is an Answer as read back from storage.
type StoredAnswer struct {
	PromptID  int64     `json:"prompt_id"`
	Prompt    string    `json:"prompt"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}

type Store interface {
	// ReplaceAnswers swaps the user's full answer set in one transaction.
	ReplaceAnswers(ctx context.Context, userID int64, answers []Answer) error
	ListAnswers(ctx context.Context, userID int64) ([]StoredAnswer, error)
	CountAnswers(ctx context.Context, userID int64) (int, error)
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

// SubmitAnswers replaces the user's entire answer set. Every answer is
// moderated first; one rejection aborts the whole submission and the
// stored set stays untouched.
func (s *Service) SubmitAnswers(ctx context.Context, userID int64, answers []Answer) error {
	if userID <= 0 || len(answers) == 0 {
		return ErrValidation
	}
	if s.store == nil || s.moderator == nil {
		return fmt.Errorf("prompt dependencies are not configured")
	}

	seen := make(map[int64]struct{}, len(answers))
	texts := make([]string, len(answers))
	for i, answer := range answers {
		if answer.PromptID <= 0 {
			return fmt.Errorf("answer %d has no prompt: %w", i, ErrValidation)
		}
		if _, dup := seen[answer.PromptID]; dup {
			return fmt.Errorf("prompt %d answered twice: %w", answer.PromptID, ErrValidation)
		}
		seen[answer.PromptID] = struct{}{}

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
			Field:  fmt.Sprintf("prompt:%d", answers[i].PromptID),
			Reason: verdict.Reason,
		})
	}
	if len(rejected) > 0 {
		return &moderation.RejectedContentError{Fields: rejected}
	}

	if err := s.store.ReplaceAnswers(ctx, userID, answers); err != nil {
		return fmt.Errorf("replace prompt answers: %w", err)
	}

	s.logger.Info("prompt answers replaced",
		zap.Int64("user_id", userID), zap.Int("count", len(answers)))

	s.reconcile(ctx, userID)
	return nil
}

func (s *Service) ListAnswers(ctx context.Context, userID int64) ([]StoredAnswer, error) {
	if userID <= 0 {
		return nil, ErrValidation
	}
	if s.store == nil {
		return nil, fmt.Errorf("prompt dependencies are not configured")
	}

	answers, err := s.store.ListAnswers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list prompt answers: %w", err)
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
