package profiles

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
	ErrAgeRejected     = errors.New("age rejected")
	ErrProfileNotFound = errors.New("profile not found")
)

const maxBioLength = 600

type BasicsInput struct {
	Birthdate time.Time `json:"birthdate"`
	Bio       string    `json:"bio"`
}

type Profile struct {
	UserID    int64      `json:"user_id"`
	Birthdate *time.Time `json:"birthdate,omitempty"`
	Bio       string     `json:"bio"`
	IsVisible bool       `json:"is_visible"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type Store interface {
	UpsertBasics(ctx context.Context, userID int64, birthdate time.Time, bio string) error
	GetProfile(ctx context.Context, userID int64) (Profile, error)
}

type Moderator interface {
	ModerateText(ctx context.Context, text string, userID int64) moderation.Verdict
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
	now        func() time.Time
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
		now:        time.Now,
	}
}

// UpdateBasics validates and stores the birth date and bio. The bio goes
// through text moderation before anything is written.
func (s *Service) UpdateBasics(ctx context.Context, userID int64, in BasicsInput) error {
	if userID <= 0 {
		return fmt.Errorf("invalid user id: %w", ErrValidation)
	}
	if s.store == nil || s.moderator == nil {
		return fmt.Errorf("profile dependencies are not configured")
	}

	if in.Birthdate.IsZero() {
		return fmt.Errorf("birthdate is required: %w", ErrValidation)
	}
	if ageYears(in.Birthdate, s.now()) < 18 {
		return ErrAgeRejected
	}

	bio := strings.TrimSpace(in.Bio)
	if bio == "" {
		return fmt.Errorf("bio is required: %w", ErrValidation)
	}
	if len(bio) > maxBioLength {
		return fmt.Errorf("bio exceeds %d characters: %w", maxBioLength, ErrValidation)
	}

	verdict := s.moderator.ModerateText(ctx, bio, userID)
	if !verdict.Approved {
		return &moderation.RejectedContentError{Fields: []moderation.FieldRejection{
			{Field: "bio", Reason: verdict.Reason},
		}}
	}

	if err := s.store.UpsertBasics(ctx, userID, in.Birthdate, bio); err != nil {
		return fmt.Errorf("save profile basics: %w", err)
	}

	s.logger.Info("profile basics updated", zap.Int64("user_id", userID))

	s.reconcile(ctx, userID)
	return nil
}

func (s *Service) Get(ctx context.Context, userID int64) (Profile, error) {
	if userID <= 0 {
		return Profile{}, fmt.Errorf("invalid user id: %w", ErrValidation)
	}
	if s.store == nil {
		return Profile{}, fmt.Errorf("profile dependencies are not configured")
	}

	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	return profile, nil
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

func ageYears(birthdate time.Time, now time.Time) int {
	b := birthdate.UTC()
	n := now.UTC()

	years := n.Year() - b.Year()
	if n.Month() < b.Month() || (n.Month() == b.Month() && n.Day() < b.Day()) {
		years--
	}

	return years
}
