package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

var ErrValidation = errors.New("validation error")

// Snapshot is the read-only projection the evaluator derives a report from.
// It is assembled fresh on every evaluation; caching it would let a stale
// count leak an incomplete profile into visibility.
type Snapshot struct {
	PhotoCount            int
	ApprovedPhotoCount    int
	PromptAnswerCount     int
	RequiredQuestionCount int
	AnsweredQuestionCount int
	HasBirthdate          bool
	HasBio                bool
}

type Requirements struct {
	MinimumPhotos            bool `json:"minimum_photos"`
	MinimumPrompts           bool `json:"minimum_prompts"`
	PersonalityQuestionnaire bool `json:"personality_questionnaire"`
	BasicInfo                bool `json:"basic_info"`
}

// Report describes how close a profile is to meeting visibility
// requirements. It is recomputed on demand and never stored.
type Report struct {
	IsComplete           bool         `json:"is_complete"`
	CompletionPercentage int          `json:"completion_percentage"`
	Requirements         Requirements `json:"requirements"`
	MissingSteps         []string     `json:"missing_steps"`
	NextStep             string       `json:"next_step"`
}

type Basics struct {
	HasBirthdate bool
	HasBio       bool
}

type ProfileStore interface {
	GetBasics(ctx context.Context, userID int64) (Basics, error)
	SetVisibility(ctx context.Context, userID int64, visible bool) error
}

type PhotoStore interface {
	CountByProfile(ctx context.Context, profileID int64) (total int, approved int, err error)
}

type PromptStore interface {
	CountAnswers(ctx context.Context, userID int64) (int, error)
}

type QuestionStore interface {
	CountRequiredActive(ctx context.Context) (int, error)
	CountAnswers(ctx context.Context, userID int64) (int, error)
}

type UserStore interface {
	GetCompletionFlags(ctx context.Context, userID int64) (onboarding bool, profile bool, err error)
	SetCompletionFlags(ctx context.Context, userID int64, onboarding bool, profile bool) error
}

type Dependencies struct {
	Profiles  ProfileStore
	Photos    PhotoStore
	Prompts   PromptStore
	Questions QuestionStore
	Users     UserStore
	Logger    *zap.Logger
}

type Config struct {
	MinPhotos       int
	RequiredPrompts int
}

// Service derives the completion state of a profile from its current
// underlying rows. The two durable user flags are a cache of Evaluate's
// output, written back only through Reconcile.
type Service struct {
	profiles  ProfileStore
	photos    PhotoStore
	prompts   PromptStore
	questions QuestionStore
	users     UserStore
	logger    *zap.Logger
	cfg       Config
}

func NewService(deps Dependencies, cfg Config) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MinPhotos <= 0 {
		cfg.MinPhotos = 3
	}
	if cfg.RequiredPrompts <= 0 {
		cfg.RequiredPrompts = 3
	}

	return &Service{
		profiles:  deps.Profiles,
		photos:    deps.Photos,
		prompts:   deps.Prompts,
		questions: deps.Questions,
		users:     deps.Users,
		logger:    logger,
		cfg:       cfg,
	}
}

// Evaluate is a pure function of the current profile state: two calls
// without intervening mutations yield identical reports.
func (s *Service) Evaluate(ctx context.Context, userID int64) (Report, error) {
	snapshot, err := s.buildSnapshot(ctx, userID)
	if err != nil {
		return Report{}, err
	}
	return s.buildReport(snapshot), nil
}

// Reconcile recomputes the two durable flags and persists them only when at
// least one differs from the stored value. Idempotent and safe to run
// concurrently with itself: it writes the output of a pure function.
func (s *Service) Reconcile(ctx context.Context, userID int64) error {
	snapshot, err := s.buildSnapshot(ctx, userID)
	if err != nil {
		return err
	}

	requirements := s.evaluateRequirements(snapshot)
	onboarding := requirements.PersonalityQuestionnaire
	profile := allSatisfied(requirements)

	storedOnboarding, storedProfile, err := s.users.GetCompletionFlags(ctx, userID)
	if err != nil {
		return fmt.Errorf("load completion flags: %w", err)
	}
	if storedOnboarding == onboarding && storedProfile == profile {
		return nil
	}

	if err := s.users.SetCompletionFlags(ctx, userID, onboarding, profile); err != nil {
		return fmt.Errorf("store completion flags: %w", err)
	}

	s.logger.Info("completion flags updated",
		zap.Int64("user_id", userID),
		zap.Bool("onboarding_completed", onboarding),
		zap.Bool("profile_completed", profile),
	)
	return nil
}

// IncompleteProfileError is returned when visibility is requested for a
// profile that does not meet all requirements. Missing carries the same
// phrasing as Report.MissingSteps.
type IncompleteProfileError struct {
	Missing []string
}

func (e *IncompleteProfileError) Error() string {
	return fmt.Sprintf("profile is incomplete: %s", strings.Join(e.Missing, "; "))
}

// SetVisible gates profile visibility on completeness. Turning visibility
// off is always permitted; turning it on requires a complete profile.
func (s *Service) SetVisible(ctx context.Context, userID int64, wantVisible bool) error {
	if userID <= 0 {
		return fmt.Errorf("invalid user id: %w", ErrValidation)
	}

	if wantVisible {
		report, err := s.Evaluate(ctx, userID)
		if err != nil {
			return err
		}
		if !report.IsComplete {
			return &IncompleteProfileError{Missing: report.MissingSteps}
		}
	}

	if err := s.profiles.SetVisibility(ctx, userID, wantVisible); err != nil {
		return fmt.Errorf("set profile visibility: %w", err)
	}
	return nil
}

func (s *Service) buildSnapshot(ctx context.Context, userID int64) (Snapshot, error) {
	if userID <= 0 {
		return Snapshot{}, fmt.Errorf("invalid user id: %w", ErrValidation)
	}
	if s.profiles == nil || s.photos == nil || s.prompts == nil || s.questions == nil || s.users == nil {
		return Snapshot{}, fmt.Errorf("completion dependencies are not configured")
	}

	basics, err := s.profiles.GetBasics(ctx, userID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load profile basics: %w", err)
	}

	total, approved, err := s.photos.CountByProfile(ctx, userID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("count photos: %w", err)
	}

	promptCount, err := s.prompts.CountAnswers(ctx, userID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("count prompt answers: %w", err)
	}

	// Live query on purpose: adding or retiring a required question changes
	// eligibility for everyone on the next evaluation, no migration needed.
	required, err := s.questions.CountRequiredActive(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("count required questions: %w", err)
	}

	answered, err := s.questions.CountAnswers(ctx, userID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("count questionnaire answers: %w", err)
	}

	return Snapshot{
		PhotoCount:            total,
		ApprovedPhotoCount:    approved,
		PromptAnswerCount:     promptCount,
		RequiredQuestionCount: required,
		AnsweredQuestionCount: answered,
		HasBirthdate:          basics.HasBirthdate,
		HasBio:                basics.HasBio,
	}, nil
}

func (s *Service) evaluateRequirements(snapshot Snapshot) Requirements {
	return Requirements{
		// All uploaded photos count, approved or not: a user whose photos
		// are still pending asynchronous moderation must not be deadlocked
		// out of completing their profile.
		MinimumPhotos:            snapshot.PhotoCount >= s.cfg.MinPhotos,
		MinimumPrompts:           snapshot.PromptAnswerCount == s.cfg.RequiredPrompts,
		PersonalityQuestionnaire: snapshot.AnsweredQuestionCount >= snapshot.RequiredQuestionCount,
		BasicInfo:                snapshot.HasBirthdate && snapshot.HasBio,
	}
}

func (s *Service) buildReport(snapshot Snapshot) Report {
	requirements := s.evaluateRequirements(snapshot)

	satisfied := 0
	for _, ok := range []bool{
		requirements.MinimumPhotos,
		requirements.MinimumPrompts,
		requirements.PersonalityQuestionnaire,
		requirements.BasicInfo,
	} {
		if ok {
			satisfied++
		}
	}

	report := Report{
		IsComplete:           satisfied == 4,
		CompletionPercentage: satisfied * 25,
		Requirements:         requirements,
		MissingSteps:         s.missingSteps(requirements, snapshot),
		NextStep:             s.nextStep(requirements, snapshot),
	}
	return report
}

// missingSteps enumerates unsatisfied requirements in the fixed order
// photos, prompts, personality, basic info.
func (s *Service) missingSteps(requirements Requirements, snapshot Snapshot) []string {
	var steps []string
	if !requirements.MinimumPhotos {
		steps = append(steps, s.photosMessage(snapshot))
	}
	if !requirements.MinimumPrompts {
		steps = append(steps, s.promptsMessage(snapshot))
	}
	if !requirements.PersonalityQuestionnaire {
		steps = append(steps, s.personalityMessage(snapshot))
	}
	if !requirements.BasicInfo {
		steps = append(steps, basicInfoMessage)
	}
	return steps
}

// nextStep picks the single highest-priority unsatisfied requirement. The
// priority order (basic info, personality, photos, prompts) is deliberately
// different from the enumeration order of missingSteps.
func (s *Service) nextStep(requirements Requirements, snapshot Snapshot) string {
	switch {
	case !requirements.BasicInfo:
		return basicInfoMessage
	case !requirements.PersonalityQuestionnaire:
		return s.personalityMessage(snapshot)
	case !requirements.MinimumPhotos:
		return s.photosMessage(snapshot)
	case !requirements.MinimumPrompts:
		return s.promptsMessage(snapshot)
	default:
		return profileCompleteMessage
	}
}

const (
	basicInfoMessage       = "Add your birth date and a short bio to complete your basic info."
	profileCompleteMessage = "Your profile is complete and can be made visible."
)

func (s *Service) photosMessage(snapshot Snapshot) string {
	return fmt.Sprintf("Add at least %d photos to your profile (%d uploaded).", s.cfg.MinPhotos, snapshot.PhotoCount)
}

// promptsMessage distinguishes the "need more" case from the "remove extra"
// case: the product offers exactly RequiredPrompts slots, so both too few
// and too many answers leave the requirement unsatisfied.
func (s *Service) promptsMessage(snapshot Snapshot) string {
	target := s.cfg.RequiredPrompts
	count := snapshot.PromptAnswerCount
	switch {
	case count < target:
		return fmt.Sprintf("Answer %d more prompt(s) to reach the required %d.", target-count, target)
	case count > target:
		return fmt.Sprintf("Remove %d extra prompt answer(s); exactly %d are allowed.", count-target, target)
	default:
		return fmt.Sprintf("Answer exactly %d prompts.", target)
	}
}

func (s *Service) personalityMessage(snapshot Snapshot) string {
	return fmt.Sprintf("Finish the personality questionnaire (%d of %d required questions answered).",
		snapshot.AnsweredQuestionCount, snapshot.RequiredQuestionCount)
}

func allSatisfied(requirements Requirements) bool {
	return requirements.MinimumPhotos &&
		requirements.MinimumPrompts &&
		requirements.PersonalityQuestionnaire &&
		requirements.BasicInfo
}
