package completion

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

type fakeState struct {
	basics        Basics
	totalPhotos   int
	approved      int
	promptAnswers int
	required      int
	answered      int

	onboardingFlag bool
	profileFlag    bool
	flagWrites     int

	visible         bool
	visibilityCalls int
}

func (f *fakeState) GetBasics(_ context.Context, _ int64) (Basics, error) {
	return f.basics, nil
}

func (f *fakeState) SetVisibility(_ context.Context, _ int64, visible bool) error {
	f.visible = visible
	f.visibilityCalls++
	return nil
}

func (f *fakeState) CountByProfile(_ context.Context, _ int64) (int, int, error) {
	return f.totalPhotos, f.approved, nil
}

func (f *fakeState) CountAnswers(_ context.Context, _ int64) (int, error) {
	return f.promptAnswers, nil
}

type fakeQuestions struct {
	state *fakeState
}

func (f fakeQuestions) CountRequiredActive(_ context.Context) (int, error) {
	return f.state.required, nil
}

func (f fakeQuestions) CountAnswers(_ context.Context, _ int64) (int, error) {
	return f.state.answered, nil
}

func (f *fakeState) GetCompletionFlags(_ context.Context, _ int64) (bool, bool, error) {
	return f.onboardingFlag, f.profileFlag, nil
}

func (f *fakeState) SetCompletionFlags(_ context.Context, _ int64, onboarding, profile bool) error {
	f.onboardingFlag = onboarding
	f.profileFlag = profile
	f.flagWrites++
	return nil
}

func newTestService(state *fakeState) *Service {
	return NewService(Dependencies{
		Profiles:  state,
		Photos:    state,
		Prompts:   state,
		Questions: fakeQuestions{state: state},
		Users:     state,
	}, Config{MinPhotos: 3, RequiredPrompts: 3})
}

func completeState() *fakeState {
	return &fakeState{
		basics:        Basics{HasBirthdate: true, HasBio: true},
		totalPhotos:   3,
		promptAnswers: 3,
		required:      10,
		answered:      10,
	}
}

func TestEvaluateCompleteProfile(t *testing.T) {
	svc := newTestService(completeState())

	report, err := svc.Evaluate(context.Background(), 1)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !report.IsComplete {
		t.Fatalf("expected complete profile, got %+v", report)
	}
	if report.CompletionPercentage != 100 {
		t.Fatalf("unexpected percentage: %d", report.CompletionPercentage)
	}
	if len(report.MissingSteps) != 0 {
		t.Fatalf("complete profile must have no missing steps: %v", report.MissingSteps)
	}
	if report.NextStep != profileCompleteMessage {
		t.Fatalf("unexpected next step: %q", report.NextStep)
	}
}

func TestEvaluateIsPure(t *testing.T) {
	state := completeState()
	state.promptAnswers = 2
	svc := newTestService(state)

	first, err := svc.Evaluate(context.Background(), 1)
	if err != nil {
		t.Fatalf("first evaluate: %v", err)
	}
	second, err := svc.Evaluate(context.Background(), 1)
	if err != nil {
		t.Fatalf("second evaluate: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("evaluate is not pure: %+v vs %+v", first, second)
	}
}

func TestEvaluatePromptCountIsExact(t *testing.T) {
	tests := []struct {
		name      string
		answers   int
		satisfied bool
		fragment  string
	}{
		{name: "two answers need one more", answers: 2, satisfied: false, fragment: "Answer 1 more"},
		{name: "three answers satisfied", answers: 3, satisfied: true},
		{name: "four answers need removal", answers: 4, satisfied: false, fragment: "Remove 1 extra"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := completeState()
			state.promptAnswers = tt.answers
			svc := newTestService(state)

			report, err := svc.Evaluate(context.Background(), 1)
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if report.Requirements.MinimumPrompts != tt.satisfied {
				t.Fatalf("prompts requirement: got %v want %v", report.Requirements.MinimumPrompts, tt.satisfied)
			}
			if tt.satisfied {
				return
			}
			found := false
			for _, step := range report.MissingSteps {
				if strings.Contains(step, tt.fragment) {
					found = true
				}
			}
			if !found {
				t.Fatalf("missing steps %v do not contain %q", report.MissingSteps, tt.fragment)
			}
		})
	}
}

func TestEvaluateTooManyPromptsExample(t *testing.T) {
	// photos=3, prompts=4, personality 10/10, basic info present.
	state := completeState()
	state.promptAnswers = 4
	svc := newTestService(state)

	report, err := svc.Evaluate(context.Background(), 1)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if report.IsComplete {
		t.Fatalf("profile with 4 prompt answers must not be complete")
	}
	if report.CompletionPercentage != 75 {
		t.Fatalf("unexpected percentage: %d", report.CompletionPercentage)
	}
	if len(report.MissingSteps) != 1 || !strings.Contains(report.MissingSteps[0], "Remove") {
		t.Fatalf("expected a single remove-extra step, got %v", report.MissingSteps)
	}
}

func TestEvaluatePhotoCountIncludesPending(t *testing.T) {
	state := completeState()
	state.totalPhotos = 3
	state.approved = 0
	svc := newTestService(state)

	report, err := svc.Evaluate(context.Background(), 1)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !report.Requirements.MinimumPhotos {
		t.Fatalf("pending photos must count toward the minimum")
	}
}

func TestEvaluateRequiredQuestionCountIsLive(t *testing.T) {
	state := completeState()
	state.required = 10
	state.answered = 10
	svc := newTestService(state)

	report, _ := svc.Evaluate(context.Background(), 1)
	if !report.Requirements.PersonalityQuestionnaire {
		t.Fatalf("10/10 must satisfy the questionnaire")
	}

	// A new required question immediately changes eligibility.
	state.required = 11
	report, _ = svc.Evaluate(context.Background(), 1)
	if report.Requirements.PersonalityQuestionnaire {
		t.Fatalf("10/11 must not satisfy the questionnaire")
	}
}

func TestMissingStepsOrderAndNextStepPriorityDiffer(t *testing.T) {
	// Everything unsatisfied: enumeration order is photos, prompts,
	// personality, basic info; next-step priority starts at basic info.
	state := &fakeState{required: 10}
	svc := newTestService(state)

	report, err := svc.Evaluate(context.Background(), 1)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(report.MissingSteps) != 4 {
		t.Fatalf("expected 4 missing steps, got %v", report.MissingSteps)
	}
	if !strings.Contains(report.MissingSteps[0], "photos") {
		t.Fatalf("first missing step should be photos: %v", report.MissingSteps)
	}
	if !strings.Contains(report.MissingSteps[3], "basic info") {
		t.Fatalf("last missing step should be basic info: %v", report.MissingSteps)
	}
	if report.NextStep != basicInfoMessage {
		t.Fatalf("next step must prioritize basic info, got %q", report.NextStep)
	}
	if report.CompletionPercentage != 0 {
		t.Fatalf("unexpected percentage: %d", report.CompletionPercentage)
	}
}

func TestNextStepPriorityChain(t *testing.T) {
	state := completeState()
	state.answered = 0
	state.totalPhotos = 0
	svc := newTestService(state)

	// Basic info satisfied, personality unsatisfied wins over photos.
	report, _ := svc.Evaluate(context.Background(), 1)
	if !strings.Contains(report.NextStep, "questionnaire") {
		t.Fatalf("personality should outrank photos, got %q", report.NextStep)
	}

	state.answered = 10
	report, _ = svc.Evaluate(context.Background(), 1)
	if !strings.Contains(report.NextStep, "photos") {
		t.Fatalf("photos should outrank prompts, got %q", report.NextStep)
	}
}

func TestReconcileWritesOnlyOnChange(t *testing.T) {
	state := completeState()
	svc := newTestService(state)

	if err := svc.Reconcile(context.Background(), 1); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if state.flagWrites != 1 {
		t.Fatalf("first reconcile should write flags once, wrote %d", state.flagWrites)
	}
	if !state.onboardingFlag || !state.profileFlag {
		t.Fatalf("flags not set: onboarding=%v profile=%v", state.onboardingFlag, state.profileFlag)
	}

	if err := svc.Reconcile(context.Background(), 1); err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	if state.flagWrites != 1 {
		t.Fatalf("unchanged reconcile must not write, wrote %d times", state.flagWrites)
	}
}

func TestReconcileOnboardingTracksPersonalityAlone(t *testing.T) {
	state := completeState()
	state.totalPhotos = 0
	svc := newTestService(state)

	if err := svc.Reconcile(context.Background(), 1); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !state.onboardingFlag {
		t.Fatalf("onboarding should complete with the questionnaire alone")
	}
	if state.profileFlag {
		t.Fatalf("profile must not be complete without photos")
	}
}

func TestSetVisibleOnIncompleteProfileFailsWithMissingSteps(t *testing.T) {
	state := completeState()
	state.promptAnswers = 1
	svc := newTestService(state)

	err := svc.SetVisible(context.Background(), 1, true)
	var incomplete *IncompleteProfileError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompleteProfileError, got %v", err)
	}

	report, _ := svc.Evaluate(context.Background(), 1)
	if !reflect.DeepEqual(incomplete.Missing, report.MissingSteps) {
		t.Fatalf("error requirements %v do not match missing steps %v", incomplete.Missing, report.MissingSteps)
	}
	if state.visibilityCalls != 0 {
		t.Fatalf("visibility must not change on failure")
	}
}

func TestSetVisibleOffAlwaysSucceeds(t *testing.T) {
	state := &fakeState{required: 10}
	svc := newTestService(state)

	if err := svc.SetVisible(context.Background(), 1, false); err != nil {
		t.Fatalf("turning visibility off must always succeed: %v", err)
	}
	if state.visible || state.visibilityCalls != 1 {
		t.Fatalf("visibility off not persisted")
	}
}

func TestSetVisibleOnCompleteProfile(t *testing.T) {
	state := completeState()
	svc := newTestService(state)

	if err := svc.SetVisible(context.Background(), 1, true); err != nil {
		t.Fatalf("set visible: %v", err)
	}
	if !state.visible {
		t.Fatalf("visibility on not persisted")
	}
}
