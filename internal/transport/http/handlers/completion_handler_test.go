package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	authsvc "github.com/marcucus/goldwen-backend/internal/services/auth"
	completionsvc "github.com/marcucus/goldwen-backend/internal/services/completion"
	"github.com/marcucus/goldwen-backend/internal/transport/http/dto"
	httperrors "github.com/marcucus/goldwen-backend/internal/transport/http/errors"
)

type completionTestState struct {
	photos  int
	prompts int
	basics  completionsvc.Basics
}

func (s *completionTestState) GetBasics(_ context.Context, _ int64) (completionsvc.Basics, error) {
	return s.basics, nil
}

func (s *completionTestState) SetVisibility(_ context.Context, _ int64, _ bool) error {
	return nil
}

func (s *completionTestState) CountByProfile(_ context.Context, _ int64) (int, int, error) {
	return s.photos, s.photos, nil
}

func (s *completionTestState) CountAnswers(_ context.Context, _ int64) (int, error) {
	return s.prompts, nil
}

func (s *completionTestState) CountRequiredActive(_ context.Context) (int, error) {
	return 0, nil
}

func (s *completionTestState) GetCompletionFlags(_ context.Context, _ int64) (bool, bool, error) {
	return false, false, nil
}

func (s *completionTestState) SetCompletionFlags(_ context.Context, _ int64, _, _ bool) error {
	return nil
}

type completionQuestionStore struct {
	state *completionTestState
}

func (q completionQuestionStore) CountRequiredActive(ctx context.Context) (int, error) {
	return q.state.CountRequiredActive(ctx)
}

func (q completionQuestionStore) CountAnswers(ctx context.Context, userID int64) (int, error) {
	return 0, nil
}

func newCompletionService(state *completionTestState) *completionsvc.Service {
	return completionsvc.NewService(completionsvc.Dependencies{
		Profiles:  state,
		Photos:    state,
		Prompts:   state,
		Questions: completionQuestionStore{state: state},
		Users:     state,
	}, completionsvc.Config{MinPhotos: 3, RequiredPrompts: 3})
}

func authedRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(authsvc.WithIdentity(req.Context(), authsvc.Identity{UserID: 7, Role: "user"}))
}

func TestCompletionReportReturnsEvaluation(t *testing.T) {
	state := &completionTestState{photos: 1, prompts: 3, basics: completionsvc.Basics{HasBirthdate: true, HasBio: true}}
	handler := NewCompletionHandler(newCompletionService(state))

	rr := httptest.NewRecorder()
	handler.Report(rr, authedRequest(http.MethodGet, "/profile/completion", ""))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}

	var payload dto.CompletionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.IsComplete {
		t.Fatalf("one photo must not complete the profile")
	}
	if payload.CompletionPercentage != 75 {
		t.Fatalf("unexpected percentage: %d", payload.CompletionPercentage)
	}
	if len(payload.MissingSteps) != 1 {
		t.Fatalf("expected a single missing step, got %v", payload.MissingSteps)
	}
}

func TestCompletionReportRequiresAuth(t *testing.T) {
	handler := NewCompletionHandler(newCompletionService(&completionTestState{}))

	rr := httptest.NewRecorder()
	handler.Report(rr, httptest.NewRequest(http.MethodGet, "/profile/completion", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestSetVisibilityIncompleteProfileConflicts(t *testing.T) {
	state := &completionTestState{photos: 0, prompts: 0}
	handler := NewCompletionHandler(newCompletionService(state))

	rr := httptest.NewRecorder()
	handler.SetVisibility(rr, authedRequest(http.MethodPut, "/profile/visibility", `{"visible":true}`))

	if rr.Code != http.StatusConflict {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusConflict)
	}

	var payload httperrors.IncompleteProfileError
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Code != "PROFILE_INCOMPLETE" {
		t.Fatalf("unexpected error code: %q", payload.Code)
	}
	if len(payload.MissingSteps) == 0 {
		t.Fatalf("missing steps must be listed in the error payload")
	}
}

func TestSetVisibilityOffSucceeds(t *testing.T) {
	state := &completionTestState{}
	handler := NewCompletionHandler(newCompletionService(state))

	rr := httptest.NewRecorder()
	handler.SetVisibility(rr, authedRequest(http.MethodPut, "/profile/visibility", `{"visible":false}`))

	if rr.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusNoContent)
	}
}
