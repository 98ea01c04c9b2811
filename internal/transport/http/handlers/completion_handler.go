package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/marcucus/goldwen-backend/internal/services/auth"
	completionsvc "github.com/marcucus/goldwen-backend/internal/services/completion"
	"github.com/marcucus/goldwen-backend/internal/transport/http/dto"
	httperrors "github.com/marcucus/goldwen-backend/internal/transport/http/errors"
)

type CompletionHandler struct {
	service *completionsvc.Service
}

func NewCompletionHandler(service *completionsvc.Service) *CompletionHandler {
	return &CompletionHandler{service: service}
}

// Report exposes the live completion evaluation for progress display.
func (h *CompletionHandler) Report(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "COMPLETION_SERVICE_UNAVAILABLE", "completion service is unavailable")
		return
	}

	report, err := h.service.Evaluate(r.Context(), identity.UserID)
	if err != nil {
		handleCompletionError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.CompletionResponse{
		IsComplete:           report.IsComplete,
		CompletionPercentage: report.CompletionPercentage,
		Requirements: dto.CompletionRequirements{
			MinimumPhotos:            report.Requirements.MinimumPhotos,
			MinimumPrompts:           report.Requirements.MinimumPrompts,
			PersonalityQuestionnaire: report.Requirements.PersonalityQuestionnaire,
			BasicInfo:                report.Requirements.BasicInfo,
		},
		MissingSteps: report.MissingSteps,
		NextStep:     report.NextStep,
	})
}

func (h *CompletionHandler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "COMPLETION_SERVICE_UNAVAILABLE", "completion service is unavailable")
		return
	}

	var req dto.VisibilityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	if err := h.service.SetVisible(r.Context(), identity.UserID, req.Visible); err != nil {
		handleCompletionError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func handleCompletionError(w http.ResponseWriter, err error) {
	var incomplete *completionsvc.IncompleteProfileError
	switch {
	case errors.As(err, &incomplete):
		writeIncompleteProfile(w, incomplete)
	case errors.Is(err, completionsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid completion request")
	default:
		writeInternal(w, "INTERNAL_ERROR", "completion operation failed")
	}
}
