package handlers

import (
	"errors"
	"net/http"
	"time"

	authsvc "github.com/marcucus/goldwen-backend/internal/services/auth"
	"github.com/marcucus/goldwen-backend/internal/services/moderation"
	profilesvc "github.com/marcucus/goldwen-backend/internal/services/profiles"
	"github.com/marcucus/goldwen-backend/internal/transport/http/dto"
	httperrors "github.com/marcucus/goldwen-backend/internal/transport/http/errors"
)

type ProfileHandler struct {
	service *profilesvc.Service
}

func NewProfileHandler(service *profilesvc.Service) *ProfileHandler {
	return &ProfileHandler{service: service}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "PROFILE_SERVICE_UNAVAILABLE", "profile service is unavailable")
		return
	}

	profile, err := h.service.Get(r.Context(), identity.UserID)
	if err != nil {
		handleProfileError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ProfileResponse{
		UserID:    profile.UserID,
		Birthdate: profile.Birthdate,
		Bio:       profile.Bio,
		IsVisible: profile.IsVisible,
		UpdatedAt: profile.UpdatedAt,
	})
}

func (h *ProfileHandler) UpdateBasics(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "PROFILE_SERVICE_UNAVAILABLE", "profile service is unavailable")
		return
	}

	var req dto.ProfileBasicsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	birthdate, err := time.Parse("2006-01-02", req.Birthdate)
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "birthdate must be YYYY-MM-DD")
		return
	}

	if err := h.service.UpdateBasics(r.Context(), identity.UserID, profilesvc.BasicsInput{
		Birthdate: birthdate,
		Bio:       req.Bio,
	}); err != nil {
		handleProfileError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func handleProfileError(w http.ResponseWriter, err error) {
	var rejected *moderation.RejectedContentError
	switch {
	case errors.As(err, &rejected):
		writeContentRejected(w, rejected)
	case errors.Is(err, profilesvc.ErrAgeRejected):
		httperrors.Write(w, http.StatusForbidden, httperrors.APIError{
			Code:    "AGE_REJECTED",
			Message: "you must be at least 18 years old",
		})
	case errors.Is(err, profilesvc.ErrProfileNotFound):
		writeNotFound(w, "PROFILE_NOT_FOUND", "profile not found")
	case errors.Is(err, profilesvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid profile request")
	default:
		writeInternal(w, "INTERNAL_ERROR", "profile operation failed")
	}
}
