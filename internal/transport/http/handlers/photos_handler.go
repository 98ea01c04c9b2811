package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/marcucus/goldwen-backend/internal/services/auth"
	photosvc "github.com/marcucus/goldwen-backend/internal/services/photos"
	"github.com/marcucus/goldwen-backend/internal/transport/http/dto"
	httperrors "github.com/marcucus/goldwen-backend/internal/transport/http/errors"
)

const maxPhotoUploadSize = 20 << 20 // 20 MiB

type PhotosHandler struct {
	service *photosvc.Service
}

func NewPhotosHandler(service *photosvc.Service) *PhotosHandler {
	return &PhotosHandler{service: service}
}

func (h *PhotosHandler) Upload(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "PHOTO_SERVICE_UNAVAILABLE", "photo service is unavailable")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoUploadSize)
	if err := r.ParseMultipartForm(maxPhotoUploadSize); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "file is required")
		return
	}
	defer file.Close()

	if header == nil || header.Size <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "file is empty")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	photo, err := h.service.Upload(r.Context(), identity.UserID, header.Filename, contentType, file, header.Size)
	if err != nil {
		handlePhotoError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, toPhotoResponse(photo))
}

func (h *PhotosHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "PHOTO_SERVICE_UNAVAILABLE", "photo service is unavailable")
		return
	}

	photos, err := h.service.List(r.Context(), identity.UserID)
	if err != nil {
		handlePhotoError(w, err)
		return
	}

	items := make([]dto.PhotoResponse, 0, len(photos))
	for _, photo := range photos {
		items = append(items, toPhotoResponse(photo))
	}

	httperrors.Write(w, http.StatusOK, dto.PhotosListResponse{Items: items})
}

func (h *PhotosHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	photoID, ok := photoIDFromRequest(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "PHOTO_SERVICE_UNAVAILABLE", "photo service is unavailable")
		return
	}

	if err := h.service.Delete(r.Context(), identity.UserID, photoID); err != nil {
		handlePhotoError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PhotosHandler) SetOrder(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	photoID, ok := photoIDFromRequest(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "PHOTO_SERVICE_UNAVAILABLE", "photo service is unavailable")
		return
	}

	var req dto.PhotoOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	if err := h.service.SetOrder(r.Context(), identity.UserID, photoID, req.Position); err != nil {
		handlePhotoError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PhotosHandler) SetPrimary(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	photoID, ok := photoIDFromRequest(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "PHOTO_SERVICE_UNAVAILABLE", "photo service is unavailable")
		return
	}

	if err := h.service.SetPrimary(r.Context(), identity.UserID, photoID); err != nil {
		handlePhotoError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func photoIDFromRequest(w http.ResponseWriter, r *http.Request) (int64, bool) {
	photoID, err := strconv.ParseInt(chi.URLParam(r, "photoID"), 10, 64)
	if err != nil || photoID <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid photo id")
		return 0, false
	}
	return photoID, true
}

func toPhotoResponse(photo photosvc.Photo) dto.PhotoResponse {
	return dto.PhotoResponse{
		ID:              photo.ID,
		Position:        photo.Position,
		IsPrimary:       photo.IsPrimary,
		Status:          string(photo.Status),
		RejectionReason: photo.RejectionReason,
		URL:             photo.URL,
		CreatedAt:       photo.CreatedAt,
	}
}

func handlePhotoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, photosvc.ErrPhotoNotFound):
		writeNotFound(w, "PHOTO_NOT_FOUND", "photo not found")
	case errors.Is(err, photosvc.ErrPhotoLimitReached):
		httperrors.Write(w, http.StatusConflict, httperrors.APIError{
			Code:    "PHOTO_LIMIT_REACHED",
			Message: fmt.Sprintf("maximum %d photos allowed", photosvc.MaxPhotos()),
		})
	case errors.Is(err, photosvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid photo request")
	default:
		writeInternal(w, "INTERNAL_ERROR", "photo operation failed")
	}
}
