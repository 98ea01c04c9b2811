package handlers

import (
	"context"
	"net/http"
	"strings"

	authsvc "github.com/marcucus/goldwen-backend/internal/services/auth"
	"github.com/marcucus/goldwen-backend/internal/transport/http/dto"
)

type deviceRegistrar interface {
	RegisterDevice(ctx context.Context, userID int64, token string) error
}

type DevicesHandler struct {
	devices deviceRegistrar
}

func NewDevicesHandler(devices deviceRegistrar) *DevicesHandler {
	return &DevicesHandler{devices: devices}
}

func (h *DevicesHandler) Register(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.devices == nil {
		writeInternal(w, "DEVICE_SERVICE_UNAVAILABLE", "device registration is unavailable")
		return
	}

	var req dto.RegisterDeviceRequest
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.DeviceToken) == "" {
		writeBadRequest(w, "VALIDATION_ERROR", "device_token is required")
		return
	}

	if err := h.devices.RegisterDevice(r.Context(), identity.UserID, strings.TrimSpace(req.DeviceToken)); err != nil {
		writeInternal(w, "INTERNAL_ERROR", "device registration failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
