package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/marcucus/goldwen-backend/internal/services/completion"
	"github.com/marcucus/goldwen-backend/internal/services/moderation"
	httperrors "github.com/marcucus/goldwen-backend/internal/transport/http/errors"
)

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message})
}

func writeNotFound(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusNotFound, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}

func writeContentRejected(w http.ResponseWriter, rejected *moderation.RejectedContentError) {
	fields := make([]httperrors.RejectedField, 0, len(rejected.Fields))
	for _, field := range rejected.Fields {
		fields = append(fields, httperrors.RejectedField{Field: field.Field, Reason: field.Reason})
	}
	httperrors.Write(w, http.StatusUnprocessableEntity, httperrors.ContentRejectedError{
		Code:    "CONTENT_REJECTED",
		Message: "submitted content was rejected by moderation",
		Fields:  fields,
	})
}

func writeIncompleteProfile(w http.ResponseWriter, incomplete *completion.IncompleteProfileError) {
	httperrors.Write(w, http.StatusConflict, httperrors.IncompleteProfileError{
		Code:         "PROFILE_INCOMPLETE",
		Message:      "profile does not meet visibility requirements",
		MissingSteps: incomplete.Missing,
	})
}
