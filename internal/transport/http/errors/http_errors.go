package errors

import (
	"encoding/json"
	"net/http"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RejectedField mirrors one moderation rejection in an error payload.
type RejectedField struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ContentRejectedError is the 422 payload for submissions that failed
// moderation. Every offending field is listed so the client can highlight
// them all at once.
type ContentRejectedError struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Fields  []RejectedField `json:"fields"`
}

// IncompleteProfileError is the 409 payload for a visibility request on a
// profile that does not meet all completion requirements.
type IncompleteProfileError struct {
	Code         string   `json:"code"`
	Message      string   `json:"message"`
	MissingSteps []string `json:"missing_steps"`
}

func Write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
