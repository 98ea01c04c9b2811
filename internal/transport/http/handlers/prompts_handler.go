package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/marcucus/goldwen-backend/internal/services/auth"
	"github.com/marcucus/goldwen-backend/internal/services/moderation"
	promptsvc "github.com/marcucus/goldwen-backend/internal/services/prompts"
	"github.com/marcucus/goldwen-backend/internal/transport/http/dto"
	httperrors "github.com/marcucus/goldwen-backend/internal/transport/http/errors"
)

type PromptsHandler struct {
	service *promptsvc.Service
}

func NewPromptsHandler(service *promptsvc.Service) *PromptsHandler {
	return &PromptsHandler{service: service}
}

func (h *PromptsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "PROMPT_SERVICE_UNAVAILABLE", "prompt service is unavailable")
		return
	}

	var req dto.PromptAnswersRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	answers := make([]promptsvc.Answer, 0, len(req.Answers))
	for _, item := range req.Answers {
		answers = append(answers, promptsvc.Answer{PromptID: item.PromptID, Answer: item.Answer})
	}

	if err := h.service.SubmitAnswers(r.Context(), identity.UserID, answers); err != nil {
		handlePromptError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PromptsHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "PROMPT_SERVICE_UNAVAILABLE", "prompt service is unavailable")
		return
	}

	answers, err := h.service.ListAnswers(r.Context(), identity.UserID)
	if err != nil {
		handlePromptError(w, err)
		return
	}

	items := make([]dto.PromptAnswerResponse, 0, len(answers))
	for _, answer := range answers {
		items = append(items, dto.PromptAnswerResponse{
			PromptID:  answer.PromptID,
			Prompt:    answer.Prompt,
			Answer:    answer.Answer,
			CreatedAt: answer.CreatedAt,
		})
	}

	httperrors.Write(w, http.StatusOK, dto.PromptAnswersListResponse{Items: items})
}

func handlePromptError(w http.ResponseWriter, err error) {
	var rejected *moderation.RejectedContentError
	switch {
	case errors.As(err, &rejected):
		writeContentRejected(w, rejected)
	case errors.Is(err, promptsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid prompt submission")
	default:
		writeInternal(w, "INTERNAL_ERROR", "prompt operation failed")
	}
}
