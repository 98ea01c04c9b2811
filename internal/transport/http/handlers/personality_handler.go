package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/marcucus/goldwen-backend/internal/services/auth"
	"github.com/marcucus/goldwen-backend/internal/services/moderation"
	personalitysvc "github.com/marcucus/goldwen-backend/internal/services/personality"
	"github.com/marcucus/goldwen-backend/internal/transport/http/dto"
	httperrors "github.com/marcucus/goldwen-backend/internal/transport/http/errors"
)

type PersonalityHandler struct {
	service *personalitysvc.Service
}

func NewPersonalityHandler(service *personalitysvc.Service) *PersonalityHandler {
	return &PersonalityHandler{service: service}
}

func (h *PersonalityHandler) Questions(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "PERSONALITY_SERVICE_UNAVAILABLE", "personality service is unavailable")
		return
	}

	questions, err := h.service.ListQuestions(r.Context())
	if err != nil {
		handlePersonalityError(w, err)
		return
	}

	items := make([]dto.QuestionResponse, 0, len(questions))
	for _, question := range questions {
		items = append(items, dto.QuestionResponse{
			ID:         question.ID,
			Text:       question.Text,
			IsRequired: question.IsRequired,
		})
	}

	httperrors.Write(w, http.StatusOK, dto.QuestionsListResponse{Items: items})
}

func (h *PersonalityHandler) Submit(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "PERSONALITY_SERVICE_UNAVAILABLE", "personality service is unavailable")
		return
	}

	var req dto.QuestionAnswersRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	answers := make([]personalitysvc.Answer, 0, len(req.Answers))
	for _, item := range req.Answers {
		answers = append(answers, personalitysvc.Answer{QuestionID: item.QuestionID, Answer: item.Answer})
	}

	if err := h.service.SubmitAnswers(r.Context(), identity.UserID, answers); err != nil {
		handlePersonalityError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PersonalityHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "PERSONALITY_SERVICE_UNAVAILABLE", "personality service is unavailable")
		return
	}

	answers, err := h.service.ListAnswers(r.Context(), identity.UserID)
	if err != nil {
		handlePersonalityError(w, err)
		return
	}

	items := make([]dto.QuestionAnswerResponse, 0, len(answers))
	for _, answer := range answers {
		items = append(items, dto.QuestionAnswerResponse{
			QuestionID: answer.QuestionID,
			Question:   answer.Question,
			Answer:     answer.Answer,
			CreatedAt:  answer.CreatedAt,
		})
	}

	httperrors.Write(w, http.StatusOK, dto.QuestionAnswersListResponse{Items: items})
}

func handlePersonalityError(w http.ResponseWriter, err error) {
	var rejected *moderation.RejectedContentError
	switch {
	case errors.As(err, &rejected):
		writeContentRejected(w, rejected)
	case errors.Is(err, personalitysvc.ErrUnknownQuestion):
		writeBadRequest(w, "UNKNOWN_QUESTION", "answer references an unknown or inactive question")
	case errors.Is(err, personalitysvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid questionnaire submission")
	default:
		writeInternal(w, "INTERNAL_ERROR", "questionnaire operation failed")
	}
}
