package dto

import "time"

type QuestionResponse struct {
	ID         int64  `json:"id"`
	Text       string `json:"text"`
	IsRequired bool   `json:"is_required"`
}

type QuestionsListResponse struct {
	Items []QuestionResponse `json:"items"`
}

type QuestionAnswerItem struct {
	QuestionID int64  `json:"question_id"`
	Answer     string `json:"answer"`
}

type QuestionAnswersRequest struct {
	Answers []QuestionAnswerItem `json:"answers"`
}

type QuestionAnswerResponse struct {
	QuestionID int64     `json:"question_id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	CreatedAt  time.Time `json:"created_at"`
}

type QuestionAnswersListResponse struct {
	Items []QuestionAnswerResponse `json:"items"`
}
