package dto

import "time"

type PromptAnswerItem struct {
	PromptID int64  `json:"prompt_id"`
	Answer   string `json:"answer"`
}

type PromptAnswersRequest struct {
	Answers []PromptAnswerItem `json:"answers"`
}

type PromptAnswerResponse struct {
	PromptID  int64     `json:"prompt_id"`
	Prompt    string    `json:"prompt"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}

type PromptAnswersListResponse struct {
	Items []PromptAnswerResponse `json:"items"`
}
