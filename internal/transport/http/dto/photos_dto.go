package dto

import "time"

type PhotoResponse struct {
	ID              int64     `json:"id"`
	Position        int       `json:"position"`
	IsPrimary       bool      `json:"is_primary"`
	Status          string    `json:"status"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	URL             string    `json:"url"`
	CreatedAt       time.Time `json:"created_at"`
}

type PhotosListResponse struct {
	Items []PhotoResponse `json:"items"`
}

type PhotoOrderRequest struct {
	Position int `json:"position"`
}
