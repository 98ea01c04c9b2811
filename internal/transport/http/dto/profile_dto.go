package dto

import "time"

type ProfileBasicsRequest struct {
	Birthdate string `json:"birthdate"`
	Bio       string `json:"bio"`
}

type ProfileResponse struct {
	UserID    int64      `json:"user_id"`
	Birthdate *time.Time `json:"birthdate,omitempty"`
	Bio       string     `json:"bio"`
	IsVisible bool       `json:"is_visible"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type VisibilityRequest struct {
	Visible bool `json:"visible"`
}
