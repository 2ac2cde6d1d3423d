package models

import "time"

type CoachProfile struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	FullName        *string   `json:"full_name"`
	PricePerSession float64   `json:"price_per_session"`
	TotalSessions   int       `json:"total_sessions"`
	Balance         float64   `json:"balance"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
