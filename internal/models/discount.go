package models

import "time"

type DiscountCode struct {
	ID                 int64      `json:"id"`
	Code               string     `json:"code"`
	DiscountPercentage int        `json:"discount_percentage"`
	Active             bool       `json:"active"`
	IsFirstSessionOnly bool       `json:"is_first_session_only"`
	ExpiresAt          *time.Time `json:"expires_at"`
	CreatedAt          time.Time  `json:"created_at"`
}
