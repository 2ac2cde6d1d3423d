package models

import "time"

// AvailabilitySlot is a half-open bookable interval [StartTime, EndTime)
// published by one coach. A booked slot is referenced by exactly one
// non-cancelled appointment whose date equals StartTime.
type AvailabilitySlot struct {
	ID        int64     `json:"id"`
	CoachID   int64     `json:"coach_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	IsBooked  bool      `json:"is_booked"`
	CreatedAt time.Time `json:"created_at"`
}
