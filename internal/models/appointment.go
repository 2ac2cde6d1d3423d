package models

import "time"

const (
	AppointmentPendingPayment = "pending_payment"
	AppointmentScheduled      = "scheduled"
	AppointmentCompleted      = "completed"
	AppointmentCancelled      = "cancelled"
)

// Appointment rows are never deleted; cancellation is a status change so the
// booking and payment trail stays auditable.
type Appointment struct {
	ID              int64     `json:"id"`
	ClientID        int64     `json:"client_id"`
	CoachID         int64     `json:"coach_id"`
	Date            time.Time `json:"date"`
	Price           float64   `json:"price"`
	DiscountCodeID  *int64    `json:"discount_code_id"`
	Status          string    `json:"status"`
	IsAnonymous     bool      `json:"is_anonymous"`
	ClientName      string    `json:"client_name"`
	CoachNotes      *string   `json:"coach_notes"`
	ImprovementTips *string   `json:"improvement_tips"`
	Rating          *int      `json:"rating"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
