package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/models"
)

const appointmentColumns = `id, client_id, coach_id, date, price, discount_code_id, status,
		is_anonymous, client_name, coach_notes, improvement_tips, rating, created_at, updated_at`

type CreateAppointmentInput struct {
	ClientID       int64
	CoachID        int64
	Date           time.Time
	Price          float64
	DiscountCodeID *int64
	IsAnonymous    bool
	ClientName     string
}

type AppointmentListFilter struct {
	ActorID   int64
	Role      string
	Status    string
	Timeframe string
}

type AppointmentRepository struct {
	db DBTX
}

func NewAppointmentRepository(db DBTX) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

func (r *AppointmentRepository) scanAppointment(row interface{ Scan(dest ...any) error }) (*models.Appointment, error) {
	var appt models.Appointment
	err := row.Scan(
		&appt.ID,
		&appt.ClientID,
		&appt.CoachID,
		&appt.Date,
		&appt.Price,
		&appt.DiscountCodeID,
		&appt.Status,
		&appt.IsAnonymous,
		&appt.ClientName,
		&appt.CoachNotes,
		&appt.ImprovementTips,
		&appt.Rating,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

func (r *AppointmentRepository) Create(ctx context.Context, input CreateAppointmentInput) (*models.Appointment, error) {
	query := `
		INSERT INTO appointments (client_id, coach_id, date, price, discount_code_id, status, is_anonymous, client_name)
		VALUES ($1, $2, $3, $4, $5, 'pending_payment', $6, $7)
		RETURNING ` + appointmentColumns
	return r.scanAppointment(r.db.QueryRow(
		ctx,
		query,
		input.ClientID,
		input.CoachID,
		input.Date,
		input.Price,
		input.DiscountCodeID,
		input.IsAnonymous,
		input.ClientName,
	))
}

func (r *AppointmentRepository) GetByID(ctx context.Context, appointmentID int64) (*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`
	return r.scanAppointment(r.db.QueryRow(ctx, query, appointmentID))
}

func (r *AppointmentRepository) GetByIDForUpdate(ctx context.Context, appointmentID int64) (*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1 FOR UPDATE`
	return r.scanAppointment(r.db.QueryRow(ctx, query, appointmentID))
}

func (r *AppointmentRepository) List(ctx context.Context, filter AppointmentListFilter) ([]models.Appointment, error) {
	actorColumn := "client_id"
	if filter.Role == models.RoleCoach {
		actorColumn = "coach_id"
	}

	args := []any{filter.ActorID}
	whereParts := []string{fmt.Sprintf("%s = $1", actorColumn)}

	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		whereParts = append(whereParts, fmt.Sprintf("status = $%d", len(args)))
	}

	switch strings.TrimSpace(filter.Timeframe) {
	case "upcoming":
		whereParts = append(whereParts, "date > NOW()")
	case "past":
		whereParts = append(whereParts, "date <= NOW()")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM appointments
		WHERE %s
		ORDER BY date ASC, id ASC
	`, appointmentColumns, strings.Join(whereParts, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appointments := make([]models.Appointment, 0)
	for rows.Next() {
		var appt models.Appointment
		if err := rows.Scan(
			&appt.ID,
			&appt.ClientID,
			&appt.CoachID,
			&appt.Date,
			&appt.Price,
			&appt.DiscountCodeID,
			&appt.Status,
			&appt.IsAnonymous,
			&appt.ClientName,
			&appt.CoachNotes,
			&appt.ImprovementTips,
			&appt.Rating,
			&appt.CreatedAt,
			&appt.UpdatedAt,
		); err != nil {
			return nil, err
		}
		appointments = append(appointments, appt)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return appointments, nil
}

func (r *AppointmentRepository) UpdateStatusIfCurrent(ctx context.Context, appointmentID int64, currentStatus, nextStatus string) (*models.Appointment, error) {
	query := `
		UPDATE appointments
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + appointmentColumns
	return r.scanAppointment(r.db.QueryRow(ctx, query, appointmentID, currentStatus, nextStatus))
}

// CompleteIfScheduled finalizes the session and stores the coach's notes in
// the same conditional write.
func (r *AppointmentRepository) CompleteIfScheduled(ctx context.Context, appointmentID int64, notes string, tips *string) (*models.Appointment, error) {
	query := `
		UPDATE appointments
		SET status = 'completed', coach_notes = $2, improvement_tips = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'scheduled'
		RETURNING ` + appointmentColumns
	return r.scanAppointment(r.db.QueryRow(ctx, query, appointmentID, notes, tips))
}

func (r *AppointmentRepository) SetRatingIfCompleted(ctx context.Context, appointmentID, clientID int64, rating int) (*models.Appointment, error) {
	query := `
		UPDATE appointments
		SET rating = $3, updated_at = NOW()
		WHERE id = $1 AND client_id = $2 AND status = 'completed'
		RETURNING ` + appointmentColumns
	return r.scanAppointment(r.db.QueryRow(ctx, query, appointmentID, clientID, rating))
}

// CountByClient counts appointments of any status, cancelled included. The
// first-session discount rule deliberately counts abandoned history too.
func (r *AppointmentRepository) CountByClient(ctx context.Context, clientID int64) (int, error) {
	query := `SELECT COUNT(*) FROM appointments WHERE client_id = $1`
	var count int
	if err := r.db.QueryRow(ctx, query, clientID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *AppointmentRepository) CountByClientAndCode(ctx context.Context, clientID, discountCodeID int64) (int, error) {
	query := `SELECT COUNT(*) FROM appointments WHERE client_id = $1 AND discount_code_id = $2`
	var count int
	if err := r.db.QueryRow(ctx, query, clientID, discountCodeID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// ListPendingOlderThan returns pending_payment appointments whose slot lease
// has expired, locked for the sweeper's transaction.
func (r *AppointmentRepository) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE status = 'pending_payment' AND created_at < $1
		ORDER BY id ASC
		FOR UPDATE SKIP LOCKED
	`
	rows, err := r.db.Query(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appointments := make([]models.Appointment, 0)
	for rows.Next() {
		var appt models.Appointment
		if err := rows.Scan(
			&appt.ID,
			&appt.ClientID,
			&appt.CoachID,
			&appt.Date,
			&appt.Price,
			&appt.DiscountCodeID,
			&appt.Status,
			&appt.IsAnonymous,
			&appt.ClientName,
			&appt.CoachNotes,
			&appt.ImprovementTips,
			&appt.Rating,
			&appt.CreatedAt,
			&appt.UpdatedAt,
		); err != nil {
			return nil, err
		}
		appointments = append(appointments, appt)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return appointments, nil
}
