package repository

import (
	"context"
	"time"

	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/models"
)

const slotColumns = `id, coach_id, start_time, end_time, is_booked, created_at`

type SlotRepository struct {
	db DBTX
}

func NewSlotRepository(db DBTX) *SlotRepository {
	return &SlotRepository{db: db}
}

func (r *SlotRepository) scanSlot(row interface{ Scan(dest ...any) error }) (*models.AvailabilitySlot, error) {
	var slot models.AvailabilitySlot
	err := row.Scan(
		&slot.ID,
		&slot.CoachID,
		&slot.StartTime,
		&slot.EndTime,
		&slot.IsBooked,
		&slot.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *SlotRepository) Create(ctx context.Context, coachID int64, startTime, endTime time.Time) (*models.AvailabilitySlot, error) {
	query := `
		INSERT INTO availability_slots (coach_id, start_time, end_time, is_booked)
		VALUES ($1, $2, $3, FALSE)
		RETURNING ` + slotColumns
	return r.scanSlot(r.db.QueryRow(ctx, query, coachID, startTime, endTime))
}

func (r *SlotRepository) GetByID(ctx context.Context, slotID int64) (*models.AvailabilitySlot, error) {
	query := `SELECT ` + slotColumns + ` FROM availability_slots WHERE id = $1`
	return r.scanSlot(r.db.QueryRow(ctx, query, slotID))
}

// DeleteIfUnbooked removes a slot only while it is free. Returns false when
// nothing was deleted, either because the slot is booked or already gone.
func (r *SlotRepository) DeleteIfUnbooked(ctx context.Context, slotID, coachID int64) (bool, error) {
	query := `
		DELETE FROM availability_slots
		WHERE id = $1 AND coach_id = $2 AND is_booked = FALSE
	`
	tag, err := r.db.Exec(ctx, query, slotID, coachID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *SlotRepository) ListAvailable(ctx context.Context, coachID int64, from, to time.Time) ([]models.AvailabilitySlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM availability_slots
		WHERE coach_id = $1 AND is_booked = FALSE AND start_time >= $2 AND start_time < $3
		ORDER BY start_time ASC, id ASC
	`
	return r.listSlots(ctx, query, coachID, from, to)
}

// ListUnbookedForUpdate locks the coach's free slots for the duration of the
// reconcile transaction so a concurrent claim cannot race the diff.
func (r *SlotRepository) ListUnbookedForUpdate(ctx context.Context, coachID int64) ([]models.AvailabilitySlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM availability_slots
		WHERE coach_id = $1 AND is_booked = FALSE
		ORDER BY start_time ASC, id ASC
		FOR UPDATE
	`
	return r.listSlots(ctx, query, coachID)
}

func (r *SlotRepository) listSlots(ctx context.Context, query string, args ...any) ([]models.AvailabilitySlot, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slots := make([]models.AvailabilitySlot, 0)
	for rows.Next() {
		var slot models.AvailabilitySlot
		if err := rows.Scan(
			&slot.ID,
			&slot.CoachID,
			&slot.StartTime,
			&slot.EndTime,
			&slot.IsBooked,
			&slot.CreatedAt,
		); err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return slots, nil
}

// DeleteUnbooked removes the given slots, skipping any that turned booked in
// the meantime. The is_booked guard is what keeps bulk edits from cancelling a
// client's confirmed booking.
func (r *SlotRepository) DeleteUnbooked(ctx context.Context, coachID int64, slotIDs []int64) (int64, error) {
	if len(slotIDs) == 0 {
		return 0, nil
	}
	query := `
		DELETE FROM availability_slots
		WHERE coach_id = $1 AND id = ANY($2) AND is_booked = FALSE
	`
	tag, err := r.db.Exec(ctx, query, coachID, slotIDs)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Claim flips a slot to booked as a conditional write. pgx.ErrNoRows means the
// slot was already claimed by someone else.
func (r *SlotRepository) Claim(ctx context.Context, slotID int64) (*models.AvailabilitySlot, error) {
	query := `
		UPDATE availability_slots
		SET is_booked = TRUE
		WHERE id = $1 AND is_booked = FALSE
		RETURNING ` + slotColumns
	return r.scanSlot(r.db.QueryRow(ctx, query, slotID))
}

// Release frees the slot matched by (coach, start time), the tuple an
// appointment records at reservation time.
func (r *SlotRepository) Release(ctx context.Context, coachID int64, startTime time.Time) (int64, error) {
	query := `
		UPDATE availability_slots
		SET is_booked = FALSE
		WHERE coach_id = $1 AND start_time = $2 AND is_booked = TRUE
	`
	tag, err := r.db.Exec(ctx, query, coachID, startTime)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
