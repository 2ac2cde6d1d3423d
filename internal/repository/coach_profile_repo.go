package repository

import (
	"context"

	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/models"
)

const coachProfileColumns = `id, user_id, full_name, price_per_session, total_sessions, balance, created_at, updated_at`

type CoachProfileRepository struct {
	db DBTX
}

func NewCoachProfileRepository(db DBTX) *CoachProfileRepository {
	return &CoachProfileRepository{db: db}
}

func (r *CoachProfileRepository) scanProfile(row interface{ Scan(dest ...any) error }) (*models.CoachProfile, error) {
	var profile models.CoachProfile
	err := row.Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.PricePerSession,
		&profile.TotalSessions,
		&profile.Balance,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *CoachProfileRepository) Create(ctx context.Context, userID int64, pricePerSession float64) (*models.CoachProfile, error) {
	query := `
		INSERT INTO coach_profiles (user_id, price_per_session)
		VALUES ($1, $2)
		RETURNING ` + coachProfileColumns
	return r.scanProfile(r.db.QueryRow(ctx, query, userID, pricePerSession))
}

func (r *CoachProfileRepository) GetByID(ctx context.Context, id int64) (*models.CoachProfile, error) {
	query := `SELECT ` + coachProfileColumns + ` FROM coach_profiles WHERE id = $1`
	return r.scanProfile(r.db.QueryRow(ctx, query, id))
}

func (r *CoachProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.CoachProfile, error) {
	query := `SELECT ` + coachProfileColumns + ` FROM coach_profiles WHERE user_id = $1`
	return r.scanProfile(r.db.QueryRow(ctx, query, userID))
}

func (r *CoachProfileRepository) UpdateSettings(ctx context.Context, userID int64, fullName *string, pricePerSession *float64) (*models.CoachProfile, error) {
	query := `
		UPDATE coach_profiles
		SET full_name = COALESCE($1, full_name),
			price_per_session = COALESCE($2, price_per_session),
			updated_at = NOW()
		WHERE user_id = $3
		RETURNING ` + coachProfileColumns
	return r.scanProfile(r.db.QueryRow(ctx, query, fullName, pricePerSession, userID))
}

// AddCompletedSession bumps the aggregate counters for one finished
// appointment. Runs in the same transaction as the status flip.
func (r *CoachProfileRepository) AddCompletedSession(ctx context.Context, profileID int64, earned float64) error {
	query := `
		UPDATE coach_profiles
		SET total_sessions = total_sessions + 1,
			balance = balance + $2,
			updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.Exec(ctx, query, profileID, earned)
	return err
}

// RefreshStats recomputes the aggregates from the appointment ledger. Used on
// payment confirmation as a drift repair for the projection.
func (r *CoachProfileRepository) RefreshStats(ctx context.Context, profileID int64) error {
	query := `
		UPDATE coach_profiles
		SET total_sessions = (
				SELECT COUNT(*) FROM appointments
				WHERE coach_id = $1 AND status = 'completed'
			),
			balance = (
				SELECT COALESCE(SUM(price), 0) FROM appointments
				WHERE coach_id = $1 AND status = 'completed'
			),
			updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.Exec(ctx, query, profileID)
	return err
}
