package repository

import (
	"context"

	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/models"
)

const discountColumns = `id, code, discount_percentage, active, is_first_session_only, expires_at, created_at`

type DiscountRepository struct {
	db DBTX
}

func NewDiscountRepository(db DBTX) *DiscountRepository {
	return &DiscountRepository{db: db}
}

func (r *DiscountRepository) scanCode(row interface{ Scan(dest ...any) error }) (*models.DiscountCode, error) {
	var code models.DiscountCode
	err := row.Scan(
		&code.ID,
		&code.Code,
		&code.DiscountPercentage,
		&code.Active,
		&code.IsFirstSessionOnly,
		&code.ExpiresAt,
		&code.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &code, nil
}

// GetByCode matches case-insensitively; callers pass the trimmed input.
func (r *DiscountRepository) GetByCode(ctx context.Context, code string) (*models.DiscountCode, error) {
	query := `SELECT ` + discountColumns + ` FROM discount_codes WHERE UPPER(code) = UPPER($1)`
	return r.scanCode(r.db.QueryRow(ctx, query, code))
}

func (r *DiscountRepository) GetByID(ctx context.Context, id int64) (*models.DiscountCode, error) {
	query := `SELECT ` + discountColumns + ` FROM discount_codes WHERE id = $1`
	return r.scanCode(r.db.QueryRow(ctx, query, id))
}
