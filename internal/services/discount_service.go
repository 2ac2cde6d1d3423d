package services

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrCodeNotActive     = errors.New("discount code does not exist or is not active")
	ErrCodeExpired       = errors.New("discount code has expired")
	ErrFirstSessionOnly  = errors.New("this code is valid only for your first session")
	ErrCodeAlreadyUsed   = errors.New("discount code already used")
	ErrDiscountCodeEmpty = errors.New("discount code is required")
)

// firstSessionCode is the historical first-session campaign literal; codes
// with this value are first-session-only even without the explicit flag.
const firstSessionCode = "PRIMERA25"

type discountReader interface {
	GetByCode(ctx context.Context, code string) (*models.DiscountCode, error)
	GetByID(ctx context.Context, id int64) (*models.DiscountCode, error)
}

type clientReader interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type appointmentCounter interface {
	CountByClient(ctx context.Context, clientID int64) (int, error)
	CountByClientAndCode(ctx context.Context, clientID, discountCodeID int64) (int, error)
}

// DiscountService is the stateless rule engine answering "is this code usable
// by this actor for this booking".
type DiscountService struct {
	discountRepo discountReader
	userRepo     clientReader
	apptRepo     appointmentCounter
}

func NewDiscountService(discountRepo discountReader, userRepo clientReader, apptRepo appointmentCounter) *DiscountService {
	return &DiscountService{
		discountRepo: discountRepo,
		userRepo:     userRepo,
		apptRepo:     apptRepo,
	}
}

// Validate evaluates the eligibility rules in order; the first failing rule
// wins. actorID is 0 for guests, who may be identified by email instead.
func (s *DiscountService) Validate(ctx context.Context, rawCode string, actorID int64, email string) (*models.DiscountCode, error) {
	code := NormalizeCode(rawCode)
	if code == "" {
		return nil, ErrDiscountCodeEmpty
	}

	discount, err := s.discountRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCodeNotActive
		}
		return nil, err
	}

	targetID := actorID
	if targetID == 0 && strings.TrimSpace(email) != "" {
		user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		if err == nil {
			targetID = user.ID
		}
	}

	return discount, s.check(ctx, discount, targetID)
}

// ValidateForClient re-runs the rules for a resolved client inside the booking
// transaction, where the code arrives by id rather than by typed string.
func (s *DiscountService) ValidateForClient(ctx context.Context, discountCodeID, clientID int64) (*models.DiscountCode, error) {
	discount, err := s.discountRepo.GetByID(ctx, discountCodeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCodeNotActive
		}
		return nil, err
	}
	return discount, s.check(ctx, discount, clientID)
}

func (s *DiscountService) check(ctx context.Context, discount *models.DiscountCode, targetID int64) error {
	if !discount.Active {
		return ErrCodeNotActive
	}
	if discount.ExpiresAt != nil && discount.ExpiresAt.Before(nowFn()) {
		return ErrCodeExpired
	}

	if discount.IsFirstSessionOnly || NormalizeCode(discount.Code) == firstSessionCode {
		if targetID != 0 {
			count, err := s.apptRepo.CountByClient(ctx, targetID)
			if err != nil {
				return err
			}
			if count > 0 {
				return ErrFirstSessionOnly
			}
		}
	}

	if targetID != 0 {
		used, err := s.apptRepo.CountByClientAndCode(ctx, targetID, discount.ID)
		if err != nil {
			return err
		}
		if used > 0 {
			return ErrCodeAlreadyUsed
		}
	}

	return nil
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// FinalPrice applies a percentage discount and rounds to 2 decimals exactly
// once, at the point the result is persisted or displayed.
func FinalPrice(price float64, percentage int) float64 {
	factor := decimal.NewFromInt(100 - int64(percentage)).Div(decimal.NewFromInt(100))
	return decimal.NewFromFloat(price).Mul(factor).Round(2).InexactFloat64()
}
