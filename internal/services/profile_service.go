package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/models"
	"github.com/rs/zerolog"
)

type coachProfileStore interface {
	Create(ctx context.Context, userID int64, pricePerSession float64) (*models.CoachProfile, error)
	GetByID(ctx context.Context, id int64) (*models.CoachProfile, error)
	GetByUserID(ctx context.Context, userID int64) (*models.CoachProfile, error)
	UpdateSettings(ctx context.Context, userID int64, fullName *string, pricePerSession *float64) (*models.CoachProfile, error)
}

type CoachProfileService struct {
	profileRepo  coachProfileStore
	defaultPrice float64
	logger       zerolog.Logger
}

func NewCoachProfileService(profileRepo coachProfileStore, defaultPrice float64, logger zerolog.Logger) *CoachProfileService {
	return &CoachProfileService{
		profileRepo:  profileRepo,
		defaultPrice: defaultPrice,
		logger:       logger.With().Str("component", "coach_profile").Logger(),
	}
}

// EnsureProfile returns the actor's coach profile, creating a default one when
// missing. Absence is an expected transient state for newly promoted coaches,
// not an error.
func (s *CoachProfileService) EnsureProfile(ctx context.Context, userID int64, role string) (*models.CoachProfile, error) {
	if role != models.RoleCoach && role != models.RoleAdmin {
		return nil, ErrForbidden
	}

	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	profile, err = s.profileRepo.Create(ctx, userID, s.defaultPrice)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("user_id", userID).Int64("profile_id", profile.ID).
		Msg("created default coach profile")
	return profile, nil
}

type UpdateProfileSettingsInput struct {
	FullName        *string
	PricePerSession *float64
}

func (s *CoachProfileService) UpdateSettings(ctx context.Context, userID int64, role string, input UpdateProfileSettingsInput) (*models.CoachProfile, error) {
	if input.PricePerSession != nil && *input.PricePerSession <= 0 {
		return nil, ErrInvalidInput
	}

	if _, err := s.EnsureProfile(ctx, userID, role); err != nil {
		return nil, err
	}
	return s.profileRepo.UpdateSettings(ctx, userID, input.FullName, input.PricePerSession)
}
