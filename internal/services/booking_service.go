package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/metrics"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/models"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/repository"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/pkg/utils"
	"github.com/rs/zerolog"
)

var (
	ErrForbidden              = errors.New("forbidden")
	ErrSlotTaken              = errors.New("slot is no longer available")
	ErrSlotNotOwned           = errors.New("this slot no longer belongs to you")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInvalidInput           = errors.New("invalid input")
	ErrCoachNotFound          = errors.New("coach not found")
	ErrNotesRequired          = errors.New("session notes are required to complete an appointment")
	ErrCheckoutUnavailable    = errors.New("payment hand-off failed")
)

// nowFn is swapped in tests that pin the clock.
var nowFn = time.Now

// Actor is the opaque identity the external identity collaborator yields for
// the current request.
type Actor struct {
	ID    int64
	Role  string
	Email string
}

const (
	cancelNoticeStandard = "Your session was cancelled. A 50% cancellation fee applies; the remainder will be refunded to your payment method."
	cancelNoticePriority = "Your session was cancelled at no charge."
)

// BookingService drives an appointment through its payment-gated lifecycle and
// coordinates slot reservation, discounting and the payment hand-off.
type BookingService struct {
	db          *pgxpool.Pool
	apptRepo    *repository.AppointmentRepository
	slotRepo    *repository.SlotRepository
	userRepo    *repository.UserRepository
	profileRepo *repository.CoachProfileRepository
	discounts   *DiscountService
	gateway     CheckoutGateway
	gate        *AccessGate
	returnURL   string
	logger      zerolog.Logger
}

func NewBookingService(
	db *pgxpool.Pool,
	apptRepo *repository.AppointmentRepository,
	slotRepo *repository.SlotRepository,
	userRepo *repository.UserRepository,
	profileRepo *repository.CoachProfileRepository,
	discounts *DiscountService,
	gateway CheckoutGateway,
	gate *AccessGate,
	returnURL string,
	logger zerolog.Logger,
) *BookingService {
	return &BookingService{
		db:          db,
		apptRepo:    apptRepo,
		slotRepo:    slotRepo,
		userRepo:    userRepo,
		profileRepo: profileRepo,
		discounts:   discounts,
		gateway:     gateway,
		gate:        gate,
		returnURL:   returnURL,
		logger:      logger.With().Str("component", "booking").Logger(),
	}
}

type BookInput struct {
	CoachID        int64
	SlotID         int64
	ClientName     string
	Email          string
	DiscountCodeID *int64
	Anonymous      bool
}

type BookResult struct {
	Appointment *models.Appointment `json:"appointment"`
	CheckoutURL string              `json:"checkout_url"`
}

// Book executes the full reservation flow in one transaction: resolve or
// create the contact, claim the slot with a conditional write, price the
// session and insert the pending appointment. The slot is flipped to booked
// before payment is attempted, so two concurrent clients can never both hold
// the same slot.
func (s *BookingService) Book(ctx context.Context, actor *Actor, input BookInput) (*BookResult, error) {
	if input.CoachID <= 0 || input.SlotID <= 0 || strings.TrimSpace(input.ClientName) == "" {
		return nil, ErrInvalidInput
	}
	parsedEmail, err := mail.ParseAddress(strings.TrimSpace(input.Email))
	if err != nil {
		return nil, ErrInvalidInput
	}
	email := strings.ToLower(parsedEmail.Address)

	// A person may not book on behalf of another identified account.
	if actor != nil && actor.Role != models.RoleAdmin && !strings.EqualFold(actor.Email, email) {
		return nil, ErrForbidden
	}

	coach, err := s.profileRepo.GetByID(ctx, input.CoachID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCoachNotFound
		}
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txUserRepo := repository.NewUserRepository(tx)
	txSlotRepo := repository.NewSlotRepository(tx)
	txApptRepo := repository.NewAppointmentRepository(tx)

	client, err := s.resolveOrCreateClient(ctx, txUserRepo, email)
	if err != nil {
		return nil, err
	}

	price := coach.PricePerSession
	if input.DiscountCodeID != nil {
		txDiscounts := NewDiscountService(
			repository.NewDiscountRepository(tx),
			txUserRepo,
			txApptRepo,
		)
		discount, err := txDiscounts.ValidateForClient(ctx, *input.DiscountCodeID, client.ID)
		if err != nil {
			return nil, err
		}
		price = FinalPrice(price, discount.DiscountPercentage)
	} else {
		price = FinalPrice(price, 0)
	}

	slot, err := txSlotRepo.Claim(ctx, input.SlotID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			metrics.IncSlotConflict()
			return nil, ErrSlotTaken
		}
		return nil, err
	}
	if slot.CoachID != input.CoachID {
		return nil, ErrInvalidInput
	}

	appt, err := txApptRepo.Create(ctx, repository.CreateAppointmentInput{
		ClientID:       client.ID,
		CoachID:        coach.ID,
		Date:           slot.StartTime,
		Price:          price,
		DiscountCodeID: input.DiscountCodeID,
		IsAnonymous:    input.Anonymous,
		ClientName:     strings.TrimSpace(input.ClientName),
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	metrics.IncAppointmentCreated(models.AppointmentPendingPayment)

	checkoutURL, err := s.gateway.CreateCheckoutSession(ctx, appt.ID, s.returnURL)
	if err != nil {
		// The reservation stands; the sweeper reclaims it if the client never
		// retries payment. Gateway detail is not actionable by the end user.
		s.logger.Error().Err(err).Int64("appointment_id", appt.ID).
			Msg("checkout session creation failed")
		return &BookResult{Appointment: appt}, ErrCheckoutUnavailable
	}

	return &BookResult{Appointment: appt, CheckoutURL: checkoutURL}, nil
}

func (s *BookingService) resolveOrCreateClient(ctx context.Context, users *repository.UserRepository, email string) (*models.User, error) {
	client, err := users.GetByEmail(ctx, email)
	if err == nil {
		return client, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// Guest contacts get a client account with an unguessable credential;
	// they can reset it through the usual flow later.
	placeholder, err := utils.HashPassword(uuid.NewString())
	if err != nil {
		return nil, err
	}
	client = &models.User{
		Email:        email,
		PasswordHash: placeholder,
		Role:         models.RoleClient,
	}
	if err := users.CreateUser(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

// ConfirmPayment moves the appointment to scheduled after the gateway reports
// success. Idempotent best-effort: repeat callbacks and secondary stat refresh
// failures are logged, never surfaced, so the gateway's callback contract is
// not broken by our bookkeeping.
func (s *BookingService) ConfirmPayment(ctx context.Context, appointmentID int64) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		s.logger.Error().Err(err).Int64("appointment_id", appointmentID).
			Msg("payment confirmation: begin failed")
		metrics.IncPaymentConfirmed("error")
		return
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txApptRepo := repository.NewAppointmentRepository(tx)
	txProfileRepo := repository.NewCoachProfileRepository(tx)

	appt, err := txApptRepo.UpdateStatusIfCurrent(ctx, appointmentID,
		models.AppointmentPendingPayment, models.AppointmentScheduled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Already confirmed, cancelled, or unknown id.
			s.logger.Debug().Int64("appointment_id", appointmentID).
				Msg("payment confirmation: no pending appointment to confirm")
			metrics.IncPaymentConfirmed("noop")
			return
		}
		s.logger.Error().Err(err).Int64("appointment_id", appointmentID).
			Msg("payment confirmation: status update failed")
		metrics.IncPaymentConfirmed("error")
		return
	}

	if err := txProfileRepo.RefreshStats(ctx, appt.CoachID); err != nil {
		s.logger.Error().Err(err).Int64("coach_id", appt.CoachID).
			Msg("payment confirmation: stats refresh failed")
		metrics.IncPaymentConfirmed("error")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Int64("appointment_id", appointmentID).
			Msg("payment confirmation: commit failed")
		metrics.IncPaymentConfirmed("error")
		return
	}

	metrics.IncPaymentConfirmed("confirmed")
	s.logger.Info().Int64("appointment_id", appointmentID).Msg("appointment scheduled")
}

// Cancel flips a scheduled appointment to cancelled and releases exactly the
// slot it had reserved. Returns the policy notice for the caller; refund
// execution itself belongs to the payment gateway.
func (s *BookingService) Cancel(ctx context.Context, actor Actor, appointmentID int64) (string, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txApptRepo := repository.NewAppointmentRepository(tx)
	txSlotRepo := repository.NewSlotRepository(tx)

	appt, err := txApptRepo.GetByIDForUpdate(ctx, appointmentID)
	if err != nil {
		return "", err
	}
	if appt.ClientID != actor.ID {
		return "", ErrForbidden
	}
	if appt.Status != models.AppointmentScheduled {
		return "", ErrInvalidStateTransition
	}

	if _, err := txApptRepo.UpdateStatusIfCurrent(ctx, appointmentID,
		models.AppointmentScheduled, models.AppointmentCancelled); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrInvalidStateTransition
		}
		return "", err
	}

	released, err := txSlotRepo.Release(ctx, appt.CoachID, appt.Date)
	if err != nil {
		return "", err
	}
	if released != 1 {
		s.logger.Warn().Int64("appointment_id", appointmentID).Int64("released", released).
			Msg("cancellation released an unexpected number of slots")
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}

	metrics.IncAppointmentCancelled()
	s.logger.Info().Int64("appointment_id", appointmentID).Msg("appointment cancelled")

	return s.cancelNotice(actor.Email), nil
}

func (s *BookingService) cancelNotice(email string) string {
	if s.gate.IsPriority(email) {
		return cancelNoticePriority
	}
	return cancelNoticeStandard
}

type CompleteInput struct {
	Notes           string
	ImprovementTips *string
}

// Complete finalizes the session: the owning coach records notes and the
// aggregate counters and balance move in the same transaction.
func (s *BookingService) Complete(ctx context.Context, actor Actor, appointmentID int64, input CompleteInput) (*models.Appointment, error) {
	if strings.TrimSpace(input.Notes) == "" {
		return nil, ErrNotesRequired
	}
	if actor.Role != models.RoleCoach {
		return nil, ErrForbidden
	}

	profile, err := s.profileRepo.GetByUserID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrForbidden
		}
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txApptRepo := repository.NewAppointmentRepository(tx)
	txProfileRepo := repository.NewCoachProfileRepository(tx)

	appt, err := txApptRepo.GetByIDForUpdate(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt.CoachID != profile.ID {
		return nil, ErrForbidden
	}

	completed, err := txApptRepo.CompleteIfScheduled(ctx, appointmentID,
		strings.TrimSpace(input.Notes), input.ImprovementTips)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	if err := txProfileRepo.AddCompletedSession(ctx, profile.ID, completed.Price); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	metrics.IncAppointmentCreated(models.AppointmentCompleted)
	return completed, nil
}

// Rate lets the client score a completed session 1-5.
func (s *BookingService) Rate(ctx context.Context, actor Actor, appointmentID int64, rating int) (*models.Appointment, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidInput
	}
	appt, err := s.apptRepo.SetRatingIfCompleted(ctx, appointmentID, actor.ID, rating)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}
	return appt, nil
}

func (s *BookingService) Get(ctx context.Context, actor Actor, appointmentID int64) (*models.Appointment, error) {
	appt, err := s.apptRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeAccess(ctx, actor, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

func (s *BookingService) List(ctx context.Context, actor Actor, filter repository.AppointmentListFilter) ([]models.Appointment, error) {
	actorID := actor.ID
	if actor.Role == models.RoleCoach {
		profile, err := s.profileRepo.GetByUserID(ctx, actor.ID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return []models.Appointment{}, nil
			}
			return nil, err
		}
		actorID = profile.ID
	}

	return s.apptRepo.List(ctx, repository.AppointmentListFilter{
		ActorID:   actorID,
		Role:      actor.Role,
		Status:    filter.Status,
		Timeframe: filter.Timeframe,
	})
}

// RoomAccess evaluates the live-room gate for an appointment's participant.
func (s *BookingService) RoomAccess(ctx context.Context, actor Actor, appointmentID int64) (*RoomAccess, error) {
	appt, err := s.apptRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeAccess(ctx, actor, appt); err != nil {
		return nil, err
	}
	if appt.Status != models.AppointmentScheduled && appt.Status != models.AppointmentCompleted {
		return nil, ErrInvalidStateTransition
	}

	access := s.gate.Evaluate(nowFn().UTC(), appt.Date, actor.Email)
	access.RoomName = RoomName(appt.ID)
	return &access, nil
}

func (s *BookingService) authorizeAccess(ctx context.Context, actor Actor, appt *models.Appointment) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleClient:
		if appt.ClientID != actor.ID {
			return ErrForbidden
		}
		return nil
	case models.RoleCoach:
		profile, err := s.profileRepo.GetByUserID(ctx, actor.ID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrForbidden
			}
			return err
		}
		if appt.CoachID != profile.ID {
			return ErrForbidden
		}
		return nil
	default:
		return ErrForbidden
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
