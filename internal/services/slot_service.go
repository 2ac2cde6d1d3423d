package services

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/metrics"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/models"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/repository"
	"github.com/rs/zerolog"
)

const defaultListingWindow = 30 * 24 * time.Hour

// SlotService owns the coach's bookable time inventory.
type SlotService struct {
	db         *pgxpool.Pool
	slotRepo   *repository.SlotRepository
	profileSvc *CoachProfileService
	logger     zerolog.Logger
}

func NewSlotService(db *pgxpool.Pool, slotRepo *repository.SlotRepository, profileSvc *CoachProfileService, logger zerolog.Logger) *SlotService {
	return &SlotService{
		db:         db,
		slotRepo:   slotRepo,
		profileSvc: profileSvc,
		logger:     logger.With().Str("component", "slots").Logger(),
	}
}

// authorizeCoach resolves the acting coach's profile and checks it matches the
// targeted inventory. Admins may act on any coach's inventory.
func (s *SlotService) authorizeCoach(ctx context.Context, actor Actor, coachID int64) error {
	if actor.Role == models.RoleAdmin {
		return nil
	}
	if actor.Role != models.RoleCoach {
		return ErrForbidden
	}
	profile, err := s.profileSvc.EnsureProfile(ctx, actor.ID, actor.Role)
	if err != nil {
		return err
	}
	if profile.ID != coachID {
		return ErrForbidden
	}
	return nil
}

func (s *SlotService) Create(ctx context.Context, actor Actor, coachID int64, startTime, endTime time.Time) (*models.AvailabilitySlot, error) {
	if coachID <= 0 || !endTime.After(startTime) {
		return nil, ErrInvalidInput
	}
	if err := s.authorizeCoach(ctx, actor, coachID); err != nil {
		return nil, err
	}
	return s.slotRepo.Create(ctx, coachID, startTime.UTC(), endTime.UTC())
}

func (s *SlotService) Delete(ctx context.Context, actor Actor, slotID int64) error {
	slot, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		return err
	}
	if err := s.authorizeCoach(ctx, actor, slot.CoachID); err != nil {
		return ErrSlotNotOwned
	}

	deleted, err := s.slotRepo.DeleteIfUnbooked(ctx, slotID, slot.CoachID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrInvalidStateTransition
	}
	return nil
}

// ListAvailable returns the coach's unbooked slots inside the window, defaulting
// to now through the next 30 days.
func (s *SlotService) ListAvailable(ctx context.Context, coachID int64, from, to time.Time) ([]models.AvailabilitySlot, error) {
	if coachID <= 0 {
		return nil, ErrInvalidInput
	}
	if from.IsZero() {
		from = nowFn().UTC()
	}
	if to.IsZero() {
		to = from.Add(defaultListingWindow)
	}
	if !to.After(from) {
		return nil, ErrInvalidInput
	}
	return s.slotRepo.ListAvailable(ctx, coachID, from.UTC(), to.UTC())
}

// DesiredSlot is one entry of a bulk schedule edit. Entries that survived the
// edit carry their persisted numeric id; fresh entries carry whatever
// placeholder the editing client generated.
type DesiredSlot struct {
	ID        string    `json:"id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type ReconcileResult struct {
	Deleted  int64 `json:"deleted"`
	Inserted int64 `json:"inserted"`
}

// Reconcile diffs the desired slot set against the stored one inside a single
// transaction. Booked slots are never eligible for deletion, so a bulk edit
// cannot silently cancel an existing confirmed booking.
func (s *SlotService) Reconcile(ctx context.Context, actor Actor, coachID int64, desired []DesiredSlot) (*ReconcileResult, error) {
	if coachID <= 0 {
		return nil, ErrInvalidInput
	}
	for _, entry := range desired {
		if !entry.EndTime.After(entry.StartTime) {
			return nil, ErrInvalidInput
		}
	}
	if err := s.authorizeCoach(ctx, actor, coachID); err != nil {
		return nil, err
	}

	kept, fresh := partitionDesired(desired)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSlotRepo := repository.NewSlotRepository(tx)

	current, err := txSlotRepo.ListUnbookedForUpdate(ctx, coachID)
	if err != nil {
		return nil, err
	}

	toDelete := staleSlotIDs(current, kept)
	deleted, err := txSlotRepo.DeleteUnbooked(ctx, coachID, toDelete)
	if err != nil {
		return nil, err
	}

	var inserted int64
	for _, entry := range fresh {
		if _, err := txSlotRepo.Create(ctx, coachID, entry.StartTime.UTC(), entry.EndTime.UTC()); err != nil {
			return nil, err
		}
		inserted++
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	metrics.AddSlotsReconciled("delete", float64(deleted))
	metrics.AddSlotsReconciled("insert", float64(inserted))
	s.logger.Info().Int64("coach_id", coachID).Int64("deleted", deleted).Int64("inserted", inserted).
		Msg("reconciled slot inventory")

	return &ReconcileResult{Deleted: deleted, Inserted: inserted}, nil
}

// partitionDesired splits a desired set into kept persisted ids and fresh
// entries. Anything without a positive numeric id is treated as new.
func partitionDesired(desired []DesiredSlot) (map[int64]struct{}, []DesiredSlot) {
	kept := make(map[int64]struct{})
	fresh := make([]DesiredSlot, 0)
	for _, entry := range desired {
		id, err := strconv.ParseInt(entry.ID, 10, 64)
		if err != nil || id <= 0 {
			fresh = append(fresh, entry)
			continue
		}
		kept[id] = struct{}{}
	}
	return kept, fresh
}

// staleSlotIDs picks the stored unbooked slots absent from the kept set.
func staleSlotIDs(current []models.AvailabilitySlot, kept map[int64]struct{}) []int64 {
	stale := make([]int64, 0)
	for _, slot := range current {
		if _, ok := kept[slot.ID]; !ok {
			stale = append(stale, slot.ID)
		}
	}
	return stale
}
