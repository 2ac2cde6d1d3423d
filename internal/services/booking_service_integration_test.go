package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/models"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/repository"
	"github.com/rs/zerolog"
)

var (
	testDBOnce sync.Once
	testDBPool *pgxpool.Pool
	testDBErr  error
)

func TestBookingLifecycle(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationBookingService(pool)

	coachUserID, coachProfileID := createTestCoach(t, ctx, pool, 35)
	t.Cleanup(func() { cleanupTestCoach(t, ctx, pool, coachUserID, coachProfileID) })

	codeID := createTestDiscountCode(t, ctx, pool, 25, true)
	t.Cleanup(func() { cleanupTestDiscountCode(t, ctx, pool, codeID) })

	slotRepo := repository.NewSlotRepository(pool)
	start := time.Date(2030, 6, 1, 10, 0, 0, 0, time.UTC)
	slot, err := slotRepo.Create(ctx, coachProfileID, start, start.Add(time.Hour))
	if err != nil {
		t.Fatalf("create slot: %v", err)
	}

	clientEmail := fmt.Sprintf("booking-test-%d@example.com", time.Now().UnixNano())

	result, err := service.Book(ctx, nil, BookInput{
		CoachID:        coachProfileID,
		SlotID:         slot.ID,
		ClientName:     "Ana",
		Email:          clientEmail,
		DiscountCodeID: &codeID,
	})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	appt := result.Appointment
	t.Cleanup(func() { cleanupTestClient(t, ctx, pool, appt.ClientID) })

	if appt.Status != models.AppointmentPendingPayment {
		t.Fatalf("expected pending_payment, got %q", appt.Status)
	}
	if appt.Price != 26.25 {
		t.Fatalf("expected discounted price 26.25, got %.2f", appt.Price)
	}
	if result.CheckoutURL == "" {
		t.Fatal("expected a checkout redirect URL")
	}

	claimed, err := slotRepo.GetByID(ctx, slot.ID)
	if err != nil {
		t.Fatalf("reload slot: %v", err)
	}
	if !claimed.IsBooked {
		t.Fatal("expected the slot to be claimed")
	}

	// A second booking against the claimed slot must lose cleanly.
	_, err = service.Book(ctx, nil, BookInput{
		CoachID:    coachProfileID,
		SlotID:     slot.ID,
		ClientName: "Ben",
		Email:      fmt.Sprintf("rival-%d@example.com", time.Now().UnixNano()),
	})
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}

	service.ConfirmPayment(ctx, appt.ID)
	// A repeat callback is a no-op, not an error.
	service.ConfirmPayment(ctx, appt.ID)

	apptRepo := repository.NewAppointmentRepository(pool)
	confirmed, err := apptRepo.GetByID(ctx, appt.ID)
	if err != nil {
		t.Fatalf("reload appointment: %v", err)
	}
	if confirmed.Status != models.AppointmentScheduled {
		t.Fatalf("expected scheduled after confirmation, got %q", confirmed.Status)
	}

	client := Actor{ID: appt.ClientID, Role: models.RoleClient, Email: clientEmail}
	notice, err := service.Cancel(ctx, client, appt.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if notice != cancelNoticeStandard {
		t.Fatalf("expected the standard cancellation notice, got %q", notice)
	}

	cancelled, err := apptRepo.GetByID(ctx, appt.ID)
	if err != nil {
		t.Fatalf("reload appointment: %v", err)
	}
	if cancelled.Status != models.AppointmentCancelled {
		t.Fatalf("expected cancelled, got %q", cancelled.Status)
	}

	freed, err := slotRepo.GetByID(ctx, slot.ID)
	if err != nil {
		t.Fatalf("reload slot: %v", err)
	}
	if freed.IsBooked {
		t.Fatal("expected the slot to be released after cancellation")
	}

	// The freed slot is bookable again, now at full price: the client's
	// cancelled appointment burned their first-session eligibility.
	rebooked, err := service.Book(ctx, nil, BookInput{
		CoachID:    coachProfileID,
		SlotID:     slot.ID,
		ClientName: "Ana",
		Email:      clientEmail,
	})
	if err != nil {
		t.Fatalf("rebook: %v", err)
	}
	if rebooked.Appointment.Price != 35 {
		t.Fatalf("expected full price 35, got %.2f", rebooked.Appointment.Price)
	}
	if rebooked.Appointment.ClientID != appt.ClientID {
		t.Fatal("expected the rebooking to reuse the existing client account")
	}
}

func TestBookRejectsBurnedFirstSessionCode(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationBookingService(pool)

	coachUserID, coachProfileID := createTestCoach(t, ctx, pool, 40)
	t.Cleanup(func() { cleanupTestCoach(t, ctx, pool, coachUserID, coachProfileID) })

	codeID := createTestDiscountCode(t, ctx, pool, 25, true)
	t.Cleanup(func() { cleanupTestDiscountCode(t, ctx, pool, codeID) })

	slotRepo := repository.NewSlotRepository(pool)
	start := time.Date(2030, 7, 1, 10, 0, 0, 0, time.UTC)
	first, err := slotRepo.Create(ctx, coachProfileID, start, start.Add(time.Hour))
	if err != nil {
		t.Fatalf("create slot: %v", err)
	}
	second, err := slotRepo.Create(ctx, coachProfileID, start.Add(2*time.Hour), start.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("create slot: %v", err)
	}

	clientEmail := fmt.Sprintf("firstonly-test-%d@example.com", time.Now().UnixNano())

	result, err := service.Book(ctx, nil, BookInput{
		CoachID:    coachProfileID,
		SlotID:     first.ID,
		ClientName: "Ana",
		Email:      clientEmail,
	})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	t.Cleanup(func() { cleanupTestClient(t, ctx, pool, result.Appointment.ClientID) })

	_, err = service.Book(ctx, nil, BookInput{
		CoachID:        coachProfileID,
		SlotID:         second.ID,
		ClientName:     "Ana",
		Email:          clientEmail,
		DiscountCodeID: &codeID,
	})
	if !errors.Is(err, ErrFirstSessionOnly) {
		t.Fatalf("expected ErrFirstSessionOnly, got %v", err)
	}
}

func TestSweeperReclaimsExpiredLeases(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationBookingService(pool)

	coachUserID, coachProfileID := createTestCoach(t, ctx, pool, 30)
	t.Cleanup(func() { cleanupTestCoach(t, ctx, pool, coachUserID, coachProfileID) })

	slotRepo := repository.NewSlotRepository(pool)
	start := time.Date(2030, 8, 1, 10, 0, 0, 0, time.UTC)
	slot, err := slotRepo.Create(ctx, coachProfileID, start, start.Add(time.Hour))
	if err != nil {
		t.Fatalf("create slot: %v", err)
	}

	result, err := service.Book(ctx, nil, BookInput{
		CoachID:    coachProfileID,
		SlotID:     slot.ID,
		ClientName: "Ana",
		Email:      fmt.Sprintf("sweeper-test-%d@example.com", time.Now().UnixNano()),
	})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	appt := result.Appointment
	t.Cleanup(func() { cleanupTestClient(t, ctx, pool, appt.ClientID) })

	// Age the lease past the cutoff.
	if _, err := pool.Exec(ctx,
		"UPDATE appointments SET created_at = NOW() - INTERVAL '2 hours' WHERE id = $1", appt.ID); err != nil {
		t.Fatalf("age appointment: %v", err)
	}

	sweeper := NewSweeper(pool, 30*time.Minute, time.Minute, zerolog.Nop())
	reclaimed, err := sweeper.SweepOnce(ctx)
	if err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}
	if reclaimed < 1 {
		t.Fatalf("expected at least one reclaimed reservation, got %d", reclaimed)
	}

	apptRepo := repository.NewAppointmentRepository(pool)
	swept, err := apptRepo.GetByID(ctx, appt.ID)
	if err != nil {
		t.Fatalf("reload appointment: %v", err)
	}
	if swept.Status != models.AppointmentCancelled {
		t.Fatalf("expected cancelled after sweep, got %q", swept.Status)
	}

	freed, err := slotRepo.GetByID(ctx, slot.ID)
	if err != nil {
		t.Fatalf("reload slot: %v", err)
	}
	if freed.IsBooked {
		t.Fatal("expected the slot to be released by the sweep")
	}
}

func integrationTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	testDBOnce.Do(func() {
		_ = godotenv.Load(".env")
		_ = godotenv.Load(filepath.Join("..", "..", ".env"))

		dbURL := os.Getenv("DB_URL")
		if dbURL == "" {
			testDBErr = fmt.Errorf("DB_URL is not set")
			return
		}

		cfg, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			testDBErr = err
			return
		}

		testDBPool, testDBErr = pgxpool.NewWithConfig(context.Background(), cfg)
		if testDBErr != nil {
			return
		}
		testDBErr = testDBPool.Ping(context.Background())
	})

	if testDBErr != nil {
		t.Skipf("skipping integration test: %v", testDBErr)
	}
	return testDBPool
}

func newIntegrationBookingService(pool *pgxpool.Pool) *BookingService {
	discountRepo := repository.NewDiscountRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	apptRepo := repository.NewAppointmentRepository(pool)

	return NewBookingService(
		pool,
		apptRepo,
		repository.NewSlotRepository(pool),
		userRepo,
		repository.NewCoachProfileRepository(pool),
		NewDiscountService(discountRepo, userRepo, apptRepo),
		NewRedirectCheckoutGateway("https://pay.test/checkout"),
		NewAccessGate(nil),
		"https://app.test/bookings",
		zerolog.Nop(),
	)
}

func createTestCoach(t *testing.T, ctx context.Context, pool *pgxpool.Pool, price float64) (int64, int64) {
	t.Helper()

	userRepo := repository.NewUserRepository(pool)
	user := &models.User{
		Email:        fmt.Sprintf("booking-test-coach-%d@example.com", time.Now().UnixNano()),
		PasswordHash: "test-hash",
		Role:         models.RoleCoach,
	}
	if err := userRepo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser(coach): %v", err)
	}

	profile, err := repository.NewCoachProfileRepository(pool).Create(ctx, user.ID, price)
	if err != nil {
		t.Fatalf("create coach profile: %v", err)
	}

	return user.ID, profile.ID
}

func createTestDiscountCode(t *testing.T, ctx context.Context, pool *pgxpool.Pool, percentage int, firstSessionOnly bool) int64 {
	t.Helper()

	var id int64
	err := pool.QueryRow(ctx, `
		INSERT INTO discount_codes (code, discount_percentage, active, is_first_session_only)
		VALUES ($1, $2, TRUE, $3)
		RETURNING id
	`, fmt.Sprintf("TEST%d", time.Now().UnixNano()), percentage, firstSessionOnly).Scan(&id)
	if err != nil {
		t.Fatalf("create discount code: %v", err)
	}
	return id
}

func cleanupTestCoach(t *testing.T, ctx context.Context, pool *pgxpool.Pool, userID, profileID int64) {
	t.Helper()

	if _, err := pool.Exec(ctx, "DELETE FROM appointments WHERE coach_id = $1", profileID); err != nil {
		t.Fatalf("cleanup appointments: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM availability_slots WHERE coach_id = $1", profileID); err != nil {
		t.Fatalf("cleanup slots: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM coach_profiles WHERE id = $1", profileID); err != nil {
		t.Fatalf("cleanup coach profile: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM users WHERE id = $1", userID); err != nil {
		t.Fatalf("cleanup coach user: %v", err)
	}
}

func cleanupTestClient(t *testing.T, ctx context.Context, pool *pgxpool.Pool, clientID int64) {
	t.Helper()

	if _, err := pool.Exec(ctx, "DELETE FROM appointments WHERE client_id = $1", clientID); err != nil {
		t.Fatalf("cleanup client appointments: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM users WHERE id = $1", clientID); err != nil {
		t.Fatalf("cleanup client user: %v", err)
	}
}

func cleanupTestDiscountCode(t *testing.T, ctx context.Context, pool *pgxpool.Pool, codeID int64) {
	t.Helper()

	if _, err := pool.Exec(ctx, "DELETE FROM discount_codes WHERE id = $1", codeID); err != nil {
		t.Fatalf("cleanup discount code: %v", err)
	}
}
