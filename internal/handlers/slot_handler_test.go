package handlers

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/models"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/services"
)

type stubSlotService struct {
	slot      *models.AvailabilitySlot
	createErr error
	lastStart time.Time
	lastEnd   time.Time

	deleteErr     error
	lastDeletedID int64

	slots   []models.AvailabilitySlot
	listErr error

	reconcileResult *services.ReconcileResult
	reconcileErr    error
	lastCoachID     int64
	lastDesired     []services.DesiredSlot
}

func (s *stubSlotService) Create(_ context.Context, _ services.Actor, coachID int64, startTime, endTime time.Time) (*models.AvailabilitySlot, error) {
	s.lastCoachID = coachID
	s.lastStart = startTime
	s.lastEnd = endTime
	return s.slot, s.createErr
}

func (s *stubSlotService) Delete(_ context.Context, _ services.Actor, slotID int64) error {
	s.lastDeletedID = slotID
	return s.deleteErr
}

func (s *stubSlotService) ListAvailable(_ context.Context, coachID int64, _, _ time.Time) ([]models.AvailabilitySlot, error) {
	s.lastCoachID = coachID
	return s.slots, s.listErr
}

func (s *stubSlotService) Reconcile(_ context.Context, _ services.Actor, coachID int64, desired []services.DesiredSlot) (*services.ReconcileResult, error) {
	s.lastCoachID = coachID
	s.lastDesired = desired
	return s.reconcileResult, s.reconcileErr
}

func newSlotTestApp(stub *stubSlotService) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", "3")
		c.Locals("role", "coach")
		c.Locals("email", "coach@example.com")
		return c.Next()
	})

	handler := &SlotHandler{service: stub}
	app.Get("/api/coaches/:id/slots", handler.ListSlots)
	app.Post("/api/v1/slots", handler.CreateSlot)
	app.Delete("/api/v1/slots/:id", handler.DeleteSlot)
	app.Put("/api/v1/slots/reconcile", handler.Reconcile)
	return app
}

func TestCreateSlot(t *testing.T) {
	stub := &stubSlotService{slot: &models.AvailabilitySlot{ID: 10, CoachID: 1}}
	app := newSlotTestApp(stub)

	req := httptest.NewRequest("POST", "/api/v1/slots",
		strings.NewReader(`{"coach_id": 1, "start_time": "2030-06-01T10:00:00Z", "end_time": "2030-06-01T11:00:00Z"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if stub.lastCoachID != 1 {
		t.Fatalf("expected coach 1, got %d", stub.lastCoachID)
	}
	if !stub.lastStart.Equal(time.Date(2030, 6, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start time %v", stub.lastStart)
	}
}

func TestCreateSlotRejectsBadTimestamp(t *testing.T) {
	stub := &stubSlotService{}
	app := newSlotTestApp(stub)

	req := httptest.NewRequest("POST", "/api/v1/slots",
		strings.NewReader(`{"coach_id": 1, "start_time": "tomorrow", "end_time": "2030-06-01T11:00:00Z"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestDeleteSlot(t *testing.T) {
	stub := &stubSlotService{}
	app := newSlotTestApp(stub)

	req := httptest.NewRequest("DELETE", "/api/v1/slots/10", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if stub.lastDeletedID != 10 {
		t.Fatalf("expected slot 10, got %d", stub.lastDeletedID)
	}
}

func TestDeleteBookedSlotMapsToUnprocessable(t *testing.T) {
	stub := &stubSlotService{deleteErr: services.ErrInvalidStateTransition}
	app := newSlotTestApp(stub)

	req := httptest.NewRequest("DELETE", "/api/v1/slots/10", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestListSlotsRejectsBadCoachID(t *testing.T) {
	stub := &stubSlotService{}
	app := newSlotTestApp(stub)

	req := httptest.NewRequest("GET", "/api/coaches/zero/slots", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestListSlotsRejectsBadWindow(t *testing.T) {
	stub := &stubSlotService{}
	app := newSlotTestApp(stub)

	req := httptest.NewRequest("GET", "/api/coaches/1/slots?from=yesterday", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestListSlots(t *testing.T) {
	stub := &stubSlotService{slots: []models.AvailabilitySlot{{ID: 10, CoachID: 1}}}
	app := newSlotTestApp(stub)

	req := httptest.NewRequest("GET", "/api/coaches/1/slots", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if stub.lastCoachID != 1 {
		t.Fatalf("expected coach 1, got %d", stub.lastCoachID)
	}
}

func TestReconcile(t *testing.T) {
	stub := &stubSlotService{reconcileResult: &services.ReconcileResult{Deleted: 1, Inserted: 2}}
	app := newSlotTestApp(stub)

	req := httptest.NewRequest("PUT", "/api/v1/slots/reconcile",
		strings.NewReader(`{"coach_id": 1, "slots": [
			{"id": "10", "start_time": "2030-06-01T10:00:00Z", "end_time": "2030-06-01T11:00:00Z"},
			{"id": "tmp-1", "start_time": "2030-06-01T12:00:00Z", "end_time": "2030-06-01T13:00:00Z"}
		]}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if stub.lastCoachID != 1 || len(stub.lastDesired) != 2 {
		t.Fatalf("unexpected reconcile call: coach %d, %d slots", stub.lastCoachID, len(stub.lastDesired))
	}
	if stub.lastDesired[0].ID != "10" || stub.lastDesired[1].ID != "tmp-1" {
		t.Fatalf("unexpected desired ids: %+v", stub.lastDesired)
	}
}

func TestReconcileForOtherCoachIsForbidden(t *testing.T) {
	stub := &stubSlotService{reconcileErr: services.ErrForbidden}
	app := newSlotTestApp(stub)

	req := httptest.NewRequest("PUT", "/api/v1/slots/reconcile",
		strings.NewReader(`{"coach_id": 99, "slots": []}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}
