package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/models"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/services"
)

type stubDiscountService struct {
	discount    *models.DiscountCode
	err         error
	lastCode    string
	lastActorID int64
	lastEmail   string
}

func (s *stubDiscountService) Validate(_ context.Context, code string, actorID int64, email string) (*models.DiscountCode, error) {
	s.lastCode = code
	s.lastActorID = actorID
	s.lastEmail = email
	return s.discount, s.err
}

func newDiscountTestApp(stub *stubDiscountService, authenticated bool) *fiber.App {
	app := fiber.New()
	if authenticated {
		app.Use(func(c *fiber.Ctx) error {
			c.Locals("user_id", "7")
			c.Locals("role", "client")
			c.Locals("email", "ana@example.com")
			return c.Next()
		})
	}

	handler := &DiscountHandler{service: stub}
	app.Post("/api/discounts/validate", handler.ValidateCode)
	return app
}

func TestValidateCodeAsGuest(t *testing.T) {
	stub := &stubDiscountService{
		discount: &models.DiscountCode{Code: "PRIMERA25", DiscountPercentage: 25},
	}
	app := newDiscountTestApp(stub, false)

	req := httptest.NewRequest("POST", "/api/discounts/validate",
		strings.NewReader(`{"code": "primera25", "email": "ana@example.com"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if stub.lastActorID != 0 {
		t.Fatalf("expected guest actor id 0, got %d", stub.lastActorID)
	}
	if stub.lastEmail != "ana@example.com" {
		t.Fatalf("expected the typed email to pass through, got %q", stub.lastEmail)
	}

	body, _ := io.ReadAll(resp.Body)
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["discount_percentage"] != float64(25) {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestValidateCodeAsAuthenticatedClient(t *testing.T) {
	stub := &stubDiscountService{
		discount: &models.DiscountCode{Code: "LOYAL15", DiscountPercentage: 15},
	}
	app := newDiscountTestApp(stub, true)

	req := httptest.NewRequest("POST", "/api/discounts/validate",
		strings.NewReader(`{"code": "LOYAL15"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if stub.lastActorID != 7 {
		t.Fatalf("expected actor 7, got %d", stub.lastActorID)
	}
}

func TestValidateCodeMapsRuleFailures(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{services.ErrDiscountCodeEmpty, fiber.StatusBadRequest},
		{services.ErrCodeNotActive, fiber.StatusUnprocessableEntity},
		{services.ErrCodeExpired, fiber.StatusUnprocessableEntity},
		{services.ErrFirstSessionOnly, fiber.StatusUnprocessableEntity},
		{services.ErrCodeAlreadyUsed, fiber.StatusUnprocessableEntity},
	}

	for _, tc := range cases {
		stub := &stubDiscountService{err: tc.err}
		app := newDiscountTestApp(stub, false)

		req := httptest.NewRequest("POST", "/api/discounts/validate",
			strings.NewReader(`{"code": "X"}`))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		if resp.StatusCode != tc.status {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, resp.StatusCode)
		}
	}
}
