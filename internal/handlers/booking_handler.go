package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/models"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/repository"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/services"
)

type bookingApplicationService interface {
	Book(ctx context.Context, actor *services.Actor, input services.BookInput) (*services.BookResult, error)
	ConfirmPayment(ctx context.Context, appointmentID int64)
	Cancel(ctx context.Context, actor services.Actor, appointmentID int64) (string, error)
	Complete(ctx context.Context, actor services.Actor, appointmentID int64, input services.CompleteInput) (*models.Appointment, error)
	Rate(ctx context.Context, actor services.Actor, appointmentID int64, rating int) (*models.Appointment, error)
	Get(ctx context.Context, actor services.Actor, appointmentID int64) (*models.Appointment, error)
	List(ctx context.Context, actor services.Actor, filter repository.AppointmentListFilter) ([]models.Appointment, error)
}

type BookingHandler struct {
	service bookingApplicationService
}

func NewBookingHandler(service *services.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

type bookRequest struct {
	CoachID        int64  `json:"coach_id"`
	SlotID         int64  `json:"slot_id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	DiscountCodeID *int64 `json:"discount_code_id"`
	Anonymous      bool   `json:"anonymous"`
}

type paymentCallbackRequest struct {
	AppointmentID int64 `json:"appointment_id"`
}

type completeRequest struct {
	Notes           string  `json:"notes"`
	ImprovementTips *string `json:"improvement_tips"`
}

type rateRequest struct {
	Rating int `json:"rating"`
}

// Book serves guests and authenticated clients alike; the optional auth
// middleware decides which.
func (h *BookingHandler) Book(c *fiber.Ctx) error {
	var req bookRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	result, err := h.service.Book(c.Context(), optionalActorFromLocals(c), services.BookInput{
		CoachID:        req.CoachID,
		SlotID:         req.SlotID,
		ClientName:     req.Name,
		Email:          req.Email,
		DiscountCodeID: req.DiscountCodeID,
		Anonymous:      req.Anonymous,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"appointment":  result.Appointment,
		"checkout_url": result.CheckoutURL,
	})
}

// PaymentCallback is the gateway's confirmation hook. It must not fail for
// bookkeeping reasons, so anything past body validation answers 200.
func (h *BookingHandler) PaymentCallback(c *fiber.Ctx) error {
	var req paymentCallbackRequest
	if err := c.BodyParser(&req); err != nil || req.AppointmentID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	h.service.ConfirmPayment(c.Context(), req.AppointmentID)

	return c.JSON(fiber.Map{"received": true})
}

func (h *BookingHandler) ListAppointments(c *fiber.Ctx) error {
	actor, err := actorFromLocals(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	timeframe := strings.TrimSpace(c.Query("timeframe"))
	if timeframe != "" && timeframe != "upcoming" && timeframe != "past" {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "timeframe must be upcoming or past"})
	}

	appointments, err := h.service.List(c.Context(), actor, repository.AppointmentListFilter{
		Status:    strings.TrimSpace(c.Query("status")),
		Timeframe: timeframe,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"appointments": appointments})
}

func (h *BookingHandler) GetAppointment(c *fiber.Ctx) error {
	actor, err := actorFromLocals(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	appointmentID, err := parseAppointmentID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid appointment id"})
	}

	appt, err := h.service.Get(c.Context(), actor, appointmentID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"appointment": appt})
}

func (h *BookingHandler) CancelAppointment(c *fiber.Ctx) error {
	actor, err := actorFromLocals(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	appointmentID, err := parseAppointmentID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid appointment id"})
	}

	notice, err := h.service.Cancel(c.Context(), actor, appointmentID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"notice": notice})
}

func (h *BookingHandler) CompleteAppointment(c *fiber.Ctx) error {
	actor, err := actorFromLocals(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	appointmentID, err := parseAppointmentID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid appointment id"})
	}

	var req completeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	appt, err := h.service.Complete(c.Context(), actor, appointmentID, services.CompleteInput{
		Notes:           req.Notes,
		ImprovementTips: req.ImprovementTips,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"appointment": appt})
}

func (h *BookingHandler) RateAppointment(c *fiber.Ctx) error {
	actor, err := actorFromLocals(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	appointmentID, err := parseAppointmentID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid appointment id"})
	}

	var req rateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	appt, err := h.service.Rate(c.Context(), actor, appointmentID, req.Rating)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"appointment": appt})
}

func parseAppointmentID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, strconv.ErrSyntax
	}
	return id, nil
}
