package handlers

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/models"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/services"
)

type slotApplicationService interface {
	Create(ctx context.Context, actor services.Actor, coachID int64, startTime, endTime time.Time) (*models.AvailabilitySlot, error)
	Delete(ctx context.Context, actor services.Actor, slotID int64) error
	ListAvailable(ctx context.Context, coachID int64, from, to time.Time) ([]models.AvailabilitySlot, error)
	Reconcile(ctx context.Context, actor services.Actor, coachID int64, desired []services.DesiredSlot) (*services.ReconcileResult, error)
}

type SlotHandler struct {
	service slotApplicationService
}

func NewSlotHandler(service *services.SlotService) *SlotHandler {
	return &SlotHandler{service: service}
}

type createSlotRequest struct {
	CoachID   int64  `json:"coach_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type reconcileRequest struct {
	CoachID int64                  `json:"coach_id"`
	Slots   []services.DesiredSlot `json:"slots"`
}

func (h *SlotHandler) CreateSlot(c *fiber.Ctx) error {
	actor, err := actorFromLocals(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req createSlotRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	startTime, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartTime))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "start_time must be a valid RFC3339 timestamp"})
	}
	endTime, err := time.Parse(time.RFC3339, strings.TrimSpace(req.EndTime))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "end_time must be a valid RFC3339 timestamp"})
	}

	slot, err := h.service.Create(c.Context(), actor, req.CoachID, startTime, endTime)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"slot": slot})
}

func (h *SlotHandler) DeleteSlot(c *fiber.Ctx) error {
	actor, err := actorFromLocals(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	slotID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || slotID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid slot id"})
	}

	if err := h.service.Delete(c.Context(), actor, slotID); err != nil {
		return mapServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ListSlots is the public availability listing a client books from.
func (h *SlotHandler) ListSlots(c *fiber.Ctx) error {
	coachID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || coachID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid coach id"})
	}

	var from, to time.Time
	if raw := strings.TrimSpace(c.Query("from")); raw != "" {
		if from, err = time.Parse(time.RFC3339, raw); err != nil {
			return c.Status(fiber.StatusBadRequest).
				JSON(fiber.Map{"error": "from must be a valid RFC3339 timestamp"})
		}
	}
	if raw := strings.TrimSpace(c.Query("to")); raw != "" {
		if to, err = time.Parse(time.RFC3339, raw); err != nil {
			return c.Status(fiber.StatusBadRequest).
				JSON(fiber.Map{"error": "to must be a valid RFC3339 timestamp"})
		}
	}

	slots, err := h.service.ListAvailable(c.Context(), coachID, from, to)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"slots": slots})
}

func (h *SlotHandler) Reconcile(c *fiber.Ctx) error {
	actor, err := actorFromLocals(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req reconcileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	result, err := h.service.Reconcile(c.Context(), actor, req.CoachID, req.Slots)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"result": result})
}
