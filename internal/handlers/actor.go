package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/services"
)

var errNoActor = errors.New("no authenticated actor")

// actorFromLocals rebuilds the current actor from the claims the auth
// middleware stashed on the request.
func actorFromLocals(c *fiber.Ctx) (services.Actor, error) {
	rawID, ok := c.Locals("user_id").(string)
	if !ok || rawID == "" {
		return services.Actor{}, errNoActor
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return services.Actor{}, errNoActor
	}
	role, _ := c.Locals("role").(string)
	email, _ := c.Locals("email").(string)
	return services.Actor{ID: id, Role: role, Email: email}, nil
}

// optionalActorFromLocals returns nil for guests.
func optionalActorFromLocals(c *fiber.Ctx) *services.Actor {
	actor, err := actorFromLocals(c)
	if err != nil {
		return nil
	}
	return &actor
}

func mapServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrNotesRequired),
		errors.Is(err, services.ErrDiscountCodeEmpty):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden),
		errors.Is(err, services.ErrSlotNotOwned):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrSlotTaken):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrCodeNotActive),
		errors.Is(err, services.ErrCodeExpired),
		errors.Is(err, services.ErrFirstSessionOnly),
		errors.Is(err, services.ErrCodeAlreadyUsed):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrCoachNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Coach not found"})
	case errors.Is(err, services.ErrCheckoutUnavailable):
		return c.Status(fiber.StatusBadGateway).
			JSON(fiber.Map{"error": "Payment service is temporarily unavailable, please try again"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process request"})
	}
}
