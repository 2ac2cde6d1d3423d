package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/models"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/services"
)

type profileApplicationService interface {
	EnsureProfile(ctx context.Context, userID int64, role string) (*models.CoachProfile, error)
	UpdateSettings(ctx context.Context, userID int64, role string, input services.UpdateProfileSettingsInput) (*models.CoachProfile, error)
}

type ProfileHandler struct {
	service profileApplicationService
}

func NewProfileHandler(service *services.CoachProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

type updateProfileRequest struct {
	FullName        *string  `json:"full_name"`
	PricePerSession *float64 `json:"price_per_session"`
}

func (h *ProfileHandler) GetCoachProfile(c *fiber.Ctx) error {
	actor, err := actorFromLocals(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	profile, err := h.service.EnsureProfile(c.Context(), actor.ID, actor.Role)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"profile": profile})
}

func (h *ProfileHandler) UpdateCoachProfile(c *fiber.Ctx) error {
	actor, err := actorFromLocals(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	profile, err := h.service.UpdateSettings(c.Context(), actor.ID, actor.Role, services.UpdateProfileSettingsInput{
		FullName:        req.FullName,
		PricePerSession: req.PricePerSession,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"profile": profile})
}
