package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/models"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/services"
)

type discountApplicationService interface {
	Validate(ctx context.Context, code string, actorID int64, email string) (*models.DiscountCode, error)
}

type DiscountHandler struct {
	service discountApplicationService
}

func NewDiscountHandler(service *services.DiscountService) *DiscountHandler {
	return &DiscountHandler{service: service}
}

type validateDiscountRequest struct {
	Code  string `json:"code"`
	Email string `json:"email"`
}

// ValidateCode answers the pre-booking "can I use this code" check for both
// guests (identified by email) and authenticated actors.
func (h *DiscountHandler) ValidateCode(c *fiber.Ctx) error {
	var req validateDiscountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	var actorID int64
	if actor := optionalActorFromLocals(c); actor != nil {
		actorID = actor.ID
	}

	discount, err := h.service.Validate(c.Context(), req.Code, actorID, req.Email)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"code":                discount.Code,
		"discount_percentage": discount.DiscountPercentage,
	})
}
