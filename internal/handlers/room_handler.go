package handlers

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/services"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/pkg/utils"
	"github.com/rs/zerolog"
)

type roomAccessService interface {
	RoomAccess(ctx context.Context, actor services.Actor, appointmentID int64) (*services.RoomAccess, error)
}

// RoomHandler streams the session access gate verdict over a websocket so a
// client parked on the waiting screen crosses into the room the moment the
// window opens, without a reload.
type RoomHandler struct {
	service   roomAccessService
	jwtSecret string
	logger    zerolog.Logger
}

func NewRoomHandler(service *services.BookingService, jwtSecret string, logger zerolog.Logger) *RoomHandler {
	return &RoomHandler{
		service:   service,
		jwtSecret: jwtSecret,
		logger:    logger.With().Str("component", "room").Logger(),
	}
}

func (h *RoomHandler) WebSocketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}

	claims, err := h.parseWSClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	c.Locals("user_id", claims.UserID)
	c.Locals("role", claims.Role)
	c.Locals("email", claims.Email)
	return c.Next()
}

func (h *RoomHandler) HandleWebSocket(conn *websocket.Conn) {
	defer conn.Close()

	rawID, _ := conn.Locals("user_id").(string)
	actorID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || actorID <= 0 {
		return
	}
	role, _ := conn.Locals("role").(string)
	email, _ := conn.Locals("email").(string)
	actor := services.Actor{ID: actorID, Role: role, Email: email}

	appointmentID, err := strconv.ParseInt(conn.Params("id"), 10, 64)
	if err != nil || appointmentID <= 0 {
		_ = conn.WriteJSON(fiber.Map{"error": "Invalid appointment id"})
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Drain reads so close frames from the peer tear the loop down.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		access, err := h.service.RoomAccess(ctx, actor, appointmentID)
		if err != nil {
			h.logger.Warn().Err(err).Int64("appointment_id", appointmentID).Int64("actor_id", actor.ID).
				Msg("room access evaluation failed")
			_ = conn.WriteJSON(fiber.Map{"error": "Room is not available"})
			return
		}

		if err := conn.WriteJSON(access); err != nil {
			return
		}
		if access.Status == services.RoomEnded {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (h *RoomHandler) parseWSClaims(c *fiber.Ctx) (*utils.Claims, error) {
	tokenString := strings.TrimSpace(c.Query("token"))
	if tokenString == "" {
		authHeader := strings.TrimSpace(c.Get("Authorization"))
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
	}
	if tokenString == "" {
		return nil, fiber.ErrUnauthorized
	}
	return utils.ValidateToken(tokenString, h.jwtSecret)
}
