package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/config"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/handlers"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/middleware"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/repository"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/services"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool, logger zerolog.Logger) {
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewCoachProfileRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	apptRepo := repository.NewAppointmentRepository(db)
	discountRepo := repository.NewDiscountRepository(db)

	gate := services.NewAccessGate(cfg.PriorityActorEmails)
	gateway := services.NewRedirectCheckoutGateway(cfg.CheckoutBaseURL)

	profileService := services.NewCoachProfileService(profileRepo, cfg.DefaultSessionPrice, logger)
	slotService := services.NewSlotService(db, slotRepo, profileService, logger)
	discountService := services.NewDiscountService(discountRepo, userRepo, apptRepo)
	bookingService := services.NewBookingService(
		db,
		apptRepo,
		slotRepo,
		userRepo,
		profileRepo,
		discountService,
		gateway,
		gate,
		cfg.CheckoutReturnURL,
		logger,
	)

	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret)
	profileHandler := handlers.NewProfileHandler(profileService)
	slotHandler := handlers.NewSlotHandler(slotService)
	discountHandler := handlers.NewDiscountHandler(discountService)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	roomHandler := handlers.NewRoomHandler(bookingService, cfg.JWTSecret, logger)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	api.Get("/coaches/:id/slots", slotHandler.ListSlots)
	api.Post("/bookings", middleware.OptionalAuth(cfg.JWTSecret), bookingHandler.Book)
	api.Post("/discounts/validate", middleware.OptionalAuth(cfg.JWTSecret), discountHandler.ValidateCode)
	api.Post("/payments/callback", bookingHandler.PaymentCallback)

	// Registered ahead of the /v1 group: the browser WebSocket API cannot set
	// an Authorization header, so the room handler does its own token check.
	api.Use("/v1/appointments/:id/room", roomHandler.WebSocketAuth)
	api.Get("/v1/appointments/:id/room", websocket.New(roomHandler.HandleWebSocket))

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	coaches := authProtected.Group("/coaches")
	coaches.Get("/profile", profileHandler.GetCoachProfile)
	coaches.Put("/profile", profileHandler.UpdateCoachProfile)

	slots := authProtected.Group("/slots")
	slots.Post("", slotHandler.CreateSlot)
	slots.Delete("/:id", slotHandler.DeleteSlot)
	slots.Put("/reconcile", slotHandler.Reconcile)

	appointments := authProtected.Group("/appointments")
	appointments.Get("", bookingHandler.ListAppointments)
	appointments.Get("/:id", bookingHandler.GetAppointment)
	appointments.Post("/:id/cancel", bookingHandler.CancelAppointment)
	appointments.Post("/:id/complete", bookingHandler.CompleteAppointment)
	appointments.Post("/:id/rating", bookingHandler.RateAppointment)
}
