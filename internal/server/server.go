package server

import (
	"context"
	"log"
	"time"

	"idealab-be/internal/bootstrap"
	"idealab-be/internal/config"
	"idealab-be/internal/pkg/serverutils"
	"idealab-be/pkg/database"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024,
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			return serverutils.WriteError(ctx, err)
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization",
	}))

	// Traces every HTTP request; spans are dropped unless tracing is enabled.
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware())

	registerRoutes(app, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("Server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown(timeout time.Duration) error {
	return s.app.ShutdownWithTimeout(timeout)
}

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	api := app.Group("/api")

	api.Get("/health", healthHandler(c))

	c.IdeaController.RegisterRoutes(api, c.Auth)
	c.RoleController.RegisterRoutes(api, c.Auth)
	c.NotificationHandler.RegisterRoutes(api, c.Auth)
}

func healthHandler(c *bootstrap.Container) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		pingCtx, cancel := context.WithTimeout(ctx.UserContext(), 2*time.Second)
		defer cancel()

		if err := database.Ping(pingCtx, c.DB); err != nil {
			return ctx.Status(fiber.StatusServiceUnavailable).JSON(serverutils.ErrorResponse(fiber.StatusServiceUnavailable, "database unavailable"))
		}
		return ctx.JSON(serverutils.SuccessResponse("OK", fiber.Map{"database": "up"}))
	}
}
