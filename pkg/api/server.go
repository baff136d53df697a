package api

import (
	"context"
	"io"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/open-teleop/rcdrive/domain/diagnostic"
	"github.com/open-teleop/rcdrive/domain/input"
	"github.com/open-teleop/rcdrive/domain/teleop"
	customlog "github.com/open-teleop/rcdrive/pkg/log"
	"github.com/open-teleop/rcdrive/pkg/target"
	"github.com/open-teleop/rcdrive/services"
)

const statusTimeout = 2 * time.Second

// StatusProvider returns the dispatcher snapshot.
type StatusProvider interface {
	Status(ctx context.Context) (teleop.Status, error)
}

// Deps are the collaborators the operator API serves.
type Deps struct {
	Logger      customlog.Logger
	Status      StatusProvider
	Input       *input.Handler
	Targets     services.TargetService
	Diagnostics *diagnostic.DiagnosticService
	Environment target.Environment
	// AccessLog receives one line per request; nil disables access logging.
	AccessLog io.Writer
}

// NewApp builds the operator API.
func NewApp(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "rcdrive controller",
		ErrorHandler:          customErrorHandler,
		DisableStartupMessage: true,
	})

	// Add middleware
	if d.AccessLog != nil {
		app.Use(logger.New(logger.Config{Output: d.AccessLog}))
	}
	app.Use(recover.New())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "online",
			"service": "rcdrive controller",
			"local":   d.Environment.Local,
			"mobile":  d.Environment.Mobile,
		})
	})

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	v1 := app.Group("/api/v1")
	v1.Get("/state", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), statusTimeout)
		defer cancel()
		st, err := d.Status.Status(ctx)
		if err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
		}
		return c.JSON(st)
	})
	RegisterTargetRoutes(v1, d.Targets, d.Logger)

	// Diagnostic routes
	app.Get("/api/diagnostics", d.Diagnostics.GetMetricsHandler)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/control", websocket.New(func(conn *websocket.Conn) {
		ControlWebSocketHandler(conn, d.Logger, d.Input)
	}))

	return app
}

// Custom error handler
func customErrorHandler(c *fiber.Ctx, err error) error {
	// Default 500 status code
	code := fiber.StatusInternalServerError

	// Check if it's a Fiber error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	// Return JSON response
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
