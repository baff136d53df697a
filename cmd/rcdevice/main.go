// Command rcdevice simulates the vehicle: it accepts drive updates on
// GET /?t=&s= and reports the resulting motor mix.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/open-teleop/rcdrive/domain/vehicle"
	customlog "github.com/open-teleop/rcdrive/pkg/log"
)

func main() {
	fs := flag.NewFlagSet("rcdevice", flag.ExitOnError)
	port := fs.String("port", "8081", "listen port (PORT env overrides)")
	level := fs.String("log-level", "debug", "log level")
	_ = fs.Parse(os.Args[1:])

	logger, err := customlog.NewLogrusLogger(*level, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}

	if p := os.Getenv("PORT"); p != "" {
		*port = p
	}

	car := vehicle.NewCar()

	app := fiber.New(fiber.Config{
		AppName:               "rcdrive device",
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{AllowOrigins: "*"}))
	app.Get("/", vehicle.DriveHandler(car, logger))

	go func() {
		logger.Infof("Vehicle simulator listening on port %s", *port)
		if err := app.Listen(":" + *port); err != nil {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infof("Stopping motors and shutting down...")
	car.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}
	logger.Infof("Vehicle simulator exited properly")
}
