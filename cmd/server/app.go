package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"research-backend/internal/auth"
	"research-backend/internal/engine"
	"research-backend/internal/instrument"
	"research-backend/internal/storage"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type appDeps struct {
	service     *engine.Service
	pinger      pinger
	storage     storage.FileStorage
	metrics     *instrument.Metrics
	jwtSecret   string
	maxFileSize int64
}

func newApp(deps appDeps) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
		BodyLimit:    bodyLimit(deps.maxFileSize),
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(instrument.Middleware())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency} ${respHeader:X-Trace-ID}\n",
	}))

	// Health check (no auth)
	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := deps.pinger.Ping(ctx); err != nil {
			log.Printf("WARN: health check failed: %v", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	if deps.metrics != nil {
		app.Get("/metrics", deps.metrics.Handler())
	}

	api := app.Group("/api", auth.AuthMiddleware(deps.jwtSecret))

	var fileHandler *engine.FileHandler
	if deps.storage != nil {
		fileHandler = engine.NewFileHandler(deps.service, deps.storage, deps.maxFileSize)
	}
	engine.RegisterRoutes(api, engine.NewHandler(deps.service), fileHandler)

	return app
}

// bodyLimit leaves room for multipart framing around the largest upload.
func bodyLimit(maxFileSize int64) int {
	const overhead = 1 << 20
	if maxFileSize <= 0 {
		return fiber.DefaultBodyLimit
	}
	return int(maxFileSize) + overhead
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	var appErr *engine.AppError
	if errors.As(err, &appErr) {
		return c.Status(appErr.Status).JSON(engine.ErrorResponse{Error: appErr})
	}

	if code < fiber.StatusInternalServerError {
		errCode := engine.CodeInvalidPayload
		if code == fiber.StatusNotFound {
			errCode = engine.CodeNotFound
		}
		return c.Status(code).JSON(engine.ErrorResponse{
			Error: engine.NewAppError(errCode, code, fiberErr.Message),
		})
	}

	log.Printf("ERROR: [trace=%s] %v", instrument.GetTraceID(c.UserContext()), err)
	return c.Status(code).JSON(engine.ErrorResponse{
		Error: &engine.AppError{
			Code:    "INTERNAL_ERROR",
			Message: "Internal server error",
		},
	})
}
