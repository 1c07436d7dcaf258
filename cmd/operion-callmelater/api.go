// Package main provides the CallMeLater host: an HTTP server that executes the
// action node on request and turns CallMeLater callbacks into bus events.
package main

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/callmelater/operion-callmelater/pkg/config"
	"github.com/callmelater/operion-callmelater/pkg/eventbus"
	"github.com/callmelater/operion-callmelater/pkg/protocol"
	"github.com/callmelater/operion-callmelater/pkg/registry"
	"github.com/callmelater/operion-callmelater/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

const shutdownTimeout = 10 * time.Second

type API struct {
	logger   *slog.Logger
	cfg      *config.Config
	handlers *web.APIHandlers
}

func NewAPI(
	logger *slog.Logger,
	cfg *config.Config,
	registry *registry.Registry,
	client protocol.HTTPClient,
	publisher eventbus.EventPublisher,
) (*API, error) {
	handlers, err := web.NewAPIHandlers(
		logger,
		registry,
		client,
		publisher,
		validator.New(validator.WithRequiredStructEnabled()),
		cfg,
	)
	if err != nil {
		return nil, err
	}

	return &API{
		logger:   logger,
		cfg:      cfg,
		handlers: handlers,
	}, nil
}

func (a *API) App() *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: a.cfg.Server.BodyLimit,
	})
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("CallMeLater host")
	})

	app.Get("/health", a.handlers.HealthCheck)
	app.Get("/nodes", a.handlers.ListNodes)
	app.Post("/nodes/callmelater/execute", a.handlers.ExecuteAction)
	app.Post("/webhook/:triggerId", a.handlers.ReceiveWebhook)

	return app
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (a *API) Run(ctx context.Context) error {
	if err := a.handlers.EnsureTriggers(ctx); err != nil {
		return err
	}

	app := a.App()
	errCh := make(chan error, 1)

	go func() {
		errCh <- app.Listen(":"+strconv.Itoa(a.cfg.Server.Port), fiber.ListenConfig{DisableStartupMessage: true})
	}()

	a.logger.InfoContext(ctx, "CallMeLater host listening", "port", a.cfg.Server.Port, "triggers", len(a.cfg.Triggers))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down CallMeLater host")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.handlers.ReleaseTriggers(shutdownCtx)

	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	return nil
}
