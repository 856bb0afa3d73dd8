// Package main provides the ChronoSentry API server.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/chronosentry/chronosentry/pkg/policy"
	"github.com/chronosentry/chronosentry/pkg/web"
	"github.com/chronosentry/chronosentry/pkg/workflow"
)

type API struct {
	logger       *slog.Logger
	orchestrator *workflow.Orchestrator
	enforcer     *policy.Enforcer
	validate     *validator.Validate
}

func NewAPI(logger *slog.Logger, orchestrator *workflow.Orchestrator, enforcer *policy.Enforcer) *API {
	return &API{
		logger:       logger,
		orchestrator: orchestrator,
		enforcer:     enforcer,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.orchestrator, a.enforcer, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("ChronoSentry API")
	})

	r := app.Group("/runs")
	r.Post("/", handlers.StartRun)
	r.Get("/current", handlers.CurrentRun)
	r.Post("/pause", handlers.PauseRun)
	r.Post("/resume", handlers.ResumeRun)

	app.Post("/corrections/:anomalyId", handlers.ApplyCorrection)
	app.Get("/policies/:type", handlers.ApplicablePolicies)
	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
