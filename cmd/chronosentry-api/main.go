package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/chronosentry/chronosentry/pkg/cmd"
	"github.com/chronosentry/chronosentry/pkg/log"
	"github.com/chronosentry/chronosentry/pkg/otelhelper"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "chronosentry-api",
		Usage:                 "Serve the timesheet anomaly review pipeline over HTTP",
		EnableShellCompletion: true,
		Flags: append(pipelineFlags(),
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export OTLP traces for pipeline stages",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		),
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing ChronoSentry API")

			orchestrator, enforcer, err := cmd.NewPipeline(pipelineOptions(command), logger)
			if err != nil {
				return err
			}

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			orchestrator.SetEventBus(eventBus)

			if command.Bool("tracing") {
				tracer, err := otelhelper.NewTracer(ctx, "chronosentry-api")
				if err != nil {
					return err
				}

				orchestrator.SetTracer(tracer)
			}

			api := NewAPI(logger, orchestrator, enforcer)

			if err := api.Start(command.Int("port")); err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)

				return err
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
