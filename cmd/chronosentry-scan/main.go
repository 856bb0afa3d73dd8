// Package main provides the ChronoSentry scan runner: one-shot, cron
// scheduled, or driven by Redis scan requests.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	cli "github.com/urfave/cli/v3"

	"github.com/chronosentry/chronosentry/pkg/cmd"
	"github.com/chronosentry/chronosentry/pkg/log"
	"github.com/chronosentry/chronosentry/pkg/triggers/queue"
	"github.com/chronosentry/chronosentry/pkg/workflow"
)

const dateLayout = "2006-01-02"

func main() {
	command := &cli.Command{
		Name:                  "chronosentry-scan",
		Usage:                 "Run the timesheet anomaly pipeline",
		EnableShellCompletion: true,
		Flags: append(pipelineFlags(),
			&cli.StringFlag{
				Name:    "workspace-id",
				Usage:   "Workspace to scan",
				Sources: cli.EnvVars("WORKSPACE_ID"),
			},
			&cli.StringFlag{
				Name:  "start-date",
				Usage: "Period start (YYYY-MM-DD), defaults to lookback-days ago",
			},
			&cli.StringFlag{
				Name:  "end-date",
				Usage: "Period end (YYYY-MM-DD), defaults to today",
			},
			&cli.StringFlag{
				Name:  "cron",
				Usage: "Cron expression for recurring scans (runs once when empty)",
			},
			&cli.StringFlag{
				Name:    "queue-url",
				Usage:   "Redis URL to consume scan requests from",
				Sources: cli.EnvVars("QUEUE_URL"),
			},
			&cli.StringFlag{
				Name:  "queue-stream",
				Usage: "Redis stream holding scan requests",
				Value: queue.DefaultStream,
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		),
		Action: run,
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))

	logger := log.WithModule("scan")

	orchestrator, _, err := cmd.NewPipeline(pipelineOptions(command), logger)
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

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	workspaceID := command.String("workspace-id")
	startDate := command.String("start-date")
	endDate := command.String("end-date")
	lookbackDays := command.Int("lookback-days")

	cronExpr := command.String("cron")
	queueURL := command.String("queue-url")

	// One-shot mode.
	if cronExpr == "" && queueURL == "" {
		start, end := scanPeriod(startDate, endDate, lookbackDays)

		return runScan(ctx, orchestrator, workspaceID, start, end)
	}

	if cronExpr != "" {
		scheduler := cron.New()

		_, err := scheduler.AddFunc(cronExpr, func() {
			start, end := scanPeriod(startDate, endDate, lookbackDays)
			if err := runScan(ctx, orchestrator, workspaceID, start, end); err != nil {
				logger.Error("Scheduled scan failed", "error", err)
			}
		})
		if err != nil {
			return err
		}

		scheduler.Start()
		defer scheduler.Stop()

		logger.InfoContext(ctx, "Scheduled scans started", "cron", cronExpr)
	}

	if queueURL != "" {
		hostname, _ := os.Hostname()

		trigger, err := queue.NewTrigger(queueURL, command.String("queue-stream"), "chronosentry-scan", hostname, logger)
		if err != nil {
			return err
		}

		err = trigger.Start(ctx, func(ctx context.Context, request queue.ScanRequest) {
			if err := runScan(ctx, orchestrator, request.WorkspaceID, request.StartDate, request.EndDate); err != nil {
				logger.Error("Queued scan failed", "error", err)
			}
		})
		if err != nil {
			return err
		}

		defer func() {
			if err := trigger.Stop(); err != nil {
				logger.Error("Failed to stop queue trigger", "error", err)
			}
		}()
	}

	<-ctx.Done()

	return nil
}

func runScan(ctx context.Context, orchestrator *workflow.Orchestrator, workspaceID, startDate, endDate string) error {
	result := orchestrator.StartWorkflow(ctx, startDate, endDate, workspaceID)
	if !result.Success {
		return errors.New(result.Message)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	return encoder.Encode(result.Data)
}

func scanPeriod(startDate, endDate string, lookbackDays int) (string, string) {
	today := time.Now().UTC()

	if endDate == "" {
		endDate = today.Format(dateLayout)
	}

	if startDate == "" {
		startDate = today.AddDate(0, 0, -lookbackDays).Format(dateLayout)
	}

	return startDate, endDate
}
