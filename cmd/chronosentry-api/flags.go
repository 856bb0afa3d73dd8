package main

import (
	cli "github.com/urfave/cli/v3"

	"github.com/chronosentry/chronosentry/pkg/cmd"
)

func pipelineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "clockify-api-key",
			Usage:   "API key for the time-tracking source",
			Sources: cli.EnvVars("CLOCKIFY_API_KEY"),
		},
		&cli.StringFlag{
			Name:    "clockify-base-url",
			Usage:   "Base URL of the time-tracking source API",
			Sources: cli.EnvVars("CLOCKIFY_BASE_URL"),
		},
		&cli.BoolFlag{
			Name:  "use-fixtures",
			Usage: "Use bundled sample data instead of the real source",
		},
		&cli.StringFlag{
			Name:    "policy-rules",
			Usage:   "Path to a JSON policy rule table replacing the built-in rules",
			Sources: cli.EnvVars("POLICY_RULES_PATH"),
		},
		&cli.FloatFlag{
			Name:  "max-hours-per-day",
			Usage: "Overtime threshold in hours",
			Value: 12,
		},
		&cli.IntFlag{
			Name:  "lookback-days",
			Usage: "Missing-entry window in calendar days",
			Value: 14,
		},
		&cli.BoolFlag{
			Name:  "require-project-code",
			Usage: "Flag entries without a project code",
			Value: true,
		},
		&cli.BoolFlag{
			Name:  "require-description",
			Usage: "Flag entries without a description",
			Value: true,
		},
	}
}

func pipelineOptions(command *cli.Command) cmd.PipelineOptions {
	return cmd.PipelineOptions{
		ClockifyAPIKey:     command.String("clockify-api-key"),
		ClockifyBaseURL:    command.String("clockify-base-url"),
		UseFixtures:        command.Bool("use-fixtures"),
		PolicyRulesPath:    command.String("policy-rules"),
		MaxHoursPerDay:     command.Float("max-hours-per-day"),
		LookbackDays:       command.Int("lookback-days"),
		RequireProjectCode: command.Bool("require-project-code"),
		RequireDescription: command.Bool("require-description"),
	}
}
