// Package cmd provides common initialization for the command-line binaries.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/chronosentry/chronosentry/pkg/clockify"
	"github.com/chronosentry/chronosentry/pkg/collector"
	"github.com/chronosentry/chronosentry/pkg/detector"
	"github.com/chronosentry/chronosentry/pkg/models"
	"github.com/chronosentry/chronosentry/pkg/policy"
	"github.com/chronosentry/chronosentry/pkg/workflow"
)

// PipelineOptions collects the flags both binaries share.
type PipelineOptions struct {
	ClockifyAPIKey  string
	ClockifyBaseURL string
	// UseFixtures swaps the HTTP source for the bundled sample data.
	UseFixtures bool
	// PolicyRulesPath optionally replaces the built-in rule table.
	PolicyRulesPath    string
	MaxHoursPerDay     float64
	LookbackDays       int
	RequireProjectCode bool
	RequireDescription bool
}

// NewPipeline wires collector, detector and enforcer into an orchestrator.
// The enforcer is returned separately for the policy introspection endpoint.
func NewPipeline(opts PipelineOptions, logger *slog.Logger) (*workflow.Orchestrator, *policy.Enforcer, error) {
	var client clockify.Client
	if opts.UseFixtures {
		client = clockify.SampleFixture()
	} else {
		client = clockify.NewHTTPClient(opts.ClockifyBaseURL, opts.ClockifyAPIKey)
	}

	var rules []models.PolicyRule

	if opts.PolicyRulesPath != "" {
		loaded, err := policy.LoadRules(opts.PolicyRulesPath)
		if err != nil {
			return nil, nil, fmt.Errorf("load policy rules: %w", err)
		}

		rules = loaded
	}

	detectorConfig := detector.DefaultConfig()
	if opts.MaxHoursPerDay > 0 {
		detectorConfig.MaxHoursPerDay = opts.MaxHoursPerDay
	}

	if opts.LookbackDays > 0 {
		detectorConfig.LookbackDays = opts.LookbackDays
	}

	detectorConfig.RequireProjectCode = opts.RequireProjectCode
	detectorConfig.RequireDescription = opts.RequireDescription

	enforcer := policy.New(rules, logger)
	orchestrator := workflow.NewOrchestrator(
		collector.New(client, logger),
		detector.New(detectorConfig, logger),
		enforcer,
		logger,
	)

	return orchestrator, enforcer, nil
}
