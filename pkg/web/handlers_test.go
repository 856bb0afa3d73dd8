package web

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronosentry/chronosentry/pkg/clockify"
	"github.com/chronosentry/chronosentry/pkg/collector"
	"github.com/chronosentry/chronosentry/pkg/detector"
	"github.com/chronosentry/chronosentry/pkg/policy"
	"github.com/chronosentry/chronosentry/pkg/workflow"
)

func newTestApp(t *testing.T, client clockify.Client) *fiber.App {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	config := detector.DefaultConfig()
	config.Now = func() time.Time {
		return time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)
	}

	enforcer := policy.New(nil, logger)
	orchestrator := workflow.NewOrchestrator(
		collector.New(client, logger),
		detector.New(config, logger),
		enforcer,
		logger,
	)

	handlers := NewAPIHandlers(orchestrator, enforcer, validator.New(validator.WithRequiredStructEnabled()))

	app := fiber.New()
	app.Post("/runs", handlers.StartRun)
	app.Get("/runs/current", handlers.CurrentRun)
	app.Post("/runs/pause", handlers.PauseRun)
	app.Post("/runs/resume", handlers.ResumeRun)
	app.Post("/corrections/:anomalyId", handlers.ApplyCorrection)
	app.Get("/policies/:type", handlers.ApplicablePolicies)
	app.Get("/health", handlers.HealthCheck)

	return app
}

func testRequest(t *testing.T, app *fiber.App, method, target, body string) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, fiber.TestConfig{Timeout: 10 * time.Second})
	require.NoError(t, err)

	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	return resp.StatusCode, decoded
}

func TestStartRun(t *testing.T) {
	app := newTestApp(t, clockify.SampleFixture())

	status, body := testRequest(t, app, "POST", "/runs",
		`{"workspaceId": "ws-1", "startDate": "2025-07-07", "endDate": "2025-07-13"}`)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Workflow completed successfully", body["message"])

	run, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "completed", run["status"])
	assert.Equal(t, "ws-1", run["workspaceId"])
}

func TestStartRun_ValidationError(t *testing.T) {
	app := newTestApp(t, clockify.SampleFixture())

	status, body := testRequest(t, app, "POST", "/runs",
		`{"workspaceId": "ws-1", "startDate": "July 7th", "endDate": "2025-07-13"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "validation_error", body["type"])
}

func TestCurrentRun_BeforeAnyRun(t *testing.T) {
	app := newTestApp(t, clockify.SampleFixture())

	status, body := testRequest(t, app, "GET", "/runs/current", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Current workflow state: idle", body["message"])
}

func TestPauseRun_Conflict(t *testing.T) {
	app := newTestApp(t, clockify.SampleFixture())

	status, body := testRequest(t, app, "POST", "/runs/pause", "")
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "invalid_state", body["type"])
	assert.Equal(t, "Cannot pause workflow in idle state", body["detail"])
}

func TestApplyCorrection_NotFound(t *testing.T) {
	app := newTestApp(t, clockify.SampleFixture())

	status, body := testRequest(t, app, "POST", "/corrections/ghost", `{"approved": true}`)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "not_found", body["type"])
}

func TestApplyCorrection_AfterRun(t *testing.T) {
	app := newTestApp(t, clockify.SampleFixture())

	status, body := testRequest(t, app, "POST", "/runs",
		`{"workspaceId": "ws-1", "startDate": "2025-07-07", "endDate": "2025-07-13"}`)
	require.Equal(t, fiber.StatusOK, status)

	run := body["data"].(map[string]any)
	results := run["results"].(map[string]any)
	proposals := results["correctionProposals"].(map[string]any)["data"].([]any)
	require.NotEmpty(t, proposals)

	anomalyID := proposals[0].(map[string]any)["anomalyId"].(string)

	status, body = testRequest(t, app, "POST", "/corrections/"+anomalyID, `{"approved": true}`)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["success"])

	proposal := body["data"].(map[string]any)
	assert.Equal(t, "approved", proposal["status"])
}

func TestApplicablePolicies(t *testing.T) {
	app := newTestApp(t, clockify.SampleFixture())

	status, body := testRequest(t, app, "GET", "/policies/overtime", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Found 1 applicable policies for anomaly type: overtime", body["message"])

	status, body = testRequest(t, app, "GET", "/policies/paranormal", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "validation_error", body["type"])
}

func TestHealthCheck(t *testing.T) {
	app := newTestApp(t, clockify.SampleFixture())

	status, body := testRequest(t, app, "GET", "/health", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}
