// Package queue consumes scan requests from a Redis stream so upstream
// systems (HR tooling, payroll close-out jobs) can ask for a pipeline run
// without talking to the HTTP surface.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const (
	// DefaultStream is the stream scan requests are published to.
	DefaultStream = "chronosentry:scan-requests"

	payloadField = "payload"
	readBlock    = 5 * time.Second
	readCount    = 10
)

// ScanRequest is the payload enqueued by external systems.
type ScanRequest struct {
	WorkspaceID string `json:"workspaceId" validate:"required"`
	StartDate   string `json:"startDate"   validate:"required"`
	EndDate     string `json:"endDate"     validate:"required"`
}

// Callback handles one decoded scan request.
type Callback func(ctx context.Context, request ScanRequest)

// Trigger reads scan requests from a Redis stream consumer group. Malformed
// entries are acknowledged and dropped so one bad producer cannot wedge the
// stream.
type Trigger struct {
	client   redis.UniversalClient
	stream   string
	group    string
	consumer string
	logger   *slog.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewTrigger(redisURL, stream, group, consumer string, logger *slog.Logger) (*Trigger, error) {
	if stream == "" {
		stream = DefaultStream
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	return &Trigger{
		client:   redis.NewClient(opts),
		stream:   stream,
		group:    group,
		consumer: consumer,
		stopCh:   make(chan struct{}),
		logger: logger.With(
			"module", "queue_trigger",
			"stream", stream,
			"group", group,
		),
	}, nil
}

// Start creates the consumer group if needed and begins consuming.
func (t *Trigger) Start(ctx context.Context, callback Callback) error {
	err := t.client.XGroupCreateMkStream(ctx, t.stream, t.group, "$").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group: %w", err)
	}

	t.wg.Add(1)

	go t.consume(ctx, callback)

	t.logger.InfoContext(ctx, "Queue trigger started")

	return nil
}

// Stop halts consumption and closes the connection.
func (t *Trigger) Stop() error {
	close(t.stopCh)
	t.wg.Wait()

	return t.client.Close()
}

func (t *Trigger) consume(ctx context.Context, callback Callback) {
	defer t.wg.Done()

	for {
		select {
		case <-t.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		streams, err := t.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    t.group,
			Consumer: t.consumer,
			Streams:  []string{t.stream, ">"},
			Count:    readCount,
			Block:    readBlock,
		}).Result()
		if err != nil {
			if err == redis.Nil || ctx.Err() != nil {
				continue
			}

			t.logger.Warn("Stream read failed", "error", err)
			time.Sleep(readBlock)

			continue
		}

		for _, stream := range streams {
			for _, message := range stream.Messages {
				t.handle(ctx, message, callback)
			}
		}
	}
}

func (t *Trigger) handle(ctx context.Context, message redis.XMessage, callback Callback) {
	defer func() {
		if err := t.client.XAck(ctx, t.stream, t.group, message.ID).Err(); err != nil {
			t.logger.Warn("Failed to ack message", "message_id", message.ID, "error", err)
		}
	}()

	raw, ok := message.Values[payloadField].(string)
	if !ok {
		t.logger.Warn("Dropping message without payload field", "message_id", message.ID)

		return
	}

	var request ScanRequest
	if err := json.Unmarshal([]byte(raw), &request); err != nil {
		t.logger.Warn("Dropping undecodable scan request", "message_id", message.ID, "error", err)

		return
	}

	if request.WorkspaceID == "" || request.StartDate == "" || request.EndDate == "" {
		t.logger.Warn("Dropping incomplete scan request", "message_id", message.ID)

		return
	}

	t.logger.InfoContext(ctx, "Received scan request",
		"workspace_id", request.WorkspaceID,
		"start_date", request.StartDate,
		"end_date", request.EndDate,
	)

	callback(ctx, request)
}
