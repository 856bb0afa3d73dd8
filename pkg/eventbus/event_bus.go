// Package eventbus publishes run lifecycle events to interested consumers
// (the console's activity feed, audit tooling).
package eventbus

import (
	"context"

	"github.com/chronosentry/chronosentry/pkg/events"
)

type Event interface {
	GetType() events.EventType
}

type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	Publish(ctx context.Context, key string, event Event) error
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
	Close() error
	GenerateID() string
}
