package cache

import (
	"context"
	"encoding/json"
)

// EventHandler decodes and applies one event payload.
type EventHandler func(ctx context.Context, payload json.RawMessage) error

type EventListener interface {
	Listen(ctx context.Context, channels ...string)
	Register(eventType string, h EventHandler)
}
