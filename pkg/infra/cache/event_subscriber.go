package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/NeuralTrust/IPGuard/pkg/infra/cache/event"
)

type EventSubscriber[T event.Event] interface {
	OnEvent(ctx context.Context, ev T) error
}

// RegisterEventSubscriber routes envelopes whose type matches T to
// subscriber.
func RegisterEventSubscriber[T event.Event](listener EventListener, subscriber EventSubscriber[T]) {
	var zero T
	name := zero.Type()
	listener.Register(name, func(ctx context.Context, payload json.RawMessage) error {
		var ev T
		if err := json.Unmarshal(payload, &ev); err != nil {
			return fmt.Errorf("decode %s: %w", name, err)
		}
		return subscriber.OnEvent(ctx, ev)
	})
}
