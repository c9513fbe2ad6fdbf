package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/NeuralTrust/IPGuard/pkg/infra/cache/event"
)

const publishTimeout = 2 * time.Second

// RedisMessage is the envelope every cluster event travels in.
type RedisMessage struct {
	Type  string          `json:"type"`
	Event json.RawMessage `json:"event"`
}

// EncodeMessage wraps ev in its envelope.
func EncodeMessage(ev event.Event) ([]byte, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ev.Type(), err)
	}
	return json.Marshal(RedisMessage{Type: ev.Type(), Event: body})
}

type redisEventPublisher struct {
	client  Client
	channel string
}

func NewRedisEventPublisher(client Client, channel string) EventPublisher {
	return &redisEventPublisher{client: client, channel: channel}
}

func (p *redisEventPublisher) Publish(ctx context.Context, ev event.Event) error {
	data, err := EncodeMessage(ev)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := p.client.Publish(ctx, p.channel, data); err != nil {
		return fmt.Errorf("publish %s on %s: %w", ev.Type(), p.channel, err)
	}
	return nil
}
