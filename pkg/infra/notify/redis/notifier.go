package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/NeuralTrust/IPGuard/pkg/common"
	"github.com/NeuralTrust/IPGuard/pkg/domain/notify"
	"github.com/NeuralTrust/IPGuard/pkg/infra/cache"
	"github.com/mitchellh/mapstructure"
)

const NotifierName = "redis"

type Config struct {
	Channel string `mapstructure:"channel"`
}

// Notifier publishes enforcement events on a redis pub/sub channel.
type Notifier struct {
	client  cache.Client
	channel string
}

func NewRedisNotifier(client cache.Client) *Notifier {
	return &Notifier{client: client, channel: common.BlockEventsChannel}
}

func (n *Notifier) Name() string {
	return NotifierName
}

func (n *Notifier) ValidateConfig(settings map[string]interface{}) error {
	var conf Config
	if err := mapstructure.Decode(settings, &conf); err != nil {
		return fmt.Errorf("invalid redis notifier config: %w", err)
	}
	if n.client == nil {
		return errors.New("redis notifier needs a redis connection")
	}
	return nil
}

func (n *Notifier) WithSettings(settings map[string]interface{}) (notify.Notifier, error) {
	var conf Config
	if err := mapstructure.Decode(settings, &conf); err != nil {
		return nil, fmt.Errorf("invalid redis notifier config: %w", err)
	}
	channel := conf.Channel
	if channel == "" {
		channel = common.BlockEventsChannel
	}
	return &Notifier{client: n.client, channel: channel}, nil
}

func (n *Notifier) Notify(ctx context.Context, evt notify.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (n *Notifier) Close() {}
