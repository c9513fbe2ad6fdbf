package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	minReconnectDelay = 500 * time.Millisecond
	maxReconnectDelay = 30 * time.Second
)

type redisEventListener struct {
	logger *logrus.Logger
	cache  Client

	mu       sync.RWMutex
	handlers map[string][]EventHandler
}

func NewRedisEventListener(logger *logrus.Logger, cache Client) EventListener {
	return &redisEventListener{
		logger:   logger,
		cache:    cache,
		handlers: make(map[string][]EventHandler),
	}
}

func (r *redisEventListener) Register(eventType string, h EventHandler) {
	r.mu.Lock()
	r.handlers[eventType] = append(r.handlers[eventType], h)
	r.mu.Unlock()
}

// Listen consumes channels until ctx is done, resubscribing with backoff
// whenever the connection drops.
func (r *redisEventListener) Listen(ctx context.Context, channels ...string) {
	delay := minReconnectDelay
	for {
		if received := r.listenOnce(ctx, channels); received {
			delay = minReconnectDelay
		}
		if ctx.Err() != nil {
			r.logger.Info("redis pubsub listener shutting down")
			return
		}

		r.logger.WithField("retry_in", delay.String()).Warn("redis pubsub disconnected")
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			r.logger.Info("redis pubsub listener shutting down")
			return
		case <-t.C:
		}
		if delay *= 2; delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

// listenOnce reports whether any message arrived before the subscription
// ended.
func (r *redisEventListener) listenOnce(ctx context.Context, channels []string) bool {
	pubSub := r.cache.RedisClient().Subscribe(ctx, channels...)
	defer func() { _ = pubSub.Close() }()

	if _, err := pubSub.Receive(ctx); err != nil {
		r.logger.WithError(err).Debug("redis subscribe failed")
		return false
	}
	r.logger.WithField("channels", channels).Debug("redis pubsub connected")

	stop := context.AfterFunc(ctx, func() { _ = pubSub.Close() })
	defer stop()

	received := false
	for msg := range pubSub.Channel() {
		received = true
		r.HandleMessage(ctx, msg.Payload)
	}
	return received
}

// HandleMessage decodes one envelope and hands it to every handler
// registered for its type. Unknown types are ignored.
func (r *redisEventListener) HandleMessage(ctx context.Context, payload string) {
	var envelope RedisMessage
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
		r.logger.WithError(err).Error("error decoding redis message")
		return
	}

	r.mu.RLock()
	handlers := r.handlers[envelope.Type]
	r.mu.RUnlock()
	if len(handlers) == 0 {
		r.logger.WithField("type", envelope.Type).Debug("no subscriber for event type")
		return
	}
	for _, h := range handlers {
		if err := h(ctx, envelope.Event); err != nil {
			r.logger.WithError(err).WithField("type", envelope.Type).Error("error executing event subscriber")
		}
	}
}
