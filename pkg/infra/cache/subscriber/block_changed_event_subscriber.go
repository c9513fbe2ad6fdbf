package subscriber

import (
	"context"

	"github.com/NeuralTrust/IPGuard/pkg/app/blocking"
	"github.com/NeuralTrust/IPGuard/pkg/app/decision"
	infraCache "github.com/NeuralTrust/IPGuard/pkg/infra/cache"
	"github.com/NeuralTrust/IPGuard/pkg/infra/cache/event"
	"github.com/sirupsen/logrus"
)

// BlockChangedEventSubscriber brings this instance in line with a block or
// unblock committed by another instance.
type BlockChangedEventSubscriber struct {
	logger     *logrus.Logger
	instanceID string
	store      blocking.Store
	decisions  decision.Cache
}

func NewBlockChangedEventSubscriber(
	logger *logrus.Logger,
	instanceID string,
	store blocking.Store,
	decisions decision.Cache,
) infraCache.EventSubscriber[event.BlockChangedEvent] {
	return &BlockChangedEventSubscriber{
		logger:     logger,
		instanceID: instanceID,
		store:      store,
		decisions:  decisions,
	}
}

func (s BlockChangedEventSubscriber) OnEvent(ctx context.Context, evt event.BlockChangedEvent) error {
	if evt.Origin == s.instanceID {
		return nil
	}
	s.logger.WithFields(logrus.Fields{
		"ip":     evt.IP,
		"active": evt.Active,
		"origin": evt.Origin,
	}).Debug("reloading blocks after remote change")

	s.decisions.Delete(ctx, evt.IP)
	return s.store.Load(ctx)
}
