package subscriber

import (
	"context"

	"github.com/NeuralTrust/IPGuard/pkg/app/blocking"
	"github.com/NeuralTrust/IPGuard/pkg/app/decision"
	infraCache "github.com/NeuralTrust/IPGuard/pkg/infra/cache"
	"github.com/NeuralTrust/IPGuard/pkg/infra/cache/event"
	"github.com/sirupsen/logrus"
)

type WhitelistChangedEventSubscriber struct {
	logger     *logrus.Logger
	instanceID string
	store      blocking.Store
	decisions  decision.Cache
}

func NewWhitelistChangedEventSubscriber(
	logger *logrus.Logger,
	instanceID string,
	store blocking.Store,
	decisions decision.Cache,
) infraCache.EventSubscriber[event.WhitelistChangedEvent] {
	return &WhitelistChangedEventSubscriber{
		logger:     logger,
		instanceID: instanceID,
		store:      store,
		decisions:  decisions,
	}
}

// OnEvent drops every cached decision since a CIDR may cover any number of
// them.
func (s WhitelistChangedEventSubscriber) OnEvent(ctx context.Context, evt event.WhitelistChangedEvent) error {
	if evt.Origin == s.instanceID {
		return nil
	}
	s.logger.WithFields(logrus.Fields{
		"cidr":   evt.CIDR,
		"added":  evt.Added,
		"origin": evt.Origin,
	}).Debug("reloading whitelist after remote change")

	s.decisions.Clear(ctx)
	return s.store.Load(ctx)
}
