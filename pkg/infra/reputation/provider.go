package reputation

import (
	"context"
	"errors"

	"github.com/NeuralTrust/IPGuard/pkg/domain/risk"
	"github.com/NeuralTrust/IPGuard/pkg/domain/signals"
	"github.com/sirupsen/logrus"
)

const feedSource = "threat_feeds"

type provider struct {
	api    signals.ReputationProvider
	feeds  *FeedSet
	logger *logrus.Logger
}

// NewProvider merges an optional upstream reputation service with local
// threat feeds. With no upstream configured only feed hits are reported.
func NewProvider(api signals.ReputationProvider, feeds *FeedSet, logger *logrus.Logger) signals.ReputationProvider {
	return &provider{api: api, feeds: feeds, logger: logger}
}

func (p *provider) Lookup(ctx context.Context, ip string) (*signals.Reputation, error) {
	var hits []string
	if p.feeds != nil {
		hits = p.feeds.Match(ip)
	}

	var rep *signals.Reputation
	if p.api != nil {
		var err error
		rep, err = p.api.Lookup(ctx, ip)
		if err != nil {
			if len(hits) == 0 {
				return nil, err
			}
			p.logger.WithError(err).WithField("ip", ip).Warn("reputation service failed, using feed data only")
			rep = nil
		}
	}
	if rep == nil {
		if p.api == nil && p.feeds == nil {
			return nil, errors.New("no reputation sources configured")
		}
		rep = &signals.Reputation{Source: feedSource, Category: risk.CategoryClean}
	}
	if len(hits) > 0 {
		rep.FeedHit = true
		rep.Feeds = hits
		if rep.Category == "" || rep.Category == risk.CategoryClean {
			rep.Category = risk.CategoryKnownMalicious
		}
	}
	return rep, nil
}
