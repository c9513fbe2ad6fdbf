package notify

import (
	"fmt"

	"github.com/NeuralTrust/IPGuard/pkg/domain/notify"
)

// Target is one configured notification destination.
type Target struct {
	Name     string                 `mapstructure:"name"`
	Settings map[string]interface{} `mapstructure:"settings"`
}

type NotifierLocatorOption func(*NotifierLocator)

func WithNotifier(name string, n notify.Notifier) NotifierLocatorOption {
	return func(l *NotifierLocator) {
		if l.notifiers == nil {
			l.notifiers = make(map[string]notify.Notifier)
		}
		l.notifiers[name] = n
	}
}

type NotifierLocator struct {
	notifiers map[string]notify.Notifier
}

func NewNotifierLocator(opts ...NotifierLocatorOption) *NotifierLocator {
	l := &NotifierLocator{
		notifiers: make(map[string]notify.Notifier),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *NotifierLocator) GetNotifier(target Target) (notify.Notifier, error) {
	base, ok := l.notifiers[target.Name]
	if !ok {
		return nil, fmt.Errorf("unknown notifier: %s", target.Name)
	}
	if err := base.ValidateConfig(target.Settings); err != nil {
		return nil, err
	}
	return base.WithSettings(target.Settings)
}

// Build resolves every target, closing anything already built if one fails.
func (l *NotifierLocator) Build(targets []Target) ([]notify.Notifier, error) {
	out := make([]notify.Notifier, 0, len(targets))
	for _, t := range targets {
		n, err := l.GetNotifier(t)
		if err != nil {
			for _, built := range out {
				built.Close()
			}
			return nil, fmt.Errorf("notifier %s: %w", t.Name, err)
		}
		out = append(out, n)
	}
	return out, nil
}
