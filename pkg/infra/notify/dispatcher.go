package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/NeuralTrust/IPGuard/pkg/domain/notify"
	"github.com/sirupsen/logrus"
)

const defaultNotifyTimeout = 5 * time.Second

// Dispatcher fans one event out to every notifier in parallel. Failures are
// logged and joined; one slow notifier never holds the others back.
type Dispatcher struct {
	notifiers []notify.Notifier
	logger    *logrus.Logger
	timeout   time.Duration
}

func NewDispatcher(notifiers []notify.Notifier, logger *logrus.Logger, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	return &Dispatcher{notifiers: notifiers, logger: logger, timeout: timeout}
}

func (d *Dispatcher) Notify(ctx context.Context, evt notify.Event) error {
	if len(d.notifiers) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, n := range d.notifiers {
		wg.Add(1)
		go func(n notify.Notifier) {
			defer wg.Done()
			if err := n.Notify(ctx, evt); err != nil {
				d.logger.WithError(err).WithFields(logrus.Fields{
					"notifier": n.Name(),
					"ip":       evt.IP,
					"event":    evt.Type,
				}).Warn("notification failed")
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(n)
	}
	wg.Wait()
	return errors.Join(errs...)
}

func (d *Dispatcher) Close() {
	for _, n := range d.notifiers {
		n.Close()
	}
}
