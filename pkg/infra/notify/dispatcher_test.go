package notify

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/NeuralTrust/IPGuard/pkg/domain/notify"
	"github.com/NeuralTrust/IPGuard/pkg/infra/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	name        string
	validateErr error
	notifyErr   error
	calls       atomic.Int32
	closed      atomic.Bool
}

func (f *fakeNotifier) Name() string { return f.name }

func (f *fakeNotifier) ValidateConfig(map[string]interface{}) error { return f.validateErr }

func (f *fakeNotifier) WithSettings(map[string]interface{}) (notify.Notifier, error) { return f, nil }

func (f *fakeNotifier) Notify(context.Context, notify.Event) error {
	f.calls.Add(1)
	return f.notifyErr
}

func (f *fakeNotifier) Close() { f.closed.Store(true) }

func TestNotifierLocator_GetNotifier(t *testing.T) {
	kafka := &fakeNotifier{name: "kafka"}
	l := NewNotifierLocator(WithNotifier("kafka", kafka))

	n, err := l.GetNotifier(Target{Name: "kafka"})
	require.NoError(t, err)
	assert.Equal(t, "kafka", n.Name())

	_, err = l.GetNotifier(Target{Name: "sns"})
	assert.EqualError(t, err, "unknown notifier: sns")
}

func TestNotifierLocator_BuildClosesOnFailure(t *testing.T) {
	good := &fakeNotifier{name: "redis"}
	bad := &fakeNotifier{name: "kafka", validateErr: errors.New("kafka host is required")}
	l := NewNotifierLocator(WithNotifier("redis", good), WithNotifier("kafka", bad))

	_, err := l.Build([]Target{{Name: "redis"}, {Name: "kafka"}})
	assert.ErrorContains(t, err, "kafka host is required")
	assert.True(t, good.closed.Load())
}

func TestDispatcher_FansOutAndJoinsErrors(t *testing.T) {
	ok := &fakeNotifier{name: "redis"}
	failing := &fakeNotifier{name: "kafka", notifyErr: errors.New("broker down")}
	d := NewDispatcher([]notify.Notifier{ok, failing}, logger.Discard(), 0)

	err := d.Notify(context.Background(), notify.Event{Type: notify.EventBlocked, IP: "192.0.2.1"})
	assert.ErrorContains(t, err, "broker down")
	assert.Equal(t, int32(1), ok.calls.Load())
	assert.Equal(t, int32(1), failing.calls.Load())

	d.Close()
	assert.True(t, ok.closed.Load())
}

func TestDispatcher_Empty(t *testing.T) {
	d := NewDispatcher(nil, logger.Discard(), 0)
	assert.NoError(t, d.Notify(context.Background(), notify.Event{}))
}
