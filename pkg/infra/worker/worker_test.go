package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/NeuralTrust/IPGuard/pkg/infra/logger"
	"github.com/stretchr/testify/assert"
)

func TestPool_RunsTasks(t *testing.T) {
	p := NewPool(logger.Discard(), 10)
	p.StartWorkers(2)

	var done atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		assert.True(t, p.Enqueue("k", func(context.Context) {
			defer wg.Done()
			done.Add(1)
		}))
	}
	wg.Wait()
	p.Shutdown()
	assert.Equal(t, int32(5), done.Load())
}

func TestPool_DropsWhenFull(t *testing.T) {
	p := NewPool(logger.Discard(), 1)

	assert.True(t, p.Enqueue("a", func(context.Context) {}))
	assert.False(t, p.Enqueue("b", func(context.Context) {}))
	p.Shutdown()
}

func TestPool_RejectsAfterShutdown(t *testing.T) {
	p := NewPool(logger.Discard(), 4)
	p.StartWorkers(1)
	p.Shutdown()
	p.Shutdown()

	assert.False(t, p.Enqueue("a", func(context.Context) {}))
}

func TestPool_RecoversPanics(t *testing.T) {
	p := NewPool(logger.Discard(), 4)
	p.StartWorkers(1)

	var ran atomic.Bool
	p.Enqueue("a", func(context.Context) { panic("boom") })
	p.Enqueue("b", func(context.Context) { ran.Store(true) })
	p.Shutdown()

	assert.True(t, ran.Load())
}
