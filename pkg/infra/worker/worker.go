package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/NeuralTrust/IPGuard/pkg/infra/prometheus"
	"github.com/sirupsen/logrus"
)

const DefaultQueueSize = 1000

type Task func(ctx context.Context)

// Pool runs background tasks on a fixed set of goroutines fed by a bounded
// queue. Enqueue never blocks: a full queue drops the task.
//
//go:generate mockery --name=Pool --dir=. --output=./mocks --filename=pool_mock.go --case=underscore --with-expecter
type Pool interface {
	StartWorkers(n int)
	Enqueue(key string, task Task) bool
	Shutdown()
}

type pool struct {
	logger   *logrus.Logger
	taskChan chan Task
	ctx      context.Context
	cancel   context.CancelFunc
	closed   atomic.Bool
	mu       sync.RWMutex
	wg       sync.WaitGroup
}

func NewPool(logger *logrus.Logger, queueSize int) Pool {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &pool{
		logger:   logger,
		taskChan: make(chan Task, queueSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (p *pool) StartWorkers(n int) {
	if n <= 0 {
		n = 1
	}
	p.logger.WithField("workers", n).Info("starting analysis workers")
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func(workerID int) {
			defer p.wg.Done()
			for task := range p.taskChan {
				p.run(workerID, task)
			}
		}(i)
	}
}

func (p *pool) run(workerID int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.WithFields(logrus.Fields{
				"worker": workerID,
				"panic":  fmt.Sprint(r),
			}).Error("analysis task panicked")
		}
	}()
	task(p.ctx)
}

func (p *pool) Enqueue(key string, task Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed.Load() {
		return false
	}
	select {
	case p.taskChan <- task:
		return true
	default:
		prometheus.DroppedJobs.Inc()
		p.logger.WithField("key", key).Warn("task queue is full, dropping task")
		return false
	}
}

// Shutdown stops accepting tasks, lets queued ones drain and cancels the
// context handed to any task still running afterwards.
func (p *pool) Shutdown() {
	p.mu.Lock()
	if p.closed.Swap(true) {
		p.mu.Unlock()
		return
	}
	close(p.taskChan)
	p.mu.Unlock()

	p.logger.Info("shutting down analysis workers")
	p.wg.Wait()
	p.cancel()
	p.logger.Info("analysis workers stopped")
}
