package logger

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// AsyncConsoleHook mirrors file logging to a terminal in text form. Lines
// are dropped rather than blocking the caller when the buffer is full.
type AsyncConsoleHook struct {
	out       io.Writer
	formatter logrus.Formatter
	levels    []logrus.Level
	lines     chan []byte
	done      chan struct{}
	wg        sync.WaitGroup
	once      sync.Once
	dropped   atomic.Uint64
}

func NewAsyncConsoleHook(bufferSize int, out io.Writer, minLevel logrus.Level) *AsyncConsoleHook {
	h := &AsyncConsoleHook{
		out: out,
		formatter: &logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05.000",
		},
		lines: make(chan []byte, bufferSize),
		done:  make(chan struct{}),
	}
	for _, lvl := range logrus.AllLevels {
		if lvl <= minLevel {
			h.levels = append(h.levels, lvl)
		}
	}
	h.wg.Add(1)
	go h.drain()
	return h
}

func (h *AsyncConsoleHook) Levels() []logrus.Level {
	return h.levels
}

func (h *AsyncConsoleHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	// the formatter reuses entry.Buffer when set
	line = append([]byte(nil), line...)
	select {
	case h.lines <- line:
	default:
		h.dropped.Add(1)
	}
	return nil
}

// Dropped reports how many lines were discarded because the buffer was full.
func (h *AsyncConsoleHook) Dropped() uint64 {
	return h.dropped.Load()
}

func (h *AsyncConsoleHook) drain() {
	defer h.wg.Done()
	for {
		select {
		case line := <-h.lines:
			_, _ = h.out.Write(line)
		case <-h.done:
			for {
				select {
				case line := <-h.lines:
					_, _ = h.out.Write(line)
				default:
					return
				}
			}
		}
	}
}

func (h *AsyncConsoleHook) Close() {
	h.once.Do(func() {
		close(h.done)
		h.wg.Wait()
	})
}
