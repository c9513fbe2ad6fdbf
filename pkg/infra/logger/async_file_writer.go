package logger

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultQueueSize     = 1000
	defaultFlushInterval = 2 * time.Second
)

// AsyncFileWriter moves file writes off the request path. Lines are queued
// and written by one goroutine; when the queue is full the line is dropped
// and counted.
type AsyncFileWriter struct {
	buf           *bufio.Writer
	sink          io.WriteCloser
	lines         chan []byte
	flushInterval time.Duration
	dropped       atomic.Uint64

	quit    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func NewAsyncFileWriter(sink io.WriteCloser, bufferSize int) *AsyncFileWriter {
	w := &AsyncFileWriter{
		buf:           bufio.NewWriterSize(sink, bufferSize),
		sink:          sink,
		lines:         make(chan []byte, defaultQueueSize),
		flushInterval: defaultFlushInterval,
		quit:          make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	go w.run()
	return w
}

// Write never blocks. logrus reuses its buffer, so p is copied.
func (w *AsyncFileWriter) Write(p []byte) (int, error) {
	line := make([]byte, len(p))
	copy(line, p)
	select {
	case w.lines <- line:
	default:
		w.dropped.Add(1)
	}
	return len(p), nil
}

// Dropped reports how many lines were discarded because the queue was full.
func (w *AsyncFileWriter) Dropped() uint64 {
	return w.dropped.Load()
}

func (w *AsyncFileWriter) run() {
	defer close(w.stopped)
	ticker := time.NewTicker(w.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case line := <-w.lines:
			w.write(line)
		case <-ticker.C:
			w.flush()
		case <-w.quit:
			w.drain()
			return
		}
	}
}

func (w *AsyncFileWriter) drain() {
	for {
		select {
		case line := <-w.lines:
			w.write(line)
		default:
			w.flush()
			return
		}
	}
}

// write and flush only run on the writer goroutine.
func (w *AsyncFileWriter) write(line []byte) {
	if _, err := w.buf.Write(line); err != nil {
		fmt.Fprintln(os.Stderr, "log file write failed:", err)
	}
}

func (w *AsyncFileWriter) flush() {
	if err := w.buf.Flush(); err != nil {
		fmt.Fprintln(os.Stderr, "log file flush failed:", err)
	}
}

// Close drains the queue, flushes and closes the sink. Safe to call twice.
func (w *AsyncFileWriter) Close() {
	w.once.Do(func() {
		close(w.quit)
		<-w.stopped
		_ = w.sink.Close()
	})
}
