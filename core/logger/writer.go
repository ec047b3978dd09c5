package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

const logQueueDepth = 256

// asyncWriter decouples log producers from sink I/O: formatted lines are
// handed to a single drain goroutine that owns the buffered sinks, so a slow
// disk or stdout never stalls a handler call.
type asyncWriter struct {
	lines chan []byte
	flush chan chan error

	closeOnce sync.Once
	drained   chan struct{}

	mu    sync.Mutex
	sinks []*bufio.Writer
	err   error
}

func newAsyncWriter(outputs []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	sinks := make([]*bufio.Writer, 0, len(outputs))
	for _, out := range outputs {
		if out == nil {
			continue
		}
		sinks = append(sinks, bufio.NewWriterSize(out, bufSize))
	}

	w := &asyncWriter{
		lines:   make(chan []byte, logQueueDepth),
		flush:   make(chan chan error),
		drained: make(chan struct{}),
		sinks:   sinks,
	}
	go w.drain()
	return w
}

func (w *asyncWriter) drain() {
	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				w.keepErr(w.fanOut(nil))
				close(w.drained)
				return
			}
			w.keepErr(w.fanOut(line))
		case ack := <-w.flush:
			ack <- w.fanOut(nil)
		}
	}
}

// Write enqueues one formatted line. Blocks when the queue is saturated
// rather than dropping the line.
func (w *asyncWriter) Write(p []byte) error {
	if err := w.stickyErr(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	line := make([]byte, len(p))
	copy(line, p)
	w.lines <- line
	return nil
}

// Flush forces buffered content out to every sink and reports the result.
func (w *asyncWriter) Flush() error {
	if err := w.stickyErr(); err != nil {
		return err
	}
	ack := make(chan error, 1)
	w.flush <- ack
	return <-ack
}

// Close drains remaining lines, flushes the sinks, and reports the first
// write error seen over the writer's lifetime.
func (w *asyncWriter) Close() error {
	w.closeOnce.Do(func() {
		close(w.lines)
	})
	<-w.drained
	return w.stickyErr()
}

// fanOut writes the line (when non-empty) to every sink and flushes each.
// A failing sink does not stop delivery to the others.
func (w *asyncWriter) fanOut(line []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var errs []error
	for _, sink := range w.sinks {
		if len(line) > 0 {
			if _, err := sink.Write(line); err != nil {
				errs = append(errs, err)
				continue
			}
		}
		if err := sink.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *asyncWriter) stickyErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *asyncWriter) keepErr(err error) {
	if err == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err == nil {
		w.err = err
	}
}
