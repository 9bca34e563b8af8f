package cmdexec

import (
	"bytes"
	"sync"
)

// LineFunc receives one line of output without its trailing newline
type LineFunc func(line string)

// LineWriter is an io.Writer that calls a LineFunc for every complete line
// as soon as it arrives. A trailing partial line is delivered by Flush, which
// Execute calls once the process has exited.
type LineWriter struct {
	fn  LineFunc
	mu  sync.Mutex
	buf []byte
}

// NewLineWriter returns a LineWriter calling fn
func NewLineWriter(fn LineFunc) *LineWriter {
	return &LineWriter{fn: fn}
}

// Write implements io.Writer
func (w *LineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		line := bytes.TrimSuffix(w.buf[:i], []byte{'\r'})
		w.fn(string(line))
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

// Flush delivers any buffered partial line
func (w *LineWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.buf) > 0 {
		w.fn(string(w.buf))
		w.buf = nil
	}
	return nil
}

type flusher interface {
	Flush() error
}

// flushStream flushes a streaming writer that buffers, such as a LineWriter
// or a bufio.Writer, once the process is done writing to it.
func flushStream(cfg StreamConfig) {
	if !streams(cfg.Mode) {
		return
	}
	if f, ok := cfg.Writer.(flusher); ok {
		_ = f.Flush()
	}
}
