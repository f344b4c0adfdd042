package notify

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
)

// LogBuffer is a slog.Handler that tees records into an in-memory
// buffer so a failed run can attach its own logs to the notification.
type LogBuffer struct {
	mu   sync.Mutex
	buf  bytes.Buffer
	text slog.Handler
	next slog.Handler
}

// NewLogBuffer wraps `next`, which may be nil when the buffer is the
// only destination.
func NewLogBuffer(next slog.Handler) *LogBuffer {
	buffer := &LogBuffer{next: next}
	buffer.text = slog.NewTextHandler(&lockedWriter{buffer: buffer}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	return buffer
}

type lockedWriter struct {
	buffer *LogBuffer
}

// callers already hold the record mutex, see Handle
func (w *lockedWriter) Write(p []byte) (int, error) {
	return w.buffer.buf.Write(p)
}

func (b *LogBuffer) Enabled(ctx context.Context, level slog.Level) bool {
	return true
}

func (b *LogBuffer) Handle(ctx context.Context, record slog.Record) error {
	b.mu.Lock()
	err := b.text.Handle(ctx, record)
	b.mu.Unlock()
	if err != nil {
		return err
	}
	if b.next != nil && b.next.Enabled(ctx, record.Level) {
		return b.next.Handle(ctx, record.Clone())
	}
	return nil
}

// per-logger attrs and groups are not tracked, every record still
// lands in the one shared buffer
func (b *LogBuffer) WithAttrs(attrs []slog.Attr) slog.Handler {
	return b
}

func (b *LogBuffer) WithGroup(name string) slog.Handler {
	return b
}

// Tail returns at most `limit` bytes from the end of the buffered
// log, cut at a line boundary when possible.
func (b *LogBuffer) Tail(limit int) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	text := b.buf.String()
	if len(text) <= limit {
		return text
	}
	tail := text[len(text)-limit:]
	if idx := bytes.IndexByte([]byte(tail), '\n'); idx >= 0 && idx+1 < len(tail) {
		tail = tail[idx+1:]
	}
	return tail
}

// Len reports how much log text has accumulated.
func (b *LogBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}

const (
	failureLogTail  = 2500
	successLogLimit = 3000
)

// RunLogs decides what slice of the run's log rides along with the
// notification. Failures always carry their tail. A success only
// carries logs when they are short, a chatty successful run is not
// worth the noise.
func RunLogs(buffer *LogBuffer, success bool) string {
	if buffer == nil {
		return ""
	}
	if success {
		if buffer.Len() > successLogLimit {
			return ""
		}
		return buffer.Tail(successLogLimit)
	}
	return buffer.Tail(failureLogTail)
}
