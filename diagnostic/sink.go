package diagnostic

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// Sink receives diagnostic events. Emit must not block for long and has no
// way to report failure; events are best effort.
type Sink interface {
	Emit(ctx context.Context, e Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, e Event)

func (f SinkFunc) Emit(ctx context.Context, e Event) {
	f(ctx, e)
}

// MultiSink fans an event out to every sink in order. A sink that panics
// is skipped; the remaining sinks still receive the event.
type MultiSink []Sink

func (m MultiSink) Emit(ctx context.Context, e Event) {
	for _, s := range m {
		if s != nil {
			emitSafely(ctx, s, e)
		}
	}
}

func emitSafely(ctx context.Context, s Sink, e Event) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Warn("diagnostic sink panicked", "event", e.Type, "panic", rec)
		}
	}()
	s.Emit(ctx, e)
}

// SlogSink writes each event as a single structured slog record.
type SlogSink struct {
	handler slog.Handler
}

// NewSlogSink writes events through the given handler.
func NewSlogSink(h slog.Handler) *SlogSink {
	return &SlogSink{handler: h}
}

// NewJSONSink writes one JSON object per event to w.
func NewJSONSink(w io.Writer) *SlogSink {
	return NewSlogSink(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				return slog.String("timestamp", a.Value.Time().UTC().Format(time.RFC3339Nano))
			case slog.MessageKey:
				a.Key = "event"
			}
			return a
		},
	}))
}

// Emit writes e. Handler errors are dropped.
func (s *SlogSink) Emit(ctx context.Context, e Event) {
	level := levelFor(e.Type)
	if !s.handler.Enabled(ctx, level) {
		return
	}

	rec := slog.NewRecord(e.Timestamp, level, string(e.Type), 0)
	rec.AddAttrs(
		slog.Float64("execution_time_ms", millis(e.Elapsed)),
		slog.Any("request", e.Request),
	)
	if e.Payload != nil {
		rec.AddAttrs(e.Payload.Attrs()...)
	}

	_ = s.handler.Handle(ctx, rec)
}

func levelFor(t EventType) slog.Level {
	switch t {
	case EventStorageError:
		return slog.LevelError
	case EventBotAttack, EventSlowRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
