package contentstore

import (
	"context"
	"log/slog"
	"time"
)

// NoopEventSink is a no-operation implementation of EventSink
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

func (n *NoopEventSink) EntryCreated(ctx context.Context, entry *Entry) error { return nil }

func (n *NoopEventSink) EntryUpdated(ctx context.Context, entry *Entry) error { return nil }

func (n *NoopEventSink) EntryDeleted(ctx context.Context, contentType, id string) error {
	return nil
}

func (n *NoopEventSink) DocumentSaved(ctx context.Context, lastUpdated time.Time, total int) error {
	return nil
}

func (n *NoopEventSink) DocumentCleared(ctx context.Context) error { return nil }

// LogNotifier writes notifications to a slog logger. Used when no UI is attached.
type LogNotifier struct {
	Logger *slog.Logger
}

// NewLogNotifier returns a Notifier that logs through logger (slog.Default when nil)
func NewLogNotifier(logger *slog.Logger) Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{Logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, note Notification) {
	level := slog.LevelInfo
	switch note.Level {
	case NotificationError:
		level = slog.LevelError
	case NotificationWarning:
		level = slog.LevelWarn
	}
	n.Logger.Log(ctx, level, note.Message, "blocking", note.Blocking)
}
