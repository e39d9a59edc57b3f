package contentitem

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// NoopEventSink is a no-operation implementation of EventSink
// Useful for production when you don't need event handling or for testing
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

func (n *NoopEventSink) ItemCreated(ctx context.Context, item *ContentItem) error {
	return nil
}

func (n *NoopEventSink) ItemUpdated(ctx context.Context, item *ContentItem) error {
	return nil
}

func (n *NoopEventSink) ItemDeleted(ctx context.Context, itemID uuid.UUID) error {
	return nil
}

func (n *NoopEventSink) PartChanged(ctx context.Context, itemID uuid.UUID, part string, change PartChange) error {
	return nil
}

// LoggingEventSink is an event sink that logs events but takes no other action
// Useful for development and debugging
type LoggingEventSink struct {
	logger *slog.Logger
}

// NewLoggingEventSink creates a new logging event sink. A nil logger means slog.Default().
func NewLoggingEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingEventSink{logger: logger}
}

// ItemCreated logs the item creation event
func (l *LoggingEventSink) ItemCreated(ctx context.Context, item *ContentItem) error {
	l.logger.InfoContext(ctx, "Content item created", "item_id", item.ID, "content_type", item.ContentType, "owner", item.Owner)
	return nil
}

// ItemUpdated logs the item update event
func (l *LoggingEventSink) ItemUpdated(ctx context.Context, item *ContentItem) error {
	l.logger.InfoContext(ctx, "Content item updated", "item_id", item.ID, "version_id", item.VersionID)
	return nil
}

// ItemDeleted logs the item deletion event
func (l *LoggingEventSink) ItemDeleted(ctx context.Context, itemID uuid.UUID) error {
	l.logger.InfoContext(ctx, "Content item deleted", "item_id", itemID)
	return nil
}

// PartChanged logs the part change event
func (l *LoggingEventSink) PartChanged(ctx context.Context, itemID uuid.UUID, part string, change PartChange) error {
	l.logger.InfoContext(ctx, "Content part changed", "item_id", itemID, "part", part, "change", string(change))
	return nil
}
