package notify

import (
	"context"
	"time"

	"github.com/platinummonkey/brandhub/pkg/observability"
)

// LogNotifier writes events to the structured log instead of a broker.
// Used when no Redis URL is configured.
type LogNotifier struct {
	logger *observability.Logger
}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier(logger *observability.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Publish logs the event at info level
func (n *LogNotifier) Publish(ctx context.Context, event *Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	n.logger.WithFields(map[string]interface{}{
		"event":       string(event.Type),
		"business_id": event.BusinessID,
		"actor_id":    event.ActorID,
	}).Info("team event")
	return nil
}

// Close is a no-op
func (n *LogNotifier) Close() error {
	return nil
}
