package api

import (
	"context"
	"time"

	"github.com/platinummonkey/brandhub/pkg/async"
	"github.com/platinummonkey/brandhub/pkg/audit"
	"github.com/platinummonkey/brandhub/pkg/notify"
)

const eventDispatchTimeout = 5 * time.Second

// recordEvent writes an audit entry and publishes a notification for a team
// mutation. Both are best-effort and run off the request goroutine; the
// background context keeps them alive after the response is written.
func (s *Server) recordEvent(actorID, businessID int64, action audit.EventType, target string, detail map[string]interface{}) {
	async.SafeGo(context.Background(), eventDispatchTimeout, "audit "+string(action), func(ctx context.Context) error {
		return s.recorder.Record(ctx, &audit.Event{
			BusinessID: businessID,
			ActorID:    actorID,
			Action:     action,
			Target:     target,
			Detail:     detail,
		})
	})

	async.SafeGo(context.Background(), eventDispatchTimeout, "notify "+string(action), func(ctx context.Context) error {
		err := s.notifier.Publish(ctx, &notify.Event{
			Type:       notify.EventType(action),
			BusinessID: businessID,
			ActorID:    actorID,
			Data:       detail,
		})
		if s.metrics != nil {
			status := "ok"
			if err != nil {
				status = "error"
			}
			s.metrics.NotificationsTotal.WithLabelValues(string(action), status).Inc()
		}
		return err
	})
}
