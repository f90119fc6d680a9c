package service

import (
	"context"

	"github.com/Freeeeeet/supervision/internal/notify"
	"go.uber.org/zap"
)

type pendingNotification struct {
	userID int64
	event  notify.Event
}

// outbox collects notifications inside a transaction; they are sent only
// after commit, and send failures are logged, not returned.
type outbox struct {
	items []pendingNotification
}

func (o *outbox) add(userID int64, typ notify.EventType, payload any) {
	o.items = append(o.items, pendingNotification{
		userID: userID,
		event:  notify.Event{Type: typ, Payload: payload, OccurredAt: now()},
	})
}

func (o *outbox) flush(ctx context.Context, n notify.Notifier, logger *zap.Logger) {
	for _, it := range o.items {
		if err := n.Notify(ctx, it.userID, it.event); err != nil {
			logger.Warn("Failed to send notification",
				zap.Int64("user_id", it.userID),
				zap.String("event", string(it.event.Type)),
				zap.Error(err),
			)
		}
	}
	o.items = nil
}
