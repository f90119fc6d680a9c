package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier writes every event to the structured log.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, userID int64, ev Event) error {
	n.logger.Info("Notification",
		zap.Int64("user_id", userID),
		zap.String("event", string(ev.Type)),
		zap.Time("occurred_at", ev.OccurredAt),
		zap.Any("payload", ev.Payload),
	)
	return nil
}
