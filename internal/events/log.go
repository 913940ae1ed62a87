package events

import (
	"context"

	"go.uber.org/zap"
)

// LogPublisher writes events to the log. Used when no broker is configured.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	p.logger.Info("order event",
		zap.String("event_id", event.ID),
		zap.String("type", event.Type),
		zap.Uint("order_id", event.OrderID),
		zap.Uint("actor_id", event.ActorID),
		zap.String("status", string(event.Status)),
		zap.String("stock_status", string(event.StockStatus)),
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
