package events

import (
	"context"
	"time"

	"distributor/internal/models"

	"github.com/google/uuid"
)

// Event records one committed order transition.
type Event struct {
	ID          string             `json:"id"`
	Type        string             `json:"type"`
	OrderID     uint               `json:"order_id"`
	ActorID     uint               `json:"actor_id"`
	Role        models.Role        `json:"role"`
	Status      models.OrderStatus `json:"status"`
	StockStatus models.StockStatus `json:"stock_status"`
	OccurredAt  time.Time          `json:"occurred_at"`
}

// NewOrderEvent describes order as it stands after action was committed by actor.
func NewOrderEvent(action string, order *models.Order, actor *models.User) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        "order." + action,
		OrderID:     order.ID,
		ActorID:     actor.ID,
		Role:        actor.Role,
		Status:      order.Status,
		StockStatus: order.StockStatus,
		OccurredAt:  time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}
