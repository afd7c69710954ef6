package orders

import (
	"context"
	"fmt"

	"github.com/selim-rachidi/boutiqa-backend/internal/domain"
)

// RoutedPublisher fans order events out to per-topic producers, since each
// kafka-go writer is bound to a single topic.
type RoutedPublisher struct {
	Created       EventPublisher
	StatusChanged EventPublisher
}

func (p RoutedPublisher) Publish(ctx context.Context, key string, event any) error {
	switch event.(type) {
	case domain.OrderCreatedEvent:
		return p.Created.Publish(ctx, key, event)
	case domain.OrderStatusChangedEvent:
		return p.StatusChanged.Publish(ctx, key, event)
	}
	return fmt.Errorf("no topic for event type %T", event)
}
