package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xavierca1/buyer-leads/internal/entity"
)

// BuyerEvent is the broker representation of one history entry.
type BuyerEvent struct {
	ID           string            `json:"id"`
	Kind         entity.ChangeKind `json:"kind"`
	BuyerID      string            `json:"buyer_id"`
	FullName     string            `json:"full_name"`
	OwnerID      string            `json:"owner_id"`
	ChangedBy    string            `json:"changed_by"`
	StatusBefore entity.Status     `json:"status_before,omitempty"`
	StatusAfter  entity.Status     `json:"status_after,omitempty"`
	OccurredAt   time.Time         `json:"occurred_at"`
}

func NewBuyerEvent(h *entity.HistoryEntry) BuyerEvent {
	ev := BuyerEvent{
		ID:         h.ID,
		BuyerID:    h.BuyerID,
		ChangedBy:  h.ChangedBy,
		OccurredAt: h.ChangedAt,
	}

	switch d := h.Diff.(type) {
	case entity.Created:
		ev.Kind = entity.ChangeCreated
		ev.FullName = d.After.FullName
		ev.OwnerID = d.After.OwnerID
		ev.StatusAfter = d.After.Status
	case entity.Updated:
		ev.Kind = entity.ChangeUpdated
		ev.FullName = d.After.FullName
		ev.OwnerID = d.After.OwnerID
		ev.StatusBefore = d.Before.Status
		ev.StatusAfter = d.After.Status
	case entity.Deleted:
		ev.Kind = entity.ChangeDeleted
		ev.FullName = d.Before.FullName
		ev.OwnerID = d.Before.OwnerID
		ev.StatusBefore = d.Before.Status
	}
	return ev
}

// StatusChanged reports whether an update moved the buyer to another status.
func (e BuyerEvent) StatusChanged() bool {
	return e.Kind == entity.ChangeUpdated && e.StatusBefore != e.StatusAfter
}

type channelPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitMQProducer struct {
	mu sync.Mutex
	Ch channelPublisher
}

func NewProducer(ch channelPublisher) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch}
}

func (p *RabbitMQProducer) PublishBuyerEvent(ctx context.Context, event BuyerEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    event.ID,
			Timestamp:    event.OccurredAt,
			Type:         string(event.Kind),
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to RabbitMQ: %w", err)
	}
	return nil
}
