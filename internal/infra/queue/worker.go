package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type BuyerEventHandler interface {
	HandleBuyerEvent(ctx context.Context, event BuyerEvent) error
}

type channelConsumer interface {
	ConsumeWithContext(ctx context.Context, queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

type Worker struct {
	Channel channelConsumer
	Handler BuyerEventHandler
	Logger  *zap.Logger
}

func NewWorker(ch channelConsumer, handler BuyerEventHandler, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{Channel: ch, Handler: handler, Logger: logger}
}

// Start consumes queueName until ctx is cancelled or the channel closes.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.ConsumeWithContext(ctx,
		queueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	w.Logger.Info("Worker waiting for messages", zap.String("queue", queueName))
	for {
		select {
		case <-ctx.Done():
			w.Logger.Info("Worker stopped", zap.String("queue", queueName))
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel for %s closed", queueName)
			}
			w.handle(ctx, d)
		}
	}
}

// handle acks processed messages. Malformed or failing messages are
// rejected without requeue and go to the DLQ.
func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	var event BuyerEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		w.Logger.Error("Failed decoding buyer event", zap.String("messageId", d.MessageId), zap.Error(err))
		d.Nack(false, false)
		return
	}

	if err := w.Handler.HandleBuyerEvent(ctx, event); err != nil {
		w.Logger.Error("Failed handling buyer event",
			zap.String("eventId", event.ID),
			zap.String("buyerId", event.BuyerID),
			zap.Error(err))
		d.Nack(false, false)
		return
	}
	d.Ack(false)
}
