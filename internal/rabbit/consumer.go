package rabbit

import (
	"context"
	"errors"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler must return nil only when the delivery may be acked. Wrapping
// ErrBadMessage drops the delivery instead of requeueing it.
type Handler func(ctx context.Context, d amqp.Delivery) error

var ErrBadMessage = errors.New("malformed message")

type Consumer struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

// NewConsumer declares the exchange, a durable non-exclusive queue and the
// topic binding, so either service can start first.
func NewConsumer(url, exchange, queue, bindingKey string, prefetch int) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	if err := ch.QueueBind(queue, bindingKey, exchange, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	if prefetch <= 0 {
		prefetch = 1
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &Consumer{conn: conn, ch: ch, queue: queue}, nil
}

func (c *Consumer) Start(ctx context.Context, h Handler) error {
	deliveries, err := c.ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = c.ch.Close()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			if err := h(ctx, d); err != nil {
				if errors.Is(err, ErrBadMessage) {
					log.Printf("dropping message %s: %v", d.MessageId, err)
					_ = d.Nack(false, false)
					continue
				}
				log.Printf("handler error: %v", err)
				_ = d.Nack(false, true) // broker redelivery
				time.Sleep(200 * time.Millisecond)
				continue
			}
			_ = d.Ack(false)
		}
	}
}
