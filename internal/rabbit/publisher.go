package rabbit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

type outgoing struct {
	key  string
	body []byte
}

type Publisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	inbox    chan outgoing
	closeCh  chan struct{}
}

// NewPublisher dials the broker and declares the topic exchange.
func NewPublisher(url, exchange string, buf int) (*Publisher, error) {
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
	return &Publisher{
		conn:     conn,
		ch:       ch,
		exchange: exchange,
		inbox:    make(chan outgoing, buf),
		closeCh:  make(chan struct{}),
	}, nil
}

func (p *Publisher) Start(ctx context.Context) {
	go func() {
		for m := range p.inbox {
			err := p.ch.PublishWithContext(ctx, p.exchange, m.key, false, false, amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    uuid.NewString(),
				Timestamp:    time.Now(),
				Body:         m.body,
			})
			if err != nil {
				log.Printf("publish %s: %v", m.key, err)
			}
		}
		_ = p.ch.Close()
		_ = p.conn.Close()
		close(p.closeCh)
	}()
}

func (p *Publisher) Publish(key string, body []byte) {
	p.inbox <- outgoing{key: key, body: body}
}

// Close stops accepting messages; the publish loop flushes what is buffered
// and tears the connection down.
func (p *Publisher) Close() { close(p.inbox) }

func (p *Publisher) WaitClosed() { <-p.closeCh }
