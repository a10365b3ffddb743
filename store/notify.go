package store

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// amqpChannel is the part of *amqp.Channel the notifier uses.
type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Cancel(consumer string, noWait bool) error
}

// Notifier broadcasts "the questions collection changed" over a RabbitMQ
// fanout exchange. The payload carries no data: receivers re-read the full
// snapshot, so a lost or coalesced message only delays, never corrupts.
type Notifier struct {
	ch       amqpChannel
	exchange string
}

func NewNotifier(ch *amqp.Channel, exchange string) (*Notifier, error) {
	return newNotifier(ch, exchange)
}

func newNotifier(ch amqpChannel, exchange string) (*Notifier, error) {
	if exchange == "" {
		exchange = "questions.changes"
	}
	if err := ch.ExchangeDeclare(exchange, "fanout", false, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &Notifier{ch: ch, exchange: exchange}, nil
}

func (n *Notifier) Publish(ctx context.Context) error {
	return n.ch.PublishWithContext(ctx, n.exchange, "", false, false, amqp.Publishing{
		ContentType: "text/plain",
		Body:        []byte("changed"),
	})
}

// Subscribe binds an exclusive auto-deleted queue to the exchange and
// forwards each delivery as a signal. The returned channel closes when ctx
// is done or when the broker connection drops. The consumer is cancelled on
// the way out, which lets the broker drop the queue.
func (n *Notifier) Subscribe(ctx context.Context) (<-chan struct{}, error) {
	q, err := n.ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare feed queue: %w", err)
	}
	if err := n.ch.QueueBind(q.Name, "", n.exchange, false, nil); err != nil {
		return nil, fmt.Errorf("bind feed queue: %w", err)
	}
	tag := "feed-" + uuid.NewString()
	deliveries, err := n.ch.Consume(q.Name, tag, true, true, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume feed queue: %w", err)
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer func() {
			if err := n.ch.Cancel(tag, false); err != nil {
				log.Printf("cancel change consumer %s: %v", tag, err)
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-deliveries:
				if !ok {
					log.Println("change notification consumer closed")
					return
				}
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out, nil
}
