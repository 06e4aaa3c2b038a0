// Package rabbitmq publishes domain events to a RabbitMQ topic exchange.
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// DefaultRedialInterval is the minimum gap between reconnect attempts.
const DefaultRedialInterval = 5 * time.Second

var errProducerClosed = errors.New("event producer closed")

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// link is one live connection and channel. closed fires when the broker
// or the network tears the channel down.
type link struct {
	pub    publisher
	closed <-chan *amqp091.Error
	close  func()
}

// EventProducer is a client for publishing events to RabbitMQ. A dropped
// connection is noticed through NotifyClose and redialed on the next
// Publish, no more often than every redialEvery.
type EventProducer struct {
	exchange    string
	dial        func() (*link, error)
	redialEvery time.Duration
	now         func() time.Time

	mu       sync.Mutex
	cur      *link
	lastDial time.Time
	lastErr  error
	shutdown bool
}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewEventProducer dials amqpURL and declares the durable topic exchange.
// The first dial must succeed; later ones happen in the background of
// Publish.
func NewEventProducer(amqpURL, exchange string) (*EventProducer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}
	p := newEventProducer(exchange, func() (*link, error) {
		return dialExchange(cleanURL, exchange)
	}, DefaultRedialInterval)

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func newEventProducer(exchange string, dial func() (*link, error), redialEvery time.Duration) *EventProducer {
	return &EventProducer{
		exchange:    exchange,
		dial:        dial,
		redialEvery: redialEvery,
		now:         time.Now,
	}
}

func dialExchange(amqpURL, exchange string) (*link, error) {
	conn, err := amqp091.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	// A connection shutdown also closes its channels, so watching the
	// channel covers both.
	return &link{
		pub:    channel,
		closed: channel.NotifyClose(make(chan *amqp091.Error, 1)),
		close: func() {
			channel.Close()
			conn.Close()
		},
	}, nil
}

// connect dials a fresh link. Callers hold p.mu.
func (p *EventProducer) connect() (*link, error) {
	p.lastDial = p.now()
	l, err := p.dial()
	if err != nil {
		p.lastErr = err
		return nil, err
	}
	p.cur, p.lastErr = l, nil
	go p.watch(l)
	return l, nil
}

// watch drops l once the broker reports it closed. A graceful Close
// closes the notify channel without an error.
func (p *EventProducer) watch(l *link) {
	amqpErr, ok := <-l.closed
	if !ok || amqpErr == nil {
		return
	}
	slog.Warn("rabbitmq connection lost", "exchange", p.exchange, "code", amqpErr.Code, "reason", amqpErr.Reason)
	p.drop(l)
}

func (p *EventProducer) drop(l *link) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dropLocked(l)
}

func (p *EventProducer) dropLocked(l *link) {
	if p.cur != l {
		return
	}
	p.cur = nil
	l.close()
}

// ensure returns the live link, redialing when the previous one was lost.
// Callers hold p.mu.
func (p *EventProducer) ensure() (*link, error) {
	if p.cur != nil {
		return p.cur, nil
	}
	if !p.lastDial.IsZero() && p.now().Sub(p.lastDial) < p.redialEvery {
		if p.lastErr != nil {
			return nil, fmt.Errorf("rabbitmq unavailable: %w", p.lastErr)
		}
		return nil, errors.New("rabbitmq unavailable: waiting to redial")
	}
	l, err := p.connect()
	if err != nil {
		slog.Warn("rabbitmq redial failed", "exchange", p.exchange, "error", err)
		return nil, fmt.Errorf("rabbitmq unavailable: %w", err)
	}
	slog.Info("rabbitmq reconnected", "exchange", p.exchange)
	return l, nil
}

// Publish marshals body to JSON and sends it with routingKey.
func (p *EventProducer) Publish(ctx context.Context, routingKey string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	// amqp channels are not safe for concurrent publishing.
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.shutdown {
		return errProducerClosed
	}
	l, err := p.ensure()
	if err != nil {
		return err
	}

	err = l.pub.PublishWithContext(ctx,
		p.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Body:         payload,
		})
	if err != nil {
		if errors.Is(err, amqp091.ErrClosed) {
			p.dropLocked(l)
		}
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}

	slog.Debug("event published", "exchange", p.exchange, "routing_key", routingKey)
	return nil
}

// Close gracefully closes the channel and connection. Publish fails
// afterwards and no redial is attempted.
func (p *EventProducer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shutdown = true
	if p.cur != nil {
		p.cur.close()
		p.cur = nil
	}
}
