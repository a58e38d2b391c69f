package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	publishTimeout = 5 * time.Second
	maxBackoff     = 30 * time.Second
)

// Client publishes and consumes ledger events on a durable direct exchange.
// Publishing goes through a circuit breaker so a broker outage cannot stall
// HTTP requests.
type Client struct {
	url          string
	exchangeName string
	queueName    string

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	breaker *breaker

	// dial replaces the connection; connect outside tests.
	dial         func() error
	reconnecting atomic.Bool
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	client := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
		breaker:      newBreaker(maxFailures, openTimeout),
	}
	client.dial = client.connect
	if err := client.connect(); err != nil {
		return nil, err
	}
	return client, nil
}

func (c *Client) connect() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := setup(channel, c.exchangeName, c.queueName); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.channel = channel
	c.mu.Unlock()
	return nil
}

func setup(ch *amqp091.Channel, exchangeName, queueName string) error {
	err := ch.ExchangeDeclare(
		exchangeName, // name
		"direct",     // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key is the queue name, as usual for a direct exchange.
	if err := ch.QueueBind(queueName, queueName, exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

func (c *Client) currentChannel() *amqp091.Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channel
}

// reconnect dials again with exponential backoff until it succeeds or ctx ends.
func (c *Client) reconnect(ctx context.Context) error {
	c.closeConnection()
	for attempt := 0; ; attempt++ {
		err := c.dial()
		if err == nil {
			slog.InfoContext(ctx, "Reconnected to AMQP broker", "attempt", attempt+1)
			return nil
		}
		delay := exponentialBackoff(attempt)
		slog.WarnContext(ctx, "AMQP reconnect failed", "attempt", attempt+1, "retry_in", delay, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// scheduleReconnect starts a background reconnect unless one is already
// running. It reports whether a new attempt was started.
func (c *Client) scheduleReconnect() bool {
	if !c.reconnecting.CompareAndSwap(false, true) {
		return false
	}
	go func() {
		defer c.reconnecting.Store(false)
		ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
		defer cancel()
		if err := c.reconnect(ctx); err != nil {
			slog.Error("AMQP reconnect gave up", "error", err)
		}
	}()
	return true
}

// Publish sends an event. It fails fast while the circuit is open.
func (c *Client) Publish(ctx context.Context, event *Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.breaker.allow(); err != nil {
		return fmt.Errorf("%w, skipping %s event", err, event.Type)
	}

	body, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ch := c.currentChannel()
	if ch == nil {
		c.breaker.failure()
		c.scheduleReconnect()
		return errors.New("AMQP channel not available")
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(
		pubCtx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    event.Timestamp,
			Type:         string(event.Type),
			Body:         body,
		},
	)
	if err != nil {
		c.breaker.failure()
		if isConnectionError(err) {
			c.scheduleReconnect()
		}
		return fmt.Errorf("publish event: %w", err)
	}
	c.breaker.success()

	slog.InfoContext(ctx, "Published event",
		"event_type", event.Type,
		"user_id", event.UserID,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

// Consume delivers events to handler until ctx is cancelled. Undecodable
// messages are dropped; handler errors requeue the message. A lost broker
// connection triggers a reconnect and consumption resumes.
func (c *Client) Consume(ctx context.Context, handler func(context.Context, *Event) error) error {
	for {
		err := c.consumeOnce(ctx, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.WarnContext(ctx, "Event consumption interrupted", "error", err)
		if err := c.reconnect(ctx); err != nil {
			return err
		}
	}
}

func (c *Client) consumeOnce(ctx context.Context, handler func(context.Context, *Event) error) error {
	ch := c.currentChannel()
	if ch == nil {
		return errors.New("AMQP channel not available")
	}
	msgs, err := ch.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming events", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping event consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return errors.New("message channel closed")
			}
			c.handleDelivery(ctx, delivery, handler)
		}
	}
}

func (c *Client) handleDelivery(ctx context.Context, delivery amqp091.Delivery, handler func(context.Context, *Event) error) {
	event, err := EventFromJSON(delivery.Body)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to decode event", "error", err)
		delivery.Nack(false, false)
		return
	}

	if err := handler(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to handle event",
			"error", err,
			"event_type", event.Type,
			"user_id", event.UserID)
		delivery.Nack(false, !delivery.Redelivered)
		return
	}

	delivery.Ack(false)
	slog.DebugContext(ctx, "Handled event", "event_type", event.Type, "user_id", event.UserID)
}

func exponentialBackoff(attempt int) time.Duration {
	if attempt > 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "eof", "broken pipe", "channel/connection is not open"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (c *Client) closeConnection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) Close() error {
	c.closeConnection()
	return nil
}
