package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/labstack/echo/v4"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/site-inspection-api/internal/config"
	"github.com/iliyamo/site-inspection-api/internal/queue"
)

// AuditPublisher receives audit events.  Publish must not block the caller
// and must never fail the request that produced the event.
type AuditPublisher interface {
	Publish(ev queue.AuditEvent)
}

// NopPublisher drops every event.  Used when auditing is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(queue.AuditEvent) {}

// AMQPPublisher sends events to a durable RabbitMQ queue.  Each event is
// published from its own goroutine over a short-lived connection, so a
// broker outage only costs log lines.
type AMQPPublisher struct {
	cfg     config.QueueConfig
	logger  echo.Logger
	timeout time.Duration
	dial    func(url string) (*amqp.Connection, error)
}

func NewAMQPPublisher(cfg config.QueueConfig, logger echo.Logger) *AMQPPublisher {
	return &AMQPPublisher{cfg: cfg, logger: logger, timeout: 5 * time.Second, dial: amqp.Dial}
}

// NewAuditPublisher returns an AMQPPublisher when auditing is enabled and a
// NopPublisher otherwise.
func NewAuditPublisher(cfg config.QueueConfig, logger echo.Logger) AuditPublisher {
	if !cfg.Enabled {
		return NopPublisher{}
	}
	return NewAMQPPublisher(cfg, logger)
}

func (p *AMQPPublisher) Publish(ev queue.AuditEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		if err := p.publish(ctx, ev); err != nil {
			p.logger.Warnf("rabbitmq: audit %s %s not published: %v", ev.Action, ev.Entity, err)
		}
	}()
}

func (p *AMQPPublisher) publish(ctx context.Context, ev queue.AuditEvent) error {
	conn, err := p.dial(p.cfg.URL)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.cfg.Queue, true, false, false, false, nil); err != nil {
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return ch.PublishWithContext(ctx, "", p.cfg.Queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}
