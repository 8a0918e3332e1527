package service

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/site-inspection-api/internal/config"
	"github.com/iliyamo/site-inspection-api/internal/queue"
)

// lockedBuffer is written from publisher goroutines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testLogger() (echo.Logger, *lockedBuffer) {
	out := &lockedBuffer{}
	l := log.New("test")
	l.SetOutput(out)
	l.SetLevel(log.DEBUG)
	return l, out
}

func TestNewAuditPublisher(t *testing.T) {
	logger, _ := testLogger()

	assert.IsType(t, NopPublisher{}, NewAuditPublisher(config.QueueConfig{Enabled: false}, logger))

	p := NewAuditPublisher(config.QueueConfig{Enabled: true, URL: "amqp://localhost/", Queue: "audit.events"}, logger)
	assert.IsType(t, &AMQPPublisher{}, p)
}

func TestAMQPPublisher_BrokerDownOnlyWarns(t *testing.T) {
	logger, out := testLogger()
	p := NewAMQPPublisher(config.QueueConfig{Enabled: true, URL: "amqp://down/", Queue: "audit.events"}, logger)

	dialed := make(chan string, 1)
	p.dial = func(url string) (*amqp.Connection, error) {
		dialed <- url
		return nil, errors.New("connection refused")
	}

	assert.NotPanics(t, func() {
		p.Publish(queue.NewEntityEvent("create", "Project", "Tower", "admin"))
	})

	select {
	case url := <-dialed:
		assert.Equal(t, "amqp://down/", url)
	case <-time.After(2 * time.Second):
		t.Fatal("publisher never dialed")
	}
	assert.Eventually(t, func() bool {
		s := out.String()
		return strings.Contains(s, `"level":"WARN"`) &&
			strings.Contains(s, "audit create Project not published: connection refused")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNopPublisher(t *testing.T) {
	assert.NotPanics(t, func() { NopPublisher{}.Publish(queue.NewAuthEvent(true, "bob", "bob")) })
}
