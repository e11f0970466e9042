// Package messaging provides a NATS client wrapper for moving platform
// updates from the webhook receiver to the moderator workers, and
// enforcement outcomes back out for anything that wants to observe them.
// It handles connection lifecycle and subject-based subscriptions.
package messaging

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// NATS subjects used between namegate services.
const (
	SubjectUpdateInbound     = "update.inbound"
	SubjectEnforcementResult = "enforcement.result"
)

// UpdateQueueGroup is the queue group moderator workers join so each
// inbound update is delivered to exactly one worker.
const UpdateQueueGroup = "moderators"

// NATSClient wraps the NATS connection with helper methods for pub/sub.
type NATSClient struct {
	conn *nats.Conn
	mu   sync.Mutex
	subs map[string]*nats.Subscription
}

// NATSConfig holds NATS connection settings.
type NATSConfig struct {
	URL           string        // nats://localhost:4222
	Name          string        // client name for identification
	ReconnectWait time.Duration // time between reconnect attempts
	MaxReconnects int           // max reconnect attempts (-1 for infinite)
}

// DefaultNATSConfig returns sensible defaults.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           "nats://localhost:4222",
		Name:          "namegate",
		ReconnectWait: 2 * time.Second,
		MaxReconnects: -1, // infinite reconnects
	}
}

// NewNATSClient connects to NATS with the given config and returns a ready
// client. It returns an error if the initial connection fails.
func NewNATSClient(config NATSConfig) (*NATSClient, error) {
	opts := []nats.Option{
		nats.Name(config.Name),
		nats.ReconnectWait(config.ReconnectWait),
		nats.MaxReconnects(config.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Printf("[nats] disconnected: %v", err)
			} else {
				log.Printf("[nats] disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("[nats] reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Printf("[nats] connection closed")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	log.Printf("[nats] connected to %s", nc.ConnectedUrl())

	return &NATSClient{
		conn: nc,
		subs: make(map[string]*nats.Subscription),
	}, nil
}

// Publish sends data to the given NATS subject.
func (c *NATSClient) Publish(subject string, data []byte) error {
	return c.conn.Publish(subject, data)
}

// PublishUpdate publishes a serialized inbound update for the moderator
// workers.
func (c *NATSClient) PublishUpdate(data []byte) error {
	return c.Publish(SubjectUpdateInbound, data)
}

// PublishEnforcementResult publishes a serialized enforcement outcome.
func (c *NATSClient) PublishEnforcementResult(data []byte) error {
	return c.Publish(SubjectEnforcementResult, data)
}

// SubscribeUpdates joins the moderator queue group on the inbound-update
// subject, so concurrent workers split the stream without duplicate
// deliveries.
func (c *NATSClient) SubscribeUpdates(handler func(data []byte)) error {
	sub, err := c.conn.QueueSubscribe(SubjectUpdateInbound, UpdateQueueGroup, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", SubjectUpdateInbound, err)
	}

	c.mu.Lock()
	c.subs[SubjectUpdateInbound] = sub
	c.mu.Unlock()
	return nil
}

// SubscribeEnforcementResults registers a handler for enforcement outcomes,
// e.g. an operator-alerting process watching for failed bans.
func (c *NATSClient) SubscribeEnforcementResults(handler func(data []byte)) error {
	sub, err := c.conn.Subscribe(SubjectEnforcementResult, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", SubjectEnforcementResult, err)
	}

	c.mu.Lock()
	c.subs[SubjectEnforcementResult] = sub
	c.mu.Unlock()
	return nil
}

// Close drains all active subscriptions and closes the NATS connection.
func (c *NATSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for subject, sub := range c.subs {
		if err := sub.Drain(); err != nil {
			log.Printf("[nats] drain %s: %v", subject, err)
		}
	}
	c.subs = make(map[string]*nats.Subscription)

	if err := c.conn.Drain(); err != nil {
		log.Printf("[nats] connection drain: %v", err)
	}

	log.Printf("[nats] client closed")
}
