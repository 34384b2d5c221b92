// Package messaging provides a NATS client wrapper for the queues gluing the
// dating pipeline's workers together. Delivery is at-least-once from the
// handlers' point of view: every consumer must tolerate redelivery.
package messaging

import (
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Zalthoryn/DatingBot/internal/config"
	"github.com/Zalthoryn/DatingBot/internal/logger"
)

// Subjects used across the pipeline.
const (
	// SubjectMatchRequest carries {user_id} and triggers candidate selection.
	SubjectMatchRequest = "matchmaking.request"

	// SubjectMatchCandidate carries a profile card for a candidate proposal.
	SubjectMatchCandidate = "matchmaking.candidate"

	// SubjectInteractionDecide carries the user's like/skip answer.
	SubjectInteractionDecide = "interactions.decide"

	// SubjectMatchNotification carries a profile card for a confirmed match,
	// one message per participant.
	SubjectMatchNotification = "notifications.match"
)

// Queue groups so multiple worker instances share a subject's traffic.
const (
	GroupMatchmakers = "matchmakers"
	GroupNotifiers   = "notifiers"
)

// Client wraps the NATS connection with publish/subscribe helpers.
type Client struct {
	conn *nats.Conn
	mu   sync.Mutex
	subs []*nats.Subscription
}

// NewClient connects to NATS using settings from config and returns a ready
// client. It reconnects forever on connection loss.
func NewClient(cfg *config.Config) (*Client, error) {
	opts := []nats.Option{
		nats.Name(cfg.NATS.Name),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "err", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			logger.Info("nats connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.NATS.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	logger.Info("nats connected", "url", nc.ConnectedUrl())

	return &Client{conn: nc}, nil
}

// Publish sends data to the given subject.
func (c *Client) Publish(subject string, data []byte) error {
	return c.conn.Publish(subject, data)
}

// QueueSubscribe registers a handler within a queue group, so horizontally
// scaled worker instances split the subject's messages between them.
func (c *Client) QueueSubscribe(subject, group string, handler func(data []byte)) error {
	sub, err := c.conn.QueueSubscribe(subject, group, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", subject, err)
	}

	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return nil
}

// Close drains all subscriptions and the connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, sub := range c.subs {
		if err := sub.Drain(); err != nil {
			logger.Warn("nats drain subscription", "err", err)
		}
	}
	c.subs = nil

	if err := c.conn.Drain(); err != nil {
		logger.Warn("nats connection drain", "err", err)
	}
}
