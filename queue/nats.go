package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/imkonsowa/restaurants-linebot/config"
	"github.com/nats-io/nats.go"
)

const (
	streamMaxAge = 7 * 24 * time.Hour
	fetchBatch   = 4
	fetchWait    = 200 * time.Millisecond
)

type Client struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// Connect opens a JetStream connection and makes sure the change stream exists.
func Connect(cfg config.Nats) (*Client, error) {
	nc, err := nats.Connect(cfg.ConnStr())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to get jetstream context: %w", err)
	}

	_, err = js.AddStream(StreamConfig(cfg))
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		nc.Close()
		return nil, fmt.Errorf("failed to create stream %s: %w", cfg.Stream, err)
	}

	return &Client{conn: nc, js: js}, nil
}

func StreamConfig(cfg config.Nats) *nats.StreamConfig {
	return &nats.StreamConfig{
		Name:      cfg.Stream,
		Subjects:  []string{cfg.RestaurantsSubject},
		Storage:   nats.FileStorage,
		Retention: nats.LimitsPolicy,
		MaxAge:    streamMaxAge,
	}
}

// ConsumerName derives the durable pull consumer name of a subject.
func ConsumerName(subject string) string {
	return strings.ReplaceAll(subject+".consumer", ".", "-")
}

func (c *Client) Close() {
	c.conn.Close()
}

// PublishAsync queues data without waiting for the stream acknowledgement.
func (c *Client) PublishAsync(subject string, data []byte) error {
	_, err := c.js.PublishAsync(subject, data)

	return err
}

// PublishJSON encodes v and publishes it, waiting for the stream acknowledgement.
func (c *Client) PublishJSON(ctx context.Context, subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if _, err := c.js.Publish(subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	return nil
}

// Subscribe pulls messages of subject until ctx is cancelled, handing each one
// to handler. Messages must be acked by the handler.
func (c *Client) Subscribe(ctx context.Context, subject string, handler func(m *nats.Msg)) error {
	subscription, err := c.js.PullSubscribe(subject, ConsumerName(subject), nats.ManualAck())
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	for {
		select {
		case <-ctx.Done():
			if err := subscription.Unsubscribe(); err != nil {
				slog.Warn("failed to unsubscribe from subject", "subject", subject, "error", err)
			}

			return nil
		default:
			msgs, err := subscription.Fetch(fetchBatch, nats.MaxWait(fetchWait))
			if err != nil && !errors.Is(err, nats.ErrTimeout) && !errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("failed to fetch from %s: %w", subject, err)
			}

			for _, msg := range msgs {
				handler(msg)
			}
		}
	}
}
