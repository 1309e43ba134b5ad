// Package feed consumes the upstream changeset feed from Kafka: one topic
// carries staged inserts, one carries staged deletes. Messages are decoded
// and handed to the pipeline in receive order; the pipeline's gate provides
// the serialization, not the feed.
package feed

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/segmentio/kafka-go"

	"github.com/orgraph/dispatch/internal/changeset"
	"github.com/orgraph/dispatch/internal/dispatch"
)

// Handler receives merged changesets from the feed.
type Handler interface {
	HandleChangesets(ctx context.Context, sets []changeset.Changeset) ([]dispatch.Result, error)
}

// Message is one decoded feed message.
type Message struct {
	Topic string
	Sets  []changeset.Changeset
}

// Consumer reads both delta topics with segmentio/kafka-go readers and
// funnels decoded changesets into a single ordered channel.
type Consumer struct {
	brokers      string
	groupID      string
	insertsTopic string
	deletesTopic string
	readers      []*kafka.Reader
	messages     chan Message
	mu           sync.Mutex
}

// NewConsumer creates a feed consumer for the given topic pair.
func NewConsumer(brokers, groupID, insertsTopic, deletesTopic string) *Consumer {
	return &Consumer{
		brokers:      brokers,
		groupID:      groupID,
		insertsTopic: insertsTopic,
		deletesTopic: deletesTopic,
		messages:     make(chan Message, 100),
	}
}

// Start begins consuming from both topics.
func (c *Consumer) Start(ctx context.Context) {
	brokerList := strings.Split(c.brokers, ",")
	c.startReader(ctx, brokerList, c.insertsTopic)
	c.startReader(ctx, brokerList, c.deletesTopic)
}

func (c *Consumer) startReader(ctx context.Context, brokerList []string, topic string) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokerList,
		Topic:    topic,
		GroupID:  c.groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})

	c.mu.Lock()
	c.readers = append(c.readers, reader)
	c.mu.Unlock()

	go func(r *kafka.Reader, t string) {
		for {
			msg, err := r.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Warn("Feed: read error", "topic", t, "error", err)
				continue
			}
			sets, err := changeset.Decode(msg.Value)
			if err != nil {
				// A malformed message cannot be retried into validity;
				// log and move on rather than wedging the partition.
				slog.Warn("Feed: undecodable message", "topic", t, "offset", msg.Offset, "error", err)
				continue
			}
			c.messages <- Message{Topic: t, Sets: sets}
		}
	}(reader, topic)
}

// Run pumps decoded messages into the handler until the context ends. Each
// message blocks on the pipeline gate before the next is taken, preserving
// receive order within this process.
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-c.messages:
			results, err := handler.HandleChangesets(ctx, msg.Sets)
			if err != nil {
				slog.Warn("Feed: pipeline rejected changesets",
					"topic", msg.Topic, "results", len(results), "error", err)
				continue
			}
			slog.Debug("Feed: changesets dispatched", "topic", msg.Topic, "results", len(results))
		}
	}
}

// Close shuts down all readers.
func (c *Consumer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.readers {
		if err := r.Close(); err != nil {
			slog.Warn("Feed: close reader", "error", err)
		}
	}
	c.readers = nil
}
