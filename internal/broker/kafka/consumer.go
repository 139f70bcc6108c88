package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads JSON job messages of one topic inside a consumer group.
type Consumer struct {
	r messageReader
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	cfg := kafka.ReaderConfig{
		Brokers:           brokers,
		GroupID:           groupID,
		GroupTopics:       []string{topic},
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
	}
	if groupID == "" {
		cfg.GroupTopics = nil
		cfg.Topic = topic
	}
	return newConsumerWithReader(kafka.NewReader(cfg))
}

func newConsumerWithReader(r messageReader) *Consumer {
	return &Consumer{r: r}
}

func (c *Consumer) Close() error {
	return c.r.Close()
}

// ConsumeJSON decodes each message value into a fresh target from newTarget and passes it
// to handle. A value that does not decode goes to invalid and is committed, so one bad
// message cannot stall the partition. When handle fails the message stays uncommitted
// and ConsumeJSON returns the error.
func (c *Consumer) ConsumeJSON(
	ctx context.Context,
	newTarget func() any,
	handle func(key string, v any) error,
	invalid func(key string, err error),
) error {
	for {
		msg, err := c.r.FetchMessage(ctx)
		if err != nil {
			return errors.Wrap(err, "fetch job message")
		}

		v := newTarget()
		if err := json.Unmarshal(msg.Value, v); err != nil {
			if invalid != nil {
				invalid(string(msg.Key), errors.Wrapf(err, "decode message at offset %d", msg.Offset))
			}
		} else if err := handle(string(msg.Key), v); err != nil {
			return err
		}

		if err := c.r.CommitMessages(ctx, msg); err != nil {
			return errors.Wrapf(err, "commit offset %d", msg.Offset)
		}
	}
}
