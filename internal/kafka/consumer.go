package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/countaustin1990/responsive-travel-website/config"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// MessageReader is the subset of *kafka.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NotificationConsumer delivers queued emails from the notifications topic.
type NotificationConsumer struct {
	reader MessageReader
	sender Sender
	logger logrus.FieldLogger
}

func NewNotificationConsumer(cfg config.KafkaConfig, sender Sender, logger logrus.FieldLogger) *NotificationConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:           cfg.Brokers,
		GroupID:           cfg.GroupID,
		Topic:             cfg.NotificationsTopic,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
	})
	return newNotificationConsumerWithReader(reader, sender, logger)
}

func newNotificationConsumerWithReader(reader MessageReader, sender Sender, logger logrus.FieldLogger) *NotificationConsumer {
	return &NotificationConsumer{reader: reader, sender: sender, logger: logger}
}

func (c *NotificationConsumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Run fetches, delivers and commits messages until ctx is done, which is a
// clean stop. Offsets are committed after every attempt, so an undeliverable
// message is logged once and never blocks the partition.
func (c *NotificationConsumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("fetch notification: %w", err)
		}

		c.deliver(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("commit notification at offset %d: %w", msg.Offset, err)
		}
	}
}

func (c *NotificationConsumer) deliver(ctx context.Context, m kafka.Message) {
	email, err := DecodeEmail(m)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{"partition": m.Partition, "offset": m.Offset}).Warn("skip undecodable notification")
		return
	}

	fields := logrus.Fields{"kind": email.Kind, "reference": email.Reference, "offset": m.Offset}
	if err := c.sender.Send(ctx, email); err != nil {
		c.logger.WithError(err).WithFields(fields).Error("notification delivery failed")
		return
	}
	c.logger.WithFields(fields).Info("notification delivered")
}
