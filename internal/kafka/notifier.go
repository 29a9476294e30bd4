package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/countaustin1990/responsive-travel-website/internal/domain"
	"github.com/segmentio/kafka-go"
)

const publishAttempts = 3

type Publisher interface {
	PublishWithRetry(ctx context.Context, topic, key string, payload any, maxRetries int) error
}

type Sender interface {
	Send(ctx context.Context, msg domain.EmailMessage) error
}

// QueuedNotifier hands emails to the notifications topic. Delivery happens
// in the worker, so Send succeeds as soon as the broker accepts the message.
type QueuedNotifier struct {
	publisher Publisher
	topic     string
}

func NewQueuedNotifier(publisher Publisher, topic string) *QueuedNotifier {
	return &QueuedNotifier{publisher: publisher, topic: topic}
}

func (n *QueuedNotifier) Send(ctx context.Context, msg domain.EmailMessage) error {
	return n.publisher.PublishWithRetry(ctx, n.topic, msg.Reference, msg, publishAttempts)
}

func DecodeEmail(m kafka.Message) (domain.EmailMessage, error) {
	var msg domain.EmailMessage
	if err := json.Unmarshal(m.Value, &msg); err != nil {
		return domain.EmailMessage{}, fmt.Errorf("decode notification: %w", err)
	}
	return msg, nil
}
