package email

import (
	"context"

	"github.com/countaustin1990/responsive-travel-website/internal/domain"
	"github.com/sirupsen/logrus"
)

// LogSender writes messages to the log instead of delivering them. Used when
// no SMTP host is configured.
type LogSender struct {
	logger logrus.FieldLogger
}

func NewLogSender(logger logrus.FieldLogger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg domain.EmailMessage) error {
	s.logger.WithFields(logrus.Fields{
		"kind":      msg.Kind,
		"reference": msg.Reference,
		"to":        msg.To,
		"subject":   msg.Subject,
	}).Info("email not delivered: smtp disabled")
	return nil
}
