package contact

import (
	"context"
	"errors"
	"fmt"

	"github.com/countaustin1990/responsive-travel-website/internal/domain"
	"github.com/sirupsen/logrus"
)

// ErrDelivery means the message could not be handed to the notifier.
var ErrDelivery = errors.New("contact message delivery failed")

type ContactUseCase interface {
	Submit(ctx context.Context, input domain.ContactSubmission, sourceAddress string) error
}

type Validator interface {
	Contact(input domain.ContactSubmission) (domain.ValidContact, error)
}

type Notifier interface {
	Send(ctx context.Context, msg domain.EmailMessage) error
}

type MessageRenderer interface {
	ContactAdminNotice(c domain.ValidContact, sourceAddress string) (domain.EmailMessage, error)
	ContactAutoReply(c domain.ValidContact) (domain.EmailMessage, error)
}

// ContactService forwards contact form messages to the operator and sends an
// auto-reply. Nothing is stored.
type ContactService struct {
	validator Validator
	notifier  Notifier
	renderer  MessageRenderer
	logger    logrus.FieldLogger
}

func NewContactService(validator Validator, notifier Notifier, renderer MessageRenderer, logger logrus.FieldLogger) *ContactService {
	return &ContactService{
		validator: validator,
		notifier:  notifier,
		renderer:  renderer,
		logger:    logger,
	}
}

func (s *ContactService) Submit(ctx context.Context, input domain.ContactSubmission, sourceAddress string) error {
	valid, err := s.validator.Contact(input)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return err
		}
		return fmt.Errorf("%w: validate contact: %v", domain.ErrInternal, err)
	}

	notice, err := s.renderer.ContactAdminNotice(valid, sourceAddress)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInternal, err)
	}
	if err := s.notifier.Send(ctx, notice); err != nil {
		s.logger.WithError(err).WithField("kind", notice.Kind).Error("contact notice failed")
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	reply, err := s.renderer.ContactAutoReply(valid)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInternal, err)
	}
	if err := s.notifier.Send(ctx, reply); err != nil {
		s.logger.WithError(err).WithField("kind", reply.Kind).Error("contact auto-reply failed")
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	s.logger.WithFields(logrus.Fields{"subject": valid.Subject}).Info("contact message forwarded")
	return nil
}

var _ ContactUseCase = (*ContactService)(nil)
