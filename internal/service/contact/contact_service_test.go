package contact

import (
	"context"
	"errors"
	"testing"

	"github.com/countaustin1990/responsive-travel-website/internal/domain"
	"github.com/countaustin1990/responsive-travel-website/internal/email"
	"github.com/countaustin1990/responsive-travel-website/internal/validation"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, msg domain.EmailMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func newTestService(notifier Notifier) *ContactService {
	logger, _ := test.NewNullLogger()
	return NewContactService(validation.New(), notifier, email.NewRenderer("admin@travel.example"), logger)
}

func sampleContact() domain.ContactSubmission {
	return domain.ContactSubmission{
		Name:    "Jane Doe",
		Email:   "Jane@Example.com",
		Subject: "Group discount",
		Message: "Do you offer discounts for groups of eight?",
	}
}

func isKind(kind domain.EmailKind) any {
	return mock.MatchedBy(func(m domain.EmailMessage) bool { return m.Kind == kind })
}

func TestContactService_Submit_Success(t *testing.T) {
	notifier := &MockNotifier{}
	service := newTestService(notifier)

	ctx := context.Background()
	notifier.On("Send", ctx, isKind(domain.EmailContactAdmin)).Return(nil).Once()
	notifier.On("Send", ctx, mock.MatchedBy(func(m domain.EmailMessage) bool {
		return m.Kind == domain.EmailContactAutoReply && m.To == "jane@example.com"
	})).Return(nil).Once()

	err := service.Submit(ctx, sampleContact(), "198.51.100.4")

	require.NoError(t, err)
	notifier.AssertExpectations(t)
}

func TestContactService_Submit_ShortMessage(t *testing.T) {
	notifier := &MockNotifier{}
	service := newTestService(notifier)

	in := sampleContact()
	in.Message = "Hi!!!"

	err := service.Submit(context.Background(), in, "198.51.100.4")

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("message"))
	notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestContactService_Submit_OperatorDeliveryFails(t *testing.T) {
	notifier := &MockNotifier{}
	service := newTestService(notifier)

	notifier.On("Send", mock.Anything, isKind(domain.EmailContactAdmin)).Return(errors.New("timeout")).Once()

	err := service.Submit(context.Background(), sampleContact(), "198.51.100.4")

	assert.ErrorIs(t, err, ErrDelivery)
	notifier.AssertNotCalled(t, "Send", mock.Anything, isKind(domain.EmailContactAutoReply))
}

func TestContactService_Submit_AutoReplyFails(t *testing.T) {
	notifier := &MockNotifier{}
	service := newTestService(notifier)

	notifier.On("Send", mock.Anything, isKind(domain.EmailContactAdmin)).Return(nil).Once()
	notifier.On("Send", mock.Anything, isKind(domain.EmailContactAutoReply)).Return(errors.New("mailbox full")).Once()

	err := service.Submit(context.Background(), sampleContact(), "198.51.100.4")

	assert.ErrorIs(t, err, ErrDelivery)
	notifier.AssertExpectations(t)
}
