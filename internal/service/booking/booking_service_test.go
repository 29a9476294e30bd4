package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/countaustin1990/responsive-travel-website/internal/domain"
	"github.com/countaustin1990/responsive-travel-website/internal/email"
	"github.com/countaustin1990/responsive-travel-website/internal/idgen"
	"github.com/countaustin1990/responsive-travel-website/internal/repository"
	"github.com/countaustin1990/responsive-travel-website/internal/service/pricing"
	"github.com/countaustin1990/responsive-travel-website/internal/validation"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, booking domain.BookingRecord) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (domain.BookingRecord, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.BookingRecord), args.Error(1)
}

func (m *MockBookingRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockIDGenerator struct {
	mock.Mock
}

func (m *MockIDGenerator) NewID() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, msg domain.EmailMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

var testNow = time.Date(2029, 6, 1, 12, 0, 0, 0, time.UTC)

func janeDoe() domain.BookingSubmission {
	return domain.BookingSubmission{
		FullName:    "Jane Doe",
		Email:       "jane@example.com",
		Phone:       "+12025550123",
		Destination: "Bali, Indonesia",
		CheckIn:     "2030-01-10",
		CheckOut:    "2030-01-15",
		Guests:      "2",
		TotalPrice:  "4998",
	}
}

func newTestService(repo repository.BookingRepository, ids idgen.Generator, notifier Notifier, logger logrus.FieldLogger, opts ...BookingServiceOption) *BookingService {
	opts = append([]BookingServiceOption{WithClock(func() time.Time { return testNow })}, opts...)
	return NewBookingService(
		repo,
		ids,
		validation.New(validation.WithClock(func() time.Time { return testNow })),
		pricing.NewCalculator(),
		notifier,
		email.NewRenderer("admin@travel.example"),
		logger,
		opts...,
	)
}

// Successful booking: stored once, two emails sent.
func TestBookingService_Submit_Success(t *testing.T) {
	repo := &MockBookingRepository{}
	ids := &MockIDGenerator{}
	notifier := &MockNotifier{}
	logger, _ := test.NewNullLogger()
	service := newTestService(repo, ids, notifier, logger)

	ctx := context.Background()
	ids.On("NewID").Return("BK1", nil).Once()
	repo.On("Create", ctx, mock.MatchedBy(func(b domain.BookingRecord) bool {
		return b.ID == "BK1" && b.SourceAddress == "203.0.113.7" && b.Status == domain.BookingStatusConfirmed
	})).Return(nil).Once()
	notifier.On("Send", ctx, mock.MatchedBy(func(m domain.EmailMessage) bool {
		return m.Kind == domain.EmailBookingConfirmation && m.To == "jane@example.com"
	})).Return(nil).Once()
	notifier.On("Send", ctx, mock.MatchedBy(func(m domain.EmailMessage) bool {
		return m.Kind == domain.EmailBookingAdmin && m.To == "admin@travel.example"
	})).Return(nil).Once()

	record, err := service.Submit(ctx, janeDoe(), "203.0.113.7")

	require.NoError(t, err)
	assert.Equal(t, "BK1", record.ID)
	assert.Equal(t, 4998.0, record.TotalPrice)
	assert.Equal(t, 2, record.Guests)
	assert.Equal(t, testNow, record.CreatedAt)

	repo.AssertExpectations(t)
	ids.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

// Validation failure: nothing stored, nothing sent.
func TestBookingService_Submit_ValidationError(t *testing.T) {
	repo := &MockBookingRepository{}
	ids := &MockIDGenerator{}
	notifier := &MockNotifier{}
	logger, _ := test.NewNullLogger()
	service := newTestService(repo, ids, notifier, logger)

	input := janeDoe()
	input.CheckOut = input.CheckIn
	input.Guests = "42"

	record, err := service.Submit(context.Background(), input, "203.0.113.7")

	assert.Nil(t, record)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("checkOut"))
	assert.True(t, verr.Has("guests"))

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestBookingService_Submit_PriceTampering(t *testing.T) {
	repo := &MockBookingRepository{}
	ids := &MockIDGenerator{}
	logger, _ := test.NewNullLogger()
	service := newTestService(repo, ids, &MockNotifier{}, logger)

	input := janeDoe()
	input.TotalPrice = "1"

	_, err := service.Submit(context.Background(), input, "203.0.113.7")

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []domain.FieldError{{Field: "totalPrice", Message: "does not match the quoted price of 4998.00"}}, verr.Fields)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBookingService_Submit_UnknownDestination(t *testing.T) {
	repo := &MockBookingRepository{}
	logger, _ := test.NewNullLogger()
	service := newTestService(repo, &MockIDGenerator{}, &MockNotifier{}, logger)

	input := janeDoe()
	input.Destination = "Atlantis"
	input.TotalPrice = "0"

	_, err := service.Submit(context.Background(), input, "203.0.113.7")

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []domain.FieldError{{Field: "destination", Message: "is not an offered destination"}}, verr.Fields)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBookingService_Submit_UnknownDestinationReportsTotalToo(t *testing.T) {
	repo := &MockBookingRepository{}
	logger, _ := test.NewNullLogger()
	service := newTestService(repo, &MockIDGenerator{}, &MockNotifier{}, logger)

	input := janeDoe()
	input.Destination = "Atlantis"

	_, err := service.Submit(context.Background(), input, "203.0.113.7")

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []domain.FieldError{
		{Field: "destination", Message: "is not an offered destination"},
		{Field: "totalPrice", Message: "does not match the quoted price of 0.00"},
	}, verr.Fields)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBookingService_Submit_ZeroToleranceRequiresExactTotal(t *testing.T) {
	repo := &MockBookingRepository{}
	logger, _ := test.NewNullLogger()
	service := newTestService(repo, &MockIDGenerator{}, &MockNotifier{}, logger, WithPriceTolerance(0))

	input := janeDoe()
	input.TotalPrice = "4998.001"

	_, err := service.Submit(context.Background(), input, "203.0.113.7")

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("totalPrice"))
}

func TestBookingService_Submit_ClientPriceTrusted(t *testing.T) {
	repo := repository.NewBookingRepository()
	logger, _ := test.NewNullLogger()
	service := newTestService(repo, idgen.NewBookingIDs("BK", nil), nil, logger, WithClientPrice())

	input := janeDoe()
	input.TotalPrice = "1"

	record, err := service.Submit(context.Background(), input, "203.0.113.7")
	require.NoError(t, err)
	assert.Equal(t, 1.0, record.TotalPrice)
}

func TestBookingService_Submit_PriceWithinToleranceIsNormalized(t *testing.T) {
	repo := repository.NewBookingRepository()
	logger, _ := test.NewNullLogger()
	service := newTestService(repo, idgen.NewBookingIDs("BK", nil), nil, logger, WithPriceTolerance(0.5))

	input := janeDoe()
	input.TotalPrice = "4998.4"

	record, err := service.Submit(context.Background(), input, "203.0.113.7")
	require.NoError(t, err)
	assert.Equal(t, 4998.0, record.TotalPrice)
}

// Notifier down: booking still confirmed, failure only logged.
func TestBookingService_Submit_NotifierFailureIsLogged(t *testing.T) {
	repo := repository.NewBookingRepository()
	notifier := &MockNotifier{}
	logger, hook := test.NewNullLogger()
	service := newTestService(repo, idgen.NewBookingIDs("BK", nil), notifier, logger)

	notifier.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp: connection refused")).Twice()

	record, err := service.Submit(context.Background(), janeDoe(), "203.0.113.7")

	require.NoError(t, err)
	assert.Regexp(t, `^BK\d+[0-9A-Z]{8}$`, record.ID)

	stored, err := repo.GetByID(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, stored.ID)

	var failures int
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.ErrorLevel && entry.Message == "booking notification failed" {
			failures++
			assert.Equal(t, record.ID, entry.Data["booking_id"])
		}
	}
	assert.Equal(t, 2, failures)
	notifier.AssertExpectations(t)
}

func TestBookingService_Submit_AsyncNotifications(t *testing.T) {
	repo := repository.NewBookingRepository()
	notifier := &MockNotifier{}
	logger, _ := test.NewNullLogger()
	service := newTestService(repo, idgen.NewBookingIDs("BK", nil), notifier, logger, WithAsyncNotifications(time.Second))

	release := make(chan struct{})
	notifier.On("Send", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		<-release
		assert.NoError(t, args.Get(0).(context.Context).Err())
	}).Return(nil).Twice()

	ctx, cancel := context.WithCancel(context.Background())
	record, err := service.Submit(ctx, janeDoe(), "203.0.113.7")
	cancel()
	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)

	close(release)
	service.Close()
	notifier.AssertNumberOfCalls(t, "Send", 2)
}

func TestBookingService_Submit_RetriesOnDuplicateID(t *testing.T) {
	repo := &MockBookingRepository{}
	ids := &MockIDGenerator{}
	logger, _ := test.NewNullLogger()
	service := newTestService(repo, ids, nil, logger)

	ctx := context.Background()
	ids.On("NewID").Return("BK1", nil).Once()
	ids.On("NewID").Return("BK2", nil).Once()
	repo.On("Create", ctx, mock.MatchedBy(func(b domain.BookingRecord) bool { return b.ID == "BK1" })).Return(domain.ErrDuplicateID).Once()
	repo.On("Create", ctx, mock.MatchedBy(func(b domain.BookingRecord) bool { return b.ID == "BK2" })).Return(nil).Once()

	record, err := service.Submit(ctx, janeDoe(), "203.0.113.7")

	require.NoError(t, err)
	assert.Equal(t, "BK2", record.ID)
	repo.AssertExpectations(t)
	ids.AssertExpectations(t)
}

func TestBookingService_Submit_GivesUpAfterRepeatedCollisions(t *testing.T) {
	repo := &MockBookingRepository{}
	ids := &MockIDGenerator{}
	logger, _ := test.NewNullLogger()
	service := newTestService(repo, ids, nil, logger)

	ids.On("NewID").Return("BK1", nil).Times(maxIDAttempts)
	repo.On("Create", mock.Anything, mock.Anything).Return(domain.ErrDuplicateID).Times(maxIDAttempts)

	record, err := service.Submit(context.Background(), janeDoe(), "203.0.113.7")

	assert.Nil(t, record)
	assert.ErrorIs(t, err, domain.ErrInternal)
}

func TestBookingService_Submit_StoreFailureIsInternal(t *testing.T) {
	repo := &MockBookingRepository{}
	ids := &MockIDGenerator{}
	notifier := &MockNotifier{}
	logger, _ := test.NewNullLogger()
	service := newTestService(repo, ids, notifier, logger)

	ids.On("NewID").Return("BK1", nil).Once()
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("disk on fire")).Once()

	_, err := service.Submit(context.Background(), janeDoe(), "203.0.113.7")

	assert.ErrorIs(t, err, domain.ErrInternal)
	notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestBookingService_Submit_IDGeneratorFailure(t *testing.T) {
	ids := &MockIDGenerator{}
	logger, _ := test.NewNullLogger()
	service := newTestService(&MockBookingRepository{}, ids, nil, logger)

	ids.On("NewID").Return("", errors.New("entropy exhausted")).Once()

	_, err := service.Submit(context.Background(), janeDoe(), "203.0.113.7")
	assert.ErrorIs(t, err, domain.ErrInternal)
}

func TestBookingService_Submit_ConcurrentIDsAreUnique(t *testing.T) {
	repo := repository.NewBookingRepository()
	logger, _ := test.NewNullLogger()
	service := newTestService(repo, idgen.NewBookingIDs("BK", nil), nil, logger)

	const n = 100
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			record, err := service.Submit(context.Background(), janeDoe(), "203.0.113.7")
			if assert.NoError(t, err) {
				ids[i] = record.ID
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]struct{}, n)
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, n)

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, n, count)
}

func TestBookingService_GetByID(t *testing.T) {
	repo := repository.NewBookingRepository()
	logger, _ := test.NewNullLogger()
	service := newTestService(repo, idgen.NewBookingIDs("BK", nil), nil, logger)

	record, err := service.Submit(context.Background(), janeDoe(), "203.0.113.7")
	require.NoError(t, err)

	view, err := service.GetByID(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.View(), *view)
	assert.Equal(t, "jane@example.com", view.Email)
}

func TestBookingService_GetByID_NotFound(t *testing.T) {
	logger, _ := test.NewNullLogger()
	service := newTestService(repository.NewBookingRepository(), idgen.NewBookingIDs("BK", nil), nil, logger)

	view, err := service.GetByID(context.Background(), "BK-missing")

	assert.Nil(t, view)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBookingService_GetByID_StoreFailure(t *testing.T) {
	repo := &MockBookingRepository{}
	logger, _ := test.NewNullLogger()
	service := newTestService(repo, &MockIDGenerator{}, nil, logger)

	repo.On("GetByID", mock.Anything, "BK1").Return(domain.BookingRecord{}, context.DeadlineExceeded).Once()

	_, err := service.GetByID(context.Background(), "BK1")
	assert.ErrorIs(t, err, domain.ErrInternal)
}

func TestBookingService_Count(t *testing.T) {
	repo := &MockBookingRepository{}
	logger, _ := test.NewNullLogger()
	service := newTestService(repo, &MockIDGenerator{}, nil, logger)

	ctx := context.Background()
	repo.On("Count", ctx).Return(4, nil).Once()
	repo.On("Count", ctx).Return(0, errors.New("store closed")).Once()

	n, err := service.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = service.Count(ctx)
	assert.ErrorIs(t, err, domain.ErrInternal)
	repo.AssertExpectations(t)
}
