package booking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/countaustin1990/responsive-travel-website/internal/domain"
	"github.com/countaustin1990/responsive-travel-website/internal/idgen"
	"github.com/countaustin1990/responsive-travel-website/internal/repository"
	"github.com/sirupsen/logrus"
)

const (
	maxIDAttempts         = 3
	defaultPriceTolerance = 0.01
	defaultNotifyTimeout  = 30 * time.Second
)

type BookingUseCase interface {
	Submit(ctx context.Context, input domain.BookingSubmission, sourceAddress string) (*domain.BookingRecord, error)
	GetByID(ctx context.Context, id string) (*domain.BookingView, error)
}

type Validator interface {
	Booking(input domain.BookingSubmission) (domain.ValidBooking, error)
}

type PriceTable interface {
	BasePrice(destination string) (float64, bool)
}

type Notifier interface {
	Send(ctx context.Context, msg domain.EmailMessage) error
}

type MessageRenderer interface {
	BookingConfirmation(b domain.BookingRecord) (domain.EmailMessage, error)
	BookingAdminNotice(b domain.BookingRecord) (domain.EmailMessage, error)
}

type BookingService struct {
	bookings  repository.BookingRepository
	ids       idgen.Generator
	validator Validator
	prices    PriceTable
	notifier  Notifier
	renderer  MessageRenderer
	logger    logrus.FieldLogger
	now       func() time.Time

	enforcePrice   bool
	priceTolerance float64
	asyncNotify    bool
	notifyTimeout  time.Duration
	inflight       sync.WaitGroup
}

type BookingServiceOption func(*BookingService)

// WithClientPrice stores the client-submitted total without comparing it to
// the price table.
func WithClientPrice() BookingServiceOption {
	return func(s *BookingService) {
		s.enforcePrice = false
	}
}

func WithPriceTolerance(tolerance float64) BookingServiceOption {
	return func(s *BookingService) {
		if tolerance >= 0 {
			s.priceTolerance = tolerance
		}
	}
}

// WithAsyncNotifications sends emails in the background so that the booking
// response does not wait for delivery. Each batch gets its own timeout.
func WithAsyncNotifications(timeout time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.asyncNotify = true
		if timeout > 0 {
			s.notifyTimeout = timeout
		}
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	ids idgen.Generator,
	validator Validator,
	prices PriceTable,
	notifier Notifier,
	renderer MessageRenderer,
	logger logrus.FieldLogger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:       bookings,
		ids:            ids,
		validator:      validator,
		prices:         prices,
		notifier:       notifier,
		renderer:       renderer,
		logger:         logger,
		now:            time.Now,
		enforcePrice:   true,
		priceTolerance: defaultPriceTolerance,
		notifyTimeout:  defaultNotifyTimeout,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Submit validates, prices, stores and announces a booking. The booking is
// confirmed once stored; notification failures are only logged.
func (s *BookingService) Submit(ctx context.Context, input domain.BookingSubmission, sourceAddress string) (*domain.BookingRecord, error) {
	valid, err := s.validator.Booking(input)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return nil, err
		}
		return nil, s.internal("validate booking", err)
	}

	if err := s.checkPrice(&valid); err != nil {
		return nil, err
	}

	record, err := s.persist(ctx, valid, sourceAddress)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":  record.ID,
		"destination": record.Destination,
		"guests":      record.Guests,
		"total_price": record.TotalPrice,
	}).Info("booking confirmed")

	s.announce(ctx, record)
	return &record, nil
}

func (s *BookingService) GetByID(ctx context.Context, id string) (*domain.BookingView, error) {
	record, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, s.internal("get booking", err)
	}
	view := record.View()
	return &view, nil
}

// Count reports how many bookings are stored.
func (s *BookingService) Count(ctx context.Context) (int, error) {
	n, err := s.bookings.Count(ctx)
	if err != nil {
		return 0, s.internal("count bookings", err)
	}
	return n, nil
}

// Close waits for background notifications to finish.
func (s *BookingService) Close() {
	s.inflight.Wait()
}

func (s *BookingService) checkPrice(valid *domain.ValidBooking) error {
	if !s.enforcePrice {
		return nil
	}

	// Unknown destinations price at 0, so a non-zero total is reported
	// alongside the destination error.
	errs := &domain.ValidationError{}
	base, ok := s.prices.BasePrice(valid.Destination)
	if !ok {
		errs.Add("destination", "is not an offered destination")
	}

	expected := base * float64(valid.Guests)
	if math.Abs(expected-valid.TotalPrice) > s.priceTolerance {
		errs.Add("totalPrice", fmt.Sprintf("does not match the quoted price of %.2f", expected))
	}
	if err := errs.Err(); err != nil {
		return err
	}
	valid.TotalPrice = expected
	return nil
}

func (s *BookingService) persist(ctx context.Context, valid domain.ValidBooking, sourceAddress string) (domain.BookingRecord, error) {
	for attempt := 1; attempt <= maxIDAttempts; attempt++ {
		id, err := s.ids.NewID()
		if err != nil {
			return domain.BookingRecord{}, s.internal("generate booking id", err)
		}

		record := domain.NewBookingRecord(id, valid, sourceAddress, s.now())
		err = s.bookings.Create(ctx, record)
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, domain.ErrDuplicateID) {
			return domain.BookingRecord{}, s.internal("store booking", err)
		}
		s.logger.WithFields(logrus.Fields{"booking_id": id, "attempt": attempt}).Warn("booking id collision, regenerating")
	}
	return domain.BookingRecord{}, s.internal("store booking", errors.New("no unique booking id after retries"))
}

func (s *BookingService) announce(ctx context.Context, record domain.BookingRecord) {
	if s.notifier == nil || s.renderer == nil {
		return
	}

	var messages []domain.EmailMessage
	if msg, err := s.renderer.BookingConfirmation(record); err != nil {
		s.logger.WithError(err).WithField("booking_id", record.ID).Error("render booking confirmation")
	} else {
		messages = append(messages, msg)
	}
	if msg, err := s.renderer.BookingAdminNotice(record); err != nil {
		s.logger.WithError(err).WithField("booking_id", record.ID).Error("render admin notice")
	} else {
		messages = append(messages, msg)
	}

	if !s.asyncNotify {
		s.deliver(ctx, messages)
		return
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
		defer cancel()
		s.deliver(bgCtx, messages)
	}()
}

func (s *BookingService) deliver(ctx context.Context, messages []domain.EmailMessage) {
	for _, msg := range messages {
		fields := logrus.Fields{"booking_id": msg.Reference, "kind": msg.Kind}
		if err := s.notifier.Send(ctx, msg); err != nil {
			s.logger.WithError(err).WithFields(fields).Error("booking notification failed")
			continue
		}
		s.logger.WithFields(fields).Debug("booking notification sent")
	}
}

func (s *BookingService) internal(op string, err error) error {
	s.logger.WithError(err).WithField("op", op).Error("booking service failure")
	return fmt.Errorf("%w: %s: %v", domain.ErrInternal, op, err)
}

var _ BookingUseCase = (*BookingService)(nil)
