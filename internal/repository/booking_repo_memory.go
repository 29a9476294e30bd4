package repository

import (
	"context"
	"sync"

	"github.com/countaustin1990/responsive-travel-website/internal/domain"
)

type BookingRepository interface {
	Create(ctx context.Context, booking domain.BookingRecord) error
	GetByID(ctx context.Context, id string) (domain.BookingRecord, error)
	Count(ctx context.Context) (int, error)
}

// MemoryBookingRepository keeps bookings in process memory. Records are
// stored and returned by value, so callers never share state with the store.
type MemoryBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]domain.BookingRecord
}

func NewBookingRepository() *MemoryBookingRepository {
	return &MemoryBookingRepository{bookings: make(map[string]domain.BookingRecord)}
}

func (r *MemoryBookingRepository) Create(ctx context.Context, booking domain.BookingRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bookings[booking.ID]; exists {
		return domain.ErrDuplicateID
	}
	r.bookings[booking.ID] = booking
	return nil
}

func (r *MemoryBookingRepository) GetByID(ctx context.Context, id string) (domain.BookingRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.BookingRecord{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bookings[id]
	if !ok {
		return domain.BookingRecord{}, domain.ErrNotFound
	}
	return b, nil
}

func (r *MemoryBookingRepository) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bookings), nil
}

var _ BookingRepository = (*MemoryBookingRepository)(nil)
