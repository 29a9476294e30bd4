package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/countaustin1990/responsive-travel-website/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBooking(id string) domain.BookingRecord {
	return domain.BookingRecord{
		ID:            id,
		Email:         "jane@example.com",
		FullName:      "Jane Doe",
		Destination:   "Bali, Indonesia",
		Guests:        2,
		TotalPrice:    4998,
		Status:        domain.BookingStatusConfirmed,
		CreatedAt:     time.Now(),
		SourceAddress: "203.0.113.7",
	}
}

func TestNewBookingRepository(t *testing.T) {
	repo := NewBookingRepository()
	assert.NotNil(t, repo)

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryBookingRepository_CreateAndGet(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, sampleBooking("BK1")))

	got, err := repo.GetByID(ctx, "BK1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.FullName)
	assert.Equal(t, "203.0.113.7", got.SourceAddress)
}

func TestMemoryBookingRepository_GetUnknown(t *testing.T) {
	repo := NewBookingRepository()

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryBookingRepository_DuplicateIDKeepsOriginal(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, sampleBooking("BK1")))

	other := sampleBooking("BK1")
	other.FullName = "Someone Else"
	assert.ErrorIs(t, repo.Create(ctx, other), domain.ErrDuplicateID)

	got, err := repo.GetByID(ctx, "BK1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.FullName)
}

func TestMemoryBookingRepository_ReturnedRecordIsACopy(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, sampleBooking("BK1")))

	got, err := repo.GetByID(ctx, "BK1")
	require.NoError(t, err)
	got.TotalPrice = 0

	again, err := repo.GetByID(ctx, "BK1")
	require.NoError(t, err)
	assert.Equal(t, 4998.0, again.TotalPrice)
}

func TestMemoryBookingRepository_ConcurrentCreate(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()

	const n = 200
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, repo.Create(ctx, sampleBooking(fmt.Sprintf("BK%d", i))))
			_, _ = repo.GetByID(ctx, fmt.Sprintf("BK%d", n-i))
		}(i)
	}
	wg.Wait()

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, count)
}

func TestMemoryBookingRepository_CanceledContext(t *testing.T) {
	repo := NewBookingRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, repo.Create(ctx, sampleBooking("BK1")), context.Canceled)
}
