package domain

import "time"

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
)

// BookingRecord is a confirmed trip reservation. Records are created once by
// the booking service and never mutated afterwards.
type BookingRecord struct {
	ID            string
	Email         string
	FullName      string
	Phone         string
	Destination   string
	CheckIn       time.Time
	CheckOut      time.Time
	Guests        int
	TotalPrice    float64
	Status        BookingStatus
	CreatedAt     time.Time
	SourceAddress string
}

// BookingView is the projection of a BookingRecord that may leave the
// service. It carries no audit fields.
type BookingView struct {
	ID          string
	Email       string
	FullName    string
	Phone       string
	Destination string
	CheckIn     time.Time
	CheckOut    time.Time
	Guests      int
	TotalPrice  float64
	Status      BookingStatus
	CreatedAt   time.Time
}

func (b BookingRecord) View() BookingView {
	return BookingView{
		ID:          b.ID,
		Email:       b.Email,
		FullName:    b.FullName,
		Phone:       b.Phone,
		Destination: b.Destination,
		CheckIn:     b.CheckIn,
		CheckOut:    b.CheckOut,
		Guests:      b.Guests,
		TotalPrice:  b.TotalPrice,
		Status:      b.Status,
		CreatedAt:   b.CreatedAt,
	}
}

// ValidBooking is a booking submission that passed validation. Only values of
// this type are turned into records.
type ValidBooking struct {
	Email       string
	FullName    string
	Phone       string
	Destination string
	CheckIn     time.Time
	CheckOut    time.Time
	Guests      int
	TotalPrice  float64
}

func NewBookingRecord(id string, in ValidBooking, sourceAddress string, createdAt time.Time) BookingRecord {
	return BookingRecord{
		ID:            id,
		Email:         in.Email,
		FullName:      in.FullName,
		Phone:         in.Phone,
		Destination:   in.Destination,
		CheckIn:       in.CheckIn,
		CheckOut:      in.CheckOut,
		Guests:        in.Guests,
		TotalPrice:    in.TotalPrice,
		Status:        BookingStatusConfirmed,
		CreatedAt:     createdAt,
		SourceAddress: sourceAddress,
	}
}
