// Package validation turns untrusted booking and contact forms into
// normalized domain values, reporting every failing field at once.
package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/countaustin1990/responsive-travel-website/internal/domain"
	"github.com/go-playground/validator/v10"
)

const (
	MinGuests = 1
	MaxGuests = 10

	dateLayout = "2006-01-02"
)

var (
	phonePattern  = regexp.MustCompile(`^\+?[1-9][0-9]{6,14}$`)
	phoneStripper = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
)

var fieldMessages = map[string]string{
	"email":       "must be a valid email address",
	"fullName":    "must be between 2 and 50 characters",
	"name":        "must be between 2 and 50 characters",
	"phone":       "must be a valid phone number",
	"destination": "must be between 2 and 100 characters",
	"checkIn":     "must be a valid date (YYYY-MM-DD)",
	"checkOut":    "must be a valid date (YYYY-MM-DD)",
	"subject":     "must be between 5 and 100 characters",
	"message":     "must be between 10 and 1000 characters",
}

type bookingFields struct {
	FullName    string `json:"fullName" validate:"required,min=2,max=50"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"required,phone"`
	Destination string `json:"destination" validate:"required,min=2,max=100"`
	CheckIn     string `json:"checkIn" validate:"required,isodate"`
	CheckOut    string `json:"checkOut" validate:"required,isodate"`
}

type contactFields struct {
	Name    string `json:"name" validate:"required,min=2,max=50"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required,min=5,max=100"`
	Message string `json:"message" validate:"required,min=10,max=1000"`
}

type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

type Option func(*Validator)

// WithClock replaces the clock used for the "check-in not in the past" rule.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		v.now = now
	}
}

func New(opts ...Option) *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails on an empty tag or nil func.
	_ = validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return IsPhone(fl.Field().String())
	})
	_ = validate.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := ParseDate(fl.Field().String())
		return err == nil
	})

	v := &Validator{validate: validate, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Booking validates a booking form. On failure the returned error is a
// *domain.ValidationError listing every failing field.
func (v *Validator) Booking(in domain.BookingSubmission) (domain.ValidBooking, error) {
	fields := bookingFields{
		FullName:    strings.TrimSpace(in.FullName),
		Email:       NormalizeEmail(in.Email),
		Phone:       strings.TrimSpace(in.Phone),
		Destination: strings.TrimSpace(in.Destination),
		CheckIn:     strings.TrimSpace(in.CheckIn),
		CheckOut:    strings.TrimSpace(in.CheckOut),
	}

	errs := &domain.ValidationError{}
	if err := v.collect(fields, errs); err != nil {
		return domain.ValidBooking{}, err
	}

	out := domain.ValidBooking{
		Email:       fields.Email,
		FullName:    fields.FullName,
		Phone:       fields.Phone,
		Destination: fields.Destination,
	}

	checkIn, inErr := ParseDate(fields.CheckIn)
	checkOut, outErr := ParseDate(fields.CheckOut)
	if inErr == nil {
		if dayOf(checkIn).Before(dayOf(v.now())) {
			errs.Add("checkIn", "must not be in the past")
		}
		out.CheckIn = checkIn
	}
	if outErr == nil {
		out.CheckOut = checkOut
	}
	if inErr == nil && outErr == nil && !checkOut.After(checkIn) {
		errs.Add("checkOut", "must be after check-in date")
	}

	guests, msg := parseGuests(in.Guests.String())
	if msg != "" {
		errs.Add("guests", msg)
	}
	out.Guests = guests

	total, msg := parseTotal(in.TotalPrice.String())
	if msg != "" {
		errs.Add("totalPrice", msg)
	}
	out.TotalPrice = total

	if err := errs.Err(); err != nil {
		return domain.ValidBooking{}, err
	}
	return out, nil
}

// Contact validates a contact form.
func (v *Validator) Contact(in domain.ContactSubmission) (domain.ValidContact, error) {
	fields := contactFields{
		Name:    strings.TrimSpace(in.Name),
		Email:   NormalizeEmail(in.Email),
		Subject: strings.TrimSpace(in.Subject),
		Message: strings.TrimSpace(in.Message),
	}

	errs := &domain.ValidationError{}
	if err := v.collect(fields, errs); err != nil {
		return domain.ValidContact{}, err
	}
	if err := errs.Err(); err != nil {
		return domain.ValidContact{}, err
	}

	return domain.ValidContact{
		Name:    fields.Name,
		Email:   fields.Email,
		Subject: fields.Subject,
		Message: fields.Message,
	}, nil
}

func (v *Validator) collect(fields any, errs *domain.ValidationError) error {
	err := v.validate.Struct(fields)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: validate: %v", domain.ErrInternal, err)
	}
	for _, fe := range fieldErrs {
		errs.Add(fe.Field(), messageFor(fe))
	}
	return nil
}

func messageFor(fe validator.FieldError) string {
	if fe.Tag() == "required" {
		return "is required"
	}
	if msg, ok := fieldMessages[fe.Field()]; ok {
		return msg
	}
	return "is invalid"
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsPhone accepts international numbers with optional "+" and common
// separators (spaces, dashes, dots, parentheses).
func IsPhone(raw string) bool {
	return phonePattern.MatchString(phoneStripper.Replace(strings.TrimSpace(raw)))
}

// ParseDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp.
func ParseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", raw)
	}
	return t, nil
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func parseGuests(raw string) (int, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, "is required"
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < MinGuests || n > MaxGuests {
		return 0, fmt.Sprintf("must be a whole number between %d and %d", MinGuests, MaxGuests)
	}
	return n, ""
}

func parseTotal(raw string) (float64, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, "is required"
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, "must be a non-negative number"
	}
	return f, ""
}
