package domain

import (
	"bytes"
	"encoding/json"
	"errors"
)

// FlexString holds a form value that browsers may send either as a JSON
// string or as a JSON number. The raw text is kept for the validator.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("value must be a string or a number")
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

// BookingSubmission is the untrusted booking form as received from a client.
type BookingSubmission struct {
	FullName    string     `json:"fullName"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	Destination string     `json:"destination"`
	CheckIn     string     `json:"checkIn"`
	CheckOut    string     `json:"checkOut"`
	Guests      FlexString `json:"guests"`
	TotalPrice  FlexString `json:"totalPrice"`
}

// ContactSubmission is the untrusted contact form as received from a client.
type ContactSubmission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// ValidContact is a contact message that passed validation.
type ValidContact struct {
	Name    string
	Email   string
	Subject string
	Message string
}
