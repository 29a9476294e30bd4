package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/countaustin1990/responsive-travel-website/internal/domain"
)

const displayDate = "Jan 2, 2006"

var templates = template.Must(template.New("email").Funcs(template.FuncMap{
	"date":  func(t time.Time) string { return t.Format(displayDate) },
	"stamp": func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
	"money": func(v float64) string { return fmt.Sprintf("$%.2f", v) },
	"lines": func(s string) []string { return strings.Split(s, "\n") },
}).Parse(`
{{define "booking_confirmation"}}
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1>Your trip is booked</h1>
  <p>Hi {{.FullName}}, thank you for booking with us. Keep this reference for any questions.</p>
  <table cellpadding="4">
    <tr><td><strong>Booking ID</strong></td><td>{{.ID}}</td></tr>
    <tr><td><strong>Destination</strong></td><td>{{.Destination}}</td></tr>
    <tr><td><strong>Check-in</strong></td><td>{{date .CheckIn}}</td></tr>
    <tr><td><strong>Check-out</strong></td><td>{{date .CheckOut}}</td></tr>
    <tr><td><strong>Guests</strong></td><td>{{.Guests}}</td></tr>
    <tr><td><strong>Total</strong></td><td>{{money .TotalPrice}}</td></tr>
    <tr><td><strong>Phone</strong></td><td>{{.Phone}}</td></tr>
  </table>
  <p>We will never ask for your password by email. Always check booking details on our website.</p>
  <p style="font-size: 12px; color: #666;">This is an automated message. Please do not reply.</p>
</div>
{{end}}

{{define "booking_admin"}}
<h2>New travel booking</h2>
<p><strong>Booking ID:</strong> {{.ID}}</p>
<p><strong>Customer:</strong> {{.FullName}} ({{.Email}}, {{.Phone}})</p>
<p><strong>Destination:</strong> {{.Destination}}, {{date .CheckIn}} to {{date .CheckOut}}, {{.Guests}} guest(s)</p>
<p><strong>Total:</strong> {{money .TotalPrice}}</p>
<p><strong>Source address:</strong> {{.SourceAddress}}</p>
<p><strong>Received:</strong> {{stamp .CreatedAt}}</p>
{{end}}

{{define "contact_admin"}}
<h2>New contact form submission</h2>
<p><strong>Name:</strong> {{.Contact.Name}}</p>
<p><strong>Email:</strong> {{.Contact.Email}}</p>
<p><strong>Subject:</strong> {{.Contact.Subject}}</p>
<p><strong>Message:</strong></p>
<p>{{range $i, $line := lines .Contact.Message}}{{if $i}}<br>{{end}}{{$line}}{{end}}</p>
<p><strong>Source address:</strong> {{.SourceAddress}}</p>
<p><strong>Received:</strong> {{stamp .ReceivedAt}}</p>
{{end}}

{{define "contact_auto_reply"}}
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Thank you for your message</h2>
  <p>Dear {{.Name}},</p>
  <p>We received your message about "{{.Subject}}" and will get back to you within 24 hours.</p>
  <p>We only write from our official addresses. Be careful with emails asking for payment details.</p>
  <p>Best regards,<br>Travel Support Team</p>
</div>
{{end}}
`))

// Renderer turns bookings and contact messages into ready-to-send emails.
// html/template escapes every user-supplied value.
type Renderer struct {
	adminEmail string
	now        func() time.Time
}

func NewRenderer(adminEmail string) *Renderer {
	return &Renderer{adminEmail: adminEmail, now: time.Now}
}

func (r *Renderer) BookingConfirmation(b domain.BookingRecord) (domain.EmailMessage, error) {
	return r.render(domain.EmailBookingConfirmation, b.ID, b.Email,
		"Travel Booking Confirmation - "+b.ID, b)
}

func (r *Renderer) BookingAdminNotice(b domain.BookingRecord) (domain.EmailMessage, error) {
	return r.render(domain.EmailBookingAdmin, b.ID, r.adminEmail,
		"New Booking Received - "+b.ID, b)
}

func (r *Renderer) ContactAdminNotice(c domain.ValidContact, sourceAddress string) (domain.EmailMessage, error) {
	data := struct {
		Contact       domain.ValidContact
		SourceAddress string
		ReceivedAt    time.Time
	}{c, sourceAddress, r.now()}
	return r.render(domain.EmailContactAdmin, c.Email, r.adminEmail,
		"Contact Form: "+c.Subject, data)
}

func (r *Renderer) ContactAutoReply(c domain.ValidContact) (domain.EmailMessage, error) {
	return r.render(domain.EmailContactAutoReply, c.Email, c.Email,
		"Thank you for contacting us", c)
}

func (r *Renderer) render(kind domain.EmailKind, reference, to, subject string, data any) (domain.EmailMessage, error) {
	if to == "" {
		return domain.EmailMessage{}, fmt.Errorf("render %s: no recipient", kind)
	}
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, string(kind), data); err != nil {
		return domain.EmailMessage{}, fmt.Errorf("render %s: %w", kind, err)
	}
	return domain.EmailMessage{
		Kind:      kind,
		Reference: reference,
		To:        to,
		Subject:   subject,
		HTML:      strings.TrimSpace(buf.String()),
	}, nil
}
