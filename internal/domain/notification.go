package domain

type EmailKind string

const (
	EmailBookingConfirmation EmailKind = "booking_confirmation"
	EmailBookingAdmin        EmailKind = "booking_admin"
	EmailContactAdmin        EmailKind = "contact_admin"
	EmailContactAutoReply    EmailKind = "contact_auto_reply"
)

// EmailMessage is a fully rendered email handed to a notifier. It is also the
// payload of the notifications topic.
type EmailMessage struct {
	Kind      EmailKind `json:"kind"`
	Reference string    `json:"reference"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	HTML      string    `json:"html"`
}
