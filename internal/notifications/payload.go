package notifications

// MessageType selects the subscription email variant.
type MessageType string

// Message types.
const (
	MessageTypeReminder MessageType = "reminder"
	MessageTypeExpired  MessageType = "expired"
)

// IsValid checks if the message type is known.
func (t MessageType) IsValid() bool {
	return t == MessageTypeReminder || t == MessageTypeExpired
}

// EmailData is the data available to subscription email templates.
type EmailData struct {
	FirstName  string
	ExpiryDate string
	RenewalURL string
	ShopName   string
}

// layoutData is the data of the mailer layout wrapping every email.
type layoutData struct {
	Heading  string
	Content  any
	ShopName string
}
