package notifications

import "context"

// Message is a rendered email ready to be sent.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Sender delivers rendered emails.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
