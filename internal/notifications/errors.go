package notifications

import "errors"

var (
	// ErrUnknownMessageType is returned for a message type without a template.
	ErrUnknownMessageType = errors.New("unknown message type")

	// ErrSenderDisabled is returned by a sender that is switched off and
	// dropped the message.
	ErrSenderDisabled = errors.New("sender disabled")
)
