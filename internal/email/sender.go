package email

import (
	"context"
	"errors"
)

var (
	ErrFailedToSendEmail = errors.New("failed to send email")
	ErrInvalidConfig     = errors.New("invalid email configuration")
)

// BatchSender is the interface that all email providers must implement.
// SendBatch returns an error only when the batch as a whole could not be submitted;
// per-message failures are reported through the results, one per input message in order.
type BatchSender interface {
	SendBatch(ctx context.Context, msgs []Message) ([]Result, error)
}

// Message represents an email message to be sent.
type Message struct {
	From     string // sender, "Name <address>" or bare address; providers fill a default
	To       string // recipient email address
	Subject  string // email subject
	HTMLBody string // HTML email body
	TextBody string // plain-text fallback body
}

// Result is the provider's verdict for one message.
type Result struct {
	To        string
	MessageID string
	Err       error
}

// OK reports whether the provider accepted the message.
func (r Result) OK() bool {
	return r.Err == nil
}
