package email

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/mrz1836/postmark"
)

// PostmarkConfig holds Postmark credentials and the sender identity.
type PostmarkConfig struct {
	ServerToken   string
	AccountToken  string
	SenderAddress string
	SenderName    string
	MessageStream string
}

// maxPostmarkBatch is the largest batch Postmark accepts in one call.
const maxPostmarkBatch = 500

// PostmarkSender implements BatchSender with Postmark's batch endpoint, which reports
// a result per message.
type PostmarkSender struct {
	client *postmark.Client
	config PostmarkConfig
}

// NewPostmarkSender creates a Postmark-backed sender.
func NewPostmarkSender(cfg PostmarkConfig) (*PostmarkSender, error) {
	if cfg.ServerToken == "" {
		return nil, fmt.Errorf("%w: postmark server token is required", ErrInvalidConfig)
	}
	return NewPostmarkSenderWithClient(postmark.NewClient(cfg.ServerToken, cfg.AccountToken), cfg)
}

// NewPostmarkSenderWithClient wraps an existing Postmark client.
func NewPostmarkSenderWithClient(client *postmark.Client, cfg PostmarkConfig) (*PostmarkSender, error) {
	if cfg.SenderAddress == "" {
		return nil, fmt.Errorf("%w: sender address is required", ErrInvalidConfig)
	}
	if _, err := mail.ParseAddress(cfg.SenderAddress); err != nil {
		return nil, fmt.Errorf("%w: sender address must be a valid email address", ErrInvalidConfig)
	}
	return &PostmarkSender{client: client, config: cfg}, nil
}

// SendBatch submits the messages in chunks of at most maxPostmarkBatch. A transport
// failure on the first chunk fails the whole batch. Once a chunk has been accepted,
// a later failure is reported per message for that chunk and every chunk after it,
// so accepted deliveries are never discarded.
func (p *PostmarkSender) SendBatch(ctx context.Context, msgs []Message) ([]Result, error) {
	results := make([]Result, 0, len(msgs))
	for start := 0; start < len(msgs); start += maxPostmarkBatch {
		end := min(start+maxPostmarkBatch, len(msgs))
		chunk := msgs[start:end]

		emails := make([]postmark.Email, len(chunk))
		for i, msg := range chunk {
			emails[i] = p.toEmail(msg)
		}

		resps, err := p.client.SendEmailBatch(ctx, emails)
		if err != nil {
			if start == 0 {
				return nil, errors.Join(ErrFailedToSendEmail, err)
			}
			err = fmt.Errorf("%w: chunk starting at message %d: %w", ErrFailedToSendEmail, start, err)
			for _, msg := range msgs[start:] {
				results = append(results, Result{To: msg.To, Err: err})
			}
			return results, nil
		}

		for i, msg := range chunk {
			if i >= len(resps) {
				results = append(results, Result{To: msg.To, Err: fmt.Errorf("postmark: no result for %s", msg.To)})
				continue
			}
			resp := resps[i]
			result := Result{To: msg.To, MessageID: resp.MessageID}
			if resp.ErrorCode > 0 {
				result.Err = fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message)
			}
			results = append(results, result)
		}
	}
	return results, nil
}

func (p *PostmarkSender) toEmail(msg Message) postmark.Email {
	from := msg.From
	if from == "" {
		from = p.config.SenderAddress
		if p.config.SenderName != "" {
			from = (&mail.Address{Name: p.config.SenderName, Address: p.config.SenderAddress}).String()
		}
	}
	return postmark.Email{
		From:          from,
		To:            msg.To,
		Subject:       msg.Subject,
		HTMLBody:      msg.HTMLBody,
		TextBody:      msg.TextBody,
		TrackOpens:    true,
		TrackLinks:    "HtmlOnly",
		MessageStream: p.config.MessageStream,
	}
}
