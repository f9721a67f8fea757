package email

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailConfig holds the configuration for the Gmail email sender.
type GmailConfig struct {
	// CredentialsJSON is the service account credentials JSON with domain-wide delegation.
	CredentialsJSON string
	// SenderAddress is the email address emails are sent from.
	SenderAddress string
	// SenderName is the display name for the sender.
	SenderName string
}

// GmailSender implements BatchSender using the Gmail API. Gmail has no batch endpoint,
// so messages are sent one after another.
type GmailSender struct {
	service       *gmail.Service
	senderAddress string
	senderName    string
}

// NewGmailSender creates a new GmailSender impersonating the sender mailbox
// through a service account with domain-wide delegation.
func NewGmailSender(ctx context.Context, cfg GmailConfig) (*GmailSender, error) {
	if cfg.CredentialsJSON == "" {
		return nil, fmt.Errorf("%w: gmail credentials JSON is required", ErrInvalidConfig)
	}
	if cfg.SenderAddress == "" {
		return nil, fmt.Errorf("%w: gmail sender address is required", ErrInvalidConfig)
	}

	jwtConfig, err := google.JWTConfigFromJSON([]byte(cfg.CredentialsJSON), gmail.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("gmail: failed to parse credentials: %w", err)
	}
	jwtConfig.Subject = cfg.SenderAddress

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("gmail: failed to create service: %w", err)
	}

	return &GmailSender{
		service:       svc,
		senderAddress: cfg.SenderAddress,
		senderName:    cfg.SenderName,
	}, nil
}

// NewGmailSenderWithToken creates a GmailSender using OAuth2 client credentials + refresh token.
// This is useful for personal Gmail accounts without domain-wide delegation.
func NewGmailSenderWithToken(ctx context.Context, clientID, clientSecret, refreshToken, senderAddress, senderName string) (*GmailSender, error) {
	if senderAddress == "" {
		return nil, fmt.Errorf("%w: gmail sender address is required", ErrInvalidConfig)
	}

	oauthCfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailSendScope},
	}
	client := oauthCfg.Client(ctx, &oauth2.Token{RefreshToken: refreshToken})

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("gmail: failed to create service: %w", err)
	}

	return NewGmailSenderWithService(svc, senderAddress, senderName), nil
}

// NewGmailSenderWithService wraps an already constructed Gmail service.
func NewGmailSenderWithService(svc *gmail.Service, senderAddress, senderName string) *GmailSender {
	return &GmailSender{
		service:       svc,
		senderAddress: senderAddress,
		senderName:    senderName,
	}
}

// SendBatch sends every message and reports each result. The batch fails as a whole
// only when no message could be sent.
func (g *GmailSender) SendBatch(ctx context.Context, msgs []Message) ([]Result, error) {
	results := make([]Result, len(msgs))
	var errs []error
	for i, msg := range msgs {
		id, err := g.send(ctx, msg)
		results[i] = Result{To: msg.To, MessageID: id, Err: err}
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(msgs) > 0 && len(errs) == len(msgs) {
		return results, errors.Join(ErrFailedToSendEmail, errors.Join(errs...))
	}
	return results, nil
}

func (g *GmailSender) send(ctx context.Context, msg Message) (string, error) {
	from := msg.From
	if from == "" {
		from = g.senderAddress
		if g.senderName != "" {
			from = fmt.Sprintf("%s <%s>", g.senderName, g.senderAddress)
		}
	}

	gmailMsg := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString([]byte(buildMIME(from, msg))),
	}

	sent, err := g.service.Users.Messages.Send("me", gmailMsg).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("gmail: failed to send email to %s: %w", msg.To, err)
	}
	return sent.Id, nil
}

// buildMIME renders msg as an RFC 5322 message.
func buildMIME(from string, msg Message) string {
	headers := []string{
		"From: " + from,
		"To: " + msg.To,
		"Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject),
		"MIME-Version: 1.0",
	}

	switch {
	case msg.HTMLBody != "" && msg.TextBody != "":
		boundary := "boundary_clientmailer_email"
		return strings.Join(append(headers,
			"Content-Type: multipart/alternative; boundary="+boundary,
			"",
			"--"+boundary,
			"Content-Type: text/plain; charset=UTF-8",
			"Content-Transfer-Encoding: 7bit",
			"",
			msg.TextBody,
			"",
			"--"+boundary,
			"Content-Type: text/html; charset=UTF-8",
			"Content-Transfer-Encoding: 7bit",
			"",
			msg.HTMLBody,
			"",
			"--"+boundary+"--",
		), "\r\n")
	case msg.HTMLBody != "":
		return strings.Join(append(headers,
			"Content-Type: text/html; charset=UTF-8",
			"",
			msg.HTMLBody,
		), "\r\n")
	default:
		return strings.Join(append(headers,
			"Content-Type: text/plain; charset=UTF-8",
			"",
			msg.TextBody,
		), "\r\n")
	}
}
