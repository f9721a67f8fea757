package email

import (
	"context"
	"fmt"

	"github.com/clientmailer/clientmailer/internal/config"
)

// NewSender builds the sender selected by cfg.Provider.
func NewSender(ctx context.Context, cfg config.EmailConfig) (BatchSender, error) {
	switch cfg.Provider {
	case "gmail":
		var (
			sender *GmailSender
			err    error
		)
		if cfg.Gmail.RefreshToken != "" {
			sender, err = NewGmailSenderWithToken(ctx,
				cfg.Gmail.ClientID, cfg.Gmail.ClientSecret, cfg.Gmail.RefreshToken,
				cfg.SenderAddress, cfg.SenderName,
			)
		} else {
			sender, err = NewGmailSender(ctx, GmailConfig{
				CredentialsJSON: cfg.Gmail.CredentialsJSON,
				SenderAddress:   cfg.SenderAddress,
				SenderName:      cfg.SenderName,
			})
		}
		if err != nil {
			return nil, err
		}
		return sender, nil
	case "postmark":
		sender, err := NewPostmarkSender(PostmarkConfig{
			ServerToken:   cfg.Postmark.ServerToken,
			AccountToken:  cfg.Postmark.AccountToken,
			SenderAddress: cfg.SenderAddress,
			SenderName:    cfg.SenderName,
			MessageStream: cfg.Postmark.MessageStream,
		})
		if err != nil {
			return nil, err
		}
		return sender, nil
	case "dev":
		return NewDevSender(cfg.Dev.Dir), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
}
