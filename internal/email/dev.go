package email

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DevSender implements BatchSender for local development.
// It saves each email as an HTML file plus a JSON metadata file instead of sending it.
type DevSender struct {
	dir string
	now func() time.Time
}

// NewDevSender creates a development sender writing into dir.
// The directory will be created if it doesn't exist.
func NewDevSender(dir string) *DevSender {
	return &DevSender{dir: dir, now: time.Now}
}

type emailMetadata struct {
	MessageID string `json:"message_id"`
	Timestamp string `json:"timestamp"`
	From      string `json:"from,omitempty"`
	SendTo    string `json:"send_to"`
	Subject   string `json:"subject"`
}

// SendBatch writes every message to disk.
func (d *DevSender) SendBatch(ctx context.Context, msgs []Message) ([]Result, error) {
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create directory: %v", ErrFailedToSendEmail, err)
	}

	results := make([]Result, len(msgs))
	for i, msg := range msgs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFailedToSendEmail, err)
		}
		id, err := d.write(msg)
		results[i] = Result{To: msg.To, MessageID: id, Err: err}
	}
	return results, nil
}

func (d *DevSender) write(msg Message) (string, error) {
	now := d.now()
	id := uuid.New().String()
	base := fmt.Sprintf("%s_%s_%s", now.Format("2006_01_02_150405"), sanitizeFilename(msg.To), id[:8])

	if err := os.WriteFile(filepath.Join(d.dir, base+".html"), []byte(msg.HTMLBody), 0644); err != nil {
		return "", fmt.Errorf("failed to write HTML file: %w", err)
	}

	data, err := json.MarshalIndent(emailMetadata{
		MessageID: id,
		Timestamp: now.Format(time.RFC3339),
		From:      msg.From,
		SendTo:    msg.To,
		Subject:   msg.Subject,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(d.dir, base+".json"), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write JSON file: %w", err)
	}
	return id, nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

func sanitizeFilename(s string) string {
	s = unsafeFilenameChars.ReplaceAllString(strings.ReplaceAll(s, "@", "_at_"), "")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "email"
	}
	return strings.ToLower(s)
}
