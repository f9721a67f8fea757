// Package clientmailer is a Go client for the clientmailer HTTP API.
package clientmailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"
)

// Config holds the configuration for the API client.
type Config struct {
	// BaseURL is the root URL of the server.
	// Examples: "https://mailer.example.com" or "https://mailer.example.com/api/v1"
	// The "/api/v1" suffix is appended automatically if missing.
	BaseURL string

	// HTTPClient is an optional custom HTTP client.
	// If nil, a client with a 3 minute timeout is used, long enough for a bulk send.
	HTTPClient *http.Client
}

func (c *Config) defaults() {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 3 * time.Minute}
	}
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")
	if !strings.HasSuffix(c.BaseURL, "/api/v1") {
		c.BaseURL = c.BaseURL + "/api/v1"
	}
}

// Client calls the clientmailer API.
type Client struct {
	cfg Config
}

// NewClient creates a new client with the given configuration.
func NewClient(cfg Config) *Client {
	cfg.defaults()
	return &Client{cfg: cfg}
}

// ListClients returns the roster.
func (c *Client) ListClients(ctx context.Context) ([]RosterClient, error) {
	var clients []RosterClient
	if err := c.do(ctx, http.MethodGet, "/clients", nil, "", &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

// ListTemplates returns template metadata, newest first.
func (c *Client) ListTemplates(ctx context.Context) ([]Template, error) {
	var templates []Template
	if err := c.do(ctx, http.MethodGet, "/emails/templates", nil, "", &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

// GetTemplate returns one template with its content.
func (c *Client) GetTemplate(ctx context.Context, id string) (*Template, error) {
	var tpl Template
	if err := c.do(ctx, http.MethodGet, "/emails/templates/"+url.PathEscape(id), nil, "", &tpl); err != nil {
		return nil, err
	}
	return &tpl, nil
}

// UploadTemplate uploads an HTML file.
func (c *Client) UploadTemplate(ctx context.Context, filename string, html io.Reader) (*Template, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	hdr.Set("Content-Type", "text/html")
	part, err := w.CreatePart(hdr)
	if err != nil {
		return nil, fmt.Errorf("clientmailer: failed to build upload: %w", err)
	}
	if _, err := io.Copy(part, html); err != nil {
		return nil, fmt.Errorf("clientmailer: failed to read template: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("clientmailer: failed to build upload: %w", err)
	}

	var tpl Template
	if err := c.do(ctx, http.MethodPost, "/emails/templates", &buf, w.FormDataContentType(), &tpl); err != nil {
		return nil, err
	}
	return &tpl, nil
}

// DeleteTemplate removes a template.
func (c *Client) DeleteTemplate(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/emails/templates/"+url.PathEscape(id), nil, "", nil)
}

// Send dispatches a template and returns the per-recipient outcomes.
func (c *Client) Send(ctx context.Context, req SendRequest) (*Response, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("clientmailer: failed to marshal request: %w", err)
	}

	var resp Response
	if err := c.do(ctx, http.MethodPost, "/emails/send", bytes.NewReader(data), "application/json", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("clientmailer: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("clientmailer: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("clientmailer: failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return parseAPIError(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("clientmailer: failed to parse response: %w", err)
	}
	return nil
}
