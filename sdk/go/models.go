package clientmailer

import "time"

// RosterClient is one roster row.
type RosterClient struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	LastEmailSentDate   *time.Time `json:"lastEmailSentDate,omitempty"`
	LastEmailSentStatus *string    `json:"lastEmailSentStatus,omitempty"`
}

// Template is an uploaded email template. Content is empty in listings.
type Template struct {
	ID              string    `json:"id"`
	TemplateName    string    `json:"templateName"`
	TemplateContent string    `json:"templateContent,omitempty"`
	UploadedAt      time.Time `json:"uploadedAt"`
	Placeholders    []string  `json:"placeholders,omitempty"`
}

// SendRequest dispatches a template to a list of recipients.
type SendRequest struct {
	Subject         string   `json:"subject"`
	TemplateID      string   `json:"templateId"`
	RecipientEmails []string `json:"recipientEmails"`
}

// SendOutcome reports what happened to one recipient.
type SendOutcome struct {
	Email     string `json:"email"`
	Delivery  string `json:"delivery"`
	WriteBack string `json:"writeBack"`
	Row       int    `json:"row,omitempty"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Response is the status envelope returned by send and delete.
type Response struct {
	Status   int           `json:"status"`
	Message  string        `json:"message"`
	Outcomes []SendOutcome `json:"outcomes,omitempty"`
}
