package model

import "time"

// EmailTemplate is an uploaded HTML template. Content holds {{variable}} placeholders.
type EmailTemplate struct {
	ID              string    `json:"id"`
	TemplateName    string    `json:"templateName"`
	TemplateContent string    `json:"templateContent,omitempty"`
	UploadedAt      time.Time `json:"uploadedAt"`
}

// Summary returns a copy without the content, used in listings.
func (t EmailTemplate) Summary() EmailTemplate {
	t.TemplateContent = ""
	return t
}
