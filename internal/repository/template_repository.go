package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/clientmailer/clientmailer/internal/database"
	"github.com/clientmailer/clientmailer/internal/model"
)

// TemplateRepository handles email template persistence
type TemplateRepository struct {
	db *database.Postgres
}

// NewTemplateRepository creates a new TemplateRepository
func NewTemplateRepository(db *database.Postgres) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// Create inserts a new template
func (r *TemplateRepository) Create(ctx context.Context, tpl *model.EmailTemplate) error {
	if _, err := uuid.Parse(tpl.ID); err != nil {
		return fmt.Errorf("%w: template id %q", ErrInvalidInput, tpl.ID)
	}

	query := `
		INSERT INTO email_templates (id, template_name, template_content, uploaded_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query,
		tpl.ID,
		tpl.TemplateName,
		tpl.TemplateContent,
		tpl.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}
	return nil
}

// FindAll returns every template, newest first. Content is not loaded.
func (r *TemplateRepository) FindAll(ctx context.Context) ([]*model.EmailTemplate, error) {
	query := `
		SELECT id, template_name, uploaded_at
		FROM email_templates
		ORDER BY uploaded_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []*model.EmailTemplate
	for rows.Next() {
		tpl := &model.EmailTemplate{}
		if err := rows.Scan(&tpl.ID, &tpl.TemplateName, &tpl.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate templates: %w", err)
	}
	return templates, nil
}

// FindByID retrieves a template including its content
func (r *TemplateRepository) FindByID(ctx context.Context, id string) (*model.EmailTemplate, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	query := `
		SELECT id, template_name, template_content, uploaded_at
		FROM email_templates
		WHERE id = $1
	`
	tpl := &model.EmailTemplate{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&tpl.ID,
		&tpl.TemplateName,
		&tpl.TemplateContent,
		&tpl.UploadedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return tpl, nil
}

// Delete removes a template
func (r *TemplateRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM email_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
