package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/clientmailer/clientmailer/internal/logger"
	"github.com/clientmailer/clientmailer/internal/model"
	"github.com/clientmailer/clientmailer/internal/render"
	"github.com/clientmailer/clientmailer/internal/repository"
)

// ErrInvalidTemplate is returned for uploads without a name or usable content.
var ErrInvalidTemplate = errors.New("invalid email template")

// TemplateService stores sanitized HTML templates.
type TemplateService struct {
	store  TemplateStore
	policy *bluemonday.Policy
	log    *logger.Logger
	now    func() time.Time
}

// NewTemplateService creates a new TemplateService.
func NewTemplateService(store TemplateStore, log *logger.Logger) *TemplateService {
	return &TemplateService{
		store:  store,
		policy: emailPolicy(),
		log:    log.WithComponent("template_service"),
		now:    time.Now,
	}
}

// emailPolicy extends the UGC policy with the layout markup email clients rely on,
// including <style> blocks. Scripts, event handlers and unsafe URLs are still removed,
// and links are left without rel="nofollow".
func emailPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(false)
	p.AllowUnsafe(true)
	p.AllowElements("style")
	p.AllowAttrs("type", "media").OnElements("style")
	p.AllowStyling()
	p.AllowStyles(
		"color", "background-color", "background",
		"font", "font-family", "font-size", "font-weight", "font-style",
		"text-align", "text-decoration", "line-height", "vertical-align",
		"margin", "margin-top", "margin-bottom", "margin-left", "margin-right",
		"padding", "padding-top", "padding-bottom", "padding-left", "padding-right",
		"border", "border-collapse", "border-radius",
		"width", "max-width", "height", "display",
	).Globally()
	p.AllowElements("center", "font")
	p.AllowAttrs("color", "face", "size").OnElements("font")
	p.AllowAttrs("align", "bgcolor", "border", "cellpadding", "cellspacing", "width", "height", "valign").
		OnElements("table", "tr", "td", "th", "img", "div", "p")
	return p
}

// Upload sanitizes content and stores it under name.
func (s *TemplateService) Upload(ctx context.Context, name, content string) (*model.EmailTemplate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidTemplate)
	}

	sanitized := s.sanitize(content)
	if strings.TrimSpace(sanitized) == "" {
		return nil, fmt.Errorf("%w: content is empty after sanitizing", ErrInvalidTemplate)
	}
	if err := render.Validate(sanitized); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTemplate, err)
	}

	tpl := &model.EmailTemplate{
		ID:              uuid.New().String(),
		TemplateName:    name,
		TemplateContent: sanitized,
		UploadedAt:      s.now().UTC(),
	}
	if err := s.store.Create(ctx, tpl); err != nil {
		return nil, err
	}

	if lost := missing(render.Placeholders(content), render.Placeholders(sanitized)); len(lost) > 0 {
		s.log.Warn().
			Str("template_id", tpl.ID).
			Strs("placeholders", lost).
			Msg("placeholders removed along with unsafe markup")
	}

	s.log.Info().
		Str("template_id", tpl.ID).
		Str("name", tpl.TemplateName).
		Int("removed_bytes", len(content)-len(sanitized)).
		Msg("template uploaded")
	return tpl, nil
}

// sanitize runs content through the policy with every {{name}} swapped for an opaque
// lowercase alphanumeric marker. URL attributes are re-encoded by the sanitizer, which
// would otherwise turn {{id}} into %7B%7Bid%7D%7D and break the placeholder.
func (s *TemplateService) sanitize(content string) string {
	names := render.Placeholders(content)
	if len(names) == 0 {
		return s.policy.Sanitize(content)
	}

	nonce := strings.ReplaceAll(uuid.NewString(), "-", "")
	mask := make([]string, 0, 2*len(names))
	unmask := make([]string, 0, 2*len(names))
	for i, name := range names {
		token := "{{" + name + "}}"
		marker := "tplvar" + nonce + "n" + strconv.Itoa(i) + "x"
		mask = append(mask, token, marker)
		unmask = append(unmask, marker, token)
	}

	masked := strings.NewReplacer(mask...).Replace(content)
	return strings.NewReplacer(unmask...).Replace(s.policy.Sanitize(masked))
}

// missing returns the names in want that are absent from got.
func missing(want, got []string) []string {
	present := make(map[string]bool, len(got))
	for _, name := range got {
		present[name] = true
	}
	var out []string
	for _, name := range want {
		if !present[name] {
			out = append(out, name)
		}
	}
	return out
}

// List returns all templates, newest first, without content.
func (s *TemplateService) List(ctx context.Context) ([]*model.EmailTemplate, error) {
	return s.store.FindAll(ctx)
}

// Get returns one template with its content.
func (s *TemplateService) Get(ctx context.Context, id string) (*model.EmailTemplate, error) {
	tpl, err := s.store.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	return tpl, err
}

// Delete removes a template.
func (s *TemplateService) Delete(ctx context.Context, id string) error {
	err := s.store.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	if err != nil {
		return err
	}
	s.log.Info().Str("template_id", id).Msg("template deleted")
	return nil
}
