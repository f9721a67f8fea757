package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clientmailer/clientmailer/internal/logger"
	"github.com/clientmailer/clientmailer/internal/render"
	"github.com/clientmailer/clientmailer/internal/roster"
)

func TestTemplateService_UploadSanitizes(t *testing.T) {
	store := newFakeStore()
	svc := NewTemplateService(store, logger.Nop())
	svc.now = func() time.Time { return time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC) }

	tpl, err := svc.Upload(context.Background(), " promo.html ", `<div>
<script>alert(1)</script>
<p onclick="steal()" style="color: red">Hola {{name}}</p>
<a href="javascript:alert(1)">x</a>
<a href="https://example.com/?u={{id}}">Ver</a>
<table cellpadding="4"><tr><td align="center">{{email}}</td></tr></table>
</div>`)
	require.NoError(t, err)

	_, err = uuid.Parse(tpl.ID)
	assert.NoError(t, err)
	assert.Equal(t, "promo.html", tpl.TemplateName)
	assert.Equal(t, time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC), tpl.UploadedAt)

	assert.NotContains(t, tpl.TemplateContent, "<script")
	assert.NotContains(t, tpl.TemplateContent, "onclick")
	assert.NotContains(t, tpl.TemplateContent, "javascript:")
	assert.Contains(t, tpl.TemplateContent, "Hola {{name}}")
	assert.Contains(t, tpl.TemplateContent, "{{email}}")
	assert.Contains(t, tpl.TemplateContent, "color")
	assert.Contains(t, tpl.TemplateContent, `cellpadding="4"`)

	stored, err := store.FindByID(context.Background(), tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, tpl.TemplateContent, stored.TemplateContent)
}

func TestTemplateService_UploadKeepsPlaceholdersInURLs(t *testing.T) {
	svc := NewTemplateService(newFakeStore(), logger.Nop())

	content := `<html><head><style>.btn { color: #fff; }</style></head><body>
<p>Hola {{name}}</p>
<a href="https://shop.example/unsubscribe/{{id}}">Darse de baja</a>
<a href="{{link}}">Ver oferta</a>
<a href="mailto:{{email}}">{{email}}</a>
<img src="https://cdn.example/{{id}}/banner.png" alt="{{name}}">
</body></html>`

	tpl, err := svc.Upload(context.Background(), "promo.html", content)
	require.NoError(t, err)

	assert.Contains(t, tpl.TemplateContent, `href="https://shop.example/unsubscribe/{{id}}"`)
	assert.Contains(t, tpl.TemplateContent, `href="{{link}}"`)
	assert.Contains(t, tpl.TemplateContent, `src="https://cdn.example/{{id}}/banner.png"`)
	assert.NotContains(t, tpl.TemplateContent, "%7B")
	assert.NotContains(t, tpl.TemplateContent, "tplvar")
	assert.NotContains(t, tpl.TemplateContent, "nofollow")
	assert.Contains(t, tpl.TemplateContent, ".btn { color: #fff; }")
	assert.Equal(t, render.Placeholders(content), render.Placeholders(tpl.TemplateContent))
	require.NoError(t, render.Validate(tpl.TemplateContent))

	rendered := render.Render(tpl.TemplateContent, render.RecipientVars("leo@x.com", "Leo", "7"))
	assert.Contains(t, rendered, `href="https://shop.example/unsubscribe/7"`)
}

func TestTemplateService_UploadDropsPlaceholdersOnlyWithUnsafeMarkup(t *testing.T) {
	svc := NewTemplateService(newFakeStore(), logger.Nop())

	tpl, err := svc.Upload(context.Background(), "x.html",
		`<p>{{name}}</p><script>track("{{id}}")</script><a href="javascript:go({{email}})">x</a>`)
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, render.Placeholders(tpl.TemplateContent))
	assert.NotContains(t, tpl.TemplateContent, "<script")
	assert.NotContains(t, tpl.TemplateContent, "javascript:")
}

func TestTemplateService_UploadRejects(t *testing.T) {
	svc := NewTemplateService(newFakeStore(), logger.Nop())

	_, err := svc.Upload(context.Background(), "", "<p>x</p>")
	assert.ErrorIs(t, err, ErrInvalidTemplate)

	_, err = svc.Upload(context.Background(), "empty.html", "<script>only()</script>")
	assert.ErrorIs(t, err, ErrInvalidTemplate)

	_, err = svc.Upload(context.Background(), "broken.html", "<p>{{name</p>")
	assert.ErrorIs(t, err, ErrInvalidTemplate)
}

func TestTemplateService_GetAndDelete(t *testing.T) {
	store := newFakeStore()
	svc := NewTemplateService(store, logger.Nop())
	ctx := context.Background()

	tpl, err := svc.Upload(ctx, "a.html", "<p>{{name}}</p>")
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].TemplateContent)

	got, err := svc.Get(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "<p>{{name}}</p>", got.TemplateContent)

	require.NoError(t, svc.Delete(ctx, tpl.ID))
	assert.ErrorIs(t, svc.Delete(ctx, tpl.ID), ErrTemplateNotFound)
	_, err = svc.Get(ctx, tpl.ID)
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestClientService_List(t *testing.T) {
	decoder, err := roster.NewDecoder(roster.DefaultTimezone)
	require.NoError(t, err)

	gateway := newFakeGateway(rosterRows())
	svc := NewClientService(gateway, decoder, 1, logger.Nop())

	clients, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, clients, 4)
	assert.Equal(t, "Ana", clients[0].Name)
	assert.Nil(t, clients[0].LastEmailSentDate)
	require.NotNil(t, clients[3].LastEmailSentStatus)
	assert.Equal(t, roster.StatusOpened, *clients[3].LastEmailSentStatus)

	gateway.failReads[2] = true
	_, err = svc.List(context.Background())
	assert.Error(t, err)
}
