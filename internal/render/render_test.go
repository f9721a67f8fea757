package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		vars    map[string]string
		want    string
	}{
		{
			name:    "substitutes known variables",
			content: "<p>Hola {{name}}, escribimos a {{email}}</p>",
			vars:    map[string]string{"name": "Leo", "email": "leo@x.com"},
			want:    "<p>Hola Leo, escribimos a leo@x.com</p>",
		},
		{
			name:    "leaves unknown placeholders verbatim",
			content: "<p>{{name}} {{missing}}</p>",
			vars:    map[string]string{"name": "Ana"},
			want:    "<p>Ana {{missing}}</p>",
		},
		{
			name:    "repeated placeholder",
			content: "{{name}}/{{name}}",
			vars:    map[string]string{"name": "Mia"},
			want:    "Mia/Mia",
		},
		{
			name:    "no variables",
			content: "<p>{{name}}</p>",
			vars:    nil,
			want:    "<p>{{name}}</p>",
		},
		{
			name:    "values are inserted as given",
			content: "{{name}}",
			vars:    map[string]string{"name": "O'Brien & Sons"},
			want:    "O'Brien & Sons",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Render(tt.content, tt.vars))
		})
	}
}

func TestRender_IdempotentWithoutPlaceholders(t *testing.T) {
	t.Parallel()

	content := `<html><body style="color:red"><p>Plain { text } here</p></body></html>`
	vars := map[string]string{"name": "Leo"}

	once := Render(content, vars)
	assert.Equal(t, content, once)
	assert.Equal(t, once, Render(once, vars))
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := []string{
		"",
		"<p>no placeholders</p>",
		"<p>{{name}} and {{email}}</p>",
		"<style>p { color: red }</style>{{name}}",
		"<p>{{{name}}}</p>",
		"<p>{{{{id}}</p>",
	}
	for _, c := range valid {
		assert.NoError(t, Validate(c), c)
	}

	invalid := []string{
		"<p>{{name</p>",
		"<p>{{ name }}</p>",
		"<p>{{first-name}}</p>",
		"<p>{{name}} {{</p>",
		"<p>{{{ name }}}</p>",
		"<p>{{{</p>",
	}
	for _, c := range invalid {
		err := Validate(c)
		require.Error(t, err, c)
		assert.ErrorIs(t, err, ErrMalformedTemplate)
	}
}

func TestRender_ExtraBraces(t *testing.T) {
	t.Parallel()

	content := "<p>{{{name}}}</p>"
	require.NoError(t, Validate(content))
	assert.Equal(t, "<p>{Leo}</p>", Render(content, map[string]string{"name": "Leo"}))
}

func TestPlaceholders(t *testing.T) {
	t.Parallel()

	got := Placeholders("{{name}} {{email}} {{name}} {{ broken }} {{id}}")
	assert.Equal(t, []string{"name", "email", "id"}, got)
	assert.Empty(t, Placeholders("<p>nothing</p>"))
}

func TestRecipientVars(t *testing.T) {
	t.Parallel()

	assert.Equal(t, map[string]string{"email": "a@x.com"}, RecipientVars("a@x.com", "", ""))
	assert.Equal(t,
		map[string]string{"email": "a@x.com", "name": "Ana", "id": "1"},
		RecipientVars("a@x.com", "Ana", "1"),
	)
}
