package clientmailer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/emails/send", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req SendRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"leo@x.com"}, req.RecipientEmails)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":200,"message":"Email sent successfully","outcomes":[{"email":"leo@x.com","delivery":"ok","writeBack":"ok","row":5}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL + "/"})
	resp, err := c.Send(context.Background(), SendRequest{Subject: "Promo", TemplateID: "t-1", RecipientEmails: []string{"leo@x.com"}})
	require.NoError(t, err)
	assert.Equal(t, "Email sent successfully", resp.Message)
	require.Len(t, resp.Outcomes, 1)
	assert.Equal(t, 5, resp.Outcomes[0].Row)
}

func TestClient_UploadTemplate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)

		assert.Equal(t, "promo.html", header.Filename)
		assert.Equal(t, "text/html", header.Header.Get("Content-Type"))
		assert.Equal(t, "<p>{{name}}</p>", string(data))

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"t-1","templateName":"promo.html","templateContent":"<p>{{name}}</p>","placeholders":["name"]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	tpl, err := c.UploadTemplate(context.Background(), "promo.html", strings.NewReader("<p>{{name}}</p>"))
	require.NoError(t, err)
	assert.Equal(t, "t-1", tpl.ID)
	assert.Equal(t, []string{"name"}, tpl.Placeholders)
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":"template_not_found","message":"Email template not found"}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL + "/api/v1"})
	err := c.DeleteTemplate(context.Background(), "missing")

	apiErr, ok := IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "template_not_found", apiErr.Code)
}
