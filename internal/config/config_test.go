package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "Clients", cfg.Sheets.SheetName)
	assert.Equal(t, "A1:Z1000", cfg.Sheets.BoundingRange)
	assert.Equal(t, 1, cfg.Sheets.HeaderRows)
	assert.Equal(t, "America/New_York", cfg.Sheets.Timezone)
	assert.Equal(t, "gmail", cfg.Email.Provider)
	assert.Equal(t, "broadcast", cfg.Email.Postmark.MessageStream)
	assert.Equal(t, 2*time.Minute, cfg.Dispatch.Timeout)
	assert.Equal(t, time.Minute, cfg.Security.RateLimiting.DispatchWindow)
	assert.False(t, cfg.Dispatch.VerifyRowIdentity)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CLIENTMAILER_SHEETS_SPREADSHEET_ID", "sheet-123")
	t.Setenv("CLIENTMAILER_SHEETS_HEADER_ROWS", "2")
	t.Setenv("CLIENTMAILER_EMAIL_PROVIDER", "postmark")
	t.Setenv("CLIENTMAILER_DISPATCH_VERIFY_ROW_IDENTITY", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sheet-123", cfg.Sheets.SpreadsheetID)
	assert.Equal(t, 2, cfg.Sheets.HeaderRows)
	assert.Equal(t, "postmark", cfg.Email.Provider)
	assert.True(t, cfg.Dispatch.VerifyRowIdentity)
}

func TestValidate(t *testing.T) {
	valid := Config{
		Sheets: SheetsConfig{
			SpreadsheetID:   "sheet-123",
			SheetName:       "Clients",
			HeaderRows:      1,
			CredentialsFile: "/etc/clientmailer/sa.json",
		},
		Email: EmailConfig{Provider: "dev"},
	}
	require.NoError(t, valid.Validate())

	t.Run("missing spreadsheet", func(t *testing.T) {
		cfg := valid
		cfg.Sheets.SpreadsheetID = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sheets.spreadsheet_id")
	})

	t.Run("missing credentials", func(t *testing.T) {
		cfg := valid
		cfg.Sheets.CredentialsFile = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "credentials")
	})

	t.Run("bad trusted proxy", func(t *testing.T) {
		cfg := valid
		cfg.Security.RateLimiting.TrustedProxies = []string{"10.0.0.0/8", "not-a-cidr"}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "trusted_proxies")
	})

	t.Run("unknown provider", func(t *testing.T) {
		cfg := valid
		cfg.Email.Provider = "carrier-pigeon"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "carrier-pigeon")
	})

	t.Run("negative header rows", func(t *testing.T) {
		cfg := valid
		cfg.Sheets.HeaderRows = -1
		assert.Error(t, cfg.Validate())
	})
}
