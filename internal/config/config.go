package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
	Security SecurityConfig `mapstructure:"security"`
	Sheets   SheetsConfig   `mapstructure:"sheets"`
	Email    EmailConfig    `mapstructure:"email"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// MaxUploadBytes caps the size of uploaded template files
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Name           string `mapstructure:"name"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode"`
	MaxConnections int    `mapstructure:"max_connections"`
}

// DSN returns the PostgreSQL connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	RateLimiting RateLimitingConfig `mapstructure:"rate_limiting"`
}

// RateLimitingConfig holds rate limiting configuration
type RateLimitingConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// DispatchLimit is the number of send requests allowed per client IP per DispatchWindow
	DispatchLimit  int           `mapstructure:"dispatch_limit"`
	DispatchWindow time.Duration `mapstructure:"dispatch_window"`
	// TrustedProxies lists the CIDRs whose X-Forwarded-For header is believed.
	// Empty means the connection's remote address is always the client.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

// SheetsConfig describes the spreadsheet that backs the client roster.
type SheetsConfig struct {
	// SpreadsheetID is the id from the spreadsheet URL
	SpreadsheetID string `mapstructure:"spreadsheet_id"`
	// SheetName is the tab holding the roster (e.g. "Clients")
	SheetName string `mapstructure:"sheet_name"`
	// BoundingRange is the cell range read as "all rows", without the sheet prefix
	BoundingRange string `mapstructure:"bounding_range"`
	// HeaderRows is the number of header rows above the first client
	HeaderRows int `mapstructure:"header_rows"`
	// Timezone is the IANA zone used to interpret and write status dates
	Timezone string `mapstructure:"timezone"`
	// CredentialsFile is a path to a service account key file
	CredentialsFile string `mapstructure:"credentials_file"`
	// CredentialsJSON is the service account key content (alternative to CredentialsFile)
	CredentialsJSON string `mapstructure:"credentials_json"`
}

// EmailConfig holds email sending configuration
type EmailConfig struct {
	// Provider is the email provider to use: "gmail", "postmark" or "dev"
	Provider      string `mapstructure:"provider"`
	SenderAddress string `mapstructure:"sender_address"`
	SenderName    string `mapstructure:"sender_name"`

	Gmail    GmailEmailConfig    `mapstructure:"gmail"`
	Postmark PostmarkEmailConfig `mapstructure:"postmark"`
	Dev      DevEmailConfig      `mapstructure:"dev"`
}

// GmailEmailConfig holds Gmail API configuration
type GmailEmailConfig struct {
	// CredentialsJSON is the service account credentials JSON content
	CredentialsJSON string `mapstructure:"credentials_json"`
	// ClientID for OAuth2 token-based auth (alternative to service account)
	ClientID string `mapstructure:"client_id"`
	// ClientSecret for OAuth2 token-based auth
	ClientSecret string `mapstructure:"client_secret"`
	// RefreshToken for OAuth2 token-based auth
	RefreshToken string `mapstructure:"refresh_token"`
}

// PostmarkEmailConfig holds Postmark API tokens
type PostmarkEmailConfig struct {
	ServerToken  string `mapstructure:"server_token"`
	AccountToken string `mapstructure:"account_token"`
	// MessageStream defaults to Postmark's "broadcast" stream for bulk mail
	MessageStream string `mapstructure:"message_stream"`
}

// DevEmailConfig configures the file-writing sender used in development
type DevEmailConfig struct {
	Dir string `mapstructure:"dir"`
}

// DispatchConfig tunes the bulk dispatch pipeline
type DispatchConfig struct {
	// Timeout bounds a whole dispatch request
	Timeout time.Duration `mapstructure:"timeout"`
	// VerifyRowIdentity re-reads the id cell of a row before writing status into it
	VerifyRowIdentity bool `mapstructure:"verify_row_identity"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set config file name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/clientmailer")

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("CLIENTMAILER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the settings the server cannot start without
func (c *Config) Validate() error {
	var errs []error
	if c.Sheets.SpreadsheetID == "" {
		errs = append(errs, errors.New("sheets.spreadsheet_id is required"))
	}
	if c.Sheets.SheetName == "" {
		errs = append(errs, errors.New("sheets.sheet_name is required"))
	}
	if c.Sheets.HeaderRows < 0 {
		errs = append(errs, errors.New("sheets.header_rows must not be negative"))
	}
	if c.Sheets.CredentialsFile == "" && c.Sheets.CredentialsJSON == "" {
		errs = append(errs, errors.New("sheets.credentials_file or sheets.credentials_json is required"))
	}
	switch c.Email.Provider {
	case "gmail", "postmark", "dev":
	default:
		errs = append(errs, fmt.Errorf("email.provider %q is not supported", c.Email.Provider))
	}
	for _, cidr := range c.Security.RateLimiting.TrustedProxies {
		if _, err := netip.ParsePrefix(cidr); err != nil {
			errs = append(errs, fmt.Errorf("security.rate_limiting.trusted_proxies: %w", err))
		}
	}
	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("server.max_upload_bytes", 2<<20)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "clientmailer")
	v.SetDefault("database.user", "clientmailer")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("security.rate_limiting.enabled", true)
	v.SetDefault("security.rate_limiting.dispatch_limit", 10)
	v.SetDefault("security.rate_limiting.dispatch_window", "1m")
	v.SetDefault("security.rate_limiting.trusted_proxies", []string{})

	// Sheets defaults
	v.SetDefault("sheets.spreadsheet_id", "")
	v.SetDefault("sheets.sheet_name", "Clients")
	v.SetDefault("sheets.bounding_range", "A1:Z1000")
	v.SetDefault("sheets.header_rows", 1)
	v.SetDefault("sheets.timezone", "America/New_York")
	v.SetDefault("sheets.credentials_file", "")
	v.SetDefault("sheets.credentials_json", "")

	// Email defaults
	v.SetDefault("email.provider", "gmail")
	v.SetDefault("email.sender_address", "")
	v.SetDefault("email.sender_name", "")
	v.SetDefault("email.gmail.credentials_json", "")
	v.SetDefault("email.gmail.client_id", "")
	v.SetDefault("email.gmail.client_secret", "")
	v.SetDefault("email.gmail.refresh_token", "")
	v.SetDefault("email.postmark.server_token", "")
	v.SetDefault("email.postmark.account_token", "")
	v.SetDefault("email.postmark.message_stream", "broadcast")
	v.SetDefault("email.dev.dir", "./email-output")

	// Dispatch defaults
	v.SetDefault("dispatch.timeout", "2m")
	v.SetDefault("dispatch.verify_row_identity", false)
}
