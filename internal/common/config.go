package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Partner     PartnerConfig   `toml:"partner"`
	OAuth       OAuthConfig     `toml:"oauth"`
	Ingest      IngestConfig    `toml:"ingest"`
	RateLimit   RateLimitConfig `toml:"rate_limit"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gt=0,lte=65535"`
	Host string `toml:"host" validate:"required"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"` // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`         // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"oneof=debug info warn error"`
	Format     string   `toml:"format" validate:"oneof=text json"`
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// PartnerConfig contains settings for the upstream catalog API
type PartnerConfig struct {
	BaseURL        string        `toml:"base_url" validate:"required,url"`
	PageSize       int           `toml:"page_size" validate:"gt=0"`
	MaxPageSize    int           `toml:"max_page_size" validate:"gt=0"` // Pages larger than this are clamped
	MaxConcurrency int           `toml:"max_concurrency" validate:"gt=0"`
	RequestDelay   time.Duration `toml:"request_delay"`   // Minimum delay between requests
	RandomDelay    time.Duration `toml:"random_delay"`    // Random delay jitter to add
	RequestTimeout time.Duration `toml:"request_timeout"` // HTTP request timeout
}

// OAuthConfig contains the three-legged OAuth client settings.
// EncryptionKey and CookieSecret never have file defaults; they come from
// the environment or an operator-managed config file.
type OAuthConfig struct {
	ClientID      string   `toml:"client_id"`
	ClientSecret  string   `toml:"client_secret"`
	AuthURL       string   `toml:"auth_url" validate:"required,url"`
	TokenURL      string   `toml:"token_url" validate:"required,url"`
	RedirectURL   string   `toml:"redirect_url"`
	Scopes        []string `toml:"scopes"`
	EncryptionKey string   `toml:"encryption_key"` // Base64, 16/24/32 bytes once decoded
	CookieSecret  string   `toml:"cookie_secret"`
	ReturnOrigin  string   `toml:"return_origin"` // Origin the callback may redirect back to
}

// IngestConfig tunes the catalog ingestion pipeline
type IngestConfig struct {
	ChunkSize               int     `toml:"chunk_size" validate:"gt=0"`        // Projects per storage batch
	ProgressInterval        int     `toml:"progress_interval" validate:"gt=0"` // Emit progress every N projects
	HighConfidenceThreshold float64 `toml:"high_confidence_threshold" validate:"gte=0,lte=1"`
	Schedule                string  `toml:"schedule"`         // Cron schedule, empty disables scheduled runs
	ScheduleEnabled         bool    `toml:"schedule_enabled"` // Must also set schedule
	ScheduleSessionID       string  `toml:"schedule_session_id"`
}

// RateLimitConfig bounds inbound request rates per client IP
type RateLimitConfig struct {
	RequestsPerSecond float64 `toml:"requests_per_second" validate:"gt=0"`
	Burst             int     `toml:"burst" validate:"gt=0"`
	MaxClients        int     `toml:"max_clients" validate:"gt=0"` // Cap on tracked IPs
}

// NewDefaultConfig creates a configuration with default values
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in atlas.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Partner: PartnerConfig{
			BaseURL:        "https://developer.api.autodesk.com",
			PageSize:       200,
			MaxPageSize:    200, // Provider caps pages; larger requests are clamped before sending
			MaxConcurrency: 3,
			RequestDelay:   250 * time.Millisecond,
			RandomDelay:    250 * time.Millisecond,
			RequestTimeout: 30 * time.Second,
		},
		OAuth: OAuthConfig{
			AuthURL:     "https://developer.api.autodesk.com/authentication/v2/authorize",
			TokenURL:    "https://developer.api.autodesk.com/authentication/v2/token",
			RedirectURL: "http://localhost:8080/auth/callback",
			Scopes:      []string{"data:read", "account:read"},
		},
		Ingest: IngestConfig{
			ChunkSize:               1000,
			ProgressInterval:        50,
			HighConfidenceThreshold: 0.8,
			Schedule:                "0 3 * * *", // Daily at 03:00, only used when schedule_enabled
			ScheduleEnabled:         false,
			ScheduleSessionID:       "scheduler",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 10,
			Burst:             20,
			MaxClients:        10000,
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env -> CLI. Later files override
// earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the assembled configuration against struct tags plus the
// cross-field rules the tags cannot express.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Ingest.ScheduleEnabled {
		if c.Ingest.Schedule == "" {
			return fmt.Errorf("invalid configuration: ingest.schedule is required when schedule_enabled is set")
		}
		if err := ValidateSchedule(c.Ingest.Schedule); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
	}

	if c.Partner.PageSize > c.Partner.MaxPageSize {
		return fmt.Errorf("invalid configuration: partner.page_size %d exceeds max_page_size %d", c.Partner.PageSize, c.Partner.MaxPageSize)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("ATLAS_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("ATLAS_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("ATLAS_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("ATLAS_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("ATLAS_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("ATLAS_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("ATLAS_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Partner configuration
	if baseURL := os.Getenv("ATLAS_PARTNER_BASE_URL"); baseURL != "" {
		config.Partner.BaseURL = baseURL
	}
	if pageSize := os.Getenv("ATLAS_PARTNER_PAGE_SIZE"); pageSize != "" {
		if ps, err := strconv.Atoi(pageSize); err == nil {
			config.Partner.PageSize = ps
		}
	}
	if maxConcurrency := os.Getenv("ATLAS_PARTNER_MAX_CONCURRENCY"); maxConcurrency != "" {
		if mc, err := strconv.Atoi(maxConcurrency); err == nil {
			config.Partner.MaxConcurrency = mc
		}
	}
	if requestDelay := os.Getenv("ATLAS_PARTNER_REQUEST_DELAY"); requestDelay != "" {
		if rd, err := time.ParseDuration(requestDelay); err == nil {
			config.Partner.RequestDelay = rd
		}
	}
	if requestTimeout := os.Getenv("ATLAS_PARTNER_REQUEST_TIMEOUT"); requestTimeout != "" {
		if rt, err := time.ParseDuration(requestTimeout); err == nil {
			config.Partner.RequestTimeout = rt
		}
	}

	// OAuth configuration. Secrets are env-first so they stay out of files.
	if clientID := os.Getenv("ATLAS_OAUTH_CLIENT_ID"); clientID != "" {
		config.OAuth.ClientID = clientID
	}
	if clientSecret := os.Getenv("ATLAS_OAUTH_CLIENT_SECRET"); clientSecret != "" {
		config.OAuth.ClientSecret = clientSecret
	}
	if authURL := os.Getenv("ATLAS_OAUTH_AUTH_URL"); authURL != "" {
		config.OAuth.AuthURL = authURL
	}
	if tokenURL := os.Getenv("ATLAS_OAUTH_TOKEN_URL"); tokenURL != "" {
		config.OAuth.TokenURL = tokenURL
	}
	if redirectURL := os.Getenv("ATLAS_OAUTH_REDIRECT_URL"); redirectURL != "" {
		config.OAuth.RedirectURL = redirectURL
	}
	if scopes := os.Getenv("ATLAS_OAUTH_SCOPES"); scopes != "" {
		parsed := []string{}
		for _, s := range strings.Split(scopes, ",") {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				parsed = append(parsed, trimmed)
			}
		}
		if len(parsed) > 0 {
			config.OAuth.Scopes = parsed
		}
	}
	if encryptionKey := os.Getenv("ATLAS_OAUTH_ENCRYPTION_KEY"); encryptionKey != "" {
		config.OAuth.EncryptionKey = encryptionKey
	}
	if cookieSecret := os.Getenv("ATLAS_OAUTH_COOKIE_SECRET"); cookieSecret != "" {
		config.OAuth.CookieSecret = cookieSecret
	}
	if returnOrigin := os.Getenv("ATLAS_OAUTH_RETURN_ORIGIN"); returnOrigin != "" {
		config.OAuth.ReturnOrigin = returnOrigin
	}

	// Ingest configuration
	if chunkSize := os.Getenv("ATLAS_INGEST_CHUNK_SIZE"); chunkSize != "" {
		if cs, err := strconv.Atoi(chunkSize); err == nil {
			config.Ingest.ChunkSize = cs
		}
	}
	if threshold := os.Getenv("ATLAS_INGEST_HIGH_CONFIDENCE_THRESHOLD"); threshold != "" {
		if t, err := strconv.ParseFloat(threshold, 64); err == nil {
			config.Ingest.HighConfidenceThreshold = t
		}
	}
	if schedule := os.Getenv("ATLAS_INGEST_SCHEDULE"); schedule != "" {
		config.Ingest.Schedule = schedule
	}
	if enabled := os.Getenv("ATLAS_INGEST_SCHEDULE_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Ingest.ScheduleEnabled = e
		}
	}

	// Rate limit configuration
	if rps := os.Getenv("ATLAS_RATE_LIMIT_RPS"); rps != "" {
		if r, err := strconv.ParseFloat(rps, 64); err == nil {
			config.RateLimit.RequestsPerSecond = r
		}
	}
	if burst := os.Getenv("ATLAS_RATE_LIMIT_BURST"); burst != "" {
		if b, err := strconv.Atoi(burst); err == nil {
			config.RateLimit.Burst = b
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ValidateSchedule validates a cron schedule expression and ensures a
// minimum 5-minute interval so scheduled runs cannot hammer the provider.
func ValidateSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	parts := strings.Fields(schedule)
	if len(parts) < 5 {
		return fmt.Errorf("invalid cron format: expected 5 fields")
	}

	minuteField := parts[0]
	if minuteField == "*" {
		return fmt.Errorf("schedule must have minimum 5-minute interval (every minute is not allowed)")
	}
	if strings.HasPrefix(minuteField, "*/") {
		interval, err := strconv.Atoi(strings.TrimPrefix(minuteField, "*/"))
		if err == nil && interval < 5 {
			return fmt.Errorf("schedule interval must be at least 5 minutes, got %d", interval)
		}
	}

	return nil
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
