package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port               string
	CORSAllowedOrigins []string
	RateLimitPerMinute int

	// Backend selection
	DataBackend  string
	SQLiteDBPath string

	// Calendar months are evaluated in this zone
	Timezone string

	// Current user resolution
	DefaultUserID int64
	PhoneRegion   string

	// Advice generation
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	AdviceTimeout time.Duration

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets ledger export
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
	WorkerMessageTimeout     time.Duration
	WorkerMetricsPort        string

	LogLevel string
}

// Location resolves Timezone, falling back to the process zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/caisse.db"),

		Timezone: getEnv("TIMEZONE", "Local"),

		DefaultUserID: int64(getEnvInt("DEFAULT_USER_ID", 1)),
		PhoneRegion:   getEnv("PHONE_REGION", "CD"),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		AdviceTimeout: getEnvDuration("ADVICE_TIMEOUT", 30*time.Second),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "caisse"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "caisse.ledger"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Ledger"),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", getEnv("GOOGLE_APPLICATION_CREDENTIALS", "")),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		WorkerMessageTimeout:     getEnvDuration("WORKER_MESSAGE_TIMEOUT", 10*time.Second),
		WorkerMetricsPort:        getEnv("WORKER_METRICS_PORT", "9091"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	if c.DefaultUserID < 1 {
		errors = append(errors, fmt.Sprintf("invalid default user id %d: must be positive", c.DefaultUserID))
	}

	if len(c.PhoneRegion) != 2 {
		errors = append(errors, fmt.Sprintf("invalid phone region '%s': must be a two-letter country code", c.PhoneRegion))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	if c.AdviceTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid advice timeout %v: must be at least 1 second", c.AdviceTimeout))
	} else if c.AdviceTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid advice timeout %v: must be at most 5 minutes", c.AdviceTimeout))
	}

	if c.OpenAIBaseURL != "" {
		if parsedURL, err := url.Parse(c.OpenAIBaseURL); err != nil || parsedURL.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid OpenAI base URL '%s'", c.OpenAIBaseURL))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateWorker checks the extra settings needed by the ledger export worker.
func (c *Config) ValidateWorker() error {
	var errors []string

	if c.DataBackend != "sqlite" {
		errors = append(errors, fmt.Sprintf("worker requires the sqlite backend, got '%s'", c.DataBackend))
	}
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP URL is required for the worker")
	}
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "Google Spreadsheet ID is required for the worker")
	}
	if c.GoogleSheetName == "" {
		errors = append(errors, "Google Sheet name is required for the worker")
	}
	if c.GoogleServiceAccountFile == "" && c.GoogleServiceAccountJSON == "" {
		errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for the worker")
	}
	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}
	if port, err := strconv.Atoi(c.WorkerMetricsPort); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid worker metrics port '%s'", c.WorkerMetricsPort))
	}
	if c.WorkerMessageTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid worker message timeout %v: must be at least 1 second", c.WorkerMessageTimeout))
	}

	if len(errors) > 0 {
		return fmt.Errorf("worker configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
