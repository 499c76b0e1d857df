package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Page formats accepted by RenderConfig.PageFormat.
const (
	PageFormatA4     = "A4"
	PageFormatLetter = "Letter"
	PageFormatLegal  = "Legal"
)

const (
	// DefaultPageSize is the number of messages requested from the list
	// endpoint. Only the first page is ever read.
	DefaultPageSize = 20

	// MaxPageSize is the largest page Gmail accepts.
	MaxPageSize = 500
)

// Config is the complete application configuration.
type Config struct {
	// AccessToken is the default bearer credential. Callers may pass
	// another one per call.
	AccessToken string

	Mail    MailConfig
	Render  RenderConfig
	Browser BrowserConfig

	// OutputDir is where generated PDFs are written.
	OutputDir string

	LogLevel  string
	LogFormat string

	// MetricsAddr enables the Prometheus metrics server when non-empty.
	MetricsAddr string
}

// MailConfig configures the mail query service.
type MailConfig struct {
	PageSize int

	// Location interprets MMDDYYYY filter dates. Defaults to time.Local.
	Location *time.Location

	// Endpoint overrides the Gmail API base URL.
	Endpoint string

	Breaker BreakerConfig
}

// BreakerConfig configures the circuit breaker around the Gmail provider.
type BreakerConfig struct {
	Enabled bool

	// ConsecutiveFailures opens the breaker.
	ConsecutiveFailures uint32

	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
}

// RenderConfig configures PDF output.
type RenderConfig struct {
	PageFormat      string
	PrintBackground bool
	MarginTopMM     float64
	MarginBottomMM  float64
	MarginLeftMM    float64
	MarginRightMM   float64
}

// BrowserConfig configures the headless browser process.
type BrowserConfig struct {
	// ExecPath is the Chrome binary. Empty means chromedp's lookup.
	ExecPath string

	// NoSandbox passes --no-sandbox, needed when running as root in
	// containers.
	NoSandbox bool

	// LaunchTimeout bounds the first browser start.
	LaunchTimeout time.Duration
}

// DefaultConfig returns a Config populated from MAILPDF_* environment
// variables. Values that fail to parse fall back to their defaults;
// Validate reports values that parse but are out of range.
func DefaultConfig() Config {
	return Config{
		AccessToken: getEnvOrDefault("MAILPDF_ACCESS_TOKEN", ""),
		Mail: MailConfig{
			PageSize: getEnvIntOrDefault("MAILPDF_PAGE_SIZE", DefaultPageSize),
			Location: getEnvLocationOrDefault("MAILPDF_TIMEZONE", time.Local),
			Endpoint: getEnvOrDefault("MAILPDF_GMAIL_ENDPOINT", ""),
			Breaker: BreakerConfig{
				Enabled:             getEnvBoolOrDefault("MAILPDF_BREAKER_ENABLED", true),
				ConsecutiveFailures: uint32(getEnvIntOrDefault("MAILPDF_BREAKER_FAILURES", 5)),
				OpenTimeout:         getEnvDurationOrDefault("MAILPDF_BREAKER_TIMEOUT", 30*time.Second),
			},
		},
		Render: RenderConfig{
			PageFormat:      getEnvOrDefault("MAILPDF_PAGE_FORMAT", PageFormatA4),
			PrintBackground: getEnvBoolOrDefault("MAILPDF_PRINT_BACKGROUND", true),
			MarginTopMM:     getEnvFloatOrDefault("MAILPDF_MARGIN_TOP_MM", 20),
			MarginBottomMM:  getEnvFloatOrDefault("MAILPDF_MARGIN_BOTTOM_MM", 20),
			MarginLeftMM:    getEnvFloatOrDefault("MAILPDF_MARGIN_LEFT_MM", 10),
			MarginRightMM:   getEnvFloatOrDefault("MAILPDF_MARGIN_RIGHT_MM", 10),
		},
		Browser: BrowserConfig{
			ExecPath:      getEnvOrDefault("MAILPDF_CHROME_PATH", ""),
			NoSandbox:     getEnvBoolOrDefault("MAILPDF_CHROME_NO_SANDBOX", false),
			LaunchTimeout: getEnvDurationOrDefault("MAILPDF_CHROME_LAUNCH_TIMEOUT", 30*time.Second),
		},
		OutputDir:   getEnvOrDefault("MAILPDF_OUTPUT_DIR", "."),
		LogLevel:    getEnvOrDefault("MAILPDF_LOG_LEVEL", "info"),
		LogFormat:   getEnvOrDefault("MAILPDF_LOG_FORMAT", "text"),
		MetricsAddr: getEnvOrDefault("METRICS_ADDR", ""),
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Mail.PageSize < 1 || c.Mail.PageSize > MaxPageSize {
		return fmt.Errorf("page size must be between 1 and %d, got %d", MaxPageSize, c.Mail.PageSize)
	}
	if c.Mail.Location == nil {
		return fmt.Errorf("mail location is required")
	}
	if c.Mail.Breaker.Enabled {
		if c.Mail.Breaker.ConsecutiveFailures == 0 {
			return fmt.Errorf("breaker failure threshold must be positive")
		}
		if c.Mail.Breaker.OpenTimeout <= 0 {
			return fmt.Errorf("breaker open timeout must be positive, got %s", c.Mail.Breaker.OpenTimeout)
		}
	}

	switch c.Render.PageFormat {
	case PageFormatA4, PageFormatLetter, PageFormatLegal:
	default:
		return fmt.Errorf("invalid page format %q, must be one of: A4, Letter, Legal", c.Render.PageFormat)
	}
	for name, v := range map[string]float64{
		"top":    c.Render.MarginTopMM,
		"bottom": c.Render.MarginBottomMM,
		"left":   c.Render.MarginLeftMM,
		"right":  c.Render.MarginRightMM,
	} {
		if v < 0 {
			return fmt.Errorf("%s margin must not be negative, got %gmm", name, v)
		}
	}

	if c.Browser.LaunchTimeout <= 0 {
		return fmt.Errorf("browser launch timeout must be positive, got %s", c.Browser.LaunchTimeout)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	return nil
}

// NormalizeToken strips an optional "Bearer " prefix and surrounding
// whitespace from a credential, so Authorization header values can be
// passed as they are.
func NormalizeToken(token string) string {
	token = strings.TrimSpace(token)
	if len(token) >= 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func getEnvLocationOrDefault(key string, defaultValue *time.Location) *time.Location {
	if value := os.Getenv(key); value != "" {
		loc, err := time.LoadLocation(value)
		if err != nil {
			return defaultValue
		}
		return loc
	}
	return defaultValue
}
