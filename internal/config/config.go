package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yuchenw/songvault/internal/constants"
)

// Config holds all application configuration.
type Config struct {
	Port     string
	DBPath   string
	MediaDir string

	SearchBaseURL string
	InfoBaseURL   string

	Vendor VendorCredentials

	PacingDelay    time.Duration
	VendorInterval time.Duration
	HTTPTimeout    time.Duration

	RateWindow time.Duration
	RateBurst  int

	LogLevel  string
	LogFormat string
}

// VendorCredentials are the account/session-scoped values embedded in every
// signed request. They are externally supplied; the defaults exist only so a
// development instance starts without a full environment.
type VendorCredentials struct {
	SecretKey string
	AppID     string
	ClientVer string // song-info calls; search uses SearchClientVer
	SearchVer string
	DFID      string
	MID       string
	PlatID    string
	SrcAppID  string
	Token     string
	UserID    string
	UUID      string
}

// Load loads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", constants.DefaultPort),
		DBPath:   getEnv("DB_PATH", constants.DefaultDBPath),
		MediaDir: getEnv("MEDIA_DIR", constants.DefaultMediaDir),

		SearchBaseURL: getEnv("VENDOR_SEARCH_URL", constants.DefaultSearchBaseURL),
		InfoBaseURL:   getEnv("VENDOR_INFO_URL", constants.DefaultInfoBaseURL),

		Vendor: VendorCredentials{
			SecretKey: getEnv("VENDOR_SECRET_KEY", "NVPh5oo715z5DIWAeQlhMDsWXXQV4hwt"),
			AppID:     getEnv("VENDOR_APPID", "1014"),
			ClientVer: getEnv("VENDOR_CLIENTVER", "20000"),
			SearchVer: getEnv("VENDOR_SEARCH_CLIENTVER", "1000"),
			DFID:      getEnv("VENDOR_DFID", "3ewLD22PAhYA49Ohz53I5AJu"),
			MID:       getEnv("VENDOR_MID", "08e20c779ea827a1cc5cc3995b71f48e"),
			PlatID:    getEnv("VENDOR_PLATID", "4"),
			SrcAppID:  getEnv("VENDOR_SRCAPPID", "2919"),
			Token:     getEnv("VENDOR_TOKEN", ""),
			UserID:    getEnv("VENDOR_USERID", "0"),
			UUID:      getEnv("VENDOR_UUID", "08e20c779ea827a1cc5cc3995b71f48e"),
		},

		PacingDelay:    getEnvDuration("PACING_DELAY", constants.DefaultPacingDelay),
		VendorInterval: getEnvDuration("VENDOR_INTERVAL", constants.DefaultVendorInterval),
		HTTPTimeout:    getEnvDuration("HTTP_TIMEOUT", constants.DefaultHTTPTimeout),

		RateWindow: getEnvDuration("RATE_WINDOW", constants.DefaultRateWindow),
		RateBurst:  getEnvInt("RATE_BURST", constants.DefaultRateBurst),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Validate validates the configuration and returns detailed errors.
func (c *Config) Validate() error {
	var errors []string

	if c.Port == "" {
		errors = append(errors, "PORT cannot be empty")
	} else {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			errors = append(errors, fmt.Sprintf("PORT must be a valid number, got: %s", c.Port))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("PORT must be between 1 and 65535, got: %d", port))
		}
	}

	if c.DBPath == "" {
		errors = append(errors, "DB_PATH cannot be empty")
	}

	if c.MediaDir == "" {
		errors = append(errors, "MEDIA_DIR cannot be empty")
	}

	for name, raw := range map[string]string{
		"VENDOR_SEARCH_URL": c.SearchBaseURL,
		"VENDOR_INFO_URL":   c.InfoBaseURL,
	} {
		if raw == "" {
			errors = append(errors, name+" cannot be empty")
			continue
		}
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, fmt.Sprintf("%s is not a valid URL: %s", name, raw))
		}
	}

	if c.Vendor.SecretKey == "" {
		errors = append(errors, "VENDOR_SECRET_KEY cannot be empty")
	}
	if c.Vendor.AppID == "" {
		errors = append(errors, "VENDOR_APPID cannot be empty")
	}

	if c.PacingDelay < 0 {
		errors = append(errors, "PACING_DELAY cannot be negative")
	}
	if c.RateBurst < 1 {
		errors = append(errors, fmt.Sprintf("RATE_BURST must be at least 1, got: %d", c.RateBurst))
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: debug, info, warn, error, got: %s", c.LogLevel))
	}

	validLogFormats := map[string]bool{"text": true, "json": true}
	if !validLogFormats[c.LogFormat] {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: text, json, got: %s", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// getEnv retrieves an environment variable with a fallback default.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
