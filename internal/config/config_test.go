package config

import (
	"strings"
	"testing"
	"time"

	"github.com/yuchenw/songvault/internal/constants"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != constants.DefaultPort {
		t.Errorf("Expected default port %s, got %s", constants.DefaultPort, cfg.Port)
	}
	if cfg.DBPath != constants.DefaultDBPath {
		t.Errorf("Expected default db path %s, got %s", constants.DefaultDBPath, cfg.DBPath)
	}
	if cfg.PacingDelay != constants.DefaultPacingDelay {
		t.Errorf("Expected default pacing delay %v, got %v", constants.DefaultPacingDelay, cfg.PacingDelay)
	}
	if cfg.Vendor.SecretKey == "" {
		t.Error("Expected a default vendor secret key")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected default config to validate, got %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PACING_DELAY", "5s")
	t.Setenv("RATE_BURST", "10")
	t.Setenv("VENDOR_SEARCH_URL", "http://localhost:8081")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Port)
	}
	if cfg.PacingDelay != 5*time.Second {
		t.Errorf("Expected pacing delay 5s, got %v", cfg.PacingDelay)
	}
	if cfg.RateBurst != 10 {
		t.Errorf("Expected rate burst 10, got %d", cfg.RateBurst)
	}
	if cfg.SearchBaseURL != "http://localhost:8081" {
		t.Errorf("Expected overridden search url, got %s", cfg.SearchBaseURL)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Load()
	cfg.Port = "not-a-number"
	cfg.DBPath = ""
	cfg.SearchBaseURL = "://bad"
	cfg.LogLevel = "verbose"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected validation to fail")
	}

	msg := err.Error()
	for _, want := range []string{"PORT", "DB_PATH", "VENDOR_SEARCH_URL", "LOG_LEVEL"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Expected error to mention %s, got: %s", want, msg)
		}
	}
}

func TestValidate_PortRange(t *testing.T) {
	cfg := Load()
	cfg.Port = "70000"
	if err := cfg.Validate(); err == nil {
		t.Error("Expected out-of-range port to fail validation")
	}

	cfg.Port = "8080"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected valid port to pass, got %v", err)
	}
}

func TestValidate_NegativePacingDelay(t *testing.T) {
	cfg := Load()
	cfg.PacingDelay = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Error("Expected negative pacing delay to fail validation")
	}
}

func TestValidate_RateBurst(t *testing.T) {
	cfg := Load()
	cfg.RateBurst = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Expected zero rate burst to fail validation")
	}
}
