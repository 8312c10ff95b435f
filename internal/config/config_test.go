package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var requiredEnv = map[string]string{
	"DATABASE_URL":           "postgres://localhost/storyboard",
	"GOOGLE_CLIENT_ID":       "client-id",
	"GOOGLE_CLIENT_SECRET":   "client-secret",
	"R2_ACCESS_KEY_ID":       "key",
	"R2_SECRET_ACCESS_KEY":   "secret",
	"R2_BUCKET_NAME":         "bucket",
	"R2_S3_URL":              "https://s3.example.com",
	"IMAGE_BASE_URL":         "https://img.example.com/",
	"RATE_LIMIT_STORE_URL":   "https://redis.example.com",
	"RATE_LIMIT_STORE_TOKEN": "token",
	"APP_URL":                "https://blog.example.com/",
	"SESSION_SECRET":         "session-secret",
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	for k, v := range requiredEnv {
		t.Setenv(k, v)
	}
	t.Setenv("SKIP_ENV_VALIDATION", "")
}

func TestLoadFromEnv(t *testing.T) {
	setRequired(t)
	t.Setenv("ADMIN_EMAILS", " Admin@Example.com, ,editor@example.com")
	t.Setenv("RATE_LIMIT_MAX", "7")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("driver = %q, want postgres", cfg.Database.Driver)
	}
	if cfg.AppURL != "https://blog.example.com" || cfg.Storage.ImageBaseURL != "https://img.example.com" {
		t.Errorf("trailing slashes not trimmed: %q %q", cfg.AppURL, cfg.Storage.ImageBaseURL)
	}
	if cfg.RateLimit.Max != 7 || cfg.RateLimit.Window != 10*time.Second {
		t.Errorf("rate limit = %d/%s", cfg.RateLimit.Max, cfg.RateLimit.Window)
	}
	if !cfg.IsAdminEmail("admin@example.com") || !cfg.IsAdminEmail("EDITOR@example.com") {
		t.Errorf("admin emails = %v", cfg.AdminEmails)
	}
	if cfg.IsAdminEmail("someone@example.com") {
		t.Errorf("unexpected admin")
	}
	if !cfg.IsDevelopment() {
		t.Errorf("env = %q, want development", cfg.Env)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("GOOGLE_CLIENT_SECRET", "")
	t.Setenv("SESSION_SECRET", "")

	_, err := Load("")
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, name := range []string{"GOOGLE_CLIENT_SECRET", "SESSION_SECRET"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not name %s", err, name)
		}
	}
}

func TestLoadSkipValidation(t *testing.T) {
	t.Chdir(t.TempDir())
	for k := range requiredEnv {
		t.Setenv(k, "")
	}
	t.Setenv("SKIP_ENV_VALIDATION", "1")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Storage.ImageBaseURL != "http://localhost:3000/uploads" {
		t.Errorf("image base = %q", cfg.Storage.ImageBaseURL)
	}
}

func TestLoadYAMLWithExpansion(t *testing.T) {
	setRequired(t)
	t.Setenv("SITE_TITLE_FOR_TEST", "Night Stories")
	t.Setenv("SITE_NAME", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
env: production
site:
  name: ${SITE_TITLE_FOR_TEST}
cache_ttl: 2m
rate_limit:
  window: 30s
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("APP_ENV", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Site.Name != "Night Stories" {
		t.Errorf("site name = %q", cfg.Site.Name)
	}
	if !cfg.IsProduction() {
		t.Errorf("env = %q", cfg.Env)
	}
	if cfg.CacheTTL != 2*time.Minute || cfg.RateLimit.Window != 30*time.Second {
		t.Errorf("durations = %s %s", cfg.CacheTTL, cfg.RateLimit.Window)
	}
}

func TestLoadRejectsUnknownEnv(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "staging")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for unknown APP_ENV")
	}
}

func TestLoadBadDuration(t *testing.T) {
	setRequired(t)
	t.Setenv("CACHE_TTL", "soon")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected parse error")
	}
}
