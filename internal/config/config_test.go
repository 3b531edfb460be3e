package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/vango-admin/internal/errors"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Server.Port != DefaultPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if cfg.API.BaseURL != DefaultAPIBaseURL {
		t.Errorf("API.BaseURL = %q, want %q", cfg.API.BaseURL, DefaultAPIBaseURL)
	}
	if cfg.API.Paging.Current != "current" || cfg.API.Paging.Size != "size" || cfg.API.Paging.ZeroBased {
		t.Errorf("API.Paging = %+v, want 1-based current/size", cfg.API.Paging)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := Load(tmpDir)
	var coded *errors.Error
	if !stderrors.As(err, &coded) || coded.Code != "E100" {
		t.Fatalf("missing config err = %v, want E100", err)
	}

	writeConfig(t, tmpDir, `{
  "name": "Acme Admin",
  "server": {"host": "0.0.0.0", "port": 8081},
  "api": {
    "baseURL": "https://backend.example.com/api",
    "timeout": "3s",
    "retries": 4,
    "paging": {"current": "pageNum", "size": "pageSize", "zeroBased": true}
  },
  "session": {"store": "redis", "redisURL": "redis://localhost:6379/1"}
}
`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "Acme Admin" || cfg.Address() != "0.0.0.0:8081" {
		t.Errorf("name/address = %q %q", cfg.Name, cfg.Address())
	}
	if cfg.API.Timeout.D() != 3*time.Second || cfg.API.Retries != 4 {
		t.Errorf("API = %+v", cfg.API)
	}
	if cfg.API.Paging.Current != "pageNum" || !cfg.API.Paging.ZeroBased {
		t.Errorf("Paging = %+v", cfg.API.Paging)
	}
	// Untouched sections keep their defaults.
	if cfg.Upload.Store != "disk" || cfg.Session.CookieName != "vango_admin_sid" {
		t.Errorf("defaults lost: upload=%q cookie=%q", cfg.Upload.Store, cfg.Session.CookieName)
	}
	if cfg.Path() != filepath.Join(tmpDir, ConfigFileName) {
		t.Errorf("Path() = %q", cfg.Path())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadInvalid(t *testing.T) {
	tmpDir := t.TempDir()

	writeConfig(t, tmpDir, `{"server": {`)
	_, err := Load(tmpDir)
	var coded *errors.Error
	if !stderrors.As(err, &coded) || coded.Code != "E101" {
		t.Fatalf("invalid JSON err = %v, want E101", err)
	}

	writeConfig(t, tmpDir, `{"api": {"timeout": "soon"}}`)
	_, err = Load(tmpDir)
	if !stderrors.As(err, &coded) || coded.Code != "E106" {
		t.Fatalf("bad duration err = %v, want E106", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{"api": {"baseURL": "http://file.example.com"}}`)

	t.Setenv("VANGO_ADMIN_API_BASE_URL", "http://env.example.com")
	t.Setenv("VANGO_ADMIN_API_RETRY_DELAY", "1s")
	t.Setenv("VANGO_ADMIN_SERVER_PORT", "9999")
	t.Setenv("VANGO_ADMIN_UPLOAD_ALLOWED_TYPES", "image/png,image/jpeg")
	t.Setenv("VANGO_ADMIN_UPLOAD_S3_SECRET_ACCESS_KEY", "s3cret")

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != "http://env.example.com" {
		t.Errorf("BaseURL = %q, want env value", cfg.API.BaseURL)
	}
	if cfg.API.RetryDelay.D() != time.Second || cfg.Server.Port != 9999 {
		t.Errorf("RetryDelay = %v Port = %d", cfg.API.RetryDelay.D(), cfg.Server.Port)
	}
	if strings.Join(cfg.Upload.AllowedTypes, ",") != "image/png,image/jpeg" {
		t.Errorf("AllowedTypes = %v", cfg.Upload.AllowedTypes)
	}
	if cfg.Upload.S3.SecretAccessKey != "s3cret" {
		t.Errorf("SecretAccessKey not read from env")
	}

	t.Setenv("VANGO_ADMIN_SERVER_PORT", "many")
	if _, err := Load(tmpDir); err == nil {
		t.Error("expected an error for a non-numeric port")
	}
}

func TestDotEnv(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, ".env"), []byte("VANGO_ADMIN_NAME=From Dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Registers cleanup for the variable godotenv is about to set.
	t.Setenv("VANGO_ADMIN_NAME", "")
	os.Unsetenv("VANGO_ADMIN_NAME")

	cfg, err := LoadOrEnv(tmpDir)
	if err != nil {
		t.Fatalf("LoadOrEnv: %v", err)
	}
	if cfg.Name != "From Dotenv" {
		t.Errorf("Name = %q, want value from .env", cfg.Name)
	}
	if cfg.Path() != "" {
		t.Errorf("Path() = %q, want empty without admin.json", cfg.Path())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		code   string
	}{
		{"port", func(c *Config) { c.Server.Port = 70000 }, "E102"},
		{"relative base url", func(c *Config) { c.API.BaseURL = "/api" }, "E103"},
		{"ftp base url", func(c *Config) { c.API.BaseURL = "ftp://x" }, "E103"},
		{"redis without url", func(c *Config) { c.Session.Store = "redis" }, "E104"},
		{"unknown session store", func(c *Config) { c.Session.Store = "disk" }, "E104"},
		{"s3 without bucket", func(c *Config) { c.Upload.Store = "s3" }, "E105"},
		{"unknown upload store", func(c *Config) { c.Upload.Store = "ftp" }, "E105"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			var coded *errors.Error
			if !stderrors.As(err, &coded) || coded.Code != tt.code {
				t.Fatalf("Validate() = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := New()
	cfg.API.Timeout = Duration(1500 * time.Millisecond)
	cfg.Upload.S3.SecretAccessKey = "never-written"
	if err := cfg.SaveTo(filepath.Join(tmpDir, ConfigFileName)); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	raw, _ := os.ReadFile(filepath.Join(tmpDir, ConfigFileName))
	if !strings.Contains(string(raw), `"timeout": "1.5s"`) {
		t.Errorf("duration not written as a string:\n%s", raw)
	}
	if strings.Contains(string(raw), "never-written") {
		t.Error("secret written to admin.json")
	}

	loaded, err := LoadFile(filepath.Join(tmpDir, ConfigFileName))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if loaded.API.Timeout != cfg.API.Timeout {
		t.Errorf("Timeout = %v, want %v", loaded.API.Timeout.D(), cfg.API.Timeout.D())
	}
}
