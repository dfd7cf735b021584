package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/jobrunner/picta/internal/domain"
)

func loadDefaults(t *testing.T) *Config {
	t.Helper()
	t.Chdir(t.TempDir())
	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg := loadDefaults(t)

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Storage.Type != "local" {
		t.Errorf("Storage.Type = %q, want local", cfg.Storage.Type)
	}
	if cfg.Images.DefaultMaxDimension != 100 {
		t.Errorf("Images.DefaultMaxDimension = %d, want 100", cfg.Images.DefaultMaxDimension)
	}
	if cfg.Map.Zoom != 7 {
		t.Errorf("Map.Zoom = %d, want 7", cfg.Map.Zoom)
	}
	if cfg.Map.Timeout != 30*time.Second {
		t.Errorf("Map.Timeout = %v, want 30s", cfg.Map.Timeout)
	}
	if !cfg.Template.Escape {
		t.Error("Template.Escape should default to true")
	}
	if cfg.Server.Address() != "0.0.0.0:8080" {
		t.Errorf("Address() = %q", cfg.Server.Address())
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
  trust_proxy_headers: true
storage:
  type: s3
  prefix: uploads
  s3:
    bucket: zippy
images:
  default_max_dimension: 64
map:
  timezone: Europe/Berlin
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 || !cfg.Server.TrustProxyHeaders {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Storage.Type != "s3" || cfg.Storage.S3.Bucket != "zippy" || cfg.Storage.Prefix != "uploads" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Storage.S3.Region != "us-east-1" {
		t.Errorf("S3.Region = %q, want default", cfg.Storage.S3.Region)
	}
	if cfg.Images.DefaultMaxDimension != 64 {
		t.Errorf("DefaultMaxDimension = %d, want 64", cfg.Images.DefaultMaxDimension)
	}

	loc, err := cfg.Map.Location()
	if err != nil {
		t.Fatalf("Location() error = %v", err)
	}
	if loc.String() != "Europe/Berlin" {
		t.Errorf("Location() = %v", loc)
	}
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("PICTA_STORAGE_TYPE", "s3")
	t.Setenv("PICTA_STORAGE_S3_BUCKET", "from-env")
	t.Setenv("PICTA_MAP_ZOOM", "9")

	cfg := loadDefaults(t)

	if cfg.Storage.S3.Bucket != "from-env" {
		t.Errorf("S3.Bucket = %q, want from-env", cfg.Storage.S3.Bucket)
	}
	if cfg.Map.Zoom != 9 {
		t.Errorf("Map.Zoom = %d, want 9", cfg.Map.Zoom)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := Load(viper.New(), path); err == nil {
		t.Error("Load() should fail for invalid YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"tls without domains", func(c *Config) { c.TLS.Enabled = true; c.TLS.Email = "a@b.c" }, "tls.domains"},
		{"tls without email", func(c *Config) { c.TLS.Enabled = true; c.TLS.Domains = []string{"x.example"} }, "tls.email"},
		{"zero max dimension", func(c *Config) { c.Images.DefaultMaxDimension = 0 }, "images.default_max_dimension"},
		{"zero upload limit", func(c *Config) { c.Images.MaxUploadBytes = 0 }, "images.max_upload_bytes"},
		{"zoom out of range", func(c *Config) { c.Map.Zoom = 25 }, "map.zoom"},
		{"template without lat", func(c *Config) { c.Map.URLTemplate = "https://maps.example/{lon}" }, "map.url_template"},
		{"unknown timezone", func(c *Config) { c.Map.Timezone = "Mars/Olympus" }, "map.timezone"},
		{"s3 without bucket", func(c *Config) { c.Storage.Type = "s3" }, "storage.s3.bucket"},
		{"azure without container", func(c *Config) { c.Storage.Type = "azure" }, "storage.azure.container"},
		{"azure without account", func(c *Config) {
			c.Storage.Type = "azure"
			c.Storage.Azure.Container = "images"
		}, "storage.azure"},
		{"http without url", func(c *Config) { c.Storage.Type = "http" }, "storage.http.base_url"},
		{"unknown storage", func(c *Config) { c.Storage.Type = "ftp" }, "storage.type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadDefaults(t)
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.field == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}

			var cfgErr *domain.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Validate() error = %v, want *domain.ConfigError", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.field)
			}
			if !errors.Is(err, domain.ErrInvalidArgument) {
				t.Error("error should match ErrInvalidArgument")
			}
		})
	}
}

func TestCORSEnabled(t *testing.T) {
	c := CORSConfig{}
	if c.Enabled() {
		t.Error("Enabled() should be false without origins")
	}
	c.AllowedOrigins = []string{"*"}
	if !c.Enabled() {
		t.Error("Enabled() should be true with origins")
	}
}
