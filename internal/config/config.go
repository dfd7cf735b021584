// Package config provides configuration management using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // map.timezone on hosts without a zoneinfo database

	"github.com/spf13/viper"

	"github.com/jobrunner/picta/internal/domain"
)

// EnvPrefix is the prefix for environment variable overrides,
// e.g. PICTA_STORAGE_S3_BUCKET.
const EnvPrefix = "PICTA"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Template TemplateConfig `mapstructure:"template"`
	Images   ImagesConfig   `mapstructure:"images"`
	Map      MapConfig      `mapstructure:"map"`
	TLS      TLSConfig      `mapstructure:"tls"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host              string          `mapstructure:"host"`
	Port              int             `mapstructure:"port"`
	ReadTimeout       time.Duration   `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration   `mapstructure:"write_timeout"`
	ShutdownTimeout   time.Duration   `mapstructure:"shutdown_timeout"`
	RateLimit         RateLimitConfig `mapstructure:"rate_limit"`
	CORS              CORSConfig      `mapstructure:"cors"`
	TrustProxyHeaders bool            `mapstructure:"trust_proxy_headers"` // Use X-Forwarded-For for the caller IP
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"` // e.g., ["https://example.com", "*.sub.domain.tld"]
}

// Enabled returns true if CORS is configured with at least one allowed origin.
func (c *CORSConfig) Enabled() bool {
	return len(c.AllowedOrigins) > 0
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	Rate    float64 `mapstructure:"rate"`
	Burst   int     `mapstructure:"burst"`
}

// StorageConfig holds object storage configuration.
type StorageConfig struct {
	Type          string      `mapstructure:"type"` // s3, azure, http, local
	Prefix        string      `mapstructure:"prefix"`
	PublicBaseURL string      `mapstructure:"public_base_url"`
	S3            S3Config    `mapstructure:"s3"`
	Azure         AzureConfig `mapstructure:"azure"`
	HTTP          HTTPConfig  `mapstructure:"http"`
	Local         LocalConfig `mapstructure:"local"`
}

// S3Config holds AWS S3 configuration.
type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	DisableACL      bool   `mapstructure:"disable_acl"`
}

// AzureConfig holds Azure Blob Storage configuration.
type AzureConfig struct {
	Container        string `mapstructure:"container"`
	AccountName      string `mapstructure:"account_name"`
	AccountKey       string `mapstructure:"account_key"`
	ConnectionString string `mapstructure:"connection_string"`
}

// HTTPConfig holds HTTP PUT upload configuration.
type HTTPConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
}

// LocalConfig holds local filesystem storage configuration.
type LocalConfig struct {
	Path    string `mapstructure:"path"`
	BaseURL string `mapstructure:"base_url"`
	Serve   bool   `mapstructure:"serve"` // Serve stored files under /files/
}

// TemplateConfig holds HTML page template configuration.
type TemplateConfig struct {
	Path   string `mapstructure:"path"` // Empty selects the embedded template
	Escape bool   `mapstructure:"escape"`
	Watch  bool   `mapstructure:"watch"`
}

// ImagesConfig holds upload limits.
type ImagesConfig struct {
	DefaultMaxDimension int   `mapstructure:"default_max_dimension"`
	MaxUploadBytes      int64 `mapstructure:"max_upload_bytes"`
}

// MapConfig holds static map provider configuration.
type MapConfig struct {
	URLTemplate string          `mapstructure:"url_template"`
	Zoom        int             `mapstructure:"zoom"`
	Width       int             `mapstructure:"width"`
	Height      int             `mapstructure:"height"`
	Timeout     time.Duration   `mapstructure:"timeout"`
	Timezone    string          `mapstructure:"timezone"` // IANA name, empty for process local time
	UserAgent   string          `mapstructure:"user_agent"`
	MaxBytes    int64           `mapstructure:"max_bytes"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
}

// Location resolves Timezone.
func (c *MapConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// TLSConfig holds TLS/CertMagic configuration.
type TLSConfig struct {
	Enabled  bool      `mapstructure:"enabled"`
	Domains  []string  `mapstructure:"domains"`
	Email    string    `mapstructure:"email"`
	CacheDir string    `mapstructure:"cache_dir"`
	Staging  bool      `mapstructure:"staging"` // Use Let's Encrypt staging
	DNS      DNSConfig `mapstructure:"dns"`
}

// DNSConfig holds Azure DNS settings for DNS-01 challenges. When empty,
// certificates are obtained with HTTP-01 and TLS-ALPN-01.
type DNSConfig struct {
	SubscriptionID    string `mapstructure:"subscription_id"`
	ResourceGroupName string `mapstructure:"resource_group_name"`
	ClientID          string `mapstructure:"client_id"`
}

// Enabled returns true if a DNS provider is configured.
func (c *DNSConfig) Enabled() bool {
	return c.SubscriptionID != "" && c.ResourceGroupName != ""
}

// MetricsConfig holds Prometheus metrics configuration.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Path      string `mapstructure:"path"`
	Namespace string `mapstructure:"namespace"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, text
}

// Defaults sets the default configuration values. Every key has a default
// so that AutomaticEnv overrides are seen by Unmarshal.
func Defaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.rate_limit.enabled", false)
	v.SetDefault("server.rate_limit.rate", 10.0)
	v.SetDefault("server.rate_limit.burst", 20)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("server.trust_proxy_headers", false)

	// Storage defaults
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.prefix", "")
	v.SetDefault("storage.public_base_url", "")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.access_key_id", "")
	v.SetDefault("storage.s3.secret_access_key", "")
	v.SetDefault("storage.s3.disable_acl", false)
	v.SetDefault("storage.azure.container", "")
	v.SetDefault("storage.azure.account_name", "")
	v.SetDefault("storage.azure.account_key", "")
	v.SetDefault("storage.azure.connection_string", "")
	v.SetDefault("storage.http.base_url", "")
	v.SetDefault("storage.http.timeout", 30*time.Second)
	v.SetDefault("storage.http.username", "")
	v.SetDefault("storage.http.password", "")
	v.SetDefault("storage.local.path", "./data")
	v.SetDefault("storage.local.base_url", "http://localhost:8080/files")
	v.SetDefault("storage.local.serve", true)

	// Template defaults
	v.SetDefault("template.path", "")
	v.SetDefault("template.escape", true)
	v.SetDefault("template.watch", true)

	// Image defaults
	v.SetDefault("images.default_max_dimension", domain.DefaultMaxDimension)
	v.SetDefault("images.max_upload_bytes", 10<<20)

	// Map defaults
	v.SetDefault("map.url_template", "https://staticmap.openstreetmap.de/staticmap.php?center={lat},{lon}&zoom={zoom}&size={width}x{height}&maptype=mapnik")
	v.SetDefault("map.zoom", domain.DefaultMapZoom)
	v.SetDefault("map.width", 600)
	v.SetDefault("map.height", 400)
	v.SetDefault("map.timeout", 30*time.Second)
	v.SetDefault("map.timezone", "")
	v.SetDefault("map.user_agent", "picta/1.0")
	v.SetDefault("map.max_bytes", 10<<20)
	v.SetDefault("map.rate_limit.enabled", true)
	v.SetDefault("map.rate_limit.rate", 1.0)
	v.SetDefault("map.rate_limit.burst", 2)

	// TLS defaults
	v.SetDefault("tls.enabled", false)
	v.SetDefault("tls.domains", []string{})
	v.SetDefault("tls.email", "")
	v.SetDefault("tls.dns.subscription_id", "")
	v.SetDefault("tls.dns.resource_group_name", "")
	v.SetDefault("tls.dns.client_id", "")
	v.SetDefault("tls.cache_dir", "./.certmagic")
	v.SetDefault("tls.staging", false)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "picta")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Load loads configuration from environment and config file.
func Load(v *viper.Viper, configPath string) (*Config, error) {
	Defaults(v)

	// Environment variable binding
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/picta")
	}

	// Try to read config file (not required)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return &domain.ConfigError{Field: "server.port", Message: fmt.Sprintf("invalid port %d", c.Server.Port)}
	}

	if c.TLS.Enabled {
		if len(c.TLS.Domains) == 0 {
			return &domain.ConfigError{Field: "tls.domains", Message: "TLS enabled but no domains specified"}
		}
		if c.TLS.Email == "" {
			return &domain.ConfigError{Field: "tls.email", Message: "TLS enabled but no email specified"}
		}
	}

	if err := domain.ValidateMaxDimension(c.Images.DefaultMaxDimension); err != nil {
		return &domain.ConfigError{Field: "images.default_max_dimension", Message: err.Error()}
	}
	if c.Images.MaxUploadBytes <= 0 {
		return &domain.ConfigError{Field: "images.max_upload_bytes", Message: "must be positive"}
	}

	if err := c.validateMap(); err != nil {
		return err
	}

	return c.validateStorage()
}

func (c *Config) validateMap() error {
	if c.Map.Zoom < 0 || c.Map.Zoom > 20 {
		return &domain.ConfigError{Field: "map.zoom", Message: fmt.Sprintf("zoom %d outside 0..20", c.Map.Zoom)}
	}
	if c.Map.Width <= 0 || c.Map.Height <= 0 {
		return &domain.ConfigError{Field: "map.width", Message: "map size must be positive"}
	}
	if !strings.Contains(c.Map.URLTemplate, "{lat}") || !strings.Contains(c.Map.URLTemplate, "{lon}") {
		return &domain.ConfigError{Field: "map.url_template", Message: "must contain {lat} and {lon}"}
	}
	if _, err := c.Map.Location(); err != nil {
		return &domain.ConfigError{Field: "map.timezone", Message: err.Error()}
	}
	if c.Map.RateLimit.Enabled && c.Map.RateLimit.Rate <= 0 {
		return &domain.ConfigError{Field: "map.rate_limit.rate", Message: "must be positive"}
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Type {
	case "local":
		if c.Storage.Local.Path == "" {
			return &domain.ConfigError{Field: "storage.local.path", Message: "local storage path is required"}
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return &domain.ConfigError{Field: "storage.s3.bucket", Message: "S3 bucket is required"}
		}
		if c.Storage.S3.Region == "" {
			return &domain.ConfigError{Field: "storage.s3.region", Message: "S3 region is required"}
		}
	case "azure":
		if c.Storage.Azure.Container == "" {
			return &domain.ConfigError{Field: "storage.azure.container", Message: "azure container is required"}
		}
		if c.Storage.Azure.AccountName == "" && c.Storage.Azure.ConnectionString == "" {
			return &domain.ConfigError{Field: "storage.azure", Message: "azure account name or connection string is required"}
		}
	case "http":
		if c.Storage.HTTP.BaseURL == "" {
			return &domain.ConfigError{Field: "storage.http.base_url", Message: "HTTP base URL is required"}
		}
	default:
		return &domain.ConfigError{Field: "storage.type", Message: fmt.Sprintf("unknown storage type: %s", c.Storage.Type)}
	}

	return nil
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
