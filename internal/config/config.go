package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)

type Config struct {
	Env       string          `yaml:"env"`
	Addr      string          `yaml:"addr"`
	AppURL    string          `yaml:"app_url"`
	LogLevel  string          `yaml:"log_level"`
	Site      SiteConfig      `yaml:"site"`
	Database  DatabaseConfig  `yaml:"database"`
	Google    GoogleConfig    `yaml:"google"`
	Storage   StorageConfig   `yaml:"storage"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Session   SessionConfig   `yaml:"session"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	// AdminEmails get the admin role when their user row is first created.
	AdminEmails []string      `yaml:"admin_emails"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
	PurgeEvery  time.Duration `yaml:"purge_every"`
}

type SiteConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Author      string `yaml:"author"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver string `yaml:"driver"`
	URL    string `yaml:"url"`
}

type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// StorageConfig holds the object storage credentials and the public base
// URL images are served from.
type StorageConfig struct {
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Bucket          string `yaml:"bucket"`
	S3URL           string `yaml:"s3_url"`
	ImageBaseURL    string `yaml:"image_base_url"`
	UploadDir       string `yaml:"upload_dir"`
}

type RateLimitConfig struct {
	StoreURL   string        `yaml:"store_url"`
	StoreToken string        `yaml:"store_token"`
	Max        int           `yaml:"max"`
	Window     time.Duration `yaml:"window"`
}

type SessionConfig struct {
	Secret string        `yaml:"secret"`
	MaxAge time.Duration `yaml:"max_age"`
}

type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

// Load reads .env, then the optional YAML file at path, then environment
// overrides, and validates the result. Validation is skipped when
// SKIP_ENV_VALIDATION is set.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if os.Getenv("SKIP_ENV_VALIDATION") == "" {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	cfg.setDefaults()
	if err := cfg.checkValues(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"APP_ENV":                &c.Env,
		"ADDR":                   &c.Addr,
		"APP_URL":                &c.AppURL,
		"LOG_LEVEL":              &c.LogLevel,
		"SITE_NAME":              &c.Site.Name,
		"SITE_DESCRIPTION":       &c.Site.Description,
		"SITE_AUTHOR":            &c.Site.Author,
		"DATABASE_DRIVER":        &c.Database.Driver,
		"DATABASE_URL":           &c.Database.URL,
		"GOOGLE_CLIENT_ID":       &c.Google.ClientID,
		"GOOGLE_CLIENT_SECRET":   &c.Google.ClientSecret,
		"R2_ACCESS_KEY_ID":       &c.Storage.AccessKeyID,
		"R2_SECRET_ACCESS_KEY":   &c.Storage.SecretAccessKey,
		"R2_BUCKET_NAME":         &c.Storage.Bucket,
		"R2_S3_URL":              &c.Storage.S3URL,
		"IMAGE_BASE_URL":         &c.Storage.ImageBaseURL,
		"UPLOAD_DIR":             &c.Storage.UploadDir,
		"RATE_LIMIT_STORE_URL":   &c.RateLimit.StoreURL,
		"RATE_LIMIT_STORE_TOKEN": &c.RateLimit.StoreToken,
		"SESSION_SECRET":         &c.Session.Secret,
		"AMQP_URL":               &c.RabbitMQ.URL,
		"AMQP_EXCHANGE":          &c.RabbitMQ.Exchange,
		"AMQP_ROUTING_KEY":       &c.RabbitMQ.RoutingKey,
		"AMQP_QUEUE":             &c.RabbitMQ.QueueName,
	}
	for name, dst := range strs {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"CACHE_TTL":         &c.CacheTTL,
		"PURGE_EVERY":       &c.PurgeEvery,
		"RATE_LIMIT_WINDOW": &c.RateLimit.Window,
		"SESSION_MAX_AGE":   &c.Session.MaxAge,
	}
	for name, dst := range durations {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		*dst = d
	}

	if v := os.Getenv("RATE_LIMIT_MAX"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse RATE_LIMIT_MAX: %w", err)
		}
		c.RateLimit.Max = n
	}
	if v := os.Getenv("ADMIN_EMAILS"); v != "" {
		c.AdminEmails = nil
		for _, e := range strings.Split(v, ",") {
			if e = strings.TrimSpace(e); e != "" {
				c.AdminEmails = append(c.AdminEmails, strings.ToLower(e))
			}
		}
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Env == "" {
		c.Env = EnvDevelopment
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.AppURL == "" {
		c.AppURL = "http://localhost:3000"
	}
	c.AppURL = strings.TrimRight(c.AppURL, "/")
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Site.Name == "" {
		c.Site.Name = "Storyboard"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverFromURL(c.Database.URL)
	}
	if c.Storage.UploadDir == "" {
		c.Storage.UploadDir = "uploads"
	}
	if c.Storage.ImageBaseURL == "" {
		c.Storage.ImageBaseURL = c.AppURL + "/uploads"
	}
	c.Storage.ImageBaseURL = strings.TrimRight(c.Storage.ImageBaseURL, "/")
	if c.RateLimit.Max == 0 {
		c.RateLimit.Max = 5
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = 10 * time.Second
	}
	if c.Session.MaxAge == 0 {
		c.Session.MaxAge = 30 * 24 * time.Hour
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "storyboard"
	}
	if c.RabbitMQ.RoutingKey == "" {
		c.RabbitMQ.RoutingKey = "slugs"
	}
	if c.RabbitMQ.QueueName == "" {
		c.RabbitMQ.QueueName = "storyboard_slugs"
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = 5 * time.Minute
	}
	if c.PurgeEvery == 0 {
		c.PurgeEvery = time.Hour
	}
}

// DriverFromURL guesses the database driver from a connection URL.
func DriverFromURL(url string) string {
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return "postgres"
	}
	return "sqlite"
}

// IsDevelopment reports whether the app runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// IsAdminEmail reports whether email is listed in AdminEmails.
func (c *Config) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, e := range c.AdminEmails {
		if e == email {
			return true
		}
	}
	return false
}

// Validate fails when any required variable is empty.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"DATABASE_URL", c.Database.URL},
		{"GOOGLE_CLIENT_ID", c.Google.ClientID},
		{"GOOGLE_CLIENT_SECRET", c.Google.ClientSecret},
		{"R2_ACCESS_KEY_ID", c.Storage.AccessKeyID},
		{"R2_SECRET_ACCESS_KEY", c.Storage.SecretAccessKey},
		{"R2_BUCKET_NAME", c.Storage.Bucket},
		{"R2_S3_URL", c.Storage.S3URL},
		{"IMAGE_BASE_URL", c.Storage.ImageBaseURL},
		{"RATE_LIMIT_STORE_URL", c.RateLimit.StoreURL},
		{"RATE_LIMIT_STORE_TOKEN", c.RateLimit.StoreToken},
		{"APP_URL", c.AppURL},
		{"SESSION_SECRET", c.Session.Secret},
	}
	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("invalid environment variables: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) checkValues() error {
	switch c.Env {
	case EnvDevelopment, EnvTest, EnvProduction:
	default:
		return fmt.Errorf("invalid environment variables: APP_ENV %q", c.Env)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("invalid environment variables: DATABASE_DRIVER %q", c.Database.Driver)
	}
	return nil
}
