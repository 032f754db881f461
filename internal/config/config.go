package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment key, e.g. TOGETHER_ADDR.
const Prefix = "TOGETHER"

// Config holds all configuration for the server.
type Config struct {
	Addr      string `envconfig:"ADDR" default:":8080" validate:"required"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text" validate:"oneof=text json"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	JWTSecret     string        `envconfig:"JWT_SECRET" validate:"required,min=16"`
	JWTIssuer     string        `envconfig:"JWT_ISSUER" default:"together"`
	TokenTTL      time.Duration `envconfig:"TOKEN_TTL" default:"24h" validate:"gt=0"`
	SessionSecret string        `envconfig:"SESSION_SECRET" validate:"required,min=16"`

	MemberSource string        `envconfig:"MEMBER_SOURCE" default:"file" validate:"oneof=file surreal"`
	MemberFile   string        `envconfig:"MEMBER_FILE" default:"members.json"`
	Surreal      SurrealConfig `envconfig:"SURREAL" validate:"-"`
	Images       ImageConfig   `envconfig:"IMAGE"`
	Tracing      TracingConfig `envconfig:"TRACING"`

	Timezone   string  `envconfig:"TIMEZONE" default:"Asia/Seoul" validate:"required"`
	SendBuffer int     `envconfig:"SEND_BUFFER" default:"256" validate:"min=1"`
	RateLimit  float64 `envconfig:"RATE_LIMIT" default:"10" validate:"gt=0"`
}

// SurrealConfig locates the member database.
type SurrealConfig struct {
	URL          string        `envconfig:"URL" validate:"required,url"`
	Namespace    string        `envconfig:"NS" validate:"required"`
	Database     string        `envconfig:"DB" validate:"required"`
	User         string        `envconfig:"USER"`
	Pass         string        `envconfig:"PASS"`
	QueryTimeout time.Duration `envconfig:"QUERY_TIMEOUT" default:"5s" validate:"gt=0"`
}

// ImageConfig controls profile image URLs.
type ImageConfig struct {
	DefaultProfile string `envconfig:"DEFAULT_PROFILE" default:"/Image/Dabompng.png" validate:"required"`
	BaseURL        string `envconfig:"BASE_URL"`
}

// TracingConfig controls span export.
type TracingConfig struct {
	Enabled     bool   `envconfig:"ENABLED" default:"false"`
	ServiceName string `envconfig:"SERVICE_NAME" default:"together"`
	ZipkinURL   string `envconfig:"ZIPKIN_URL" default:"http://localhost:9411/api/v2/spans" validate:"omitempty,url"`
}

// Load reads .env (if present) and the environment, then validates.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	} else if err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}
	return FromEnv()
}

// FromEnv reads the process environment without touching .env files.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate checks field constraints. Database settings are only required
// when members are served from SurrealDB.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.MemberSource == "surreal" {
		if err := validate.Struct(c.Surreal); err != nil {
			return fmt.Errorf("invalid surreal configuration: %w", err)
		}
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Location resolves the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
