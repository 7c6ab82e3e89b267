package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/shift-ledger/pkg/core/model"
)

// User is a login accepted by the credential verifier
type User struct {
	Name         string `yaml:"name" validate:"required"`
	PasswordHash string `yaml:"passwordHash" validate:"required"`
	Role         string `yaml:"role" validate:"required,oneof=worker admin"`
}

// HTTPConfig configures the serve command
type HTTPConfig struct {
	Addr           string        `yaml:"addr,omitempty"`
	AllowedOrigins []string      `yaml:"allowedOrigins,omitempty" validate:"dive,url"`
	SessionIdle    time.Duration `yaml:"sessionIdle,omitempty" validate:"min=0"`
}

// Config represents the application configuration
type Config struct {
	SpreadsheetID      string        `yaml:"spreadsheetID" validate:"required"`
	Timezone           string        `yaml:"timezone" validate:"required"`
	Sites              []string      `yaml:"sites,omitempty" validate:"omitempty,unique,dive,required"`
	PayPeriod          string        `yaml:"payPeriod,omitempty"`
	ServiceAccountFile string        `yaml:"serviceAccountFile,omitempty"`
	DatabaseURL        string        `yaml:"databaseURL,omitempty"`
	RequestTimeout     time.Duration `yaml:"requestTimeout,omitempty" validate:"min=0"`
	HTTP               HTTPConfig    `yaml:"http,omitempty"`
	Users              []User        `yaml:"users" validate:"required,min=1,unique=Name,dive"`

	location *time.Location
}

const (
	configFileBase        = "ledger_config"
	defaultHTTPAddr       = ":8080"
	defaultRequestTimeout = 30 * time.Second
	defaultSessionIdle    = 12 * time.Hour
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// LoadWithEnv loads ledger_config.<env>.yaml from the current directory or
// the user's home directory
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findFile(configFileName(env))
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct, applies defaults, and checks
// the timezone and pay period recurrence
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	cfg.location = loc

	if cfg.PayPeriod != "" {
		if _, err := rrule.StrToRRule(cfg.PayPeriod); err != nil {
			return fmt.Errorf("invalid payPeriod rrule: %w", err)
		}
	}

	if len(cfg.Sites) == 0 {
		cfg.Sites = append([]string(nil), model.DefaultSites...)
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = defaultHTTPAddr
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.HTTP.SessionIdle == 0 {
		cfg.HTTP.SessionIdle = defaultSessionIdle
	}

	return nil
}

// Location returns the timezone shifts are recorded in
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// IsSite reports whether site is one of the configured sites
func (c *Config) IsSite(site string) bool {
	return model.IsKnownSite(c.Sites, site)
}

func configFileName(env string) string {
	if env == "" {
		return configFileBase + ".yaml"
	}
	return configFileBase + "." + env + ".yaml"
}

// findFile searches for name in the current directory, then the home directory
func findFile(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homePath := filepath.Join(homeDir, name)
	if _, err := os.Stat(homePath); err == nil {
		return homePath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", name)
}
