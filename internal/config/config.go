package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

const (
	DefaultRequestTimeout = 10 * time.Second
	DefaultServerAddr     = ":8080"
	DefaultYearsBack      = 2
	DefaultYearsAhead     = 1
)

// FeedbackReminders configures when attended-but-unrated volunteers are emailed
type FeedbackReminders struct {
	RRule   string `yaml:"rrule" validate:"required"`
	Subject string `yaml:"subject,omitempty"`
}

// EventWindow is the range of years fetched when resolving event IDs by name
type EventWindow struct {
	YearsBack  int `yaml:"yearsBack" validate:"min=0,max=10"`
	YearsAhead int `yaml:"yearsAhead" validate:"min=0,max=10"`
}

// Server configures the HTTP surface used by the web app
type Server struct {
	Addr           string   `yaml:"addr,omitempty"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty" validate:"dive,url"`
}

// Config represents the application configuration
type Config struct {
	APIBaseURL        string             `yaml:"apiBaseURL" validate:"required,url"`
	RequestTimeout    time.Duration      `yaml:"requestTimeout,omitempty" validate:"min=0"`
	TokenURL          string             `yaml:"tokenURL,omitempty" validate:"omitempty,url"`
	CertificateDir    string             `yaml:"certificateDir,omitempty"`
	ReportSheetID     string             `yaml:"reportSheetID,omitempty"`
	GmailUserID       string             `yaml:"gmailUserID,omitempty"`
	GmailSender       string             `yaml:"gmailSender,omitempty" validate:"omitempty,email"`
	FeedbackReminders *FeedbackReminders `yaml:"feedbackReminders,omitempty"`
	EventWindow       *EventWindow       `yaml:"eventWindow,omitempty"`
	Server            Server             `yaml:"server,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validator returns the shared validator instance, also used for request payloads
func Validator() *validator.Validate {
	return validate
}

// LoadWithEnv loads portal_config.<env>.yaml from the current directory or the user's home directory
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

	applyDefaults(&cfg)

	return &cfg, nil
}

// Validate validates the configuration struct and checks the reminder rrule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.FeedbackReminders != nil {
		if _, err := rrule.StrToRRule(cfg.FeedbackReminders.RRule); err != nil {
			return fmt.Errorf("invalid rrule in feedbackReminders: %w", err)
		}
	}

	return nil
}

func applyDefaults(cfg *Config) {
	if !strings.HasSuffix(cfg.APIBaseURL, "/") {
		cfg.APIBaseURL += "/"
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = cfg.APIBaseURL + "Auth/RefreshToken"
	}
	if cfg.CertificateDir == "" {
		cfg.CertificateDir = "."
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultServerAddr
	}
	if cfg.EventWindow == nil {
		cfg.EventWindow = &EventWindow{YearsBack: DefaultYearsBack, YearsAhead: DefaultYearsAhead}
	}
}

func configFileName(env string) string {
	if env == "" {
		return "portal_config.yaml"
	}
	return "portal_config." + env + ".yaml"
}

// findFile looks for name in the current directory, then the home directory
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
