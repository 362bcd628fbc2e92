package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/teemow/ticktask/internal/auth"
	"github.com/teemow/ticktask/internal/instrumentation"
	"github.com/teemow/ticktask/internal/ticktick"
)

const (
	// LocalFileName is looked up in the working directory first.
	LocalFileName = "ticktask_config.yaml"
	homeFileName  = "config.yaml"
)

// Config is the full ticktask configuration.
type Config struct {
	// Home holds the token and key files. Empty means ~/.ticktask.
	Home       string           `yaml:"home,omitempty"`
	API        APIConfig        `yaml:"api"`
	Defaults   DefaultsConfig   `yaml:"defaults"`
	Obsidian   ObsidianConfig   `yaml:"obsidian"`
	Workflows  WorkflowsConfig  `yaml:"workflows"`
	Formatting FormattingConfig `yaml:"formatting"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	path string
}

type APIConfig struct {
	// BaseURL is the OAuth host; APIBaseURL the resource API root.
	BaseURL      string        `yaml:"base_url"`
	APIBaseURL   string        `yaml:"api_base_url"`
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	RedirectURI  string        `yaml:"redirect_uri"`
	LoginTimeout time.Duration `yaml:"login_timeout"`
}

type DefaultsConfig struct {
	// Project is an ID or name. Empty picks the inbox.
	Project  string `yaml:"project"`
	Priority string `yaml:"priority"`
	Reminder string `yaml:"reminder"`
}

type ObsidianConfig struct {
	VaultPath      string `yaml:"vault_path"`
	DailyNotesPath string `yaml:"daily_notes_path"`
}

type WorkflowsConfig struct {
	DailyPlan DailyPlanConfig `yaml:"daily_plan"`
}

type DailyPlanConfig struct {
	IncludeOverdue  bool `yaml:"include_overdue"`
	IncludeToday    bool `yaml:"include_today"`
	IncludeTomorrow bool `yaml:"include_tomorrow"`
}

type FormattingConfig struct {
	// DateFormat and TimeFormat are Go time layouts.
	DateFormat string `yaml:"date_format"`
	TimeFormat string `yaml:"time_format"`
	// Timezone is an IANA name. Empty means the local zone.
	Timezone string `yaml:"timezone"`
}

type TelemetryConfig struct {
	Enabled         bool   `yaml:"enabled"`
	MetricsExporter string `yaml:"metrics_exporter,omitempty"`
	TracingExporter string `yaml:"tracing_exporter,omitempty"`
	OTLPEndpoint    string `yaml:"otlp_endpoint,omitempty"`
	OTLPInsecure    bool   `yaml:"otlp_insecure,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	vault := ""
	if home, err := os.UserHomeDir(); err == nil {
		vault = filepath.Join(home, "Documents", "ObsidianVault")
	}
	return &Config{
		API: APIConfig{
			BaseURL:      auth.DefaultBaseURL,
			APIBaseURL:   ticktick.DefaultBaseURL,
			RedirectURI:  auth.DefaultRedirectURI,
			LoginTimeout: auth.DefaultLoginTimeout,
		},
		Defaults: DefaultsConfig{
			Priority: ticktick.PriorityNone.String(),
			Reminder: "9:00",
		},
		Obsidian: ObsidianConfig{
			VaultPath:      vault,
			DailyNotesPath: "Daily Notes",
		},
		Workflows: WorkflowsConfig{
			DailyPlan: DailyPlanConfig{IncludeOverdue: true, IncludeToday: true},
		},
		Formatting: FormattingConfig{
			DateFormat: "2006-01-02",
			TimeFormat: "15:04",
		},
	}
}

// DefaultPath returns ./ticktask_config.yaml if it exists, else
// ~/.ticktask/config.yaml.
func DefaultPath() string {
	if _, err := os.Stat(LocalFileName); err == nil {
		return LocalFileName
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return LocalFileName
	}
	return filepath.Join(home, auth.DefaultDirName, homeFileName)
}

// Load reads path (DefaultPath if empty), then .env and environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads a .env file without overriding variables that are already
// set. A missing file is ignored.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv() {
	override := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	override("TICKTICK_CLIENT_ID", &c.API.ClientID)
	override("TICKTICK_CLIENT_SECRET", &c.API.ClientSecret)
	override("TICKTICK_REDIRECT_URI", &c.API.RedirectURI)
	override("TICKTASK_HOME", &c.Home)
	override("OBSIDIAN_VAULT_PATH", &c.Obsidian.VaultPath)
}

// Validate checks values that would otherwise fail later.
// Credentials are checked separately by ValidateCredentials.
func (c *Config) Validate() error {
	if c.API.LoginTimeout < 0 {
		return fmt.Errorf("api.login_timeout must not be negative")
	}
	if c.Defaults.Priority != "" {
		if _, err := ticktick.ParsePriority(c.Defaults.Priority); err != nil {
			return fmt.Errorf("defaults.priority: %w", err)
		}
	}
	if strings.TrimSpace(c.Formatting.DateFormat) == "" {
		return fmt.Errorf("formatting.date_format must not be empty")
	}
	if strings.TrimSpace(c.Formatting.TimeFormat) == "" {
		return fmt.Errorf("formatting.time_format must not be empty")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	ic := c.Instrumentation("")
	if err := ic.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	return nil
}

// ValidateCredentials reports a missing client ID or secret as an
// *auth.ConfigurationError.
func (c *Config) ValidateCredentials() error {
	if strings.TrimSpace(c.API.ClientID) == "" {
		return &auth.ConfigurationError{Field: "client_id"}
	}
	if strings.TrimSpace(c.API.ClientSecret) == "" {
		return &auth.ConfigurationError{Field: "client_secret"}
	}
	return nil
}

// Location returns the timezone used for due dates and display. Without a
// configured zone the host zone is used, by IANA name when it can be found.
func (c *Config) Location() (*time.Location, error) {
	if c.Formatting.Timezone == "" {
		return localLocation(), nil
	}
	loc, err := time.LoadLocation(c.Formatting.Timezone)
	if err != nil {
		return nil, fmt.Errorf("formatting.timezone: %w", err)
	}
	return loc, nil
}

// localTimeFile is the symlink into the zoneinfo database on most Unix hosts.
var localTimeFile = "/etc/localtime"

// localLocation resolves the host zone to a named location. time.Local is
// named "Local", which the API does not accept as a timeZone.
func localLocation() *time.Location {
	name := strings.TrimPrefix(os.Getenv("TZ"), ":")
	if name == "" {
		if target, err := os.Readlink(localTimeFile); err == nil {
			if i := strings.Index(target, "zoneinfo/"); i >= 0 {
				name = target[i+len("zoneinfo/"):]
			}
		}
	}
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}

// DefaultPriority returns the parsed default priority.
func (c *Config) DefaultPriority() ticktick.Priority {
	p, err := ticktick.ParsePriority(c.Defaults.Priority)
	if err != nil {
		return ticktick.PriorityNone
	}
	return p
}

// StoreDir returns the token directory.
func (c *Config) StoreDir() (string, error) {
	if c.Home != "" {
		return c.Home, nil
	}
	return auth.DefaultStoreDir()
}

// Instrumentation returns the telemetry settings. Environment variables read
// by instrumentation.DefaultConfig apply unless the file sets a value.
func (c *Config) Instrumentation(version string) instrumentation.Config {
	ic := instrumentation.DefaultConfig()
	ic.ServiceVersion = version
	if c.Telemetry.Enabled {
		ic.Enabled = true
	}
	if c.Telemetry.MetricsExporter != "" {
		ic.MetricsExporter = c.Telemetry.MetricsExporter
	}
	if c.Telemetry.TracingExporter != "" {
		ic.TracingExporter = c.Telemetry.TracingExporter
	}
	if c.Telemetry.OTLPEndpoint != "" {
		ic.OTLPEndpoint = c.Telemetry.OTLPEndpoint
	}
	if c.Telemetry.OTLPInsecure {
		ic.OTLPInsecure = true
	}
	return ic
}

// Path returns the file the config was loaded from.
func (c *Config) Path() string {
	return c.path
}

// Save writes the config as YAML, owner-only since it may hold the client secret.
func (c *Config) Save(path string) error {
	if path == "" {
		path = c.path
	}
	if path == "" {
		path = DefaultPath()
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	c.path = path
	return nil
}
