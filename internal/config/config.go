package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GoogleConfig holds the Google Calendar OAuth client and token locations.
type GoogleConfig struct {
	// CredentialsFile is the OAuth client secrets JSON ("installed" app)
	// downloaded from the Google Cloud console.
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file"`
	// TokenFile is where the obtained bearer token is cached between runs.
	TokenFile string `yaml:"token_file" json:"token_file"`
}

// OutlookConfig holds the Microsoft Graph public-client configuration.
type OutlookConfig struct {
	// ClientID is the Azure application (public client) ID used for the
	// device-code flow. No secret is required.
	ClientID string `yaml:"client_id" json:"client_id"`
	// TokenFile is where the obtained bearer token is cached between runs.
	TokenFile string `yaml:"token_file" json:"token_file"`
}

// Config is the top-level application configuration.
type Config struct {
	// Term is the default academic term code (e.g. "W24") used when the
	// caller does not pass one explicitly.
	Term string `yaml:"term" json:"term"`

	// ScheduleURL is the institution's schedule-print page. The term code is
	// appended as the termId query parameter.
	ScheduleURL string `yaml:"schedule_url" json:"schedule_url"`

	// Timezone is the IANA zone all generated event times are civil-local to.
	Timezone string `yaml:"timezone" json:"timezone"`

	// CalendarName is the display name of the remote calendar events are
	// imported into; it is created if absent.
	CalendarName string `yaml:"calendar_name" json:"calendar_name"`

	// Output is the path the generated feed artifact is written to.
	Output string `yaml:"output" json:"output"`

	// LoginTimeoutMinutes bounds the interactive login/MFA wait.
	LoginTimeoutMinutes int `yaml:"login_timeout_minutes" json:"login_timeout_minutes"`

	// ExcludeBreaks, when true, adds EXDATE entries for fall study break and
	// winter reading week so recurring meetings skip those dates.
	ExcludeBreaks bool `yaml:"exclude_breaks" json:"exclude_breaks"`

	Google  GoogleConfig  `yaml:"google" json:"google"`
	Outlook OutlookConfig `yaml:"outlook" json:"outlook"`
}

// DefaultScheduleURL is the University of Guelph Colleague self-service
// schedule-print page.
const DefaultScheduleURL = "https://colleague-ss.uoguelph.ca/Student/Planning/DegreePlans/PrintSchedule"

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Term:                "W24",
		ScheduleURL:         DefaultScheduleURL,
		Timezone:            "America/Toronto",
		CalendarName:        "UofG Schedule",
		Output:              "Schedule.ics",
		LoginTimeoutMinutes: 5,
		ExcludeBreaks:       false,
		Google: GoogleConfig{
			CredentialsFile: "credentials.json",
			TokenFile:       "token.json",
		},
		Outlook: OutlookConfig{
			TokenFile: "outlook_token.json",
		},
	}
}

// Normalize fills in missing/zero values with defaults so partially-filled
// configs still behave correctly.
func (c *Config) Normalize() {
	if c.Term == "" {
		c.Term = "W24"
	}
	if c.ScheduleURL == "" {
		c.ScheduleURL = DefaultScheduleURL
	}
	if c.Timezone == "" {
		c.Timezone = "America/Toronto"
	}
	if c.CalendarName == "" {
		c.CalendarName = "UofG Schedule"
	}
	if c.Output == "" {
		c.Output = "Schedule.ics"
	}
	if c.LoginTimeoutMinutes <= 0 {
		c.LoginTimeoutMinutes = 5
	}
	if c.Google.CredentialsFile == "" {
		c.Google.CredentialsFile = "credentials.json"
	}
	if c.Google.TokenFile == "" {
		c.Google.TokenFile = "token.json"
	}
	if c.Outlook.TokenFile == "" {
		c.Outlook.TokenFile = "outlook_token.json"
	}
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist, a default config is written there (0600, parent
// directory created) and returned. Otherwise the YAML is unmarshalled and
// normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration to path atomically (temp file + rename) with
// 0600 permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".uofgsched-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
