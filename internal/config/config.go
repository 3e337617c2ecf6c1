// Package config provides loading and saving of the application's non-secret settings.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// AuthMode selects how requests to Jira are authenticated.
type AuthMode string

const (
	// AuthBasic uses email and API token (Jira Cloud).
	AuthBasic AuthMode = "basic"
	// AuthBearer uses a personal access token (Jira Data Center).
	AuthBearer AuthMode = "bearer"
)

const appName = "slacheck"

// Settings holds the values persisted between runs. It has no token field;
// the API token lives only in Credentials.
type Settings struct {
	SiteURL  string            `mapstructure:"site_url" yaml:"site_url"`
	Email    string            `mapstructure:"email" yaml:"email"`
	AuthMode AuthMode          `mapstructure:"auth_mode" yaml:"auth_mode,omitempty"`
	Fields   map[string]string `mapstructure:"fields" yaml:"fields,omitempty"`

	// env and file record, per overridable key, the environment value in
	// effect and the value the settings file held underneath it.
	env  map[string]string
	file map[string]string
}

// envKeys are the settings an environment variable may override.
var envKeys = []string{"site_url", "email", "auth_mode"}

// Credentials are the values needed to open a Jira session.
type Credentials struct {
	SiteURL  string
	Email    string
	Token    string
	AuthMode AuthMode
}

// FieldID returns the cached field ID for a role, or an empty string.
func (s *Settings) FieldID(role string) string {
	if s.Fields == nil {
		return ""
	}
	return s.Fields[role]
}

// SetFieldID caches the field ID for a role.
func (s *Settings) SetFieldID(role, id string) {
	if s.Fields == nil {
		s.Fields = make(map[string]string)
	}
	s.Fields[role] = id
}

// Mode returns the configured auth mode, defaulting to basic.
func (s *Settings) Mode() AuthMode {
	if s.AuthMode == "" {
		return AuthBasic
	}
	return s.AuthMode
}

// DefaultPath returns the settings file location. SLACHECK_CONFIG overrides it.
func DefaultPath() string {
	if p := os.Getenv("SLACHECK_CONFIG"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, "."+appName, "settings.yaml")
	}
	return filepath.Join(dir, appName, "settings.yaml")
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("SLACHECK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("site_url", "SLACHECK_SITE_URL")
	v.BindEnv("email", "SLACHECK_EMAIL")
	v.BindEnv("auth_mode", "SLACHECK_AUTH_MODE")
	v.BindEnv("api_token", "SLACHECK_API_TOKEN", "JIRA_TOKEN")
	return v
}

// Load reads settings from path. A missing file yields empty settings.
// Environment variables (and a .env file in the working directory) override
// values from the file.
func Load(path string) (*Settings, error) {
	_ = godotenv.Load()

	file := viper.New()
	if _, err := os.Stat(path); err == nil {
		file.SetConfigFile(path)
		file.SetConfigType("yaml")
		if err := file.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read settings file %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat settings file %s: %w", path, err)
	}

	v := newViper()
	if err := v.MergeConfigMap(file.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to merge settings file %s: %w", path, err)
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}

	if settings.SiteURL != "" {
		settings.SiteURL = NormalizeSiteURL(settings.SiteURL)
	}

	envOnly := newViper()
	for _, key := range envKeys {
		value := envOnly.GetString(key)
		if value == "" {
			continue
		}
		if key == "site_url" {
			value = NormalizeSiteURL(value)
		}
		if settings.env == nil {
			settings.env = make(map[string]string)
			settings.file = make(map[string]string)
		}
		settings.env[key] = value
		settings.file[key] = file.GetString(key)
	}

	if err := validateSettings(settings); err != nil {
		return nil, err
	}

	return settings, nil
}

// EnvToken returns an API token supplied through the environment, if any.
func EnvToken() string {
	_ = godotenv.Load()
	return newViper().GetString("api_token")
}

// Save writes settings to path, creating the parent directory if needed.
// The file is replaced atomically and readable only by the owner.
//
// Values that still equal an environment override are written as they were
// in the file, so an override applies only while the variable is set.
func Save(path string, settings *Settings) error {
	out := *settings
	out.SiteURL = settings.persisted("site_url", settings.SiteURL)
	out.Email = settings.persisted("email", settings.Email)
	out.AuthMode = AuthMode(settings.persisted("auth_mode", string(settings.AuthMode)))

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp settings file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace settings file: %w", err)
	}
	return nil
}

// persisted returns the value to write for key: the file's value while
// current still comes from the environment, otherwise current.
func (s *Settings) persisted(key, current string) string {
	if env, ok := s.env[key]; ok && env == current {
		return s.file[key]
	}
	return current
}

// NormalizeSiteURL trims whitespace and trailing slashes and adds an https
// scheme when none is given.
func NormalizeSiteURL(raw string) string {
	s := strings.TrimRight(strings.TrimSpace(raw), "/")
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	return s
}

func validateSettings(settings *Settings) error {
	switch settings.AuthMode {
	case "", AuthBasic, AuthBearer:
	default:
		return fmt.Errorf("unknown auth_mode %q: expected %q or %q", settings.AuthMode, AuthBasic, AuthBearer)
	}
	return nil
}

// ValidateCredentials ensures that all values required for a session are present.
func ValidateCredentials(creds Credentials) error {
	var missing []string

	if creds.SiteURL == "" {
		missing = append(missing, "site URL")
	} else if u, err := url.Parse(creds.SiteURL); err != nil || u.Host == "" {
		return fmt.Errorf("invalid site URL %q", creds.SiteURL)
	}
	if creds.AuthMode != AuthBearer && creds.Email == "" {
		missing = append(missing, "email")
	}
	if creds.Token == "" {
		missing = append(missing, "API token")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required credentials: %v", missing)
	}

	return nil
}
