// Package config loads process configuration for ghtower.
//
// Sources, lowest precedence first: built-in defaults, the settings file
// <config-dir>/config.yaml, then the environment. Environment values may
// come from .env files (./.env, then <config-dir>/.env); a .env file never
// overrides a variable that is already set.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DirName is the config directory created under the home directory.
const DirName = ".githubtower"

// SettingsFile is the optional settings file inside the config directory.
const SettingsFile = "config.yaml"

// EnvPrefix is the prefix for environment overrides of settings keys,
// e.g. GHTOWER_PROJECTS_DIR or GHTOWER_S3_BUCKET.
const EnvPrefix = "GHTOWER"

// ErrNoToken is returned by RequireToken when neither GITHUB_TOKEN nor
// GH_TOKEN is set.
var ErrNoToken = errors.New("GitHub token not found: set GITHUB_TOKEN or GH_TOKEN")

// Config is the resolved configuration of one invocation.
type Config struct {
	// Dir is the config directory. It is not a settings key.
	Dir string `yaml:"-" mapstructure:"-"`

	Token          string `yaml:"-" mapstructure:"token"`
	Org            string `yaml:"org" mapstructure:"org"`
	ProjectsDir    string `yaml:"projects_dir" mapstructure:"projects_dir"`
	APIURL         string `yaml:"api_url" mapstructure:"api_url"`
	GraphQLURL     string `yaml:"graphql_url" mapstructure:"graphql_url"`
	StatusField    string `yaml:"status_field" mapstructure:"status_field"`
	FallbackColumn string `yaml:"fallback_column" mapstructure:"fallback_column"`
	Journal        string `yaml:"journal" mapstructure:"journal"`

	Log   LogConfig   `yaml:"log" mapstructure:"log"`
	Watch WatchConfig `yaml:"watch" mapstructure:"watch"`
	S3    S3Config    `yaml:"s3" mapstructure:"s3"`
}

// LogConfig configures the rotating log file.
type LogConfig struct {
	File       string `yaml:"file" mapstructure:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	DebounceMS int `yaml:"debounce_ms" mapstructure:"debounce_ms"`
}

// S3Config configures project backups to an S3-compatible bucket.
type S3Config struct {
	Endpoint     string `yaml:"endpoint" mapstructure:"endpoint"`
	Bucket       string `yaml:"bucket" mapstructure:"bucket"`
	Region       string `yaml:"region" mapstructure:"region"`
	AccessKey    string `yaml:"access_key" mapstructure:"access_key"`
	SecretKey    string `yaml:"secret_key" mapstructure:"secret_key"`
	UsePathStyle bool   `yaml:"use_path_style" mapstructure:"use_path_style"`
	Prefix       string `yaml:"prefix" mapstructure:"prefix"`
}

// DefaultDir returns ~/.githubtower.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// setDefaults registers every settings key so that environment overrides
// reach Unmarshal.
func setDefaults(v *viper.Viper, dir string) {
	v.SetDefault("org", "")
	v.SetDefault("projects_dir", filepath.Join(dir, "projects"))
	v.SetDefault("api_url", "https://api.github.com")
	v.SetDefault("graphql_url", "https://api.github.com/graphql")
	v.SetDefault("status_field", "Status")
	v.SetDefault("fallback_column", "No Status")
	v.SetDefault("journal", filepath.Join(dir, "journal.db"))

	v.SetDefault("log.file", filepath.Join(dir, "logs", "ghtower.log"))
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	v.SetDefault("watch.debounce_ms", 500)

	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("s3.use_path_style", false)
	v.SetDefault("s3.prefix", "ghtower")
}

// Load resolves the configuration rooted at dir (DefaultDir when empty).
// The config directory and the projects directory are created.
func Load(dir string) (*Config, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := LoadDotEnv(filepath.Join(dir, ".env")); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v, dir)

	settings := filepath.Join(dir, SettingsFile)
	if _, err := os.Stat(settings); err == nil {
		v.SetConfigFile(settings)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", settings, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Explicit names take precedence over the prefix; the first set one wins.
	if err := v.BindEnv("token", "GITHUB_TOKEN", "GH_TOKEN"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("org", "GITHUB_ORG", EnvPrefix+"_ORG"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.Dir = dir
	cfg.Token = strings.TrimSpace(cfg.Token)
	cfg.ProjectsDir = expandHome(cfg.ProjectsDir)

	if err := os.MkdirAll(cfg.ProjectsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create projects directory: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv exports the variables of a .env file that are not already
// set. A missing file is not an error. Keys are exported upper-cased.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	for _, key := range v.AllKeys() {
		name := strings.ToUpper(key)
		if _, set := os.LookupEnv(name); set {
			continue
		}
		if err := os.Setenv(name, v.GetString(key)); err != nil {
			return fmt.Errorf("failed to export %s: %w", name, err)
		}
	}
	return nil
}

// RequireToken returns ErrNoToken when no token is configured.
func (c *Config) RequireToken() error {
	if c.Token == "" {
		return ErrNoToken
	}
	return nil
}

// WithProjectsDir returns a copy of c using folder as the projects
// directory. An empty folder returns c unchanged.
func (c *Config) WithProjectsDir(folder string) *Config {
	if folder == "" {
		return c
	}
	out := *c
	out.ProjectsDir = expandHome(folder)
	return &out
}

// ProjectDir returns the directory of a project.
func (c *Config) ProjectDir(name string) string {
	return filepath.Join(c.ProjectsDir, name)
}

// EnsureProjectDir creates the directory of a project and returns it.
func (c *Config) EnsureProjectDir(name string) (string, error) {
	dir := c.ProjectDir(name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create project directory: %w", err)
	}
	return dir, nil
}

// BackupEnabled reports whether an S3 bucket is configured.
func (c *Config) BackupEnabled() bool {
	return c.S3.Bucket != ""
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
