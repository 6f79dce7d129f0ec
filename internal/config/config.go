package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
)

// Config represents the site build configuration. Relative paths are
// resolved against the working directory of the process.
type Config struct {
	Source             string            `yaml:"source"`
	Destination        string            `yaml:"destination"`
	TemplatesDir       string            `yaml:"templates_dir"`
	PostsDir           string            `yaml:"posts_dir"`
	TemplateExtensions []string          `yaml:"template_extensions"`
	DefaultTemplate    string            `yaml:"default_template"`
	OutputExtension    *string           `yaml:"output_extension,omitempty"`
	Permalink          PermalinkStyle    `yaml:"permalink"`
	Markdown           bool              `yaml:"markdown,omitempty"`
	Exclude            []string          `yaml:"exclude,omitempty"`
	Site               map[string]string `yaml:"site,omitempty"`
	GitInfo            bool              `yaml:"git_info,omitempty"`
	Build              BuildConfig       `yaml:"build"`
	History            HistoryConfig     `yaml:"history,omitempty"`
	Notify             NotifyConfig      `yaml:"notify,omitempty"`
	Metrics            MetricsConfig     `yaml:"metrics,omitempty"`

	// Path is the configuration file this value was loaded from, if any.
	Path string `yaml:"-"`
}

// BuildConfig controls the render stage.
type BuildConfig struct {
	Workers       int           `yaml:"workers"`
	FailurePolicy FailurePolicy `yaml:"failure_policy"`
}

// HistoryConfig points at the SQLite build history database. Empty disables it.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// NotifyConfig enables build notifications over NATS. Retries bounds the
// extra publish attempts after a failure.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
	Retries int    `yaml:"retries,omitempty"`
	Backoff string `yaml:"backoff,omitempty"`
}

// MetricsConfig enables a Prometheus textfile export after each build.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// PermalinkStyle selects how document keys are laid out.
type PermalinkStyle string

const (
	PermalinkFlat PermalinkStyle = "flat"
	PermalinkDate PermalinkStyle = "date"
)

// FailurePolicy selects what the orchestrator does after a document fails.
type FailurePolicy string

const (
	FailFast   FailurePolicy = "fail_fast"
	BestEffort FailurePolicy = "best_effort"
)

// OutputExt returns the configured output extension.
func (c *Config) OutputExt() string {
	if c.OutputExtension == nil {
		return DefaultOutputExtension
	}
	return *c.OutputExtension
}

// TemplatesPath returns the absolute-or-relative templates directory.
func (c *Config) TemplatesPath() string { return filepath.Join(c.Source, c.TemplatesDir) }

// PostsPath returns the documents directory.
func (c *Config) PostsPath() string { return filepath.Join(c.Source, c.PostsDir) }

// Default returns a configuration populated with defaults only.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load .env files if present; a missing file is not an error.
	loadEnvFiles()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, sberrors.ConfigNotFound(configPath, err)
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, sberrors.Wrap(err, sberrors.KindInvalidConfig, sberrors.SeverityFatal, "failed to decode configuration").
			WithContext("path", configPath)
	}
	cfg.Path = configPath

	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parse(data []byte) (*Config, error) {
	// Expand environment variables in the YAML content
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &cfg, nil
}

// Overrides holds command-line values that take precedence over the file.
// Zero values mean "not set".
type Overrides struct {
	ConfigPath  string
	Source      string
	Destination string
	Workers     int
	BestEffort  bool
}

// Resolve builds the effective configuration: an explicit config file must
// exist; otherwise DefaultConfigName inside the source directory is used if
// present. Flags override file values, file values override defaults.
func Resolve(o Overrides) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	switch {
	case o.ConfigPath != "":
		cfg, err = Load(o.ConfigPath)
	default:
		source := o.Source
		if source == "" {
			source = DefaultSourcePath
		}
		candidate := filepath.Join(source, DefaultConfigName)
		if _, statErr := os.Stat(candidate); statErr == nil {
			cfg, err = Load(candidate)
		} else if errors.Is(statErr, fs.ErrNotExist) {
			loadEnvFiles()
			cfg = Default()
		} else {
			err = sberrors.IOError("stat", candidate, statErr)
		}
	}
	if err != nil {
		return nil, err
	}

	if o.Source != "" {
		cfg.Source = o.Source
	}
	if o.Destination != "" {
		cfg.Destination = o.Destination
	}
	if o.Workers > 0 {
		cfg.Build.Workers = o.Workers
	}
	if o.BestEffort {
		cfg.Build.FailurePolicy = BestEffort
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	ext := DefaultOutputExtension
	example := Config{
		Destination:        DefaultDestPath,
		TemplatesDir:       DefaultTemplatesDir,
		PostsDir:           DefaultPostsDir,
		TemplateExtensions: []string{DefaultTemplateExtension},
		DefaultTemplate:    DefaultTemplateName,
		OutputExtension:    &ext,
		Permalink:          PermalinkFlat,
		Exclude:            []string{"README.md", "**/*.psd"},
		Site: map[string]string{
			"title": "My Site",
		},
		Build: BuildConfig{Workers: 1, FailurePolicy: FailFast},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("failed to marshal example config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o750); err != nil {
		return sberrors.IOError("mkdir", filepath.Dir(configPath), err)
	}
	// #nosec G306 -- configuration is not secret
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return sberrors.IOError("write", configPath, err)
	}
	return nil
}
