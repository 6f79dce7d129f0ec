package config

import "git.home.luguber.info/inful/sitebuilder/internal/retry"

// Named defaults. The orchestrator never reads these directly; they reach it
// through a Config value.
const (
	DefaultSourcePath        = "./"
	DefaultDestPath          = "./_site/"
	DefaultConfigName        = "sitebuilder.yaml"
	DefaultTemplatesDir      = "_templates"
	DefaultPostsDir          = "_posts"
	DefaultTemplateExtension = "tpl"
	DefaultTemplateName      = "default"
	// DefaultOutputExtension is appended to a document key, so the default
	// output path is destination/<key>.html; set output_extension to "" for
	// destination/<key>.
	DefaultOutputExtension = ".html"
	DefaultNotifySubject   = "sitebuilder.builds"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config)
	Domain() string
}

// LayoutDefaultApplier handles source layout defaults.
type LayoutDefaultApplier struct{}

func (LayoutDefaultApplier) Domain() string { return "layout" }

func (LayoutDefaultApplier) ApplyDefaults(cfg *Config) {
	if cfg.Source == "" {
		cfg.Source = DefaultSourcePath
	}
	if cfg.Destination == "" {
		cfg.Destination = DefaultDestPath
	}
	if cfg.TemplatesDir == "" {
		cfg.TemplatesDir = DefaultTemplatesDir
	}
	if cfg.PostsDir == "" {
		cfg.PostsDir = DefaultPostsDir
	}
	if len(cfg.TemplateExtensions) == 0 {
		cfg.TemplateExtensions = []string{DefaultTemplateExtension}
	}
	if cfg.DefaultTemplate == "" {
		cfg.DefaultTemplate = DefaultTemplateName
	}
	if cfg.Permalink == "" {
		cfg.Permalink = PermalinkFlat
	}
}

// BuildDefaultApplier handles Build configuration defaults.
type BuildDefaultApplier struct{}

func (BuildDefaultApplier) Domain() string { return "build" }

func (BuildDefaultApplier) ApplyDefaults(cfg *Config) {
	if cfg.Build.Workers <= 0 {
		cfg.Build.Workers = 1
	}
	if cfg.Build.FailurePolicy == "" {
		cfg.Build.FailurePolicy = FailFast
	}
}

// NotifyDefaultApplier handles notification defaults.
type NotifyDefaultApplier struct{}

func (NotifyDefaultApplier) Domain() string { return "notify" }

func (NotifyDefaultApplier) ApplyDefaults(cfg *Config) {
	if cfg.Notify.NATSURL == "" {
		return
	}
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = DefaultNotifySubject
	}
	if cfg.Notify.Backoff == "" {
		cfg.Notify.Backoff = string(retry.BackoffLinear)
	}
}

var defaultAppliers = []DefaultApplier{
	LayoutDefaultApplier{},
	BuildDefaultApplier{},
	NotifyDefaultApplier{},
}

func applyDefaults(cfg *Config) {
	for _, a := range defaultAppliers {
		a.ApplyDefaults(cfg)
	}
}
