package config

import (
	"path/filepath"
	"regexp"
	"strings"

	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/pathfilter"
	"git.home.luguber.info/inful/sitebuilder/internal/retry"
)

var siteParamName = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.-]*$`)

// Validate checks the configuration after defaults have been applied.
func Validate(cfg *Config) error {
	validator := newConfigurationValidator(cfg)
	return validator.validate()
}

// configurationValidator coordinates validation across all configuration domains.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

func (cv *configurationValidator) validate() error {
	for _, step := range []func() error{
		cv.validateLayout,
		cv.validateTemplates,
		cv.validateOutput,
		cv.validateBuild,
		cv.validateSite,
		cv.validateNotify,
	} {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func (cv *configurationValidator) validateLayout() error {
	for field, dir := range map[string]string{
		"templates_dir": cv.config.TemplatesDir,
		"posts_dir":     cv.config.PostsDir,
	} {
		if err := validateSubdir(field, dir); err != nil {
			return err
		}
	}
	if cv.config.TemplatesDir == cv.config.PostsDir {
		return sberrors.InvalidConfig("posts_dir", "must differ from templates_dir")
	}
	if _, err := pathfilter.MatchingNone(cv.config.Exclude...); err != nil {
		return sberrors.InvalidConfig("exclude", err.Error())
	}
	return nil
}

func validateSubdir(field, dir string) error {
	clean := filepath.Clean(dir)
	if dir == "" || filepath.IsAbs(dir) || clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return sberrors.InvalidConfig(field, "must be a relative directory inside the source")
	}
	return nil
}

func (cv *configurationValidator) validateTemplates() error {
	if len(cv.config.TemplateExtensions) == 0 {
		return sberrors.InvalidConfig("template_extensions", "at least one extension is required")
	}
	for _, ext := range cv.config.TemplateExtensions {
		if strings.TrimPrefix(ext, ".") == "" || strings.ContainsAny(ext, `/\`) {
			return sberrors.InvalidConfig("template_extensions", "invalid extension "+ext)
		}
	}
	if cv.config.DefaultTemplate == "" || strings.ContainsAny(cv.config.DefaultTemplate, `/\`) {
		return sberrors.InvalidConfig("default_template", "must be a bare template name")
	}
	return nil
}

func (cv *configurationValidator) validateOutput() error {
	ext := cv.config.OutputExt()
	if ext != "" && (!strings.HasPrefix(ext, ".") || strings.ContainsAny(ext, `/\`)) {
		return sberrors.InvalidConfig("output_extension", "must be empty or start with a dot")
	}
	switch cv.config.Permalink {
	case PermalinkFlat, PermalinkDate:
	default:
		return sberrors.InvalidConfig("permalink", "must be flat or date")
	}
	return nil
}

func (cv *configurationValidator) validateBuild() error {
	if cv.config.Build.Workers < 1 {
		return sberrors.InvalidConfig("build.workers", "must be at least 1")
	}
	switch cv.config.Build.FailurePolicy {
	case FailFast, BestEffort:
	default:
		return sberrors.InvalidConfig("build.failure_policy", "must be fail_fast or best_effort")
	}
	return nil
}

func (cv *configurationValidator) validateSite() error {
	for name := range cv.config.Site {
		if !siteParamName.MatchString(name) {
			return sberrors.InvalidConfig("site", "invalid parameter name "+name)
		}
	}
	return nil
}

func (cv *configurationValidator) validateNotify() error {
	n := cv.config.Notify
	if n.Retries < 0 {
		return sberrors.InvalidConfig("notify.retries", "cannot be negative")
	}
	if n.Backoff != "" && retry.NormalizeBackoff(n.Backoff) == "" {
		return sberrors.InvalidConfig("notify.backoff", "must be fixed, linear or exponential")
	}
	return nil
}
