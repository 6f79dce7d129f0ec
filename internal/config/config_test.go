package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	p := filepath.Join(dir, DefaultConfigName)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestDefault_MatchesNamedConstants(t *testing.T) {
	cfg := Default()

	require.Equal(t, DefaultSourcePath, cfg.Source)
	require.Equal(t, DefaultDestPath, cfg.Destination)
	require.Equal(t, "_templates", cfg.TemplatesDir)
	require.Equal(t, "_posts", cfg.PostsDir)
	require.Equal(t, []string{"tpl"}, cfg.TemplateExtensions)
	require.Equal(t, "default", cfg.DefaultTemplate)
	require.Equal(t, ".html", cfg.OutputExt())
	require.Equal(t, PermalinkFlat, cfg.Permalink)
	require.Equal(t, 1, cfg.Build.Workers)
	require.Equal(t, FailFast, cfg.Build.FailurePolicy)
	require.NoError(t, Validate(cfg))
}

func TestLoad_AppliesFileValuesAndEnvExpansion(t *testing.T) {
	t.Setenv("SITE_TITLE_FOR_TEST", "Expanded")
	dir := t.TempDir()
	p := writeConfig(t, dir, `
destination: out
permalink: date
output_extension: ""
markdown: true
exclude: ["drafts/**"]
site:
  title: ${SITE_TITLE_FOR_TEST}
build:
  workers: 4
  failure_policy: best_effort
notify:
  nats_url: nats://127.0.0.1:4222
`)

	cfg, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, p, cfg.Path)
	require.Equal(t, "out", cfg.Destination)
	require.Equal(t, PermalinkDate, cfg.Permalink)
	require.Equal(t, "", cfg.OutputExt())
	require.True(t, cfg.Markdown)
	require.Equal(t, "Expanded", cfg.Site["title"])
	require.Equal(t, 4, cfg.Build.Workers)
	require.Equal(t, BestEffort, cfg.Build.FailurePolicy)
	require.Equal(t, DefaultNotifySubject, cfg.Notify.Subject)
	require.Equal(t, "linear", cfg.Notify.Backoff)
	require.Equal(t, "_posts", cfg.PostsDir, "unset fields keep defaults")
}

func TestLoad_UnknownFieldIsInvalidConfig(t *testing.T) {
	p := writeConfig(t, t.TempDir(), "destinaton: typo\n")

	_, err := Load(p)
	require.Error(t, err)
	require.True(t, sberrors.IsKind(err, sberrors.KindInvalidConfig))
}

func TestLoad_MissingFileIsInvalidConfig(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	require.True(t, sberrors.IsKind(err, sberrors.KindInvalidConfig))
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name  string
		field string
		edit  func(*Config)
	}{
		{"permalink", "permalink", func(c *Config) { c.Permalink = "pretty" }},
		{"policy", "build.failure_policy", func(c *Config) { c.Build.FailurePolicy = "retry" }},
		{"workers", "build.workers", func(c *Config) { c.Build.Workers = 0 }},
		{"escaping posts dir", "posts_dir", func(c *Config) { c.PostsDir = "../elsewhere" }},
		{"absolute templates dir", "templates_dir", func(c *Config) { c.TemplatesDir = "/abs" }},
		{"same dirs", "posts_dir", func(c *Config) { c.PostsDir = c.TemplatesDir }},
		{"bad exclude", "exclude", func(c *Config) { c.Exclude = []string{"[oops"} }},
		{"bad extension", "template_extensions", func(c *Config) { c.TemplateExtensions = []string{"."} }},
		{"output ext", "output_extension", func(c *Config) { e := "html"; c.OutputExtension = &e }},
		{"default template", "default_template", func(c *Config) { c.DefaultTemplate = "a/b" }},
		{"site param", "site", func(c *Config) { c.Site = map[string]string{"bad name": "x"} }},
		{"notify retries", "notify.retries", func(c *Config) { c.Notify.Retries = -1 }},
		{"notify backoff", "notify.backoff", func(c *Config) { c.Notify.Backoff = "random" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.edit(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			e, ok := sberrors.As(err)
			require.True(t, ok)
			require.Equal(t, sberrors.KindInvalidConfig, e.Kind)
			require.Equal(t, tc.field, e.Context["field"])
		})
	}
}

func TestResolve_FlagsOverrideFile(t *testing.T) {
	src := t.TempDir()
	writeConfig(t, src, "destination: from-file\nbuild:\n  workers: 2\n")

	cfg, err := Resolve(Overrides{Source: src})
	require.NoError(t, err)
	require.Equal(t, src, cfg.Source)
	require.Equal(t, "from-file", cfg.Destination)
	require.Equal(t, 2, cfg.Build.Workers)

	cfg, err = Resolve(Overrides{Source: src, Destination: "flag-dest", Workers: 8, BestEffort: true})
	require.NoError(t, err)
	require.Equal(t, "flag-dest", cfg.Destination)
	require.Equal(t, 8, cfg.Build.Workers)
	require.Equal(t, BestEffort, cfg.Build.FailurePolicy)
}

func TestResolve_NoConfigFileUsesDefaults(t *testing.T) {
	src := t.TempDir()

	cfg, err := Resolve(Overrides{Source: src})
	require.NoError(t, err)
	require.Empty(t, cfg.Path)
	require.Equal(t, DefaultDestPath, cfg.Destination)
}

func TestResolve_ExplicitConfigMustExist(t *testing.T) {
	_, err := Resolve(Overrides{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml")})
	require.True(t, sberrors.IsKind(err, sberrors.KindInvalidConfig))
}

func TestInit_WritesLoadableConfig(t *testing.T) {
	p := filepath.Join(t.TempDir(), "site", DefaultConfigName)

	require.NoError(t, Init(p, false))
	require.Error(t, Init(p, false), "refuses to overwrite without force")
	require.NoError(t, Init(p, true))

	cfg, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, "My Site", cfg.Site["title"])
	require.Equal(t, []string{"README.md", "**/*.psd"}, cfg.Exclude)
}

func TestNormalizeLogging(t *testing.T) {
	require.Equal(t, LogLevelDebug, NormalizeLogLevel(" DEBUG "))
	require.Equal(t, LogLevelWarn, NormalizeLogLevel("warning"))
	require.Equal(t, LogLevelInfo, NormalizeLogLevel("chatty"))
	require.Equal(t, LogFormatJSON, NormalizeLogFormat("json"))
	require.Equal(t, LogFormatText, NormalizeLogFormat(""))
}
