package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Dir   string `arg:"" optional:"" default:"." help:"Directory to scaffold"`
	Force bool   `help:"Overwrite existing files"`
}

func (i *InitCmd) Run(g *Global, _ *CLI) error {
	return RunInit(g.out(), i.Dir, i.Force, time.Now())
}

const defaultTemplate = `<!doctype html>
<html>
<head><title>{{title}} | {{site.title}}</title></head>
<body>
<h1>{{title}}</h1>
{{content}}
</body>
</html>
`

const welcomeBody = "Welcome to your new site. Edit this post in _posts/ and run `sitebuilder build`.\n"

// RunInit scaffolds a minimal site in dir: a default template, one post
// dated now and a configuration file.
func RunInit(w io.Writer, dir string, force bool, now time.Time) error {
	// Provide friendly user-facing messages on stdout.
	_, _ = fmt.Fprintf(w, "Initializing site in %s\n", dir)

	post, err := frontmatter.Compose(map[string]string{"title": "Welcome"}, []byte(welcomeBody), frontmatter.Style{Newline: "\n"})
	if err != nil {
		return err
	}
	files := []struct {
		path    string
		content []byte
	}{
		{filepath.Join(dir, config.DefaultTemplatesDir, config.DefaultTemplateName+"."+config.DefaultTemplateExtension), []byte(defaultTemplate)},
		{filepath.Join(dir, config.DefaultPostsDir, now.Format("2006-01-02")+"-welcome.md"), post},
	}
	for _, f := range files {
		if err := writeScaffold(f.path, f.content, force); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(w, "  created %s\n", f.path)
	}

	cfgPath := filepath.Join(dir, config.DefaultConfigName)
	if err := config.Init(cfgPath, force); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "  created %s\n", cfgPath)
	_, _ = fmt.Fprintln(w, "initialized successfully")
	return nil
}

func writeScaffold(path string, content []byte, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return sberrors.IOError("mkdir", filepath.Dir(path), err)
	}
	// #nosec G306 -- site sources are not secret
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return sberrors.IOError("write", path, err)
	}
	return nil
}
