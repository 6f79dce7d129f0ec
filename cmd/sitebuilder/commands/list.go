package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/disiqueira/gotree/v3"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
)

// ListCmd implements the 'list' command.
type ListCmd struct {
	SiteFlags `embed:""`
}

func (l *ListCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.resolveConfig(l.SiteFlags, RenderFlags{})
	if err != nil {
		return err
	}
	return RunList(g.out(), cfg)
}

// RunList prints the documents of cfg as a tree keyed by path segment. Each
// leaf shows the template the document renders with.
func RunList(w io.Writer, cfg *config.Config) error {
	store, err := build.LoadTemplates(cfg)
	if err != nil {
		return err
	}
	docs, err := build.LoadDocuments(cfg)
	if err != nil {
		return err
	}
	renderer := build.NewRenderer(cfg, store, "")

	tree := gotree.New(cfg.Source)
	branches := map[string]gotree.Tree{"": tree}
	for _, doc := range docs.Documents() {
		parent := branchFor(tree, branches, doc.Key)
		label := doc.Slug()
		if tpl, err := renderer.Resolve(doc); err == nil {
			label = fmt.Sprintf("%s [%s]", label, tpl.Name)
		} else {
			label += " [missing template]"
		}
		parent.Add(label)
	}
	_, err = fmt.Fprint(w, tree.Print())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%d documents, %d templates\n", docs.Len(), store.Len())
	return err
}

// branchFor returns the node for key's directory, creating intermediate
// nodes as needed.
func branchFor(root gotree.Tree, branches map[string]gotree.Tree, key string) gotree.Tree {
	i := strings.LastIndex(key, "/")
	if i < 0 {
		return root
	}
	dir := key[:i]
	if b, ok := branches[dir]; ok {
		return b
	}
	parent := branchFor(root, branches, dir)
	b := parent.Add(dir[strings.LastIndex(dir, "/")+1:] + "/")
	branches[dir] = b
	return b
}
