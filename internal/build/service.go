package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/document"
	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/gitinfo"
	"git.home.luguber.info/inful/sitebuilder/internal/history"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/markdown"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/notify"
	"git.home.luguber.info/inful/sitebuilder/internal/pathfilter"
	"git.home.luguber.info/inful/sitebuilder/internal/templates"
	"git.home.luguber.info/inful/sitebuilder/internal/workspace"
)

// RevisionFunc resolves the source revision exposed as site.revision.
type RevisionFunc func(dir string) (string, error)

// Service runs site builds. The zero value is not usable; call NewService.
type Service struct {
	recorder metrics.Recorder
	history  history.Store
	notifier notify.Notifier
	revision RevisionFunc
	newID    func() string
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithRecorder reports stage and build metrics to r.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithHistory appends every finished build to h.
func WithHistory(h history.Store) Option {
	return func(s *Service) { s.history = h }
}

// WithNotifier publishes every finished build to n.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithRevisionFunc replaces the git lookup used when git_info is enabled.
func WithRevisionFunc(fn RevisionFunc) Option {
	return func(s *Service) { s.revision = fn }
}

// NewService creates a Service with no-op collaborators unless overridden.
func NewService(opts ...Option) *Service {
	s := &Service{
		recorder: metrics.NoopRecorder{},
		notifier: notify.Noop{},
		revision: gitRevision,
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes a build with a Service configured by opts.
func Run(ctx context.Context, cfg *config.Config, opts ...Option) (*Result, error) {
	return NewService(opts...).Run(ctx, cfg)
}

func gitRevision(dir string) (string, error) {
	info, err := gitinfo.Head(dir)
	if err != nil {
		return "", err
	}
	return info.Short(), nil
}

// Run executes the complete build pipeline. The returned Result is never
// nil, even when err is not.
func (s *Service) Run(ctx context.Context, cfg *config.Config) (*Result, error) {
	start := s.now()
	result := &Result{BuildID: s.newID(), StartTime: start}
	if cfg == nil {
		return s.finish(ctx, result, StageResolve, sberrors.InternalError("config required", nil))
	}
	result.Source = cfg.Source
	result.Destination = cfg.Destination
	log := slog.With(logfields.BuildID(result.BuildID))
	log.Info("Starting build", logfields.Source(cfg.Source), logfields.Dest(cfg.Destination))

	var sameDir bool
	if err := s.stage(ctx, log, StageResolve, func() error {
		var err error
		sameDir, err = checkLayout(cfg)
		if err != nil {
			return err
		}
		if cfg.GitInfo {
			result.Revision = s.lookupRevision(log, cfg.Source)
		}
		return nil
	}); err != nil {
		return s.finish(ctx, result, StageResolve, err)
	}

	if !sameDir {
		if err := s.stage(ctx, log, StageReset, func() error {
			if err := workspace.Reset(cfg.Destination); err != nil {
				return sberrors.IOError("reset", cfg.Destination, err)
			}
			return nil
		}); err != nil {
			return s.finish(ctx, result, StageReset, err)
		}
	}

	var store *templates.Store
	if err := s.stage(ctx, log, StageTemplates, func() error {
		var err error
		store, err = LoadTemplates(cfg)
		if err != nil {
			return err
		}
		result.Templates = store.Len()
		log.Info("Loaded templates", logfields.Count(store.Len()), logfields.Path(cfg.TemplatesPath()))
		return nil
	}); err != nil {
		return s.finish(ctx, result, StageTemplates, err)
	}

	if !sameDir {
		if err := s.stage(ctx, log, StageCopy, func() error {
			filter, err := CopyFilter(cfg)
			if err != nil {
				return err
			}
			stats, err := workspace.CopyTree(cfg.Source, cfg.Destination, filter)
			if err != nil {
				return sberrors.IOError("copy", cfg.Source, err)
			}
			result.Copied = stats.Files
			s.recorder.AddFilesCopied(stats.Files)
			log.Info("Copied static files", logfields.Count(stats.Files))
			return nil
		}); err != nil {
			return s.finish(ctx, result, StageCopy, err)
		}
	} else {
		log.Warn("Source and destination are the same directory; skipping reset and copy", logfields.Path(cfg.Source))
	}

	var docs *document.Collection
	if err := s.stage(ctx, log, StageDocuments, func() error {
		var err error
		docs, err = LoadDocuments(cfg)
		if err != nil {
			return err
		}
		result.Documents = docs.Len()
		log.Info("Loaded documents", logfields.Count(docs.Len()), logfields.Path(cfg.PostsPath()))
		return nil
	}); err != nil {
		return s.finish(ctx, result, StageDocuments, err)
	}

	renderer := NewRenderer(cfg, store, result.Revision)
	var renderErr error
	stageErr := s.stage(ctx, log, StageRender, func() error {
		pages, err := s.renderAll(ctx, log, renderer, docs.Documents(), cfg)
		result.Pages = pages
		for _, p := range pages {
			switch {
			case p.Err != nil:
				result.Failed++
			case !p.Skipped:
				result.Rendered++
				result.Outputs = append(result.Outputs, p.Output)
			}
		}
		renderErr = err
		return err
	})
	if stageErr != nil {
		if cfg.Build.FailurePolicy == config.BestEffort && result.Rendered > 0 && ctx.Err() == nil {
			result.Status = StatusPartial
		}
		return s.finish(ctx, result, StageRender, renderErr)
	}
	return s.finish(ctx, result, "", nil)
}

// stage times fn and reports it to the recorder.
func (s *Service) stage(ctx context.Context, log *slog.Logger, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		s.recorder.IncStageResult(name, metrics.ResultCanceled)
		return err
	}
	start := time.Now()
	err := fn()
	d := time.Since(start)
	s.recorder.ObserveStageDuration(name, d)

	res := metrics.ResultSuccess
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		res = metrics.ResultCanceled
	default:
		res = metrics.ResultFatal
	}
	s.recorder.IncStageResult(name, res)
	log.Debug("Stage finished", logfields.Stage(name), logfields.DurationMS(float64(d.Microseconds())/1000), slog.String("result", string(res)))
	return err
}

func (s *Service) lookupRevision(log *slog.Logger, dir string) string {
	rev, err := s.revision(dir)
	if err != nil {
		log.Warn("Could not determine source revision", logfields.Path(dir), logfields.Error(err))
		return ""
	}
	return rev
}

// checkLayout verifies the source exists and that resetting the destination
// cannot destroy it. It reports whether both name the same directory.
func checkLayout(cfg *config.Config) (bool, error) {
	if err := workspace.EnsureDir(cfg.Source); err != nil {
		return false, sberrors.IOError("stat", cfg.Source, err)
	}
	srcAbs, err := filepath.Abs(cfg.Source)
	if err != nil {
		return false, sberrors.IOError("resolve", cfg.Source, err)
	}
	destAbs, err := filepath.Abs(cfg.Destination)
	if err != nil {
		return false, sberrors.IOError("resolve", cfg.Destination, err)
	}
	if srcAbs == destAbs {
		return true, nil
	}
	if workspace.IsWithin(srcAbs, destAbs) {
		return false, sberrors.InvalidConfig("destination", "must not contain the source directory")
	}
	return false, nil
}

// relInside returns target relative to root in slash form, or "" when target
// is not below root.
func relInside(root, target string) string {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return ""
	}
	targetAbs, err := filepath.Abs(target)
	if err != nil {
		return ""
	}
	rel, err := filepath.Rel(rootAbs, targetAbs)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}
	return filepath.ToSlash(rel)
}

// CopyFilter selects the static files mirrored into the destination: no
// hidden entries, nothing under the templates or documents directories, not
// the destination itself, not the configuration file, and nothing matching
// an exclude glob.
func CopyFilter(cfg *config.Config) (pathfilter.Predicate, error) {
	excluded := []string{cfg.TemplatesDir, cfg.PostsDir}
	for _, p := range []string{cfg.Destination, cfg.Path} {
		if p == "" {
			continue
		}
		if rel := relInside(cfg.Source, p); rel != "" {
			excluded = append(excluded, rel)
		}
	}
	globs, err := pathfilter.MatchingNone(cfg.Exclude...)
	if err != nil {
		return nil, sberrors.InvalidConfig("exclude", err.Error())
	}
	return pathfilter.All(pathfilter.NotHidden(), pathfilter.Excluding(excluded...), globs), nil
}

// LoadTemplates loads the template store for cfg.
func LoadTemplates(cfg *config.Config) (*templates.Store, error) {
	return templates.Load(cfg.TemplatesPath(),
		pathfilter.All(pathfilter.NotHidden(), pathfilter.HasExtension(cfg.TemplateExtensions...)))
}

// LoadDocuments loads the document collection for cfg.
func LoadDocuments(cfg *config.Config) (*document.Collection, error) {
	return document.LoadAll(cfg.PostsPath(), pathfilter.NotHidden(), KeyOptions(cfg))
}

// KeyOptions maps the permalink setting onto document key derivation.
func KeyOptions(cfg *config.Config) document.KeyOptions {
	return document.KeyOptions{DateDirs: cfg.Permalink == config.PermalinkDate}
}

// NewRenderer builds the renderer configured by cfg.
func NewRenderer(cfg *config.Config, store *templates.Store, revision string) *templates.Renderer {
	opts := templates.RenderOptions{
		DefaultTemplate: cfg.DefaultTemplate,
		Site:            cfg.Site,
		Revision:        revision,
	}
	if cfg.Markdown {
		opts.Markdown = markdown.New(markdown.Options{Unsafe: true})
	}
	return templates.NewRenderer(store, opts)
}

// finish records the outcome, runs the history and notify hooks and returns
// result with err.
func (s *Service) finish(ctx context.Context, result *Result, failedStage string, err error) (*Result, error) {
	result.EndTime = s.now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	result.FailedStage = failedStage

	switch {
	case err == nil:
		result.Status = StatusSuccess
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		result.Status = StatusCanceled
	case result.Status == StatusPartial:
	default:
		result.Status = StatusFailed
	}

	s.recorder.ObserveBuildDuration(result.Duration)
	s.recorder.IncBuildOutcome(result.Status.outcomeLabel())

	log := slog.With(logfields.BuildID(result.BuildID))
	if err != nil {
		log.Error("Build failed", slog.String("status", string(result.Status)), logfields.Stage(failedStage), logfields.Error(err))
	} else {
		log.Info("Build complete",
			logfields.Count(result.Rendered),
			slog.Int("copied", result.Copied),
			logfields.DurationMS(float64(result.Duration.Microseconds())/1000))
	}

	// Hooks must still run after cancellation.
	hookCtx := context.WithoutCancel(ctx)
	if s.history != nil {
		if herr := s.history.Append(hookCtx, historyRecord(result, err)); herr != nil {
			log.Warn("Failed to record build history", logfields.Error(herr))
		}
	}
	if perr := s.notifier.Publish(hookCtx, buildEvent(result, err)); perr != nil {
		log.Warn("Failed to publish build event", logfields.Error(perr))
	}
	return result, err
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func historyRecord(r *Result, err error) history.BuildRecord {
	rec := history.BuildRecord{
		ID:          r.BuildID,
		StartedAt:   r.StartTime,
		Duration:    r.Duration,
		Outcome:     string(r.Status),
		Source:      r.Source,
		Destination: r.Destination,
		Revision:    r.Revision,
		Templates:   r.Templates,
		Documents:   r.Documents,
		Rendered:    r.Rendered,
		Copied:      r.Copied,
		Error:       errorText(err),
	}
	for _, p := range r.Pages {
		if p.Skipped {
			continue
		}
		rec.Pages = append(rec.Pages, history.DocumentRecord{
			Key:         p.Key,
			Source:      p.Source,
			Template:    p.Template,
			Output:      p.Output,
			Fingerprint: p.Fingerprint,
			Error:       errorText(p.Err),
		})
	}
	return rec
}

func buildEvent(r *Result, err error) notify.BuildEvent {
	return notify.BuildEvent{
		BuildID:     r.BuildID,
		Outcome:     string(r.Status),
		Source:      r.Source,
		Destination: r.Destination,
		Revision:    r.Revision,
		Rendered:    r.Rendered,
		Failed:      r.Failed,
		DurationMS:  r.Duration.Milliseconds(),
		FinishedAt:  r.EndTime,
		Error:       errorText(err),
	}
}

// Summary renders a one-line human summary of r.
func (r *Result) Summary() string {
	return fmt.Sprintf("%s: %d rendered, %d failed, %d files copied in %s",
		r.Status, r.Rendered, r.Failed, r.Copied, r.Duration.Round(time.Millisecond))
}
