package build

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/document"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/templates"
)

// renderAll renders docs with cfg.Build.Workers workers. Each document is
// handled by exactly one worker. Under fail-fast the first failure stops
// dispatch and the error of the earliest failed document (in key order) is
// returned; under best-effort every document is attempted and all failures
// are joined in key order.
func (s *Service) renderAll(ctx context.Context, log *slog.Logger, r *templates.Renderer, docs []*document.Document, cfg *config.Config) ([]DocumentResult, error) {
	failFast := cfg.Build.FailurePolicy != config.BestEffort
	workers := cfg.Build.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(docs) && len(docs) > 0 {
		workers = len(docs)
	}
	log.Debug("Rendering documents", logfields.Count(len(docs)), logfields.Workers(workers))

	results := make([]DocumentResult, len(docs))
	for i, d := range docs {
		results[i] = DocumentResult{Key: d.Key, Source: d.Source, Skipped: true}
	}

	renderCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if renderCtx.Err() != nil {
					continue
				}
				results[i] = s.renderOne(log, r, docs[i], cfg)
				if results[i].Err != nil && failFast {
					cancel()
				}
			}
		}()
	}

dispatch:
	for i := range docs {
		select {
		case <-renderCtx.Done():
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	var errs []error
	for _, res := range results {
		if res.Err == nil {
			continue
		}
		if failFast {
			return results, res.Err
		}
		errs = append(errs, res.Err)
	}
	if len(errs) > 0 {
		return results, errors.Join(errs...)
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

func (s *Service) renderOne(log *slog.Logger, r *templates.Renderer, doc *document.Document, cfg *config.Config) DocumentResult {
	start := time.Now()
	res := DocumentResult{Key: doc.Key, Source: doc.Source, Fingerprint: doc.Fingerprint()}

	if tpl, err := r.Resolve(doc); err == nil {
		res.Template = tpl.Name
	}
	out, err := templates.OutputPath(cfg.Destination, doc.Key, cfg.OutputExt())
	if err == nil {
		res.Output = out
		err = r.RenderToFile(doc, out)
	}
	res.Err = err
	res.Duration = time.Since(start)
	s.recorder.ObserveDocumentRender(res.Duration, err == nil)

	if err != nil {
		log.Warn("Document failed", logfields.Key(doc.Key), logfields.File(doc.Source), logfields.Error(err))
		res.Output = ""
	} else {
		log.Debug("Rendered document", logfields.Key(doc.Key), logfields.Template(res.Template), logfields.Path(out))
	}
	return res
}
