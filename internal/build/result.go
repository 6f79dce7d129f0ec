package build

import (
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
)

// Stage names, used for logging and metrics labels.
const (
	StageResolve   = "resolve"
	StageReset     = "reset"
	StageTemplates = "templates"
	StageCopy      = "copy"
	StageDocuments = "documents"
	StageRender    = "render"
)

// Status represents the outcome of a build.
type Status string

const (
	// StatusSuccess means every document rendered.
	StatusSuccess Status = "success"
	// StatusPartial means a best-effort build finished with failed documents.
	StatusPartial Status = "partial"
	// StatusFailed means a stage failed and the build stopped.
	StatusFailed Status = "failed"
	// StatusCanceled means the context was canceled mid-build.
	StatusCanceled Status = "canceled"
)

func (s Status) outcomeLabel() metrics.BuildOutcomeLabel {
	switch s {
	case StatusSuccess:
		return metrics.BuildOutcomeSuccess
	case StatusPartial:
		return metrics.BuildOutcomePartial
	case StatusCanceled:
		return metrics.BuildOutcomeCanceled
	default:
		return metrics.BuildOutcomeFailed
	}
}

// DocumentResult records what happened to one document.
type DocumentResult struct {
	Key         string
	Source      string
	Template    string
	Output      string
	Fingerprint string
	Duration    time.Duration
	// Skipped is set when a fail-fast build stopped before this document.
	Skipped bool
	Err     error
}

// Result contains the outcome of a build execution.
type Result struct {
	BuildID     string
	Status      Status
	Source      string
	Destination string
	Revision    string

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	Templates int
	Documents int
	Rendered  int
	Failed    int
	Copied    int

	// Outputs lists the written document files in key order.
	Outputs []string
	Pages   []DocumentResult
	// FailedStage names the stage that stopped the build, if any.
	FailedStage string
}
