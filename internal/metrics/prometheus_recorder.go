package metrics

import (
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "sitebuilder"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg            *prom.Registry
	stageDuration  *prom.HistogramVec
	stageResults   *prom.CounterVec
	buildDuration  prom.Histogram
	buildOutcome   *prom.CounterVec
	renderDuration *prom.HistogramVec
	filesCopied    prom.Counter
	lastBuild      prom.Gauge
}

// NewPrometheusRecorder constructs metrics and registers them with reg. A
// nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		renderDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "document_render_duration_seconds",
			Help:      "Duration of rendering and writing one document",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"result"}),
		filesCopied: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "files_copied_total",
			Help:      "Static files copied into the output directory",
		}),
		lastBuild: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "last_build_timestamp_seconds",
			Help:      "Unix time the last build finished",
		}),
	}
	reg.MustRegister(pr.stageDuration, pr.stageResults, pr.buildDuration, pr.buildOutcome,
		pr.renderDuration, pr.filesCopied, pr.lastBuild)
	return pr
}

// Registry returns the registry the metrics are registered with.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	p.buildDuration.Observe(d.Seconds())
	p.lastBuild.SetToCurrentTime()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveDocumentRender(d time.Duration, success bool) {
	res := "failed"
	if success {
		res = "success"
	}
	p.renderDuration.WithLabelValues(res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) AddFilesCopied(n int) {
	p.filesCopied.Add(float64(n))
}

// WriteTextfile writes the current metric values in the text exposition
// format, for the node exporter textfile collector.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := prom.WriteToTextfile(path, p.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
