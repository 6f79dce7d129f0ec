package metrics

import (
	"sync"
	"time"
)

// testRecorder counts calls; the build package uses an equivalent fake.
type testRecorder struct {
	mu             sync.Mutex
	stageDurations map[string]int
	stageResults   map[string]map[ResultLabel]int
	buildDurations int
	buildOutcomes  map[BuildOutcomeLabel]int
	renders        map[bool]int
	copied         int
}

var _ Recorder = (*testRecorder)(nil)
var _ Recorder = NoopRecorder{}
var _ Recorder = (*PrometheusRecorder)(nil)

func newTestRecorder() *testRecorder {
	return &testRecorder{
		stageDurations: map[string]int{},
		stageResults:   map[string]map[ResultLabel]int{},
		buildOutcomes:  map[BuildOutcomeLabel]int{},
		renders:        map[bool]int{},
	}
}

func (t *testRecorder) ObserveStageDuration(stage string, _ time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stageDurations[stage]++
}

func (t *testRecorder) IncStageResult(stage string, result ResultLabel) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.stageResults[stage]
	if !ok {
		m = map[ResultLabel]int{}
		t.stageResults[stage] = m
	}
	m[result]++
}

func (t *testRecorder) ObserveBuildDuration(time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buildDurations++
}

func (t *testRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buildOutcomes[outcome]++
}

func (t *testRecorder) ObserveDocumentRender(_ time.Duration, success bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.renders[success]++
}

func (t *testRecorder) AddFilesCopied(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.copied += n
}
