package metrics

import (
	"testing"
	"time"
)

// Compile-time checks.
var (
	_ Recorder = NoopRecorder{}
	_ Recorder = (*PrometheusRecorder)(nil)
)

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveStepDuration("navigation", time.Millisecond)
	r.IncStepResult("navigation", ResultSuccess)
	r.ObservePageDuration(time.Millisecond)
	r.ObserveBuildDuration(time.Second)
	r.IncBuildOutcome(BuildOutcomeWarning)
	r.SetPagesTotal(0)
	r.IncPreviewRebuild(true)
}
