package metrics

import (
	"testing"
	"time"
)

var (
	_ Recorder = NoopRecorder{}
	_ Recorder = (*PrometheusRecorder)(nil)
)

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.IncFileResult(ResultSkipped)
	r.AddComments(1)
	r.ObserveConvertDuration("pandoc", time.Millisecond, true)
	r.IncBuildOutcome(BuildOutcomeSuccess)
}
