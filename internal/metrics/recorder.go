package metrics

import "time"

// ResultLabel enumerates per-item result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
	ResultSkipped ResultLabel = "skipped"
)

// BuildOutcomeLabel is the final status of a generation run.
type BuildOutcomeLabel string

const (
	BuildOutcomeSuccess  BuildOutcomeLabel = "success"
	BuildOutcomeWarning  BuildOutcomeLabel = "warning" // some files or fragments failed
	BuildOutcomeFailed   BuildOutcomeLabel = "failed"
	BuildOutcomeCanceled BuildOutcomeLabel = "canceled"
)

// Recorder defines observability hooks for a generation run. Implementations
// must be safe for concurrent use; files are processed in parallel.
type Recorder interface {
	IncFileResult(result ResultLabel)
	AddComments(n int)
	AddFragments(n int)
	ObserveConvertDuration(backend string, d time.Duration, success bool)
	IncPagesWritten()
	IncCacheResult(hit bool)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome BuildOutcomeLabel)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncFileResult(ResultLabel)                         {}
func (NoopRecorder) AddComments(int)                                   {}
func (NoopRecorder) AddFragments(int)                                  {}
func (NoopRecorder) ObserveConvertDuration(string, time.Duration, bool) {}
func (NoopRecorder) IncPagesWritten()                                  {}
func (NoopRecorder) IncCacheResult(bool)                               {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)                {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)                 {}
