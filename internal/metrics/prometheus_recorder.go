package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "docshound"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry        *prom.Registry
	fileResults     *prom.CounterVec
	comments        prom.Counter
	fragments       prom.Counter
	convertDuration *prom.HistogramVec
	pagesWritten    prom.Counter
	cacheResults    *prom.CounterVec
	buildDuration   prom.Histogram
	buildOutcome    *prom.CounterVec
}

// NewPrometheusRecorder constructs the metrics and registers them on reg, or
// on a fresh registry when reg is nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		registry: reg,
		fileResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Source files processed by result",
		}, []string{"result"}),
		comments: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "comments_total",
			Help:      "Comment blocks found in source files",
		}),
		fragments: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "fragments_total",
			Help:      "Comment blocks flagged for export",
		}),
		convertDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "convert_duration_seconds",
			Help:      "Duration of individual markdown conversions",
			Buckets:   prom.DefBuckets,
		}, []string{"backend", "result"}),
		pagesWritten: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "pages_written_total",
			Help:      "Reference pages written",
		}),
		cacheResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Render cache lookups by result",
		}, []string{"result"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total generation duration",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Generation runs by final status",
		}, []string{"outcome"}),
	}
	reg.MustRegister(pr.fileResults, pr.comments, pr.fragments, pr.convertDuration,
		pr.pagesWritten, pr.cacheResults, pr.buildDuration, pr.buildOutcome)
	return pr
}

// Registry returns the registry the metrics are registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.registry }

func (p *PrometheusRecorder) IncFileResult(result ResultLabel) {
	if p == nil {
		return
	}
	p.fileResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) AddComments(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.comments.Add(float64(n))
}

func (p *PrometheusRecorder) AddFragments(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.fragments.Add(float64(n))
}

func (p *PrometheusRecorder) ObserveConvertDuration(backend string, d time.Duration, success bool) {
	if p == nil {
		return
	}
	p.convertDuration.WithLabelValues(backend, resultOf(success)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPagesWritten() {
	if p == nil {
		return
	}
	p.pagesWritten.Inc()
}

func (p *PrometheusRecorder) IncCacheResult(hit bool) {
	if p == nil {
		return
	}
	res := "miss"
	if hit {
		res = "hit"
	}
	p.cacheResults.WithLabelValues(res).Inc()
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func resultOf(success bool) string {
	if success {
		return string(ResultSuccess)
	}
	return string(ResultFailed)
}
