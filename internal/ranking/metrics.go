package ranking

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/onnwee/kinmatch/internal/genealogy"
)

// Metrics names as constants for consistency.
const (
	MetricRankingRequests     = "ranking_requests_total"
	MetricRankingCandidates   = "ranking_candidates"
	MetricRankingTopScore     = "ranking_top_score"
	MetricRankingDuration     = "ranking_duration_seconds"
	MetricRankingSourceErrors = "ranking_source_errors_total"
)

// Metrics contains Prometheus metrics for candidate ranking.
// All operations are thread-safe.
type Metrics struct {
	requests     prometheus.Counter
	candidates   prometheus.Histogram
	topScore     prometheus.Histogram
	duration     prometheus.Histogram
	sourceErrors prometheus.Counter
}

// NewMetrics creates and returns a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		requests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRankingRequests,
			Help: "Total number of ranking requests",
		}),
		candidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRankingCandidates,
			Help:    "Number of candidates ranked per request",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		}),
		topScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRankingTopScore,
			Help:    "Score of the best candidate per request",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRankingDuration,
			Help:    "Histogram of fetch and rank duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		sourceErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRankingSourceErrors,
			Help: "Total number of candidate source failures",
		}),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncRequests increments the ranking request counter.
func (m *Metrics) IncRequests() {
	m.requests.Inc()
}

// IncSourceErrors increments the candidate source error counter.
func (m *Metrics) IncSourceErrors() {
	m.sourceErrors.Inc()
}

// ObserveResult records the candidate count and, when there is one, the top score.
func (m *Metrics) ObserveResult(ranked []genealogy.MatchCandidate) {
	m.candidates.Observe(float64(len(ranked)))
	if len(ranked) > 0 {
		m.topScore.Observe(ranked[0].Score)
	}
}

// ObserveDuration records a ranking duration sample.
func (m *Metrics) ObserveDuration(seconds float64) {
	m.duration.Observe(seconds)
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.requests,
		m.candidates,
		m.topScore,
		m.duration,
		m.sourceErrors,
	}
}
