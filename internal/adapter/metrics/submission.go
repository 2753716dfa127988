package metrics

import "github.com/prometheus/client_golang/prometheus"

// Submission outcomes.
const (
	OutcomeAccepted     = "accepted"
	OutcomeInvalidName  = "invalid_name"
	OutcomeInvalidPhone = "invalid_phone"
	OutcomeDuplicate    = "duplicate"
)

// SubmissionMetrics holds Prometheus metrics for the sign-up pipeline.
type SubmissionMetrics struct {
	Submissions *prometheus.CounterVec
}

// NewSubmissionMetrics creates and registers submission metrics on the given registry.
// registered reports the current number of known phones and backs a gauge sampled at scrape time.
func NewSubmissionMetrics(reg prometheus.Registerer, registered func() int) *SubmissionMetrics {
	m := &SubmissionMetrics{
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submission_total",
			Help:      "Total number of sign-up submissions, by outcome.",
		}, []string{"outcome"}),
	}

	phones := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "registry_phones",
		Help:      "Number of distinct phones accepted since startup.",
	}, func() float64 { return float64(registered()) })

	reg.MustRegister(m.Submissions, phones)
	return m
}

// Observe counts one submission with the given outcome.
func (m *SubmissionMetrics) Observe(outcome string) {
	m.Submissions.WithLabelValues(outcome).Inc()
}
