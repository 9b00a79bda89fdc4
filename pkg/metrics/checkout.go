package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records shipping-quote and order-submission outcomes.
type CheckoutMetrics struct {
	quoteDuration *prometheus.HistogramVec
	quoteOutcome  *prometheus.CounterVec
	submission    *prometheus.CounterVec
}

// Quote outcome labels.
const (
	QuoteApplied    = "applied"
	QuoteSuperseded = "superseded"
	QuoteFailed     = "failed"
)

// Submission outcome labels.
const (
	SubmissionCompleted   = "completed"
	SubmissionRedirecting = "redirecting"
	SubmissionFailed      = "failed"
)

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	quoteDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shipping_quote_duration_seconds",
		Help:    "Duration of carrier fee quote requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	quoteOutcome := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shipping_quote_total",
		Help: "Shipping quote requests by outcome.",
	}, []string{"outcome"})
	submission := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_submission_total",
		Help: "Checkout submissions by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(quoteDuration, quoteOutcome, submission)
	return &CheckoutMetrics{
		quoteDuration: quoteDuration,
		quoteOutcome:  quoteOutcome,
		submission:    submission,
	}
}

// ObserveQuote records one quote request with its outcome and duration.
func (c *CheckoutMetrics) ObserveQuote(outcome string, duration time.Duration) {
	if c == nil || c.quoteOutcome == nil {
		return
	}
	label := normalizeLabel(outcome)
	c.quoteOutcome.WithLabelValues(label).Inc()
	c.quoteDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// IncSubmission increments the submission counter for the given outcome.
func (c *CheckoutMetrics) IncSubmission(outcome string) {
	if c == nil || c.submission == nil {
		return
	}
	c.submission.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(outcome string) string {
	if outcome == "" {
		return "unknown"
	}
	return outcome
}
