package infrastructure

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Failure kinds recorded by UploadFailures.
const (
	FailureValidation = "validation"
	FailureTooLarge   = "too_large"
	FailureUnexpected = "unexpected"
)

type Metrics struct {
	ApplicationsSubmitted prometheus.Counter
	UploadFailures        *prometheus.CounterVec
	PublishFailures       prometheus.Counter
	VideoBytes            prometheus.Histogram
	RequestDuration       *prometheus.HistogramVec
}

// NewMetrics registers the service metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ApplicationsSubmitted: f.NewCounter(prometheus.CounterOpts{
			Name: "applications_submitted_total",
			Help: "Total number of committed applications",
		}),
		UploadFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "application_upload_failures_total",
				Help: "Total number of rejected or failed uploads",
			},
			[]string{"kind"},
		),
		PublishFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "application_events_publish_failures_total",
			Help: "Total number of application events that could not be published",
		}),
		VideoBytes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "application_video_bytes",
			Help:    "Size of stored application videos",
			Buckets: prometheus.ExponentialBuckets(1<<20, 2, 8),
		}),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method", "status"},
		),
	}
}
