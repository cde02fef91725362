package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// latencyBuckets spans 1ms to 10s.
var latencyBuckets = []float64{
	0.001, // 1ms
	0.005, // 5ms
	0.01,  // 10ms
	0.025, // 25ms
	0.05,  // 50ms
	0.1,   // 100ms
	0.25,  // 250ms
	0.5,   // 500ms
	1.0,   // 1s
	2.5,   // 2.5s
	5.0,   // 5s
	10.0,  // 10s
}

var (
	// ApprovalDuration tracks the latency of enrollment approvals
	ApprovalDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "training_enrollment_approval_duration_seconds",
			Help:    "Duration of enrollment approval requests in seconds",
			Buckets: latencyBuckets,
		},
		[]string{"status"}, // success or rejection reason
	)

	// CheckIns counts scans by outcome
	CheckIns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "training_checkins_total",
			Help: "Check-in scans by outcome",
		},
		[]string{"outcome"},
	)

	// CertificateRequests counts certificate requests by outcome
	CertificateRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "training_certificate_requests_total",
			Help: "Certificate requests by outcome",
		},
		[]string{"outcome"},
	)

	// RPCDuration tracks the latency of service calls
	RPCDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "training_rpc_duration_seconds",
			Help:    "Duration of service calls in seconds",
			Buckets: latencyBuckets,
		},
		[]string{"procedure", "code"},
	)
)

// RecordApprovalDuration records the duration of an enrollment approval
func RecordApprovalDuration(status string, duration float64) {
	ApprovalDuration.WithLabelValues(status).Observe(duration)
}

// RecordCheckIn counts one scan outcome
func RecordCheckIn(outcome string) {
	CheckIns.WithLabelValues(outcome).Inc()
}

// RecordCertificateRequest counts one certificate request outcome
func RecordCertificateRequest(outcome string) {
	CertificateRequests.WithLabelValues(outcome).Inc()
}

// RecordRPCDuration records the duration of a service call
func RecordRPCDuration(procedure, code string, duration float64) {
	RPCDuration.WithLabelValues(procedure, code).Observe(duration)
}
