package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	MessagesReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_received_total",
			Help: "Anonymous message submissions by outcome.",
		},
		[]string{"result"},
	)

	MessageContentRunes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "messages_content_runes",
			Help:    "Length of accepted message content in runes.",
			Buckets: []float64{10, 25, 50, 100, 150, 200, 250, 300},
		},
	)

	MessagesDeletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_deleted_total",
			Help: "Message delete attempts by outcome.",
		},
		[]string{"result"},
	)

	InboxFetchedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "messages_inbox_fetched_total",
			Help: "Total number of inbox listings.",
		},
	)

	AcceptanceTogglesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acceptance_toggles_total",
			Help: "Acceptance flag writes by new state.",
		},
		[]string{"state"},
	)

	AuthSignupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_signups_total",
			Help: "Total number of signup attempts.",
		},
		[]string{"result"},
	)

	AuthSigninsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_signins_total",
			Help: "Total number of signin attempts.",
		},
		[]string{"result"},
	)

	AuthVerificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_verifications_total",
			Help: "Verification code submissions by outcome.",
		},
		[]string{"result"},
	)

	TokensIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_tokens_issued_total",
			Help: "Total number of session tokens issued.",
		},
		[]string{"alg", "result"},
	)

	AuthenticationAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_gate_attempts_total",
			Help: "Session token checks by verifier and outcome.",
		},
		[]string{"method", "result"},
	)

	EmailsSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emails_sent_total",
			Help: "Verification emails by transport and outcome.",
		},
		[]string{"transport", "result"},
	)

	PurgeRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maintenance_purge_runs_total",
			Help: "Expired verification purge runs by outcome.",
		},
		[]string{"result"},
	)
)

// MustRegister registers every collector on the default registry with a
// constant service label.
func MustRegister(serviceName string) {
	reg := prometheus.WrapRegistererWith(prometheus.Labels{"service": serviceName}, prometheus.DefaultRegisterer)
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		MessagesReceivedTotal,
		MessageContentRunes,
		MessagesDeletedTotal,
		InboxFetchedTotal,
		AcceptanceTogglesTotal,
		AuthSignupsTotal,
		AuthSigninsTotal,
		AuthVerificationsTotal,
		TokensIssuedTotal,
		AuthenticationAttemptsTotal,
		EmailsSentTotal,
		PurgeRunsTotal,
	)
}

// Result maps an error to the "success"/"failure" label pair used above.
func Result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
