package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// SignalsEmitted counts event bus emissions triggered by push events.
	SignalsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifsync_signals_emitted_total",
			Help: "Event bus signals emitted by the push listener",
		},
		[]string{"topic", "trigger"},
	)

	// PushSuppressed counts foreground messages dropped because the app was not visible.
	PushSuppressed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notifsync_push_suppressed_total",
			Help: "Foreground push messages not forwarded while the app was not active",
		},
	)

	PushEnvelopes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifsync_push_envelopes_total",
			Help: "Envelopes received from the push transport",
		},
		[]string{"kind"},
	)

	FeedLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifsync_feed_loads_total",
			Help: "Notification feed loads by outcome",
		},
		[]string{"result"},
	)

	FeedLoadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "notifsync_feed_load_duration_seconds",
			Help:    "Duration of notification feed fetches",
			Buckets: prometheus.DefBuckets,
		},
	)

	// MarkOperations counts optimistic mutations by operation and outcome.
	MarkOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifsync_mark_operations_total",
			Help: "Optimistic read mutations by operation and outcome",
		},
		[]string{"op", "result"},
	)

	BadgeRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifsync_badge_refreshes_total",
			Help: "Unread badge refreshes by outcome",
		},
		[]string{"result"},
	)

	BackendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifsync_backend_requests_total",
			Help: "Backend REST calls by operation and outcome",
		},
		[]string{"op", "result"},
	)

	TokenRegistrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifsync_token_registrations_total",
			Help: "Push token registrations by trigger and outcome",
		},
		[]string{"trigger", "result"},
	)
)

func Init() {
	prometheus.MustRegister(SignalsEmitted, PushSuppressed, PushEnvelopes, FeedLoads, FeedLoadDuration,
		MarkOperations, BadgeRefreshes, BackendRequests, TokenRegistrations)
}
