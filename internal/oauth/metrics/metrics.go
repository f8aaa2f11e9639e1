// Package metrics exposes Prometheus instrumentation for the grant
// protocol engine.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once

	grantsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oauthd",
		Name:      "grants_total",
		Help:      "Token grant attempts by grant type and result.",
	}, []string{"grant_type", "result"})

	verificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oauthd",
		Name:      "assertion_verifications_total",
		Help:      "Assertion verifications by path and result.",
	}, []string{"path", "result"})

	remoteVerifyDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "oauthd",
		Name:      "remote_verification_duration_seconds",
		Help:      "Latency of remote assertion verification calls.",
		Buckets:   prometheus.DefBuckets,
	})

	revocationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oauthd",
		Name:      "revocations_total",
		Help:      "Token revocations by kind.",
	}, []string{"kind"})
)

func register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			grantsTotal,
			verificationsTotal,
			remoteVerifyDuration,
			revocationsTotal,
		)
	})
}

// Handler returns the /metrics scrape handler, registering collectors
// on first use.
func Handler() http.Handler {
	register()
	return promhttp.Handler()
}

// GrantAttempt records a token grant outcome ("ok" or the failure kind).
func GrantAttempt(grantType, result string) {
	register()
	grantsTotal.WithLabelValues(grantType, result).Inc()
}

// Verification records an assertion verification outcome for a path
// ("compact" or "remote").
func Verification(path, result string) {
	register()
	verificationsTotal.WithLabelValues(path, result).Inc()
}

// ObserveRemoteVerification records one remote verifier round trip.
func ObserveRemoteVerification(d time.Duration) {
	register()
	remoteVerifyDuration.Observe(d.Seconds())
}

// Revocation records a revocation by kind ("value", "client_user",
// "refresh_instance").
func Revocation(kind string) {
	register()
	revocationsTotal.WithLabelValues(kind).Inc()
}
