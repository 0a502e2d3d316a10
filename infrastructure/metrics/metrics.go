// Package metrics exposes Prometheus counters for the publishing engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is served on /metrics.
	Registry = prometheus.NewRegistry()

	PublishAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "social",
		Name:      "publish_attempts_total",
		Help:      "Per-profile publish attempts by platform and result.",
	}, []string{"platform", "result"})

	ContentOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "social",
		Name:      "content_outcomes_total",
		Help:      "Terminal content statuses computed by the orchestrator.",
	}, []string{"status"})

	TokenRefreshes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "social",
		Name:      "token_refreshes_total",
		Help:      "Refresh token exchanges by platform and result.",
	}, []string{"platform", "result"})

	MediaUploads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "social",
		Name:      "media_uploads_total",
		Help:      "Media uploads by platform, path and final state.",
	}, []string{"platform", "path", "state"})

	WebhookEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "social",
		Name:      "webhook_deliveries_total",
		Help:      "Inbound webhook deliveries by platform and outcome.",
	}, []string{"platform", "outcome"})
)

func init() {
	Registry.MustRegister(
		PublishAttempts,
		ContentOutcomes,
		TokenRefreshes,
		MediaUploads,
		WebhookEvents,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
