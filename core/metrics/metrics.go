package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// BotMetrics groups Prometheus collectors for the bot runtime.
type BotMetrics struct {
	// ProviderRequestsTotal counts external price feed calls by provider and outcome.
	ProviderRequestsTotal *prometheus.CounterVec
	// ResolveDuration observes full resolution latency per asset.
	ResolveDuration *prometheus.HistogramVec
	// ResolveFailuresTotal counts terminal resolution failures by reason.
	ResolveFailuresTotal *prometheus.CounterVec
	// ConversationOutcomesTotal counts conversion dialog outcomes.
	ConversationOutcomesTotal *prometheus.CounterVec
	// UpdatesTotal counts processed Telegram updates by handler.
	UpdatesTotal *prometheus.CounterVec
}

// New registers and returns the bot metrics on the default registry.
func New() *BotMetrics {
	return &BotMetrics{
		ProviderRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "provider_requests_total",
				Help: "External price feed requests by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		ResolveDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rate_resolve_duration_seconds",
				Help:    "Full rate resolution latency including fallback",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"asset", "outcome"},
		),
		ResolveFailuresTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_resolve_failures_total",
				Help: "Terminal resolution failures by asset and reason",
			},
			[]string{"asset", "reason"},
		),
		ConversationOutcomesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conversation_outcomes_total",
				Help: "Conversion dialog outcomes",
			},
			[]string{"outcome"},
		),
		UpdatesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telegram_updates_total",
				Help: "Processed Telegram updates by handler and status",
			},
			[]string{"handler", "status"},
		),
	}
}

// RecordProviderRequest counts one external feed call.
func (m *BotMetrics) RecordProviderRequest(provider string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "fail"
	}
	m.ProviderRequestsTotal.WithLabelValues(provider, outcome).Inc()
}

// RecordResolve observes one full resolution attempt.
func (m *BotMetrics) RecordResolve(asset string, took time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "fail"
	}
	m.ResolveDuration.WithLabelValues(asset, outcome).Observe(took.Seconds())
}

// RecordResolveFailure counts a terminal failure with its reason label.
func (m *BotMetrics) RecordResolveFailure(asset, reason string) {
	if m == nil {
		return
	}
	m.ResolveFailuresTotal.WithLabelValues(asset, reason).Inc()
}

// RecordConversationOutcome counts one dialog outcome.
func (m *BotMetrics) RecordConversationOutcome(outcome string) {
	if m == nil {
		return
	}
	m.ConversationOutcomesTotal.WithLabelValues(outcome).Inc()
}

// RecordUpdate counts one handled Telegram update.
func (m *BotMetrics) RecordUpdate(handler string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "fail"
	}
	m.UpdatesTotal.WithLabelValues(handler, status).Inc()
}

// Serve exposes /metrics on the given address until ctx is done.
// A closed listener is not an error; anything else is returned to the caller.
func Serve(ctx context.Context, listen string) error {
	if listen == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: listen, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
