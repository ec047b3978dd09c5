package rates

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/tengebot/core/logger"
	"github.com/m3rciful/tengebot/core/metrics"
)

// Quote is a resolved asset price in KZT.
type Quote struct {
	Asset Asset
	Rate  float64
}

// Resolver answers "what is one unit of asset X worth in KZT right now" by
// consulting the primary feed and falling back to the cross-rate derivation.
// It is stateless: no caching, every call hits the feeds.
type Resolver struct {
	primary  Provider
	fallback Provider
	metrics  *metrics.BotMetrics
}

// NewResolver wires the primary and fallback providers. metrics may be nil.
func NewResolver(primary, fallback Provider, m *metrics.BotMetrics) *Resolver {
	return &Resolver{primary: primary, fallback: fallback, metrics: m}
}

// Resolve returns the current KZT rate for the asset.
//
// The primary provider is tried first; any failure there is logged and the
// fallback is consulted. When both fail the fallback's error is returned, so
// the caller sees the terminal failure of the last attempted path.
func (r *Resolver) Resolve(ctx context.Context, asset Asset) (float64, error) {
	start := time.Now()

	if !Supported(asset) {
		err := newError("resolver", asset, ReasonUnsupportedAsset, nil)
		r.finish(ctx, asset, start, 0, err)
		return 0, err
	}

	rate, primaryErr := r.primary.Fetch(ctx, asset)
	r.metrics.RecordProviderRequest(r.primary.Name(), primaryErr)
	if primaryErr == nil {
		r.finish(ctx, asset, start, rate, nil)
		return rate, nil
	}

	logger.Warn(ctx, "rates", "resolve.primary_failed",
		slog.String("asset", asset.String()),
		slog.String("provider", r.primary.Name()),
		slog.String("reason", string(ReasonOf(primaryErr))),
		slog.String("err", logger.SanitizeLimit(primaryErr.Error(), 256)),
	)

	rate, fallbackErr := r.fallback.Fetch(ctx, asset)
	r.metrics.RecordProviderRequest(r.fallback.Name(), fallbackErr)
	if fallbackErr == nil {
		r.finish(ctx, asset, start, rate, nil)
		return rate, nil
	}

	r.finish(ctx, asset, start, 0, fallbackErr)
	return 0, fallbackErr
}

// ResolveAll resolves the given assets independently, preserving their
// order. Assets that fail are omitted from the result; an empty slice means
// everything failed.
func (r *Resolver) ResolveAll(ctx context.Context, assets []Asset) []Quote {
	start := time.Now()
	quotes := make([]Quote, 0, len(assets))
	failed := 0
	for _, asset := range assets {
		rate, err := r.Resolve(ctx, asset)
		if err != nil {
			failed++
			continue
		}
		quotes = append(quotes, Quote{Asset: asset, Rate: rate})
	}

	logger.Info(ctx, "rates", "resolve_all.done",
		slog.Int("resolved", len(quotes)),
		slog.Int("failed", failed),
		slog.Duration("duration", logger.Took(start)),
	)
	return quotes
}

func (r *Resolver) finish(ctx context.Context, asset Asset, start time.Time, rate float64, err error) {
	took := time.Since(start)
	r.metrics.RecordResolve(asset.String(), took, err)

	if err != nil {
		reason := ReasonOf(err)
		r.metrics.RecordResolveFailure(asset.String(), string(reason))
		logger.Error(ctx, "rates", "resolve.done",
			slog.String("status", "fail"),
			slog.String("asset", asset.String()),
			slog.String("reason", string(reason)),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.Duration("duration", logger.RoundMS(took)),
		)
		return
	}

	logger.Info(ctx, "rates", "resolve.done",
		slog.String("status", "ok"),
		slog.String("asset", asset.String()),
		slog.Float64("rate", rate),
		slog.Duration("duration", logger.RoundMS(took)),
	)
}
