// Package bot assembles the Telegram bot: feeds, dialog store, handlers.
package bot

import (
	"context"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/tengebot/core/config"
	"github.com/m3rciful/tengebot/core/metrics"
	"github.com/m3rciful/tengebot/core/telegram"
	"github.com/m3rciful/tengebot/internal/conversation"
	"github.com/m3rciful/tengebot/internal/rates"
)

// App owns the long-lived bot components.
type App struct {
	cfg      *coreconfig.Config
	reg      *telegram.Registry
	resolver *rates.Resolver
	store    *conversation.Store
	metrics  *metrics.BotMetrics
}

// New wires providers, the resolver, the dialog store and all handlers.
// metrics may be nil when the metrics listener is disabled.
func New(cfg *coreconfig.Config, m *metrics.BotMetrics) *App {
	primary := rates.NewCoinGecko(cfg.Rates.CoinGeckoURL, cfg.Rates.PrimaryTimeout())
	fallback := rates.NewCrossRate(primary, cfg.Rates.FxURL, cfg.Rates.FallbackTimeout())
	resolver := rates.NewResolver(primary, fallback, m)

	store := conversation.NewStore(
		func(ctx context.Context) (float64, error) {
			return resolver.Resolve(ctx, rates.USDT)
		},
		cfg.Conversation.SessionMaxAge(),
		m,
	)

	a := &App{
		cfg:      cfg,
		reg:      telegram.NewRegistry(),
		resolver: resolver,
		store:    store,
		metrics:  m,
	}
	a.register()
	return a
}

func (a *App) register() {
	a.reg.RegisterCommand("/start", telegram.Command{
		Handler:     a.handleStart,
		Description: "Курсы и конвертация",
	})

	for _, asset := range rates.All() {
		a.reg.RegisterLabel(assetLabel(asset), a.assetHandler(asset))
	}
	a.reg.RegisterLabel(LabelAllRates, a.handleAllRates)
	a.reg.RegisterLabel(LabelConvert, a.handleConvert)
	// A stray cancel press outside a dialog just restores the keyboard.
	a.reg.RegisterLabel(LabelCancel, func(c tele.Context) error {
		return telegram.SendText(c, msgCancelled, mainKeyboard())
	})

	a.reg.SetTextFallback(a.handleUnknownText)
}

// Run starts the bot and blocks until ctx is done.
func (a *App) Run(ctx context.Context) error {
	observer := func(handler string, err error) {
		a.metrics.RecordUpdate(handler, err)
	}

	routes := telegram.CommandRoutes(a.reg, observer)
	routes = append(routes, telegram.TextRoute(dialog{app: a}, a.reg, telegram.TextOptions{
		UnknownText: a.handleUnknownText,
		Observer:    observer,
	}))

	var middlewares []telegram.Middleware
	if a.cfg.RateLimit.IntervalMS > 0 {
		middlewares = append(middlewares, telegram.Middleware{
			Name: "rate_limit",
			Use: telegram.RateLimitMiddleware(telegram.RateLimitOptions{
				Interval: time.Duration(a.cfg.RateLimit.IntervalMS) * time.Millisecond,
			}),
		})
	}

	return telegram.RunTelegram(ctx, telegram.RunOptions{
		Config:      a.cfg,
		Registry:    a.reg,
		Middlewares: middlewares,
		Routes:      routes,
	})
}
