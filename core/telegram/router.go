package telegram

import (
	"strings"
	"time"

	"github.com/m3rciful/tengebot/core/logger"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// Route declares a single bot handler bound to an arbitrary endpoint.
// Endpoint values are passed directly to tele.Bot.Handle.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// Dialog is the minimal interface the text router needs from a
// conversation store: whether the sender has a pending dialog, and the
// handler that consumes the message as dialog input.
type Dialog interface {
	InProgress(userID int64) bool
	Handle(c tele.Context) error
}

// TextOptions controls fallback behaviour and observability for text updates.
type TextOptions struct {
	UnknownText tele.HandlerFunc
	// Observer is invoked once per routed update with the handler name.
	Observer func(handler string, err error)
}

// TextRoute builds the handler for plain text updates.
//
// Routing priority is explicit and ordered: an in-progress dialog for the
// sender consumes the message first, then reply-keyboard labels are
// matched, then the registry fallback, then UnknownText. A pending dialog
// therefore always wins over a label that happens to equal the input.
func TextRoute(dialog Dialog, reg *Registry, opts TextOptions) Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if dialog != nil && c.Sender() != nil && dialog.InProgress(c.Sender().ID) {
			return handleWithSummary(c, "dialog", start, opts.Observer, func() error {
				return dialog.Handle(c)
			})
		}

		if reg != nil {
			if h, ok := reg.LookupLabel(text); ok {
				name := "label." + normalizeHandlerName(text)
				return handleWithSummary(c, name, start, opts.Observer, func() error {
					return h(c)
				})
			}
		}

		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, opts.Observer, func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, opts.Observer, func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, "skip", nil)
		return nil
	}

	return Route{
		Endpoint: tele.OnText,
		Handler:  RecoverMiddleware(LoggerMiddleware(handler)),
	}
}

// CommandRoutes prepares command handlers wrapped with shared middleware.
func CommandRoutes(reg *Registry, observer func(handler string, err error)) []Route {
	if reg == nil {
		return nil
	}

	routes := make([]Route, 0, len(reg.Commands()))
	for cmd, def := range reg.Commands() {
		name := normalizeHandlerName(cmd)
		inner := def.Handler
		wrapped := func(c tele.Context) error {
			start := time.Now()
			return handleWithSummary(c, name, start, observer, func() error {
				return inner(c)
			})
		}
		routes = append(routes, Route{
			Endpoint: cmd,
			Handler:  RecoverMiddleware(LoggerMiddleware(wrapped)),
		})
	}

	logger.TWire.Info("tg.wire",
		slog.String("event", "complete"),
		slog.Int("commands", len(reg.Commands())),
		slog.Int("count", len(reg.Labels())),
	)

	return routes
}

func handleWithSummary(c tele.Context, handlerName string, start time.Time, observer func(string, error), fn func() error) error {
	WithHandler(c, handlerName)
	err := fn()
	logHandlerSummary(c, handlerName, start, "", err)
	if observer != nil {
		observer(handlerName, err)
	}
	return err
}

func logHandlerSummary(c tele.Context, handlerName string, start time.Time, statusOverride string, err error) {
	ctx := WithHandler(c, handlerName)

	status := statusOverride
	if status == "" {
		status = logger.Status(err)
	}

	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("handler", handlerName),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("cause", handlerName),
		)
	}
	logger.LogEvent(ctx, logger.Component("tg"), slog.LevelInfo, "handler.handled", attrs...)
}

func normalizeHandlerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unknown"
	}
	name = strings.TrimPrefix(name, "/")
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ToLower(name)
}
