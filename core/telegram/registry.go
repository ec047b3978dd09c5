package telegram

import (
	"context"
	"sort"
	"strings"

	"github.com/m3rciful/tengebot/core/logger"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler and menu metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	Hidden      bool
}

// Registry holds bot commands and reply-keyboard label handlers.
// Labels are matched against plain message text after the conversation
// check, so a pending dialog always wins over a button press.
type Registry struct {
	commands     map[string]Command
	labels       map[string]tele.HandlerFunc
	labelOrder   []string
	textFallback tele.HandlerFunc
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Command),
		labels:   make(map[string]tele.HandlerFunc),
	}
}

// RegisterCommand adds a new slash command.
func (r *Registry) RegisterCommand(name string, cmd Command) {
	if r == nil || name == "" || cmd.Handler == nil || cmd.Description == "" {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.command.skip",
			slog.String("name", name),
			slog.String("reason", "invalid"),
		)
		return
	}
	if name[0] != '/' {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.command.skip",
			slog.String("name", name),
			slog.String("reason", "no_slash_prefix"),
		)
		return
	}
	if _, exists := r.commands[name]; exists {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.command.duplicate",
			slog.String("name", name),
		)
		return
	}
	r.commands[name] = cmd
}

// RegisterLabel binds a reply-keyboard button label to its handler.
func (r *Registry) RegisterLabel(label string, handler tele.HandlerFunc) {
	if r == nil || strings.TrimSpace(label) == "" || handler == nil {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.label.skip",
			slog.String("label", label),
		)
		return
	}
	if _, exists := r.labels[label]; exists {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.label.duplicate",
			slog.String("label", label),
		)
		return
	}
	r.labels[label] = handler
	r.labelOrder = append(r.labelOrder, label)
}

// LookupLabel returns the handler bound to the exact message text, if any.
func (r *Registry) LookupLabel(text string) (tele.HandlerFunc, bool) {
	if r == nil {
		return nil, false
	}
	h, ok := r.labels[text]
	return h, ok
}

// Labels returns registered labels in registration order.
func (r *Registry) Labels() []string {
	return append([]string(nil), r.labelOrder...)
}

// Commands returns all registered commands.
func (r *Registry) Commands() map[string]Command {
	return r.commands
}

// ListCommands returns menu entries, optionally filtering out hidden commands.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	var list []tele.Command
	for cmd, meta := range r.commands {
		if visibleOnly && meta.Hidden {
			continue
		}
		list = append(list, tele.Command{Text: cmd, Description: meta.Description})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	return list
}

// SetTextFallback sets a global fallback handler for unmatched text messages.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) {
	r.textFallback = h
}

// TextFallback returns the current text fallback handler.
func (r *Registry) TextFallback() tele.HandlerFunc {
	return r.textFallback
}

// InitBotCommands sets the Telegram bot commands shown in the command menu.
func InitBotCommands(bot *tele.Bot, reg *Registry) {
	commands := reg.ListCommands(true)
	if len(commands) == 0 {
		return
	}
	if err := bot.SetCommands(commands); err != nil {
		logger.TWire.LogAttrs(context.Background(), slog.LevelError, "register.commands.set_failed",
			slog.String("err", err.Error()),
		)
	}
}
