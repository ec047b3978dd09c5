package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Dir    string `yaml:"dir"`
	File   string `yaml:"file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

// RatesConfig holds external price feed settings.
type RatesConfig struct {
	// CoinGeckoURL is the base URL of the crypto price API.
	CoinGeckoURL string `yaml:"coingecko_url" envconfig:"RATES_COINGECKO_URL"`
	// FxURL is the base URL of the USD fiat cross-rate API.
	FxURL string `yaml:"fx_url" envconfig:"RATES_FX_URL"`
	// PrimaryTimeoutSeconds bounds the direct KZT quote call.
	PrimaryTimeoutSeconds int `yaml:"primary_timeout_seconds" envconfig:"RATES_PRIMARY_TIMEOUT_SECONDS"`
	// FallbackTimeoutSeconds bounds each leg of the USD cross-rate derivation.
	FallbackTimeoutSeconds int `yaml:"fallback_timeout_seconds" envconfig:"RATES_FALLBACK_TIMEOUT_SECONDS"`
}

// ConversationConfig controls the conversion dialog lifecycle.
type ConversationConfig struct {
	// SessionMaxAgeMinutes expires abandoned amount prompts; 0 -> default (10).
	SessionMaxAgeMinutes int `yaml:"session_max_age_minutes" envconfig:"CONVERSATION_SESSION_MAX_AGE_MINUTES"`
}

// MetricsConfig controls the optional Prometheus listener.
type MetricsConfig struct {
	// Listen is host:port for the /metrics endpoint; empty disables it.
	Listen string `yaml:"listen" envconfig:"METRICS_LISTEN"`
}

// RateLimitConfig holds settings for per-user update throttling.
type RateLimitConfig struct {
	IntervalMS int `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	defaultCoinGeckoURL    = "https://api.coingecko.com/api/v3"
	defaultFxURL           = "https://api.exchangerate-api.com/v4"
	defaultPrimaryTimeout  = 10
	defaultFallbackTimeout = 5
	defaultSessionMaxAge   = 10
)

// Config aggregates the full application configuration.
type Config struct {
	Telegram     TelegramConfig     `yaml:"telegram"`
	Webhook      WebhookConfig      `yaml:"webhook"`
	Logging      LoggingConfig      `yaml:"logging"`
	Rates        RatesConfig        `yaml:"rates"`
	Conversation ConversationConfig `yaml:"conversation"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit"`
}

// Load reads configuration from a YAML file and environment variables.
// The file may be absent; environment variables alone are enough to run.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	if strings.TrimSpace(cfg.Rates.CoinGeckoURL) == "" {
		cfg.Rates.CoinGeckoURL = defaultCoinGeckoURL
	}
	if strings.TrimSpace(cfg.Rates.FxURL) == "" {
		cfg.Rates.FxURL = defaultFxURL
	}
	cfg.Rates.CoinGeckoURL = strings.TrimRight(cfg.Rates.CoinGeckoURL, "/")
	cfg.Rates.FxURL = strings.TrimRight(cfg.Rates.FxURL, "/")
	if cfg.Rates.PrimaryTimeoutSeconds < 0 || cfg.Rates.FallbackTimeoutSeconds < 0 {
		return fmt.Errorf("rates timeouts must be >= 0")
	}
	if cfg.Rates.PrimaryTimeoutSeconds == 0 {
		cfg.Rates.PrimaryTimeoutSeconds = defaultPrimaryTimeout
	}
	if cfg.Rates.FallbackTimeoutSeconds == 0 {
		cfg.Rates.FallbackTimeoutSeconds = defaultFallbackTimeout
	}

	if cfg.Conversation.SessionMaxAgeMinutes < 0 {
		return fmt.Errorf("conversation.session_max_age_minutes must be >= 0")
	}
	if cfg.Conversation.SessionMaxAgeMinutes == 0 {
		cfg.Conversation.SessionMaxAgeMinutes = defaultSessionMaxAge
	}

	if cfg.RateLimit.IntervalMS < 0 {
		return fmt.Errorf("rate_limit.interval_ms must be >= 0")
	}
	return nil
}

// PrimaryTimeout returns the direct quote timeout as a duration.
func (r RatesConfig) PrimaryTimeout() time.Duration {
	return time.Duration(r.PrimaryTimeoutSeconds) * time.Second
}

// FallbackTimeout returns the per-leg cross-rate timeout as a duration.
func (r RatesConfig) FallbackTimeout() time.Duration {
	return time.Duration(r.FallbackTimeoutSeconds) * time.Second
}

// SessionMaxAge returns the conversation expiry as a duration.
func (c ConversationConfig) SessionMaxAge() time.Duration {
	return time.Duration(c.SessionMaxAgeMinutes) * time.Minute
}
