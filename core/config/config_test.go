package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{Token: "123:abc"},
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run mode = %q, want longpoll", cfg.Telegram.RunMode)
	}
	if cfg.Rates.CoinGeckoURL != "https://api.coingecko.com/api/v3" {
		t.Fatalf("unexpected coingecko url: %s", cfg.Rates.CoinGeckoURL)
	}
	if cfg.Rates.PrimaryTimeoutSeconds != 10 || cfg.Rates.FallbackTimeoutSeconds != 5 {
		t.Fatalf("unexpected timeouts: %d/%d", cfg.Rates.PrimaryTimeoutSeconds, cfg.Rates.FallbackTimeoutSeconds)
	}
	if cfg.Conversation.SessionMaxAgeMinutes != 10 {
		t.Fatalf("unexpected session max age: %d", cfg.Conversation.SessionMaxAgeMinutes)
	}
}

func TestNormalizeRequiresToken(t *testing.T) {
	cfg := &Config{}
	err := Normalize(cfg)
	if err == nil || !strings.Contains(err.Error(), "token") {
		t.Fatalf("expected token error, got %v", err)
	}
}

func TestNormalizeWebhookValidation(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = "webhook"
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for webhook mode without url")
	}

	cfg = validConfig()
	cfg.Telegram.RunMode = "webhook"
	cfg.Webhook.URL = "https://bot.example.kz/hook"
	cfg.Webhook.Listen = "0.0.0.0"
	cfg.Webhook.Port = 8443
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize webhook: %v", err)
	}
}

func TestNormalizePollingAlias(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = "polling"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("alias not normalized: %q", cfg.Telegram.RunMode)
	}
}

func TestNormalizeTrimsEndpointSlash(t *testing.T) {
	cfg := validConfig()
	cfg.Rates.CoinGeckoURL = "http://localhost:9999/api/v3/"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if strings.HasSuffix(cfg.Rates.CoinGeckoURL, "/") {
		t.Fatalf("trailing slash kept: %s", cfg.Rates.CoinGeckoURL)
	}
}
