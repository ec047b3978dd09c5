package bot

import (
	"strings"
	"testing"

	coreconfig "github.com/m3rciful/tengebot/core/config"
	"github.com/m3rciful/tengebot/internal/conversation"
	"github.com/m3rciful/tengebot/internal/rates"
)

func testConfig() *coreconfig.Config {
	cfg := &coreconfig.Config{}
	cfg.Telegram.Token = "123:test"
	if err := coreconfig.Normalize(cfg); err != nil {
		panic(err)
	}
	return cfg
}

func TestFormatRate(t *testing.T) {
	got := formatRate(rates.USDT, 450.5)
	want := "Актуальный курс: 1 USDT = 450.50 KZT"
	if got != want {
		t.Fatalf("formatRate = %q, want %q", got, want)
	}
}

func TestFormatQuotes(t *testing.T) {
	got := formatQuotes([]rates.Quote{
		{Asset: rates.USDT, Rate: 450.5},
		{Asset: rates.BTC, Rate: 31000000},
	})
	if !strings.Contains(got, "1 USDT = 450.50 KZT") {
		t.Errorf("missing USDT line in %q", got)
	}
	if !strings.Contains(got, "1 BTC = 31000000.00 KZT") {
		t.Errorf("missing BTC line in %q", got)
	}
}

func TestFormatQuotesEmptyFallsBackToErrorText(t *testing.T) {
	if got := formatQuotes(nil); got != msgRateUnavailable {
		t.Fatalf("formatQuotes(nil) = %q, want %q", got, msgRateUnavailable)
	}
}

func TestFormatConversion(t *testing.T) {
	got := formatConversion(conversation.Result{
		Outcome:   conversation.OutcomeConverted,
		Amount:    100,
		Rate:      450.5,
		Converted: 45050,
	})
	if !strings.Contains(got, "100.00 USDT ≈ 45050.00 KZT") {
		t.Errorf("missing conversion line in %q", got)
	}
	if !strings.Contains(got, "1 USDT = 450.50 KZT") {
		t.Errorf("missing rate line in %q", got)
	}
}

func TestAssetLabels(t *testing.T) {
	want := map[rates.Asset]string{
		rates.USDT: "USDT/KZT",
		rates.BTC:  "BTC/KZT",
		rates.ETH:  "ETH/KZT",
		rates.TON:  "TON/KZT",
	}
	for asset, label := range want {
		if got := assetLabel(asset); got != label {
			t.Errorf("assetLabel(%s) = %q, want %q", asset, got, label)
		}
	}
}

func TestNewRegistersAllLabels(t *testing.T) {
	app := New(testConfig(), nil)

	labels := app.reg.Labels()
	want := []string{
		"USDT/KZT", "BTC/KZT", "ETH/KZT", "TON/KZT",
		LabelAllRates, LabelConvert, LabelCancel,
	}
	if len(labels) != len(want) {
		t.Fatalf("got %d labels %v, want %d", len(labels), labels, len(want))
	}
	for i, l := range want {
		if labels[i] != l {
			t.Errorf("labels[%d] = %q, want %q", i, labels[i], l)
		}
	}

	if _, ok := app.reg.Commands()["/start"]; !ok {
		t.Error("/start command not registered")
	}
	if app.reg.TextFallback() == nil {
		t.Error("text fallback not registered")
	}
}

func TestMainKeyboardLayout(t *testing.T) {
	kb := mainKeyboard()
	if !kb.ResizeKeyboard {
		t.Error("keyboard not resizable")
	}
	rows := kb.ReplyKeyboard
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	last := rows[len(rows)-1]
	if len(last) != 2 || last[0].Text != LabelAllRates || last[1].Text != LabelConvert {
		t.Errorf("unexpected last row %+v", last)
	}
}

func TestCancelKeyboard(t *testing.T) {
	kb := cancelKeyboard()
	if len(kb.ReplyKeyboard) != 1 || len(kb.ReplyKeyboard[0]) != 1 {
		t.Fatalf("unexpected layout %+v", kb.ReplyKeyboard)
	}
	if kb.ReplyKeyboard[0][0].Text != LabelCancel {
		t.Errorf("button = %q, want %q", kb.ReplyKeyboard[0][0].Text, LabelCancel)
	}
	if kb.Placeholder != msgPromptAmount {
		t.Errorf("placeholder = %q, want %q", kb.Placeholder, msgPromptAmount)
	}
}
