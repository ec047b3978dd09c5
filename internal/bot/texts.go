package bot

import (
	"fmt"
	"strings"

	"github.com/m3rciful/tengebot/internal/conversation"
	"github.com/m3rciful/tengebot/internal/rates"
)

// Reply-keyboard labels. Matched byte-exact against incoming text.
const (
	LabelAllRates = "Все курсы"
	LabelConvert  = "Конвертировать USDT"
	LabelCancel   = "Отмена"
)

const (
	msgWelcome         = "Добро пожаловать! 👋\nВыберите пару или запросите все курсы."
	msgPromptAmount    = "Введите сумму в USDT:"
	msgInvalidAmount   = "Не понимаю сумму. Введите положительное число, например 150 или 99.5."
	msgCancelled       = "Конвертация отменена."
	msgRateUnavailable = "Не удалось получить курс. Попробуйте позже."
	msgUnknownText     = "Я понимаю кнопки ниже и команду /start."
)

// assetLabel is the keyboard button label for a pair, e.g. "USDT/KZT".
func assetLabel(a rates.Asset) string {
	return a.String() + "/KZT"
}

func formatRate(a rates.Asset, rate float64) string {
	return fmt.Sprintf("Актуальный курс: 1 %s = %.2f KZT", a, rate)
}

func formatQuotes(quotes []rates.Quote) string {
	if len(quotes) == 0 {
		return msgRateUnavailable
	}
	lines := make([]string, 0, len(quotes))
	for _, q := range quotes {
		lines = append(lines, fmt.Sprintf("1 %s = %.2f KZT", q.Asset, q.Rate))
	}
	return "Актуальные курсы:\n" + strings.Join(lines, "\n")
}

func formatConversion(res conversation.Result) string {
	return fmt.Sprintf("%.2f USDT ≈ %.2f KZT\nКурс: 1 USDT = %.2f KZT",
		res.Amount, res.Converted, res.Rate)
}
