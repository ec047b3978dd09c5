package bot

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/tengebot/core/telegram/keyboard"
	"github.com/m3rciful/tengebot/internal/rates"
)

// mainKeyboard lays out the persistent reply keyboard: one pair button per
// asset, then the aggregate and conversion entries.
func mainKeyboard() *tele.ReplyMarkup {
	assets := rates.All()
	rows := make([][]string, 0, len(assets)/2+1)
	for i := 0; i < len(assets); i += 2 {
		row := []string{assetLabel(assets[i])}
		if i+1 < len(assets) {
			row = append(row, assetLabel(assets[i+1]))
		}
		rows = append(rows, row)
	}
	rows = append(rows, []string{LabelAllRates, LabelConvert})
	return keyboard.ReplyButtons(rows...)
}

// cancelKeyboard is shown while the bot is waiting for an amount.
func cancelKeyboard() *tele.ReplyMarkup {
	return keyboard.ReplyButtonsWithPlaceholder(msgPromptAmount, []string{LabelCancel})
}
