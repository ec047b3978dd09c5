// Package keyboard builds Telegram reply keyboards from plain labels.
package keyboard

import tele "gopkg.in/telebot.v4"

// ReplyButtons builds a reply keyboard from rows of text.
func ReplyButtons(rows ...[]string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	var keyboard []tele.Row
	for _, row := range rows {
		var buttons []tele.Btn
		for _, label := range row {
			buttons = append(buttons, markup.Text(label))
		}
		keyboard = append(keyboard, markup.Row(buttons...))
	}
	markup.Reply(keyboard...)
	return markup
}

// ReplyButtonsWithPlaceholder builds a reply keyboard and sets the input
// field placeholder shown while the keyboard is visible.
func ReplyButtonsWithPlaceholder(placeholder string, rows ...[]string) *tele.ReplyMarkup {
	markup := ReplyButtons(rows...)
	markup.Placeholder = placeholder
	return markup
}
