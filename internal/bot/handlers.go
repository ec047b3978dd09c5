package bot

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/tengebot/core/telegram"
	"github.com/m3rciful/tengebot/internal/conversation"
	"github.com/m3rciful/tengebot/internal/rates"
)

func (a *App) handleStart(c tele.Context) error {
	ctx := telegram.BuildContext(c)
	quotes := a.resolver.ResolveAll(ctx, rates.All())
	text := msgWelcome + "\n\n" + formatQuotes(quotes)
	return telegram.SendText(c, text, mainKeyboard())
}

// assetHandler answers a single pair button, e.g. "BTC/KZT".
func (a *App) assetHandler(asset rates.Asset) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := telegram.BuildContext(c)
		rate, err := a.resolver.Resolve(ctx, asset)
		if err != nil {
			return telegram.SendText(c, msgRateUnavailable, mainKeyboard())
		}
		return telegram.SendText(c, formatRate(asset, rate), mainKeyboard())
	}
}

func (a *App) handleAllRates(c tele.Context) error {
	ctx := telegram.BuildContext(c)
	quotes := a.resolver.ResolveAll(ctx, rates.All())
	return telegram.SendText(c, formatQuotes(quotes), mainKeyboard())
}

// handleConvert opens the amount dialog. A pending dialog for the same user
// is replaced, so pressing the button twice simply restarts the prompt.
func (a *App) handleConvert(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	ctx := telegram.BuildContext(c)
	a.store.Begin(ctx, sender.ID)
	return telegram.SendText(c, msgPromptAmount, cancelKeyboard())
}

func (a *App) handleUnknownText(c tele.Context) error {
	return telegram.SendText(c, msgUnknownText, mainKeyboard())
}

// dialog adapts the conversation store to the text router. While a user has
// a pending dialog every text message from them lands here, including text
// that would otherwise match a keyboard label.
type dialog struct {
	app *App
}

func (d dialog) InProgress(userID int64) bool {
	return d.app.store.InProgress(userID)
}

func (d dialog) Handle(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	ctx := telegram.BuildContext(c)
	res := d.app.store.Advance(ctx, sender.ID, c.Text())

	switch res.Outcome {
	case conversation.OutcomeConverted:
		return telegram.SendText(c, formatConversion(res), mainKeyboard())
	case conversation.OutcomeCancelled:
		return telegram.SendText(c, msgCancelled, mainKeyboard())
	case conversation.OutcomeInvalidAmount:
		return telegram.SendText(c, msgInvalidAmount, cancelKeyboard())
	case conversation.OutcomeRateUnavailable:
		return telegram.SendText(c, msgRateUnavailable, mainKeyboard())
	default:
		// Session expired between the InProgress check and Advance.
		return d.app.handleUnknownText(c)
	}
}
