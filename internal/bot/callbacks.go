package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// cmdRemove is both the /remove command name and the confirmation
// callback prefix.
const cmdRemove = "remove"

// handleCallback processes inline keyboard presses. Callback data is
// "action:argument".
func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	// Ack first so the button spinner clears even if handling fails.
	if _, err := b.api.Send(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Debug("callback ack", "error", err)
	}

	action, arg, _ := strings.Cut(cb.Data, ":")
	chatID := cb.Message.Chat.ID

	switch action {
	case cmdRemove:
		b.deleteSeries(ctx, chatID, arg)
	case "noop":
		b.reply(chatID, "Cancelled.")
	default:
		b.log.Warn("unknown callback", "data", cb.Data)
	}
}
