package telegram

import tele "gopkg.in/telebot.v4"

// Button labels double as the routing keys for incoming messages: pressing a
// reply-keyboard button sends its label as plain text.
const (
	ButtonNewDay   = "🌅 Новый день"
	ButtonTookPill = "💊 Выпил"
	ButtonProgress = "📊 Прогресс"
)

// MainKeyboard is the persistent reply keyboard shown with every message.
func MainKeyboard() *tele.ReplyMarkup {
	rm := &tele.ReplyMarkup{ResizeKeyboard: true}
	rm.Reply(
		rm.Row(rm.Text(ButtonNewDay), rm.Text(ButtonTookPill)),
		rm.Row(rm.Text(ButtonProgress)),
	)
	return rm
}
