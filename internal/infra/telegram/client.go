// internal/infra/telegram/client.go
package telegram

import (
	"gopkg.in/telebot.v3"
)

// TelebotAdapter implements the telegram.Client interface using gopkg.in/telebot.v3.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendText sends a plain text message to the chat. Long reports are split to
// stay under the Telegram message limit.
func (tba *TelebotAdapter) SendText(chatID int64, text string) error {
	for _, part := range splitMessage(text, maxMessageLength) {
		if _, err := tba.bot.Send(telebot.ChatID(chatID), part); err != nil {
			return err
		}
	}
	return nil
}

const maxMessageLength = 4096

// splitMessage cuts text on line breaks into chunks of at most limit bytes.
// A single line longer than limit is cut as is.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var parts []string
	for len(text) > limit {
		cut := limit
		for i := limit; i > 0; i-- {
			if text[i-1] == '\n' {
				cut = i
				break
			}
		}
		parts = append(parts, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}
