package telegram

// Client sends plain-text messages to a Telegram chat. The application layer
// depends on this instead of the bot library.
type Client interface {
	SendText(chatID int64, text string) error
}
