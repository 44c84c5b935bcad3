// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RegisterBotCommands binds /start and /help.
func RegisterBotCommands(b *telebot.Bot, adminTelegramID int64, baseLogger *logrus.Entry) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		senderID := c.Sender().ID
		startHelpLogger.WithField("command", "/start").WithField("sender_id", senderID).Info("Processing /start command")
		return c.Send(startText(senderID == adminTelegramID, c.Sender().FirstName))
	})

	b.Handle("/help", func(c telebot.Context) error {
		senderID := c.Sender().ID
		startHelpLogger.WithField("command", "/help").WithField("sender_id", senderID).Info("Processing /help command")
		if senderID != adminTelegramID {
			return c.Send("No commands are available to you.")
		}
		return c.Send(adminHelpText(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})
}

func startText(isAdmin bool, firstName string) string {
	if isAdmin {
		return "Hello, " + firstName + "! Analytics are ready. Use /help for the list of commands."
	}
	return "Hello! This bot delivers subscription analytics to its administrator only."
}

func adminHelpText() string {
	var helpText strings.Builder
	helpText.WriteString("Admin commands:\n\n")
	helpText.WriteString("`/mrr [YYYY-MM YYYY-MM]`\n - Month-end gross, delinquent and collectible MRR plus live MRR.\n\n")
	helpText.WriteString("`/cohort [YYYY-MM YYYY-MM]`\n - Active, new and churned paid users with growth and churn rates.\n\n")
	helpText.WriteString("`/status`\n - Customers by subscription status and the active breakdown.\n\n")
	helpText.WriteString("`/sync`\n - Reload customers, subscriptions and invoices from Stripe.\n\n")
	helpText.WriteString("`/help`\n - Show this message.")
	return helpText.String()
}
