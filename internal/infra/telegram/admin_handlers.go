package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mrr_analytics/internal/app"
	"mrr_analytics/internal/domain/analytics"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const unauthorizedReply = "Error: you are not allowed to run this command."

// Syncer runs a one-shot reload of the record store.
type Syncer interface {
	Run(ctx context.Context) (*app.SyncResult, error)
}

// AdminCommands answers the analytics commands of the configured admin.
type AdminCommands struct {
	computer        app.ReportComputer
	syncer          Syncer
	adminTelegramID int64
	windowMonths    int
	timeout         time.Duration
	now             func() time.Time
	logger          *logrus.Entry
}

func NewAdminCommands(
	computer app.ReportComputer,
	syncer Syncer,
	adminTelegramID int64,
	windowMonths int,
	timeout time.Duration,
	baseLogger *logrus.Entry,
) *AdminCommands {
	return &AdminCommands{
		computer:        computer,
		syncer:          syncer,
		adminTelegramID: adminTelegramID,
		windowMonths:    windowMonths,
		timeout:         timeout,
		now:             time.Now,
		logger:          baseLogger,
	}
}

// Register binds /mrr, /cohort, /status and /sync on b.
func (h *AdminCommands) Register(b *telebot.Bot) {
	for _, command := range []string{"/mrr", "/cohort", "/status", "/sync"} {
		command := command
		b.Handle(command, func(c telebot.Context) error {
			ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
			defer cancel()
			return c.Send(h.reply(ctx, command, c.Sender().ID, c.Args()))
		})
	}
}

func (h *AdminCommands) reply(ctx context.Context, command string, senderID int64, args []string) string {
	handlerLogger := h.logger.WithFields(logrus.Fields{
		"handler":   command,
		"sender_id": senderID,
	})
	handlerLogger.Info("Command received")

	if senderID != h.adminTelegramID {
		handlerLogger.Warn("Unauthorized access attempt")
		return unauthorizedReply
	}

	if command == "/sync" {
		return h.runSync(ctx, handlerLogger)
	}

	r, err := parseRangeArgs(args, h.now(), h.windowMonths)
	if err != nil {
		handlerLogger.WithError(err).Warn("Invalid command arguments")
		return fmt.Sprintf("Invalid arguments: %v. Usage: %s [YYYY-MM YYYY-MM]", err, command)
	}
	handlerLogger = handlerLogger.WithField("range", r.String())

	report, err := h.computer.Compute(ctx, r)
	if err != nil {
		handlerLogger.WithError(err).Error("Failed to compute report")
		var unavailable *analytics.RecordStoreUnavailableError
		if errors.As(err, &unavailable) {
			return "The record store is unavailable right now. Please try again later."
		}
		return fmt.Sprintf("Failed to compute the report: %v", err)
	}

	switch command {
	case "/cohort":
		return app.FormatCohort(report)
	case "/status":
		return app.FormatStatus(report)
	default:
		return app.FormatRevenue(report)
	}
}

func (h *AdminCommands) runSync(ctx context.Context, handlerLogger *logrus.Entry) string {
	result, err := h.syncer.Run(ctx)
	switch {
	case errors.Is(err, app.ErrSyncInProgress):
		handlerLogger.Warn("Sync already running")
		return "A sync is already running."
	case errors.Is(err, app.ErrSyncNotConfigured):
		handlerLogger.Warn("Sync requested but not configured")
		return "Sync is not configured."
	case err != nil:
		handlerLogger.WithError(err).Error("Sync failed")
		return fmt.Sprintf("Sync failed: %v", err)
	}
	handlerLogger.Info("Sync completed")
	return fmt.Sprintf("Sync completed: %d customers, %d subscriptions, %d invoices (%d attributed by customer).",
		result.Customers, result.Subscriptions, result.Invoices, result.FilledInvoices)
}

// parseRangeArgs accepts either no arguments (the trailing window ending with the
// current month) or an explicit pair of months.
func parseRangeArgs(args []string, now time.Time, windowMonths int) (analytics.Range, error) {
	switch len(args) {
	case 0:
		return analytics.TrailingRange(now, windowMonths), nil
	case 2:
		return analytics.ParseRange(args[0], args[1])
	default:
		return analytics.Range{}, fmt.Errorf("expected 0 or 2 months, got %d", len(args))
	}
}
