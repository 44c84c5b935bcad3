package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mrr_analytics/internal/app"
	"mrr_analytics/internal/domain/analytics"
	"mrr_analytics/internal/infra/config"
	idb "mrr_analytics/internal/infra/database"
	"mrr_analytics/internal/infra/logger"
	"mrr_analytics/internal/infra/metrics"
	"mrr_analytics/internal/infra/scheduler"
	istripe "mrr_analytics/internal/infra/stripe"
	"mrr_analytics/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const usage = `Usage: analytics <command> [flags]

Commands:
  serve                      run the scheduler, the admin bot and the metrics endpoint
  report [-from M] [-to M]   print the report for a month range (YYYY-MM) as JSON
  sync                       reload customers, subscriptions and invoices from Stripe
  migrate                    create the record store tables
`

// services is the wiring shared by every command.
type services struct {
	cfg       *config.AppConfig
	db        *sql.DB
	collector *metrics.Collector
	analytics *app.AnalyticsService
	sync      *app.SyncService
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	command, args := os.Args[1], os.Args[2:]

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not load application configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.WithFields(logrus.Fields{
		"command":     command,
		"environment": cfg.Environment,
		"log_level":   cfg.LogLevel,
	}).Info("Configuration loaded")

	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		mainLogger.Fatalf("Could not connect to database: %v", err)
	}
	defer db.Close()

	svc := newServices(cfg, db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch command {
	case "serve":
		err = runServe(ctx, svc, mainLogger)
	case "report":
		err = runReport(ctx, svc, args, os.Stdout)
	case "sync":
		err = runSync(ctx, svc, mainLogger)
	case "migrate":
		err = idb.Migrate(ctx, db)
		if err == nil {
			mainLogger.Info("Schema migrated")
		}
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		mainLogger.WithError(err).Error("Command failed")
		db.Close()
		os.Exit(1)
	}
}

func newServices(cfg *config.AppConfig, db *sql.DB) *services {
	subRepo := idb.NewPostgresSubscriptionRepository(db)
	invoiceRepo := idb.NewPostgresInvoiceRepository(db)
	customerRepo := idb.NewPostgresCustomerRepository(db)

	collector := metrics.NewCollector("mrr_analytics")
	engine := analytics.NewEngine()

	var source app.RecordSource
	if cfg.StripeSecretKey != "" {
		source = istripe.NewSource(cfg.StripeSecretKey, cfg.StripeRequestsPerSecond)
	}

	return &services{
		cfg:       cfg,
		db:        db,
		collector: collector,
		analytics: app.NewAnalyticsService(subRepo, invoiceRepo, customerRepo, engine, cfg.FetchTimeout, collector, logger.Component("analytics")),
		sync:      app.NewSyncService(source, cfg.StripeCustomerQuery, idb.NewPostgresRecordStore(db), collector, logger.Component("sync")),
	}
}

// parseReportFlags resolves the month range of the report command. Without flags
// the configured trailing window ending with the current month is used.
func parseReportFlags(args []string, now time.Time, windowMonths int) (analytics.Range, error) {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	from := fs.String("from", "", "first month, YYYY-MM")
	to := fs.String("to", "", "last month, YYYY-MM")
	if err := fs.Parse(args); err != nil {
		return analytics.Range{}, err
	}

	def := analytics.TrailingRange(now, windowMonths)
	if *from == "" {
		*from = def.Start.String()
	}
	if *to == "" {
		*to = def.End.String()
	}
	return analytics.ParseRange(*from, *to)
}

func runReport(ctx context.Context, svc *services, args []string, out io.Writer) error {
	r, err := parseReportFlags(args, time.Now(), svc.cfg.ReportWindowMonths)
	if err != nil {
		return fmt.Errorf("invalid report range: %w", err)
	}
	report, err := svc.analytics.Compute(ctx, r)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func runSync(ctx context.Context, svc *services, log *logrus.Entry) error {
	result, err := svc.sync.Run(ctx)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"customers":     result.Customers,
		"subscriptions": result.Subscriptions,
		"invoices":      result.Invoices,
	}).Info("Sync finished")
	return nil
}

func runServe(ctx context.Context, svc *services, log *logrus.Entry) error {
	cfg := svc.cfg

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", svc.collector.Handler())
		metricsServer = &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			log.WithField("addr", cfg.MetricsAddr).Info("Serving metrics")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("Metrics server stopped")
			}
		}()
	}

	var syncer scheduler.Syncer
	if cfg.StripeSecretKey != "" {
		syncer = svc.sync
	} else {
		log.Warn("STRIPE_SECRET_KEY is empty, scheduled sync disabled")
	}

	var digest scheduler.DigestSender
	var bot *telebot.Bot
	if cfg.TelegramEnabled() {
		var err error
		bot, err = telebot.NewBot(telebot.Settings{
			Token:  cfg.TelegramToken,
			Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
			OnError: func(err error, c telebot.Context) {
				entry := logger.Component("telebot").WithError(err)
				if c != nil && c.Sender() != nil {
					entry = entry.WithField("sender_id", c.Sender().ID)
				}
				entry.Error("Bot handler failed")
			},
		})
		if err != nil {
			return fmt.Errorf("could not create Telegram bot: %w", err)
		}

		botLogger := logger.Component("telegram")
		telegram.RegisterBotCommands(bot, cfg.AdminTelegramID, botLogger)
		telegram.NewAdminCommands(svc.analytics, svc.sync, cfg.AdminTelegramID, cfg.ReportWindowMonths, cfg.FetchTimeout+time.Minute, botLogger).Register(bot)
		digest = app.NewDigestService(svc.analytics, telegram.NewTelebotAdapter(bot), cfg.AdminTelegramID, cfg.ReportWindowMonths, logger.Component("digest"))
		go bot.Start()
		log.Info("Telegram bot started")
	} else {
		log.Warn("TELEGRAM_TOKEN is empty, bot and digest disabled")
	}

	sched := scheduler.NewAnalyticsScheduler(syncer, digest, logger.Component("scheduler"), cfg.CronSpecSync, cfg.CronSpecDigest)
	if err := sched.Start(); err != nil {
		return err
	}

	log.Info("Application setup complete")
	<-ctx.Done()

	log.Info("Shutting down application...")
	sched.Stop()
	if bot != nil {
		bot.Stop()
	}
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Metrics server shutdown failed")
		}
	}
	log.Info("Application shut down gracefully")
	return nil
}
