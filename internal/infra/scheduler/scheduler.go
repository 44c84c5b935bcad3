package scheduler

import (
	"context"
	"fmt"
	"time"

	"mrr_analytics/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Syncer reloads the record store from the billing source.
type Syncer interface {
	Run(ctx context.Context) (*app.SyncResult, error)
}

// DigestSender delivers the monthly analytics digest.
type DigestSender interface {
	SendMonthlyDigest(ctx context.Context) error
}

type AnalyticsScheduler struct {
	cronEngine     *cron.Cron
	syncer         Syncer       // nil disables the sync job
	digest         DigestSender // nil disables the digest job
	logger         *logrus.Entry
	cronSpecSync   string // e.g. "0 3 * * *" (03:00 UTC daily)
	cronSpecDigest string // e.g. "0 9 1 * *" (09:00 UTC on the 1st)
	syncTimeout    time.Duration
	digestTimeout  time.Duration
}

func NewAnalyticsScheduler(
	syncer Syncer,
	digest DigestSender,
	logger *logrus.Entry,
	cronSpecSync string,
	cronSpecDigest string,
) *AnalyticsScheduler {
	return &AnalyticsScheduler{
		// Month boundaries are UTC, so the schedule is too.
		cronEngine:     cron.New(cron.WithLocation(time.UTC)),
		syncer:         syncer,
		digest:         digest,
		logger:         logger,
		cronSpecSync:   cronSpecSync,
		cronSpecDigest: cronSpecDigest,
		syncTimeout:    30 * time.Minute,
		digestTimeout:  5 * time.Minute,
	}
}

// Start registers the jobs and starts the cron engine.
func (s *AnalyticsScheduler) Start() error {
	s.logger.Info("Starting analytics scheduler...")

	if s.syncer != nil {
		if _, err := s.cronEngine.AddFunc(s.cronSpecSync, s.runSync); err != nil {
			return fmt.Errorf("could not add sync cron job %q: %w", s.cronSpecSync, err)
		}
	}
	if s.digest != nil {
		if _, err := s.cronEngine.AddFunc(s.cronSpecDigest, s.runDigest); err != nil {
			return fmt.Errorf("could not add digest cron job %q: %w", s.cronSpecDigest, err)
		}
	}

	s.cronEngine.Start()
	s.logger.WithField("jobs", len(s.cronEngine.Entries())).Info("Analytics scheduler started")
	return nil
}

func (s *AnalyticsScheduler) runSync() {
	log := s.logger.WithField("job", "sync")
	log.Info("Cron job triggered")
	ctx, cancel := context.WithTimeout(context.Background(), s.syncTimeout)
	defer cancel()

	result, err := s.syncer.Run(ctx)
	if err != nil {
		log.WithError(err).Error("Scheduled sync failed")
		return
	}
	log.WithField("invoices", result.Invoices).Info("Scheduled sync finished")
}

func (s *AnalyticsScheduler) runDigest() {
	log := s.logger.WithField("job", "digest")
	log.Info("Cron job triggered")
	ctx, cancel := context.WithTimeout(context.Background(), s.digestTimeout)
	defer cancel()

	if err := s.digest.SendMonthlyDigest(ctx); err != nil {
		log.WithError(err).Error("Scheduled digest failed")
	}
}

func (s *AnalyticsScheduler) Stop() {
	s.logger.Info("Stopping analytics scheduler...")
	ctx := s.cronEngine.Stop() // waits for running jobs
	<-ctx.Done()
	s.logger.Info("Analytics scheduler gracefully stopped")
}
