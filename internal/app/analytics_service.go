// internal/app/analytics_service.go
package app

import (
	"context"
	"fmt"
	"time"

	"mrr_analytics/internal/domain/analytics"
	"mrr_analytics/internal/domain/customer"
	"mrr_analytics/internal/domain/invoice"
	"mrr_analytics/internal/domain/subscription"
	"mrr_analytics/internal/infra/metrics"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ReportComputer produces a report for a month range.
type ReportComputer interface {
	Compute(ctx context.Context, r analytics.Range) (*analytics.Report, error)
}

// AnalyticsService loads the record sets and runs the engine over them.
type AnalyticsService struct {
	subRepo      subscription.Repository
	invoiceRepo  invoice.Repository
	customerRepo customer.Repository
	engine       *analytics.Engine
	fetchTimeout time.Duration
	metrics      *metrics.Collector
	logger       logrus.FieldLogger
}

func NewAnalyticsService(
	sr subscription.Repository,
	ir invoice.Repository,
	cr customer.Repository,
	engine *analytics.Engine,
	fetchTimeout time.Duration,
	collector *metrics.Collector, // may be nil
	logger logrus.FieldLogger,
) *AnalyticsService {
	return &AnalyticsService{
		subRepo:      sr,
		invoiceRepo:  ir,
		customerRepo: cr,
		engine:       engine,
		fetchTimeout: fetchTimeout,
		metrics:      collector,
		logger:       logger,
	}
}

// Compute fetches all records and recomputes the report for r. Any fetch failure
// fails the whole computation: partial inputs would break the month-to-month
// carry-forward.
func (s *AnalyticsService) Compute(ctx context.Context, r analytics.Range) (*analytics.Report, error) {
	started := time.Now()
	log := s.logger.WithField("range", r.String())

	if _, err := analytics.BuildAxis(r.Start, r.End); err != nil {
		return nil, err
	}

	in, err := s.fetch(ctx)
	if err != nil {
		s.metrics.RecordComputationFailure()
		log.WithError(err).Error("Failed to load records")
		return nil, err
	}

	report, err := s.engine.Compute(in, r)
	if err != nil {
		s.metrics.RecordComputationFailure()
		log.WithError(err).Error("Failed to compute analytics")
		return nil, fmt.Errorf("failed to compute analytics: %w", err)
	}

	for _, d := range report.Dropped {
		log.WithFields(logrus.Fields{"subscription_id": d.RecordID, "reason": d.Reason}).Debug("Dropped malformed subscription")
	}
	took := time.Since(started)
	s.metrics.ObserveReport(report, took)
	log.WithFields(logrus.Fields{
		"subscriptions": report.Inputs.Subscriptions,
		"invoices":      report.Inputs.Invoices,
		"dropped":       report.Inputs.DroppedSubscriptions,
		"took":          took.String(),
	}).Info("Analytics computed")
	return report, nil
}

func (s *AnalyticsService) fetch(ctx context.Context) (analytics.Input, error) {
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}

	var in analytics.Input
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		subs, err := s.subRepo.ListAll(gctx)
		if err != nil {
			return &analytics.RecordStoreUnavailableError{Op: "list subscriptions", Err: err}
		}
		in.Subscriptions = subs
		return nil
	})
	g.Go(func() error {
		invs, err := s.invoiceRepo.ListAll(gctx)
		if err != nil {
			return &analytics.RecordStoreUnavailableError{Op: "list invoices", Err: err}
		}
		in.Invoices = invs
		return nil
	})
	g.Go(func() error {
		customers, err := s.customerRepo.ListAll(gctx)
		if err != nil {
			return &analytics.RecordStoreUnavailableError{Op: "list customers", Err: err}
		}
		in.Customers = customers
		return nil
	})
	if err := g.Wait(); err != nil {
		return analytics.Input{}, err
	}
	// A store that ignores its context could return after the deadline.
	if err := ctx.Err(); err != nil {
		return analytics.Input{}, &analytics.RecordStoreUnavailableError{Op: "fetch", Err: err}
	}
	return in, nil
}
