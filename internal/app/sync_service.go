// internal/app/sync_service.go
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"mrr_analytics/internal/domain/customer"
	"mrr_analytics/internal/domain/invoice"
	"mrr_analytics/internal/domain/subscription"
	"mrr_analytics/internal/infra/metrics"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

var ErrSyncNotConfigured = errors.New("record sync is not configured (STRIPE_SECRET_KEY is empty)")
var ErrSyncInProgress = errors.New("a record sync is already running")

// RecordSource is the upstream billing system the record store is loaded from.
type RecordSource interface {
	SearchCustomers(ctx context.Context, query string) ([]*customer.Customer, error)
	ListSubscriptions(ctx context.Context, customerID string) ([]*subscription.Subscription, error)
	ListInvoices(ctx context.Context, customerID string) ([]*invoice.Invoice, error)
}

// RecordWriter replaces the stored customers, subscriptions and invoices as one
// unit: either all three sets are stored or none is.
type RecordWriter interface {
	ReplaceRecords(ctx context.Context, customers []*customer.Customer, subs []*subscription.Subscription, invoices []*invoice.Invoice) error
}

// SyncResult summarizes one completed sync.
type SyncResult struct {
	Customers      int
	Subscriptions  int
	Invoices       int
	FilledInvoices int // invoices attributed to a subscription by customer
}

// SyncService reloads customers, subscriptions and invoices from the source into
// the record store.
type SyncService struct {
	source        RecordSource
	customerQuery string
	store         RecordWriter
	metrics       *metrics.Collector
	logger        logrus.FieldLogger

	running sync.Mutex
}

func NewSyncService(
	source RecordSource, // nil disables sync
	customerQuery string,
	store RecordWriter,
	collector *metrics.Collector,
	logger logrus.FieldLogger,
) *SyncService {
	return &SyncService{
		source:        source,
		customerQuery: customerQuery,
		store:         store,
		metrics:       collector,
		logger:        logger,
	}
}

// Run performs a full reload. Nothing is written unless every fetch succeeded,
// and the three tables are then replaced together.
func (s *SyncService) Run(ctx context.Context) (*SyncResult, error) {
	if s.source == nil {
		return nil, ErrSyncNotConfigured
	}
	if !s.running.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer s.running.Unlock()

	log := s.logger.WithField("query", s.customerQuery)
	log.Info("Starting record sync")

	found, err := s.source.SearchCustomers(ctx, s.customerQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to search customers: %w", err)
	}
	customers := lo.Filter(found, func(c *customer.Customer, _ int) bool {
		return c != nil && c.ID != ""
	})
	log.WithField("customers", len(customers)).Info("Customers found")

	var subs []*subscription.Subscription
	latestSub := make(map[string]*subscription.Subscription) // customer -> most recently created
	for _, c := range customers {
		list, err := s.source.ListSubscriptions(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list subscriptions for customer %s: %w", c.ID, err)
		}
		for _, sub := range list {
			if sub.CustomerID == "" {
				sub.CustomerID = c.ID
			}
			if cur, ok := latestSub[c.ID]; !ok || sub.CreatedAt.After(cur.CreatedAt) {
				latestSub[c.ID] = sub
			}
		}
		subs = append(subs, list...)
	}

	result := &SyncResult{Customers: len(customers), Subscriptions: len(subs)}
	var invoices []*invoice.Invoice
	seen := make(map[string]struct{})
	for _, c := range customers {
		list, err := s.source.ListInvoices(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list invoices for customer %s: %w", c.ID, err)
		}
		for _, inv := range list {
			if inv.ID == "" {
				continue
			}
			if _, dup := seen[inv.ID]; dup {
				continue
			}
			seen[inv.ID] = struct{}{}
			if inv.CustomerID == "" {
				inv.CustomerID = c.ID
			}
			if !inv.SubscriptionID.Valid {
				if sub, ok := latestSub[c.ID]; ok {
					inv.SubscriptionID = sql.NullString{String: sub.ID, Valid: true}
					inv.SubscriptionIDFilled = true
					result.FilledInvoices++
				}
			}
			invoices = append(invoices, inv)
		}
	}
	result.Invoices = len(invoices)

	if err := s.store.ReplaceRecords(ctx, customers, subs, invoices); err != nil {
		return nil, fmt.Errorf("failed to store records: %w", err)
	}

	s.metrics.RecordSync(result.Customers, result.Subscriptions, result.Invoices)
	log.WithFields(logrus.Fields{
		"customers":       result.Customers,
		"subscriptions":   result.Subscriptions,
		"invoices":        result.Invoices,
		"filled_invoices": result.FilledInvoices,
	}).Info("Record sync completed")
	return result, nil
}
