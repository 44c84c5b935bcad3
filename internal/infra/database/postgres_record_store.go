package database

import (
	"context"
	"database/sql"

	"mrr_analytics/internal/domain/customer"
	"mrr_analytics/internal/domain/invoice"
	"mrr_analytics/internal/domain/subscription"
)

// PostgresRecordStore writes the three record tables as one unit.
type PostgresRecordStore struct {
	db *sql.DB
}

func NewPostgresRecordStore(db *sql.DB) *PostgresRecordStore {
	return &PostgresRecordStore{db: db}
}

// ReplaceRecords swaps the contents of customers, subscriptions and invoices in a
// single transaction. On any failure all three tables keep their previous rows.
func (s *PostgresRecordStore) ReplaceRecords(
	ctx context.Context,
	customers []*customer.Customer,
	subs []*subscription.Subscription,
	invoices []*invoice.Invoice,
) error {
	return replaceTables(ctx, s.db,
		customerLoad(customers),
		subscriptionLoad(subs),
		invoiceLoad(invoices),
	)
}
