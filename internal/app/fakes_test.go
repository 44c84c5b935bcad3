package app

import (
	"context"
	"database/sql"
	"time"

	"mrr_analytics/internal/domain/analytics"
	"mrr_analytics/internal/domain/customer"
	"mrr_analytics/internal/domain/invoice"
	"mrr_analytics/internal/domain/subscription"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func paidSub(id, customerID, created string) *subscription.Subscription {
	return &subscription.Subscription{
		ID:            id,
		CustomerID:    customerID,
		Status:        subscription.StatusActive,
		CreatedAt:     ts(created),
		PriceAmount:   sql.NullInt64{Int64: 2900, Valid: true},
		PriceInterval: subscription.IntervalMonth,
		Quantity:      sql.NullInt64{Int64: 1, Valid: true},
		Currency:      "usd",
	}
}

// --- record store fakes ---

type fakeSubRepo struct {
	subs  []*subscription.Subscription
	err   error
	block bool
}

func (r *fakeSubRepo) ListAll(ctx context.Context) ([]*subscription.Subscription, error) {
	if r.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return r.subs, r.err
}

type fakeInvoiceRepo struct {
	invoices []*invoice.Invoice
	err      error
}

func (r *fakeInvoiceRepo) ListAll(context.Context) ([]*invoice.Invoice, error) {
	return r.invoices, r.err
}

type fakeCustomerRepo struct {
	customers []*customer.Customer
	err       error
}

func (r *fakeCustomerRepo) ListAll(context.Context) ([]*customer.Customer, error) {
	return r.customers, r.err
}

// fakeRecordStore keeps the last successfully written record sets. A failed
// write leaves them untouched, like the single Postgres transaction.
type fakeRecordStore struct {
	customers     []*customer.Customer
	subscriptions []*subscription.Subscription
	invoices      []*invoice.Invoice
	writes        int
	err           error
}

func (f *fakeRecordStore) ReplaceRecords(_ context.Context, cs []*customer.Customer, subs []*subscription.Subscription, invs []*invoice.Invoice) error {
	if f.err != nil {
		return f.err
	}
	f.customers, f.subscriptions, f.invoices = cs, subs, invs
	f.writes++
	return nil
}

// --- source fake ---

type fakeSource struct {
	customers     []*customer.Customer
	subscriptions map[string][]*subscription.Subscription
	invoices      map[string][]*invoice.Invoice
	searchErr     error
	invoiceErr    error
	release       chan struct{} // when set, SearchCustomers waits on it
	entered       chan struct{}
}

func (s *fakeSource) SearchCustomers(ctx context.Context, _ string) ([]*customer.Customer, error) {
	if s.release != nil {
		close(s.entered)
		<-s.release
	}
	return s.customers, s.searchErr
}

func (s *fakeSource) ListSubscriptions(_ context.Context, customerID string) ([]*subscription.Subscription, error) {
	return s.subscriptions[customerID], nil
}

func (s *fakeSource) ListInvoices(_ context.Context, customerID string) ([]*invoice.Invoice, error) {
	return s.invoices[customerID], s.invoiceErr
}

// --- delivery fakes ---

type sentMessage struct {
	chatID int64
	text   string
}

type fakeTelegram struct {
	sent []sentMessage
	err  error
}

func (f *fakeTelegram) SendText(chatID int64, text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

type fakeComputer struct {
	report *analytics.Report
	err    error
	ranges []analytics.Range
}

func (f *fakeComputer) Compute(_ context.Context, r analytics.Range) (*analytics.Report, error) {
	f.ranges = append(f.ranges, r)
	return f.report, f.err
}
