package analytics

import (
	"database/sql"
	"time"

	"mrr_analytics/internal/domain/invoice"
	"mrr_analytics/internal/domain/subscription"
)

var fixedNow = ts("2025-06-15T12:00:00Z")

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

type subOpt func(*subscription.Subscription)

func newSub(id, customerID, created string, opts ...subOpt) *subscription.Subscription {
	s := &subscription.Subscription{
		ID:            id,
		CustomerID:    customerID,
		Status:        subscription.StatusActive,
		CreatedAt:     ts(created),
		PriceAmount:   sql.NullInt64{Int64: 2900, Valid: true},
		PriceInterval: subscription.IntervalMonth,
		Quantity:      sql.NullInt64{Int64: 1, Valid: true},
		Currency:      "usd",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func canceled(at string) subOpt {
	return func(s *subscription.Subscription) {
		s.CanceledAt = sql.NullTime{Time: ts(at), Valid: true}
		s.Status = subscription.StatusCanceled
	}
}

func withStatus(st subscription.Status) subOpt {
	return func(s *subscription.Subscription) { s.Status = st }
}

func withPrice(cents int64, interval subscription.Interval) subOpt {
	return func(s *subscription.Subscription) {
		s.PriceAmount = sql.NullInt64{Int64: cents, Valid: true}
		s.PriceInterval = interval
	}
}

func withQuantity(q int64) subOpt {
	return func(s *subscription.Subscription) { s.Quantity = sql.NullInt64{Int64: q, Valid: true} }
}

func newInvoice(id, customerID, subscriptionID, created, paid string) *invoice.Invoice {
	inv := &invoice.Invoice{
		ID:         id,
		CustomerID: customerID,
		Status:     "open",
		AmountDue:  2900,
		Currency:   "usd",
		CreatedAt:  ts(created),
	}
	if subscriptionID != "" {
		inv.SubscriptionID = sql.NullString{String: subscriptionID, Valid: true}
	}
	if paid != "" {
		inv.PaidAt = sql.NullTime{Time: ts(paid), Valid: true}
		inv.Status = "paid"
		inv.AmountPaid = inv.AmountDue
	}
	return inv
}

func normalizeAll(subs ...*subscription.Subscription) []Normalized {
	out, _ := Normalize(subs)
	return out
}
