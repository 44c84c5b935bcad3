// Package stripe reads customers, subscriptions and invoices from the Stripe API
// and maps them onto the record store's domain rows.
package stripe

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"mrr_analytics/internal/domain/customer"
	"mrr_analytics/internal/domain/invoice"
	"mrr_analytics/internal/domain/subscription"

	gostripe "github.com/stripe/stripe-go/v82"
	stripecustomer "github.com/stripe/stripe-go/v82/customer"
	stripeinvoice "github.com/stripe/stripe-go/v82/invoice"
	stripesubscription "github.com/stripe/stripe-go/v82/subscription"
	"golang.org/x/time/rate"
)

const pageSize = 100

// Source pages through the Stripe API, pacing page fetches with a token bucket.
type Source struct {
	limiter *rate.Limiter
}

// NewSource sets the global Stripe key and returns a Source limited to
// requestsPerSecond page fetches.
func NewSource(apiKey string, requestsPerSecond float64) *Source {
	gostripe.Key = apiKey
	return &Source{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1)}
}

// pace blocks before every page boundary of an iteration.
func (s *Source) pace(ctx context.Context, i int) error {
	if i%pageSize != 0 {
		return nil
	}
	return s.limiter.Wait(ctx)
}

// SearchCustomers runs a Customer search query such as "created>=0".
func (s *Source) SearchCustomers(ctx context.Context, query string) ([]*customer.Customer, error) {
	params := &gostripe.CustomerSearchParams{}
	params.Context = ctx
	params.Query = query
	params.Limit = gostripe.Int64(pageSize)

	var out []*customer.Customer
	if err := s.pace(ctx, 0); err != nil {
		return nil, err
	}
	it := stripecustomer.Search(params)
	for i := 1; it.Next(); i++ {
		out = append(out, ToCustomer(it.Customer()))
		if err := s.pace(ctx, i); err != nil {
			return nil, err
		}
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("stripe: search customers: %w", err)
	}
	return out, nil
}

// ListSubscriptions lists every subscription of a customer in any status, with
// item prices expanded.
func (s *Source) ListSubscriptions(ctx context.Context, customerID string) ([]*subscription.Subscription, error) {
	params := &gostripe.SubscriptionListParams{
		Customer: gostripe.String(customerID),
		Status:   gostripe.String("all"),
	}
	params.Context = ctx
	params.Limit = gostripe.Int64(pageSize)
	params.AddExpand("data.items.data.price")

	var out []*subscription.Subscription
	if err := s.pace(ctx, 0); err != nil {
		return nil, err
	}
	it := stripesubscription.List(params)
	for i := 1; it.Next(); i++ {
		out = append(out, ToSubscription(it.Subscription()))
		if err := s.pace(ctx, i); err != nil {
			return nil, err
		}
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("stripe: list subscriptions for %s: %w", customerID, err)
	}
	return out, nil
}

// ListInvoices lists invoices by customer. Manually created invoices often carry
// no subscription, so listing per subscription would miss them.
func (s *Source) ListInvoices(ctx context.Context, customerID string) ([]*invoice.Invoice, error) {
	params := &gostripe.InvoiceListParams{Customer: gostripe.String(customerID)}
	params.Context = ctx
	params.Limit = gostripe.Int64(pageSize)

	var out []*invoice.Invoice
	if err := s.pace(ctx, 0); err != nil {
		return nil, err
	}
	it := stripeinvoice.List(params)
	for i := 1; it.Next(); i++ {
		out = append(out, ToInvoice(it.Invoice()))
		if err := s.pace(ctx, i); err != nil {
			return nil, err
		}
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("stripe: list invoices for %s: %w", customerID, err)
	}
	return out, nil
}

func ToCustomer(c *gostripe.Customer) *customer.Customer {
	return &customer.Customer{
		ID:         c.ID,
		Email:      sql.NullString{String: c.Email, Valid: c.Email != ""},
		CreatedAt:  unix(c.Created),
		Delinquent: c.Delinquent,
	}
}

// ToSubscription maps a Stripe subscription to one row, priced from its first item.
func ToSubscription(s *gostripe.Subscription) *subscription.Subscription {
	out := &subscription.Subscription{
		ID:                s.ID,
		Status:            subscription.Status(s.Status),
		CreatedAt:         unix(s.Created),
		CanceledAt:        nullUnix(s.CanceledAt),
		CancelAtPeriodEnd: s.CancelAtPeriodEnd,
		Quantity:          sql.NullInt64{Int64: 1, Valid: true},
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	if s.Items == nil || len(s.Items.Data) == 0 {
		return out
	}

	item := s.Items.Data[0]
	out.CurrentPeriodStart = nullUnix(item.CurrentPeriodStart)
	out.CurrentPeriodEnd = nullUnix(item.CurrentPeriodEnd)
	if item.Quantity > 0 {
		out.Quantity = sql.NullInt64{Int64: item.Quantity, Valid: true}
	}
	if p := item.Price; p != nil {
		if hasWholeUnitAmount(p) {
			out.PriceAmount = sql.NullInt64{Int64: p.UnitAmount, Valid: true}
		}
		out.Currency = string(p.Currency)
		if p.Recurring != nil {
			out.PriceInterval = subscription.Interval(p.Recurring.Interval)
		}
	}
	return out
}

// hasWholeUnitAmount reports whether the price has a plain per-unit amount in
// whole minor units. Tiered and sub-cent prices leave unit_amount null, which
// stripe-go decodes as 0.
func hasWholeUnitAmount(p *gostripe.Price) bool {
	if p.BillingScheme != gostripe.PriceBillingSchemePerUnit {
		return false
	}
	return p.UnitAmountDecimal == math.Trunc(p.UnitAmountDecimal)
}

// ToInvoice maps a Stripe invoice. SubscriptionID is left unset when the invoice
// has no subscription parent; the sync job attributes those by customer.
func ToInvoice(inv *gostripe.Invoice) *invoice.Invoice {
	out := &invoice.Invoice{
		ID:         inv.ID,
		Status:     string(inv.Status),
		AmountPaid: inv.AmountPaid,
		AmountDue:  inv.AmountDue,
		Currency:   string(inv.Currency),
		CreatedAt:  unix(inv.Created),
	}
	if inv.Customer != nil {
		out.CustomerID = inv.Customer.ID
	}
	if inv.StatusTransitions != nil {
		out.PaidAt = nullUnix(inv.StatusTransitions.PaidAt)
	}
	if inv.Parent != nil && inv.Parent.SubscriptionDetails != nil && inv.Parent.SubscriptionDetails.Subscription != nil {
		if id := inv.Parent.SubscriptionDetails.Subscription.ID; id != "" {
			out.SubscriptionID = sql.NullString{String: id, Valid: true}
		}
	}
	return out
}

func unix(ts int64) time.Time {
	return time.Unix(ts, 0).UTC()
}

func nullUnix(ts int64) sql.NullTime {
	if ts == 0 {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: unix(ts), Valid: true}
}
