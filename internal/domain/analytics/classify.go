package analytics

import (
	"time"

	"mrr_analytics/internal/domain/invoice"
)

// CollectibleMaxDelinquencyDays is the oldest an unpaid invoice may be at month end
// while its subscription still counts as collectible.
const CollectibleMaxDelinquencyDays = 30

// Snapshot is the month-end classification of one subscription.
type Snapshot struct {
	Active             bool
	Delinquent         bool
	Collectible        bool
	MaxDelinquencyDays int
}

// Classifier evaluates the month-end predicates. It indexes invoices by the
// subscription they are attributed to and is safe for concurrent reads.
type Classifier struct {
	invoicesBySub map[string][]invoice.Invoice
}

// NewClassifier attributes each invoice to a subscription. Invoices without a
// subscription id fall back to the customer's most recently created subscription.
func NewClassifier(subs []Normalized, invoices []*invoice.Invoice) *Classifier {
	latest := make(map[string]Normalized)
	for _, s := range subs {
		cur, ok := latest[s.CustomerID]
		if !ok || s.CreatedAt.After(cur.CreatedAt) || (s.CreatedAt.Equal(cur.CreatedAt) && s.ID > cur.ID) {
			latest[s.CustomerID] = s
		}
	}

	c := &Classifier{invoicesBySub: make(map[string][]invoice.Invoice)}
	for _, inv := range invoices {
		if inv == nil {
			continue
		}
		subID := inv.SubscriptionID.String
		if !inv.SubscriptionID.Valid || subID == "" {
			s, ok := latest[inv.CustomerID]
			if !ok {
				continue
			}
			subID = s.ID
		}
		c.invoicesBySub[subID] = append(c.invoicesBySub[subID], *inv)
	}
	return c
}

// InvoicesFor returns the invoices attributed to a subscription.
func (c *Classifier) InvoicesFor(subscriptionID string) []invoice.Invoice {
	return c.invoicesBySub[subscriptionID]
}

// ActiveAtEOD reports whether s was created before and not canceled by the month-end instant.
func ActiveAtEOD(b MonthBoundary, s Normalized) bool {
	if !s.CreatedAt.Before(b.NextMonthStart) {
		return false
	}
	return !s.CanceledAt.Valid || !s.CanceledAt.Time.Before(b.NextMonthStart)
}

// DelinquencyDays is the number of whole days between the last calendar day of
// b's month and the UTC calendar date the invoice was created.
func DelinquencyDays(b MonthBoundary, inv invoice.Invoice) int {
	c := inv.CreatedAt.UTC()
	created := time.Date(c.Year(), c.Month(), c.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.MonthEndDate.Sub(created) / (24 * time.Hour))
}

// DelinquentAtEOD reports whether s has an invoice outstanding at the month-end instant.
func (c *Classifier) DelinquentAtEOD(b MonthBoundary, s Normalized) bool {
	_, delinquent := c.maxDelinquency(b, s)
	return delinquent
}

// CollectibleAtEOD reports whether s is active and none of its outstanding
// invoices is older than CollectibleMaxDelinquencyDays.
func (c *Classifier) CollectibleAtEOD(b MonthBoundary, s Normalized) bool {
	return c.Classify(b, s).Collectible
}

// Classify evaluates all month-end predicates for s at b.
func (c *Classifier) Classify(b MonthBoundary, s Normalized) Snapshot {
	days, delinquent := c.maxDelinquency(b, s)
	snap := Snapshot{
		Active:     ActiveAtEOD(b, s),
		Delinquent: delinquent,
	}
	if delinquent {
		snap.MaxDelinquencyDays = days
	}
	snap.Collectible = snap.Active && (!delinquent || days <= CollectibleMaxDelinquencyDays)
	return snap
}

func (c *Classifier) maxDelinquency(b MonthBoundary, s Normalized) (int, bool) {
	maxDays, found := 0, false
	for _, inv := range c.invoicesBySub[s.ID] {
		if !inv.UnpaidAt(b.NextMonthStart) {
			continue
		}
		d := DelinquencyDays(b, inv)
		if !found || d > maxDays {
			maxDays = d
		}
		found = true
	}
	return maxDays, found
}
