package analytics

import (
	"fmt"
	"time"

	"mrr_analytics/internal/domain/customer"
	"mrr_analytics/internal/domain/invoice"
	"mrr_analytics/internal/domain/subscription"

	"golang.org/x/sync/errgroup"
)

// Input is the materialized record set for one computation. It is never mutated.
type Input struct {
	Subscriptions []*subscription.Subscription
	Invoices      []*invoice.Invoice
	Customers     []*customer.Customer // informational; not used by MRR math
}

// InputSummary describes how much of the input reached the aggregation passes.
type InputSummary struct {
	Customers            int `json:"customers"`
	Subscriptions        int `json:"subscriptions"`
	Invoices             int `json:"invoices"`
	DroppedSubscriptions int `json:"dropped_subscriptions"`
}

// Report is the full output of one computation.
type Report struct {
	Range              string          `json:"range"`
	Revenue            RevenueReport   `json:"revenue"`
	Cohort             []CohortRow     `json:"cohort"`
	StatusDistribution []StatusCount   `json:"status_distribution"`
	ActiveBreakdown    ActiveBreakdown `json:"active_breakdown"`
	Inputs             InputSummary    `json:"inputs"`

	Dropped  []*MalformedRecordError `json:"-"`
	Upgrades UpgradeSets             `json:"-"`
}

// Engine recomputes analytics from raw records. It holds no state between calls
// and may be used concurrently.
type Engine struct {
	now func() time.Time
}

type Option func(*Engine)

// WithClock overrides the instant used by the live (non-snapshot) figures.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compute runs the normalizer and correlator once, then the four aggregation
// passes concurrently over the shared read-only dataset.
func (e *Engine) Compute(in Input, r Range) (*Report, error) {
	axis, err := BuildAxis(r.Start, r.End)
	if err != nil {
		return nil, err
	}
	now := e.now()

	subs, dropped := Normalize(in.Subscriptions)
	upgrades := CorrelateUpgrades(subs)
	cls := NewClassifier(subs, in.Invoices)

	report := &Report{
		Range:    r.String(),
		Dropped:  dropped,
		Upgrades: upgrades,
		Inputs: InputSummary{
			Customers:            len(in.Customers),
			Subscriptions:        len(subs),
			Invoices:             len(in.Invoices),
			DroppedSubscriptions: len(dropped),
		},
	}

	var g errgroup.Group
	g.Go(guarded("revenue", func() {
		report.Revenue = revenuePass(axis, subs, cls)
	}))
	g.Go(guarded("cohort", func() {
		report.Cohort = cohortPass(axis, subs, upgrades)
	}))
	g.Go(guarded("status distribution", func() {
		report.StatusDistribution = statusDistributionPass(subs, upgrades)
	}))
	g.Go(guarded("active breakdown", func() {
		report.ActiveBreakdown = activeBreakdownPass(subs, upgrades, now)
	}))
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}

// guarded runs an aggregation pass and reports a panic raised inside it as an
// error wrapping ErrInvariantViolation.
func guarded(name string, pass func()) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: %s pass: %v", ErrInvariantViolation, name, r)
			}
		}()
		pass()
		return nil
	}
}
