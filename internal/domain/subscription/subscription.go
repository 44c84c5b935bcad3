package subscription

import (
	"database/sql"
	"time"
)

// Status mirrors the Stripe subscription status string.
type Status string

const (
	StatusActive            Status = "active"
	StatusTrialing          Status = "trialing"
	StatusPastDue           Status = "past_due"
	StatusUnpaid            Status = "unpaid"
	StatusIncomplete        Status = "incomplete"
	StatusIncompleteExpired Status = "incomplete_expired"
	StatusCanceled          Status = "canceled"
)

// Interval is the billing interval of the subscription's price.
type Interval string

const (
	IntervalMonth Interval = "month"
	IntervalYear  Interval = "year"
)

// Subscription is a raw subscription row as stored by the sync job.
// Corresponds to the 'subscriptions' table.
type Subscription struct {
	ID                 string
	CustomerID         string
	Status             Status
	CreatedAt          time.Time
	CanceledAt         sql.NullTime
	CurrentPeriodStart sql.NullTime
	CurrentPeriodEnd   sql.NullTime
	CancelAtPeriodEnd  bool
	PriceAmount        sql.NullInt64 // minor currency units (cents)
	PriceInterval      Interval
	Quantity           sql.NullInt64
	Currency           string
}

// IsLive reports whether the subscription's current status counts towards live MRR.
func (s Subscription) IsLive() bool {
	return s.Status == StatusActive || s.Status == StatusPastDue
}
