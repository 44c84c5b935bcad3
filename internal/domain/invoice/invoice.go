package invoice

import (
	"database/sql"
	"time"
)

// Invoice is a raw invoice row. Only used for delinquency classification.
type Invoice struct {
	ID             string
	CustomerID     string
	SubscriptionID sql.NullString
	Status         string
	AmountPaid     int64
	AmountDue      int64
	Currency       string
	CreatedAt      time.Time
	PaidAt         sql.NullTime
	// SubscriptionIDFilled is set when SubscriptionID was attributed by customer
	// during sync rather than taken from the source invoice.
	SubscriptionIDFilled bool
}

// UnpaidAt reports whether the invoice existed and was still unpaid at instant t.
func (i Invoice) UnpaidAt(t time.Time) bool {
	if !i.CreatedAt.Before(t) {
		return false
	}
	return !i.PaidAt.Valid || !i.PaidAt.Time.Before(t)
}
