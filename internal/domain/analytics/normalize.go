package analytics

import (
	"mrr_analytics/internal/domain/subscription"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// Normalized is a validated subscription annotated with its billed amount per
// interval (price * quantity, in minor units). Monthly revenue is derived from it
// exactly; see MonthlyRevenue and revenueSum.
type Normalized struct {
	subscription.Subscription
	billedCents int64
}

// BilledCents returns price_amount * quantity in minor units for one billing interval.
func (n Normalized) BilledCents() int64 { return n.billedCents }

// MonthlyRevenue returns price_amount * quantity / 100, divided by 12 for yearly prices.
func (n Normalized) MonthlyRevenue() decimal.Decimal {
	v := decimal.NewFromInt(n.billedCents).Div(hundred)
	if n.PriceInterval == subscription.IntervalYear {
		return v.Div(twelve)
	}
	return v
}

// IsPaid reports monthly_revenue > 0.
func (n Normalized) IsPaid() bool { return n.billedCents > 0 }

// Normalize validates raw subscriptions and annotates the valid ones. Invalid rows
// are dropped and returned as MalformedRecordError values for the caller to log.
func Normalize(raw []*subscription.Subscription) ([]Normalized, []*MalformedRecordError) {
	out := make([]Normalized, 0, len(raw))
	var dropped []*MalformedRecordError
	for _, s := range raw {
		if s == nil {
			dropped = append(dropped, &MalformedRecordError{Reason: "nil row"})
			continue
		}
		if reason := invalidReason(s); reason != "" {
			dropped = append(dropped, &MalformedRecordError{RecordID: s.ID, Reason: reason})
			continue
		}
		out = append(out, Normalized{
			Subscription: *s,
			billedCents:  s.PriceAmount.Int64 * s.Quantity.Int64,
		})
	}
	return out, dropped
}

func invalidReason(s *subscription.Subscription) string {
	switch {
	case s.ID == "":
		return "empty id"
	case s.CustomerID == "":
		return "empty customer_id"
	case !s.PriceAmount.Valid:
		return "missing price_amount"
	case s.PriceAmount.Int64 < 0:
		return "negative price_amount"
	case !s.Quantity.Valid:
		return "missing quantity"
	case s.Quantity.Int64 <= 0:
		return "non-positive quantity"
	case s.PriceInterval != subscription.IntervalMonth && s.PriceInterval != subscription.IntervalYear:
		return "unsupported price_interval " + string(s.PriceInterval)
	}
	return ""
}

// revenueSum accumulates monthly revenue exactly by keeping monthly and yearly
// billed amounts apart until the final 2-place rounding.
type revenueSum struct {
	monthlyCents int64
	yearlyCents  int64
}

func (r *revenueSum) add(n Normalized) {
	if n.PriceInterval == subscription.IntervalYear {
		r.yearlyCents += n.billedCents
		return
	}
	r.monthlyCents += n.billedCents
}

// cmp orders two sums by their exact value (yearly amounts count 1/12).
func (r revenueSum) cmp(o revenueSum) int {
	a := r.monthlyCents*12 + r.yearlyCents
	b := o.monthlyCents*12 + o.yearlyCents
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Decimal returns the sum in major units rounded to 2 places. Monthly cents are
// already exact at 2 places, so only the yearly share needs rounding.
func (r revenueSum) Decimal() decimal.Decimal {
	monthly := decimal.New(r.monthlyCents, -2)
	yearly := decimal.NewFromInt(r.yearlyCents).DivRound(decimal.NewFromInt(1200), 2)
	return monthly.Add(yearly)
}
