package analytics

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// RevenueRow holds the month-end MRR figures for one month.
type RevenueRow struct {
	Month       string          `json:"month"`
	Gross       decimal.Decimal `json:"gross"`
	Delinquent  decimal.Decimal `json:"delinquent"`
	Collectible decimal.Decimal `json:"collectible"`
}

// LiveMRR is computed from each subscription's current status rather than from a
// month-end snapshot, so it can differ from the latest month's Gross. The
// asymmetry is intentional.
type LiveMRR struct {
	CurrentLiveMRR          decimal.Decimal `json:"current_live_mrr"`
	ActiveSubscriptionCount int             `json:"active_subscription_count"`
}

// MarshalJSON writes amounts with exactly two decimal places.
func (r RevenueRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Month       string `json:"month"`
		Gross       string `json:"gross"`
		Delinquent  string `json:"delinquent"`
		Collectible string `json:"collectible"`
	}{r.Month, r.Gross.StringFixed(2), r.Delinquent.StringFixed(2), r.Collectible.StringFixed(2)})
}

// MarshalJSON writes the amount with exactly two decimal places.
func (l LiveMRR) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		CurrentLiveMRR          string `json:"current_live_mrr"`
		ActiveSubscriptionCount int    `json:"active_subscription_count"`
	}{l.CurrentLiveMRR.StringFixed(2), l.ActiveSubscriptionCount})
}

type RevenueReport struct {
	Months []RevenueRow `json:"months"`
	Live   LiveMRR      `json:"live"`
}

func revenuePass(axis []MonthBoundary, subs []Normalized, cls *Classifier) RevenueReport {
	rows := make([]RevenueRow, 0, len(axis))
	for _, b := range axis {
		var gross, delinquent, collectible revenueSum
		for _, s := range subs {
			snap := cls.Classify(b, s)
			if !snap.Active {
				continue
			}
			gross.add(s)
			if snap.Delinquent {
				delinquent.add(s)
			}
			if snap.Collectible {
				collectible.add(s)
			}
		}
		if delinquent.cmp(gross) > 0 {
			panic(fmt.Sprintf("analytics: delinquent MRR %s exceeds gross %s in %s", delinquent.Decimal(), gross.Decimal(), b.Month))
		}
		if collectible.cmp(gross) > 0 {
			panic(fmt.Sprintf("analytics: collectible MRR %s exceeds gross %s in %s", collectible.Decimal(), gross.Decimal(), b.Month))
		}
		rows = append(rows, RevenueRow{
			Month:       b.Month.String(),
			Gross:       gross.Decimal(),
			Delinquent:  delinquent.Decimal(),
			Collectible: collectible.Decimal(),
		})
	}
	return RevenueReport{Months: rows, Live: liveMRR(subs)}
}

func liveMRR(subs []Normalized) LiveMRR {
	var sum revenueSum
	count := 0
	for _, s := range subs {
		if !s.IsLive() {
			continue
		}
		sum.add(s)
		count++
	}
	return LiveMRR{CurrentLiveMRR: sum.Decimal(), ActiveSubscriptionCount: count}
}
