package analytics

import (
	"time"

	"github.com/shopspring/decimal"
)

// rateScale is the number of decimal places kept for growth and churn rates.
const rateScale = 4

// CohortRow holds paid-user counts for one month. Rates are null when the previous
// month is unknown or had no active paid users.
type CohortRow struct {
	Month               string              `json:"month"`
	ActivePaidUsers     int                 `json:"active_paid_users"`
	NewPaidUsers        int                 `json:"new_paid_users"`
	ChurnedPaidUsers    int                 `json:"churned_paid_users"`
	PrevActivePaidUsers *int                `json:"prev_active_paid_users"`
	GrowthRate          decimal.NullDecimal `json:"growth_rate"`
	ChurnRate           decimal.NullDecimal `json:"churn_rate"`
	NetChange           int                 `json:"net_change"`
}

// cohortPass folds left to right over the axis carrying the previous month's
// active count.
func cohortPass(axis []MonthBoundary, subs []Normalized, up UpgradeSets) []CohortRow {
	newByMonth := newPaidCustomersByMonth(subs, up)
	churnedByMonth := churnedPaidCustomersByMonth(subs, up)

	rows := make([]CohortRow, 0, len(axis))
	var prev *int
	for _, b := range axis {
		active := make(map[string]struct{})
		for _, s := range subs {
			if s.IsPaid() && ActiveAtEOD(b, s) {
				active[s.CustomerID] = struct{}{}
			}
		}

		key := b.Month.String()
		row := CohortRow{
			Month:               key,
			ActivePaidUsers:     len(active),
			NewPaidUsers:        len(newByMonth[key]),
			ChurnedPaidUsers:    len(churnedByMonth[key]),
			PrevActivePaidUsers: prev,
			GrowthRate:          rate(len(newByMonth[key]), prev),
			ChurnRate:           rate(len(churnedByMonth[key]), prev),
			NetChange:           len(active),
		}
		if prev != nil {
			row.NetChange -= *prev
		}
		rows = append(rows, row)

		carried := row.ActivePaidUsers
		prev = &carried
	}
	return rows
}

// newPaidCustomersByMonth keys each customer by the month of their first paid
// subscription. Subscriptions created by an upgrade never count as a first.
func newPaidCustomersByMonth(subs []Normalized, up UpgradeSets) map[string]map[string]struct{} {
	first := make(map[string]time.Time)
	for _, s := range subs {
		if !s.IsPaid() || up.IsUpgradeCreate(s.ID) {
			continue
		}
		if cur, ok := first[s.CustomerID]; !ok || s.CreatedAt.Before(cur) {
			first[s.CustomerID] = s.CreatedAt
		}
	}
	out := make(map[string]map[string]struct{})
	for customerID, created := range first {
		addToMonth(out, MonthOf(created).String(), customerID)
	}
	return out
}

// churnedPaidCustomersByMonth keys customers by the month a paid subscription was
// canceled, skipping cancellations that were replaced by an upgrade.
func churnedPaidCustomersByMonth(subs []Normalized, up UpgradeSets) map[string]map[string]struct{} {
	out := make(map[string]map[string]struct{})
	for _, s := range subs {
		if !s.IsPaid() || !s.CanceledAt.Valid || up.IsUpgradeCancel(s.ID) {
			continue
		}
		addToMonth(out, MonthOf(s.CanceledAt.Time).String(), s.CustomerID)
	}
	return out
}

func addToMonth(m map[string]map[string]struct{}, month, customerID string) {
	set, ok := m[month]
	if !ok {
		set = make(map[string]struct{})
		m[month] = set
	}
	set[customerID] = struct{}{}
}

func rate(n int, prev *int) decimal.NullDecimal {
	if prev == nil || *prev == 0 {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromInt(int64(n)).DivRound(decimal.NewFromInt(int64(*prev)), rateScale))
}
