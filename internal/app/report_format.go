package app

import (
	"fmt"
	"strings"

	"mrr_analytics/internal/domain/analytics"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// FormatRevenue renders the month-end MRR table and the live figures.
func FormatRevenue(r *analytics.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "MRR %s\n", r.Range)
	for _, row := range r.Revenue.Months {
		fmt.Fprintf(&b, "%s  gross %s  delinquent %s  collectible %s\n",
			row.Month, row.Gross.StringFixed(2), row.Delinquent.StringFixed(2), row.Collectible.StringFixed(2))
	}
	fmt.Fprintf(&b, "Live MRR %s over %d subscriptions",
		r.Revenue.Live.CurrentLiveMRR.StringFixed(2), r.Revenue.Live.ActiveSubscriptionCount)
	return b.String()
}

// FormatCohort renders paid-user counts with growth and churn rates as percentages.
func FormatCohort(r *analytics.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Paid users %s\n", r.Range)
	for i, row := range r.Cohort {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s  active %d  new %d  churned %d  net %+d  growth %s  churn %s",
			row.Month, row.ActivePaidUsers, row.NewPaidUsers, row.ChurnedPaidUsers, row.NetChange,
			formatRate(row.GrowthRate), formatRate(row.ChurnRate))
	}
	return b.String()
}

// FormatStatus renders the status distribution followed by the active breakdown.
func FormatStatus(r *analytics.Report) string {
	var b strings.Builder
	b.WriteString("Customers by status\n")
	if len(r.StatusDistribution) == 0 {
		b.WriteString("no subscriptions\n")
	}
	for _, sc := range r.StatusDistribution {
		fmt.Fprintf(&b, "%s: %d\n", sc.Status, sc.Count)
	}
	fmt.Fprintf(&b, "Active now: %d upgraded, %d normal",
		r.ActiveBreakdown.UpgradeCount, r.ActiveBreakdown.NormalCount)
	return b.String()
}

// FormatDigest joins all sections into one message.
func FormatDigest(r *analytics.Report) string {
	sections := []string{FormatRevenue(r), FormatCohort(r), FormatStatus(r)}
	if r.Inputs.DroppedSubscriptions > 0 {
		sections = append(sections, fmt.Sprintf("%d malformed subscriptions were skipped", r.Inputs.DroppedSubscriptions))
	}
	return strings.Join(sections, "\n\n")
}

func formatRate(r decimal.NullDecimal) string {
	if !r.Valid {
		return "n/a"
	}
	return r.Decimal.Mul(hundred).StringFixed(2) + "%"
}
