package app

import (
	"testing"

	"mrr_analytics/internal/domain/analytics"

	"github.com/stretchr/testify/assert"
)

func TestFormatCohort(t *testing.T) {
	got := FormatCohort(sampleReport())

	want := "Paid users 2025-04..2025-05\n" +
		"2025-04  active 4  new 4  churned 0  net +4  growth n/a  churn n/a\n" +
		"2025-05  active 5  new 2  churned 1  net +1  growth 50.00%  churn 25.00%"
	assert.Equal(t, want, got)
}

func TestFormatStatus(t *testing.T) {
	assert.Equal(t,
		"Customers by status\nactive: 4\npast_due: 1\nActive now: 1 upgraded, 4 normal",
		FormatStatus(sampleReport()))

	assert.Equal(t,
		"Customers by status\nno subscriptions\nActive now: 0 upgraded, 0 normal",
		FormatStatus(&analytics.Report{}))
}

func TestFormatRevenue(t *testing.T) {
	got := FormatRevenue(sampleReport())
	assert.Contains(t, got, "2025-04  gross 116.00  delinquent 0.00  collectible 116.00\n")
	assert.Contains(t, got, "Live MRR 145.50 over 5 subscriptions")
}

func TestFormatDigest_MentionsDroppedRows(t *testing.T) {
	r := sampleReport()
	assert.NotContains(t, FormatDigest(r), "malformed")

	r.Inputs.DroppedSubscriptions = 3
	assert.Contains(t, FormatDigest(r), "3 malformed subscriptions were skipped")
}
