package analytics

import (
	"database/sql"
	"testing"

	"mrr_analytics/internal/domain/subscription"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDropsInvalidRows(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*subscription.Subscription)
		reason string
	}{
		{"empty id", func(s *subscription.Subscription) { s.ID = "" }, "empty id"},
		{"empty customer", func(s *subscription.Subscription) { s.CustomerID = "" }, "empty customer_id"},
		{"missing price", func(s *subscription.Subscription) { s.PriceAmount = sql.NullInt64{} }, "missing price_amount"},
		{"negative price", func(s *subscription.Subscription) { s.PriceAmount = sql.NullInt64{Int64: -5000, Valid: true} }, "negative price_amount"},
		{"missing quantity", func(s *subscription.Subscription) { s.Quantity = sql.NullInt64{} }, "missing quantity"},
		{"zero quantity", func(s *subscription.Subscription) { s.Quantity = sql.NullInt64{Valid: true} }, "non-positive quantity"},
		{"weekly interval", func(s *subscription.Subscription) { s.PriceInterval = "week" }, "unsupported price_interval week"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSub("sub_1", "cus_1", "2025-01-10T00:00:00Z")
			tt.mutate(s)

			kept, dropped := Normalize([]*subscription.Subscription{s, nil})
			assert.Empty(t, kept)
			require.Len(t, dropped, 2)
			assert.Equal(t, tt.reason, dropped[0].Reason)
			assert.Equal(t, "nil row", dropped[1].Reason)
		})
	}
}

func TestMonthlyRevenue(t *testing.T) {
	monthly := normalizeAll(newSub("m", "c", "2025-01-01T00:00:00Z", withPrice(2900, subscription.IntervalMonth), withQuantity(3)))
	require.Len(t, monthly, 1)
	assert.True(t, monthly[0].MonthlyRevenue().Equal(decimal.RequireFromString("87")), monthly[0].MonthlyRevenue().String())

	yearly := normalizeAll(newSub("y", "c", "2025-01-01T00:00:00Z", withPrice(12000, subscription.IntervalYear)))
	require.Len(t, yearly, 1)
	assert.True(t, yearly[0].MonthlyRevenue().Equal(decimal.RequireFromString("10")))

	free := normalizeAll(newSub("f", "c", "2025-01-01T00:00:00Z", withPrice(0, subscription.IntervalMonth)))
	require.Len(t, free, 1)
	assert.False(t, free[0].IsPaid())
}

func TestRevenueSumIsExactAcrossYearlyPrices(t *testing.T) {
	// Three yearly $10 prices are 2.50/month together; rounding each would give 2.49.
	var sum revenueSum
	for _, n := range normalizeAll(
		newSub("a", "c1", "2025-01-01T00:00:00Z", withPrice(1000, subscription.IntervalYear)),
		newSub("b", "c2", "2025-01-01T00:00:00Z", withPrice(1000, subscription.IntervalYear)),
		newSub("c", "c3", "2025-01-01T00:00:00Z", withPrice(1000, subscription.IntervalYear)),
	) {
		sum.add(n)
	}
	assert.Equal(t, "2.5", sum.Decimal().String())
}
