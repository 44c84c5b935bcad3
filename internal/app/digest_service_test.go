package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"mrr_analytics/internal/domain/analytics"

	"github.com/shopspring/decimal"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *analytics.Report {
	prev := 4
	return &analytics.Report{
		Range: "2025-04..2025-05",
		Revenue: analytics.RevenueReport{
			Months: []analytics.RevenueRow{
				{Month: "2025-04", Gross: decimal.RequireFromString("116"), Delinquent: decimal.Zero, Collectible: decimal.RequireFromString("116")},
				{Month: "2025-05", Gross: decimal.RequireFromString("145.5"), Delinquent: decimal.RequireFromString("29"), Collectible: decimal.RequireFromString("116.5")},
			},
			Live: analytics.LiveMRR{CurrentLiveMRR: decimal.RequireFromString("145.5"), ActiveSubscriptionCount: 5},
		},
		Cohort: []analytics.CohortRow{
			{Month: "2025-04", ActivePaidUsers: 4, NewPaidUsers: 4, NetChange: 4},
			{
				Month: "2025-05", ActivePaidUsers: 5, NewPaidUsers: 2, ChurnedPaidUsers: 1, PrevActivePaidUsers: &prev,
				GrowthRate: decimal.NewNullDecimal(decimal.RequireFromString("0.5")),
				ChurnRate:  decimal.NewNullDecimal(decimal.RequireFromString("0.25")),
				NetChange:  1,
			},
		},
		StatusDistribution: []analytics.StatusCount{{Status: "active", Count: 4}, {Status: "past_due", Count: 1}},
		ActiveBreakdown:    analytics.ActiveBreakdown{UpgradeCount: 1, NormalCount: 4},
	}
}

func TestDigestRange(t *testing.T) {
	r := DigestRange(ts("2025-07-01T09:00:00Z"), 6)
	assert.Equal(t, "2025-01..2025-06", r.String())

	r = DigestRange(ts("2025-01-01T09:00:00Z"), 1)
	assert.Equal(t, "2024-12..2024-12", r.String())
}

func TestDigestService_SendMonthlyDigest(t *testing.T) {
	computer := &fakeComputer{report: sampleReport()}
	client := &fakeTelegram{}
	logger, hook := logtest.NewNullLogger()
	svc := NewDigestService(computer, client, 42, 2, logger)
	svc.now = func() time.Time { return ts("2025-06-01T09:00:00Z") }

	require.NoError(t, svc.SendMonthlyDigest(context.Background()))

	require.Len(t, computer.ranges, 1)
	assert.Equal(t, "2025-04..2025-05", computer.ranges[0].String())
	require.Len(t, client.sent, 1)
	assert.Equal(t, int64(42), client.sent[0].chatID)
	assert.Contains(t, client.sent[0].text, "2025-05  gross 145.50  delinquent 29.00  collectible 116.50")
	assert.Equal(t, "Monthly digest sent", hook.LastEntry().Message)
}

func TestDigestService_ComputeFailure(t *testing.T) {
	storeErr := &analytics.RecordStoreUnavailableError{Op: "list invoices", Err: errors.New("down")}
	client := &fakeTelegram{}
	logger, _ := logtest.NewNullLogger()
	svc := NewDigestService(&fakeComputer{err: storeErr}, client, 42, 6, logger)

	err := svc.SendMonthlyDigest(context.Background())

	var unavailable *analytics.RecordStoreUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Empty(t, client.sent)
}

func TestDigestService_SendFailure(t *testing.T) {
	sendErr := errors.New("chat not found")
	logger, _ := logtest.NewNullLogger()
	svc := NewDigestService(&fakeComputer{report: sampleReport()}, &fakeTelegram{err: sendErr}, 42, 6, logger)

	assert.ErrorIs(t, svc.SendMonthlyDigest(context.Background()), sendErr)
}
