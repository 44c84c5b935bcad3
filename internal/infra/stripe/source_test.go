package stripe

import (
	"database/sql"
	"testing"
	"time"

	"mrr_analytics/internal/domain/subscription"

	gostripe "github.com/stripe/stripe-go/v82"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToSubscriptionUsesFirstItem(t *testing.T) {
	created := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	s := &gostripe.Subscription{
		ID:                "sub_1",
		Customer:          &gostripe.Customer{ID: "cus_1"},
		Status:            gostripe.SubscriptionStatusActive,
		Created:           created.Unix(),
		CancelAtPeriodEnd: true,
		Items: &gostripe.SubscriptionItemList{Data: []*gostripe.SubscriptionItem{{
			Quantity:           3,
			CurrentPeriodStart: created.Unix(),
			CurrentPeriodEnd:   created.AddDate(0, 1, 0).Unix(),
			Price: &gostripe.Price{
				BillingScheme:     gostripe.PriceBillingSchemePerUnit,
				UnitAmount:        2900,
				UnitAmountDecimal: 2900,
				Currency:          gostripe.CurrencyUSD,
				Recurring:         &gostripe.PriceRecurring{Interval: gostripe.PriceRecurringIntervalYear},
			},
		}}},
	}

	got := ToSubscription(s)
	assert.Equal(t, "cus_1", got.CustomerID)
	assert.Equal(t, subscription.StatusActive, got.Status)
	assert.Equal(t, created, got.CreatedAt)
	assert.False(t, got.CanceledAt.Valid)
	assert.True(t, got.CancelAtPeriodEnd)
	assert.Equal(t, sql.NullInt64{Int64: 2900, Valid: true}, got.PriceAmount)
	assert.Equal(t, sql.NullInt64{Int64: 3, Valid: true}, got.Quantity)
	assert.Equal(t, subscription.IntervalYear, got.PriceInterval)
	assert.Equal(t, "usd", got.Currency)
	assert.Equal(t, created.AddDate(0, 1, 0), got.CurrentPeriodEnd.Time)
}

func TestToSubscriptionWithoutItemsHasNoPrice(t *testing.T) {
	got := ToSubscription(&gostripe.Subscription{ID: "sub_2", Status: gostripe.SubscriptionStatusCanceled, CanceledAt: 1735689600})
	assert.False(t, got.PriceAmount.Valid)
	assert.Empty(t, got.PriceInterval)
	require.True(t, got.CanceledAt.Valid)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), got.CanceledAt.Time)
}

func TestToSubscriptionLeavesNonUnitPricesUnpriced(t *testing.T) {
	tests := []struct {
		name  string
		price *gostripe.Price
	}{
		{"tiered", &gostripe.Price{BillingScheme: gostripe.PriceBillingSchemeTiered}},
		{"sub-cent", &gostripe.Price{BillingScheme: gostripe.PriceBillingSchemePerUnit, UnitAmountDecimal: 0.5}},
		{"no scheme", &gostripe.Price{UnitAmount: 2900}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.price.Recurring = &gostripe.PriceRecurring{Interval: gostripe.PriceRecurringIntervalMonth}
			got := ToSubscription(&gostripe.Subscription{
				ID:    "sub_1",
				Items: &gostripe.SubscriptionItemList{Data: []*gostripe.SubscriptionItem{{Quantity: 1, Price: tt.price}}},
			})
			assert.False(t, got.PriceAmount.Valid)
			assert.Equal(t, subscription.IntervalMonth, got.PriceInterval)
		})
	}

	free := ToSubscription(&gostripe.Subscription{
		ID: "sub_2",
		Items: &gostripe.SubscriptionItemList{Data: []*gostripe.SubscriptionItem{{
			Quantity: 1,
			Price:    &gostripe.Price{BillingScheme: gostripe.PriceBillingSchemePerUnit},
		}}},
	})
	assert.Equal(t, sql.NullInt64{Int64: 0, Valid: true}, free.PriceAmount)
}

func TestToInvoice(t *testing.T) {
	paid := &gostripe.Invoice{
		ID:                "in_1",
		Customer:          &gostripe.Customer{ID: "cus_1"},
		Status:            gostripe.InvoiceStatusPaid,
		AmountPaid:        2900,
		AmountDue:         2900,
		Currency:          gostripe.CurrencyUSD,
		Created:           1740787200,
		StatusTransitions: &gostripe.InvoiceStatusTransitions{PaidAt: 1740873600},
		Parent: &gostripe.InvoiceParent{SubscriptionDetails: &gostripe.InvoiceParentSubscriptionDetails{
			Subscription: &gostripe.Subscription{ID: "sub_1"},
		}},
	}
	got := ToInvoice(paid)
	assert.Equal(t, sql.NullString{String: "sub_1", Valid: true}, got.SubscriptionID)
	assert.True(t, got.PaidAt.Valid)
	assert.Equal(t, "paid", got.Status)

	manual := ToInvoice(&gostripe.Invoice{ID: "in_2", Customer: &gostripe.Customer{ID: "cus_1"}, Status: gostripe.InvoiceStatusOpen})
	assert.False(t, manual.SubscriptionID.Valid)
	assert.False(t, manual.PaidAt.Valid)
	assert.Equal(t, "cus_1", manual.CustomerID)
}

func TestToCustomer(t *testing.T) {
	got := ToCustomer(&gostripe.Customer{ID: "cus_1", Email: "a@example.com", Delinquent: true, Created: 1735689600})
	assert.Equal(t, "a@example.com", got.Email.String)
	assert.True(t, got.Delinquent)
	assert.False(t, ToCustomer(&gostripe.Customer{ID: "cus_2"}).Email.Valid)
}
