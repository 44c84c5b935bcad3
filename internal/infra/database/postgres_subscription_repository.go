package database

import (
	"context"
	"database/sql"
	"fmt"

	"mrr_analytics/internal/domain/subscription"
)

const subscriptionColumns = `subscription_id, customer_id, status, created_ts, canceled_at_ts,
	current_period_start_ts, current_period_end_ts, cancel_at_period_end,
	price_amount, price_interval, quantity, currency`

type PostgresSubscriptionRepository struct {
	db *sql.DB
}

func NewPostgresSubscriptionRepository(db *sql.DB) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{db: db}
}

// ListAll returns every stored subscription ordered by creation time.
func (r *PostgresSubscriptionRepository) ListAll(ctx context.Context) ([]*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions ORDER BY created_ts, subscription_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing subscriptions: %w", err)
	}
	defer rows.Close()

	subs := make([]*subscription.Subscription, 0)
	for rows.Next() {
		s := &subscription.Subscription{}
		var status, interval, currency sql.NullString
		if err := rows.Scan(
			&s.ID, &s.CustomerID, &status, &s.CreatedAt, &s.CanceledAt,
			&s.CurrentPeriodStart, &s.CurrentPeriodEnd, &s.CancelAtPeriodEnd,
			&s.PriceAmount, &interval, &s.Quantity, &currency,
		); err != nil {
			return nil, fmt.Errorf("error scanning subscription row: %w", err)
		}
		s.Status = subscription.Status(status.String)
		s.PriceInterval = subscription.Interval(interval.String)
		s.Currency = currency.String
		subs = append(subs, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscription rows: %w", err)
	}
	return subs, nil
}

func subscriptionLoad(subs []*subscription.Subscription) tableLoad {
	return tableLoad{
		table: "subscriptions",
		insert: `INSERT INTO subscriptions (` + subscriptionColumns + `)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		n: len(subs),
		args: func(i int) []interface{} {
			s := subs[i]
			return []interface{}{
				s.ID, s.CustomerID, string(s.Status), s.CreatedAt, s.CanceledAt,
				s.CurrentPeriodStart, s.CurrentPeriodEnd, s.CancelAtPeriodEnd,
				s.PriceAmount, nullString(string(s.PriceInterval)), s.Quantity, nullString(s.Currency),
			}
		},
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
