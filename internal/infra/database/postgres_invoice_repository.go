package database

import (
	"context"
	"database/sql"
	"fmt"

	"mrr_analytics/internal/domain/invoice"
)

const invoiceColumns = `invoice_id, customer_id, subscription_id, status, amount_paid, amount_due,
	currency, created_ts, paid_ts, subscription_id_filled`

type PostgresInvoiceRepository struct {
	db *sql.DB
}

func NewPostgresInvoiceRepository(db *sql.DB) *PostgresInvoiceRepository {
	return &PostgresInvoiceRepository{db: db}
}

func (r *PostgresInvoiceRepository) ListAll(ctx context.Context) ([]*invoice.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices ORDER BY created_ts, invoice_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing invoices: %w", err)
	}
	defer rows.Close()

	invoices := make([]*invoice.Invoice, 0)
	for rows.Next() {
		inv := &invoice.Invoice{}
		var status, currency sql.NullString
		if err := rows.Scan(
			&inv.ID, &inv.CustomerID, &inv.SubscriptionID, &status, &inv.AmountPaid, &inv.AmountDue,
			&currency, &inv.CreatedAt, &inv.PaidAt, &inv.SubscriptionIDFilled,
		); err != nil {
			return nil, fmt.Errorf("error scanning invoice row: %w", err)
		}
		inv.Status = status.String
		inv.Currency = currency.String
		invoices = append(invoices, inv)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoice rows: %w", err)
	}
	return invoices, nil
}

func invoiceLoad(invoices []*invoice.Invoice) tableLoad {
	return tableLoad{
		table: "invoices",
		insert: `INSERT INTO invoices (` + invoiceColumns + `)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		n: len(invoices),
		args: func(i int) []interface{} {
			inv := invoices[i]
			return []interface{}{
				inv.ID, inv.CustomerID, inv.SubscriptionID, nullString(inv.Status), inv.AmountPaid, inv.AmountDue,
				nullString(inv.Currency), inv.CreatedAt, inv.PaidAt, inv.SubscriptionIDFilled,
			}
		},
	}
}
