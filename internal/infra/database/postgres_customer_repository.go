package database

import (
	"context"
	"database/sql"
	"fmt"

	"mrr_analytics/internal/domain/customer"
)

type PostgresCustomerRepository struct {
	db *sql.DB
}

func NewPostgresCustomerRepository(db *sql.DB) *PostgresCustomerRepository {
	return &PostgresCustomerRepository{db: db}
}

func (r *PostgresCustomerRepository) ListAll(ctx context.Context) ([]*customer.Customer, error) {
	query := `SELECT customer_id, email, created_ts, delinquent
               FROM customers ORDER BY created_ts, customer_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing customers: %w", err)
	}
	defer rows.Close()

	customers := make([]*customer.Customer, 0)
	for rows.Next() {
		c := &customer.Customer{}
		if err := rows.Scan(&c.ID, &c.Email, &c.CreatedAt, &c.Delinquent); err != nil {
			return nil, fmt.Errorf("error scanning customer row: %w", err)
		}
		customers = append(customers, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating customer rows: %w", err)
	}
	return customers, nil
}

func customerLoad(customers []*customer.Customer) tableLoad {
	return tableLoad{
		table: "customers",
		insert: `INSERT INTO customers (customer_id, email, created_ts, delinquent)
               VALUES ($1, $2, $3, $4)`,
		n: len(customers),
		args: func(i int) []interface{} {
			c := customers[i]
			return []interface{}{c.ID, c.Email, c.CreatedAt, c.Delinquent}
		},
	}
}
