package invoice

import "context"

// Repository defines the operations for retrieving Invoice rows.
type Repository interface {
	ListAll(ctx context.Context) ([]*Invoice, error)
}
