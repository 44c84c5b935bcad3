package customer

import "context"

// Repository defines the operations for retrieving Customer rows.
type Repository interface {
	ListAll(ctx context.Context) ([]*Customer, error)
}
