package subscription

import "context"

// Repository defines the read side of the subscriptions table. Writes go through
// the sync job's record store so all three tables change together.
type Repository interface {
	ListAll(ctx context.Context) ([]*Subscription, error)
}
