package customer

import (
	"database/sql"
	"time"
)

// Customer represents a billing customer.
type Customer struct {
	ID         string
	Email      sql.NullString
	CreatedAt  time.Time
	Delinquent bool // informational, not used by MRR math
}
