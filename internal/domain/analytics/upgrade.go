package analytics

import (
	"sort"
	"time"

	"github.com/samber/lo"
)

// UpgradeTolerance is the window around a cancellation in which a new subscription
// for the same customer is treated as its replacement.
const UpgradeTolerance = 5 * time.Minute

// UpgradeLink pairs a canceled subscription with a contemporaneous replacement.
type UpgradeLink struct {
	OldSubscriptionID string
	NewSubscriptionID string
}

// UpgradeSets holds the subscription ids on either side of an upgrade. Membership is
// existence based: one matching partner is enough.
type UpgradeSets struct {
	CancelIDs map[string]struct{}
	CreateIDs map[string]struct{}
	Links     []UpgradeLink // sorted by old, then new id
}

func (u UpgradeSets) IsUpgradeCancel(id string) bool {
	_, ok := u.CancelIDs[id]
	return ok
}

func (u UpgradeSets) IsUpgradeCreate(id string) bool {
	_, ok := u.CreateIDs[id]
	return ok
}

// CorrelateUpgrades finds cancel -> recreate pairs per customer. Subscriptions are
// bucketed by customer first so the pairing cost stays per-customer quadratic.
func CorrelateUpgrades(subs []Normalized) UpgradeSets {
	sets := UpgradeSets{
		CancelIDs: make(map[string]struct{}),
		CreateIDs: make(map[string]struct{}),
	}
	buckets := lo.GroupBy(subs, func(s Normalized) string { return s.CustomerID })
	for _, bucket := range buckets {
		for _, old := range bucket {
			if !old.CanceledAt.Valid {
				continue
			}
			from := old.CanceledAt.Time.Add(-UpgradeTolerance)
			to := old.CanceledAt.Time.Add(UpgradeTolerance)
			for _, repl := range bucket {
				if repl.ID == old.ID {
					continue
				}
				if repl.CreatedAt.Before(from) || repl.CreatedAt.After(to) {
					continue
				}
				sets.CancelIDs[old.ID] = struct{}{}
				sets.CreateIDs[repl.ID] = struct{}{}
				sets.Links = append(sets.Links, UpgradeLink{OldSubscriptionID: old.ID, NewSubscriptionID: repl.ID})
			}
		}
	}
	sort.Slice(sets.Links, func(i, j int) bool {
		a, b := sets.Links[i], sets.Links[j]
		if a.OldSubscriptionID != b.OldSubscriptionID {
			return a.OldSubscriptionID < b.OldSubscriptionID
		}
		return a.NewSubscriptionID < b.NewSubscriptionID
	})
	return sets
}
