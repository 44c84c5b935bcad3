package analytics

import (
	"sort"

	"mrr_analytics/internal/domain/subscription"
)

const otherStatusRank = 99

var statusRank = map[subscription.Status]int{
	subscription.StatusActive:            1,
	subscription.StatusTrialing:          2,
	subscription.StatusPastDue:           3,
	subscription.StatusUnpaid:            4,
	subscription.StatusIncomplete:        5,
	subscription.StatusIncompleteExpired: 6,
	subscription.StatusCanceled:          7,
}

// StatusCount is the number of customers whose representative subscription has Status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// EffectiveStatus relabels an upgraded-away cancellation as active.
func EffectiveStatus(s Normalized, up UpgradeSets) subscription.Status {
	if s.Status == subscription.StatusCanceled && up.IsUpgradeCancel(s.ID) {
		return subscription.StatusActive
	}
	return s.Status
}

func rankOf(st subscription.Status) int {
	if r, ok := statusRank[st]; ok {
		return r
	}
	return otherStatusRank
}

type statusCandidate struct {
	sub    Normalized
	status subscription.Status
	rank   int
}

// preferred orders candidates by rank, then most recent creation, then id.
func (a statusCandidate) preferred(b statusCandidate) bool {
	if a.rank != b.rank {
		return a.rank < b.rank
	}
	if !a.sub.CreatedAt.Equal(b.sub.CreatedAt) {
		return a.sub.CreatedAt.After(b.sub.CreatedAt)
	}
	return a.sub.ID < b.sub.ID
}

// statusDistributionPass picks one representative subscription per customer over
// the whole record set and counts customers per effective status.
func statusDistributionPass(subs []Normalized, up UpgradeSets) []StatusCount {
	best := make(map[string]statusCandidate)
	for _, s := range subs {
		st := EffectiveStatus(s, up)
		c := statusCandidate{sub: s, status: st, rank: rankOf(st)}
		if cur, ok := best[s.CustomerID]; !ok || c.preferred(cur) {
			best[s.CustomerID] = c
		}
	}

	counts := make(map[subscription.Status]int)
	for _, c := range best {
		counts[c.status]++
	}
	out := make([]StatusCount, 0, len(counts))
	for st, n := range counts {
		out = append(out, StatusCount{Status: string(st), Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Status < out[j].Status
	})
	return out
}
