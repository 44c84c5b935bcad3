package analytics

import (
	"time"
)

// ActiveBreakdown splits currently active customers by whether their live
// subscription replaced an earlier one through an upgrade.
type ActiveBreakdown struct {
	UpgradeCount int `json:"upgrade_count"`
	NormalCount  int `json:"normal_count"`
}

func activeBreakdownPass(subs []Normalized, up UpgradeSets, now time.Time) ActiveBreakdown {
	upgraded := make(map[string]bool)
	for _, s := range subs {
		if !s.IsLive() || s.CreatedAt.After(now) {
			continue
		}
		if s.CanceledAt.Valid && !s.CanceledAt.Time.After(now) {
			continue
		}
		upgraded[s.CustomerID] = upgraded[s.CustomerID] || up.IsUpgradeCreate(s.ID)
	}

	var out ActiveBreakdown
	for _, isUpgrade := range upgraded {
		if isUpgrade {
			out.UpgradeCount++
		} else {
			out.NormalCount++
		}
	}
	return out
}
