package store

import (
	"sort"

	"github.com/vulnwatch/notifications-engine/internal/notification"
)

// Merge reconciles the live buffer with the historical snapshot into one
// deduplicated view sorted by creation time descending. Iteration is
// live-then-historical keeping the first occurrence per id, so for a
// notification present in both sets the live copy wins. The stable sort
// preserves that arrival order for equal timestamps.
func Merge(live, historical []*notification.Notification) []*notification.Notification {
	merged := make([]*notification.Notification, 0, len(live)+len(historical))
	seen := make(map[int64]struct{}, len(live)+len(historical))
	for _, n := range live {
		if _, ok := seen[n.ID]; ok {
			continue
		}
		seen[n.ID] = struct{}{}
		merged = append(merged, n)
	}
	for _, n := range historical {
		if _, ok := seen[n.ID]; ok {
			continue
		}
		seen[n.ID] = struct{}{}
		merged = append(merged, n)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	return merged
}
