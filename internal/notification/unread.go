package notification

// UnreadCounts is a pure projection over a merged snapshot. It is always
// recomputed from scratch, never patched incrementally.
type UnreadCounts struct {
	Total      int
	ByCategory map[Category]int
}

func CountUnread(notifications []*Notification) UnreadCounts {
	counts := UnreadCounts{
		ByCategory: make(map[Category]int, 4),
	}
	for _, n := range notifications {
		if n.Unread {
			counts.Total++
			counts.ByCategory[n.Category]++
		}
	}
	return counts
}
