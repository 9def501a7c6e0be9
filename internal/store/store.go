package store

import (
	"sync"

	"github.com/vulnwatch/notifications-engine/internal/notification"
)

// liveBufferCap bounds the live buffer to the most recent stream events.
// Older entries remain reachable only through the historical snapshot.
const liveBufferCap = 50

// ReconcileStore is the single source of truth for notification state.
// All mutation (new live event, historical refresh, read-state change)
// funnels through it; the merged view is recomputed atomically under the
// store lock whenever either input changes.
type ReconcileStore struct {
	mu         sync.RWMutex
	live       []*notification.Notification // arrival order, most recent first
	historical []*notification.Notification
	merged     []*notification.Notification
	onChange   func()
}

func NewReconcileStore() *ReconcileStore {
	return &ReconcileStore{}
}

// SetOnChange registers a listener invoked after every recomputation.
// Must be called before the store receives input.
func (s *ReconcileStore) SetOnChange(fn func()) {
	s.onChange = fn
}

// PushLive prepends a stream notification to the live buffer, evicting the
// oldest entry past the buffer cap.
func (s *ReconcileStore) PushLive(n *notification.Notification) {
	s.mu.Lock()
	s.live = append(s.live, nil)
	copy(s.live[1:], s.live)
	s.live[0] = n
	if len(s.live) > liveBufferCap {
		s.live = s.live[:liveBufferCap]
	}
	s.recomputeLocked()
	s.mu.Unlock()
	s.notifyChanged()
}

// SetHistorical replaces the historical snapshot. Live entries are never
// evicted or reordered by a historical refresh.
func (s *ReconcileStore) SetHistorical(notifications []*notification.Notification) {
	s.mu.Lock()
	s.historical = make([]*notification.Notification, len(notifications))
	copy(s.historical, notifications)
	s.recomputeLocked()
	s.mu.Unlock()
	s.notifyChanged()
}

// Merged returns the current reconciled view.
func (s *ReconcileStore) Merged() []*notification.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	merged := make([]*notification.Notification, len(s.merged))
	copy(merged, s.merged)
	return merged
}

// Unread returns the derived unread counts over the merged view.
func (s *ReconcileStore) Unread() notification.UnreadCounts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return notification.CountUnread(s.merged)
}

// markAllRead flips every notification to read and returns the prior
// per-id unread state of the merged view for a possible rollback.
func (s *ReconcileStore) markAllRead() map[int64]bool {
	s.mu.Lock()
	snapshot := make(map[int64]bool, len(s.merged))
	for _, n := range s.merged {
		snapshot[n.ID] = n.Unread
	}
	for _, n := range s.live {
		n.Unread = false
	}
	for _, n := range s.historical {
		n.Unread = false
	}
	s.recomputeLocked()
	s.mu.Unlock()
	s.notifyChanged()
	return snapshot
}

// restoreUnread restores the snapshot taken by markAllRead verbatim.
// Notifications that arrived after the snapshot keep their state.
func (s *ReconcileStore) restoreUnread(snapshot map[int64]bool) {
	s.mu.Lock()
	for _, n := range s.live {
		if unread, ok := snapshot[n.ID]; ok {
			n.Unread = unread
		}
	}
	for _, n := range s.historical {
		if unread, ok := snapshot[n.ID]; ok {
			n.Unread = unread
		}
	}
	s.recomputeLocked()
	s.mu.Unlock()
	s.notifyChanged()
}

func (s *ReconcileStore) recomputeLocked() {
	s.merged = Merge(s.live, s.historical)
}

func (s *ReconcileStore) notifyChanged() {
	if s.onChange != nil {
		s.onChange()
	}
}
