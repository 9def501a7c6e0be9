package store

import (
	"context"

	"go.uber.org/atomic"
)

// Marker is the mark-all-read collaborator endpoint.
type Marker interface {
	MarkAllRead(ctx context.Context) error
}

// ReadStateCoordinator applies the optimistic mark-all-read mutation to the
// store and reconciles it with the request's eventual result.
type ReadStateCoordinator struct {
	store   *ReconcileStore
	marker  Marker
	pending *atomic.Bool
}

func NewReadStateCoordinator(store *ReconcileStore, marker Marker) *ReadStateCoordinator {
	return &ReadStateCoordinator{
		store:   store,
		marker:  marker,
		pending: atomic.NewBool(false),
	}
}

// MarkAllRead flips every notification to read before the network
// round-trip completes. On failure the pre-mutation unread snapshot is
// restored in full and the error returned. Invocations while a request is
// in flight are no-ops.
func (c *ReadStateCoordinator) MarkAllRead(ctx context.Context) error {
	if !c.pending.CAS(false, true) {
		return nil
	}
	defer c.pending.Store(false)
	snapshot := c.store.markAllRead()
	if err := c.marker.MarkAllRead(ctx); err != nil {
		c.store.restoreUnread(snapshot)
		return err
	}
	return nil
}
