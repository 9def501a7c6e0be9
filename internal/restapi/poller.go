package restapi

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"
)

const defaultPollInterval = 30 * time.Second

type CountFetcher interface {
	UnreadCount(ctx context.Context) (int, error)
}

// BadgePoller polls the unread-count endpoint on a fixed period,
// independently of the live stream. The polled count feeds a coarse badge
// through the callback only; it is never written into the reconciliation
// store, whose own derived total stays authoritative.
type BadgePoller struct {
	fetcher  CountFetcher
	interval time.Duration
	onCount  func(count int)
	stopped  *atomic.Bool
	done     chan struct{}
}

func NewBadgePoller(fetcher CountFetcher, interval time.Duration, onCount func(count int)) *BadgePoller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &BadgePoller{
		fetcher:  fetcher,
		interval: interval,
		onCount:  onCount,
		stopped:  atomic.NewBool(false),
		done:     make(chan struct{}),
	}
}

func (bp *BadgePoller) Start() {
	go func() {
		ticker := time.NewTicker(bp.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if bp.stopped.Load() {
					return
				}
				ctx, cancel := context.WithTimeout(context.Background(), bp.interval)
				count, err := bp.fetcher.UnreadCount(ctx)
				cancel()
				if err != nil {
					log.Err(err).Msg("unread count poll failed")
					continue
				}
				bp.onCount(count)
			case <-bp.done:
				return
			}
		}
	}()
}

func (bp *BadgePoller) Stop() {
	if bp.stopped.CAS(false, true) {
		close(bp.done)
	}
}
