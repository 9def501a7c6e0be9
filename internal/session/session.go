package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vulnwatch/notifications-engine/internal/notification"
	"github.com/vulnwatch/notifications-engine/internal/protocol"
	"github.com/vulnwatch/notifications-engine/internal/restapi"
	"github.com/vulnwatch/notifications-engine/internal/store"
	"github.com/vulnwatch/notifications-engine/internal/transport"
)

const defaultPageSize = 20

// Collaborator bundles the REST endpoints the session depends on.
// *restapi.Client satisfies it.
type Collaborator interface {
	Historical(ctx context.Context, page, pageSize int) ([]*notification.Raw, error)
	MarkAllRead(ctx context.Context) error
	UnreadCount(ctx context.Context) (int, error)
}

type Config struct {
	StreamURL     string
	PageSize      int
	BadgeInterval time.Duration
	// Transport overrides, zero values use the production defaults.
	HeartbeatPeriod time.Duration
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	MaxAttempts     int
}

// Callbacks surface the consumer-visible events: server-reported warnings,
// terminal disconnection and the coarse polled badge count. All fields are
// optional.
type Callbacks struct {
	OnWarning func(msg string)
	OnGivenUp func()
	OnBadge   func(count int)
}

// Session is the owning scope of one notification engine instance: the
// streaming transport, the reconciliation store, the read-state
// coordinator and the badge poller. Sessions are independent; tearing one
// down cancels its timers and closes its transport with the normal code.
type Session struct {
	id  uuid.UUID
	cfg Config
	cb  Callbacks

	sm          *transport.StateMachine
	store       *store.ReconcileStore
	coordinator *store.ReadStateCoordinator
	collab      Collaborator
	poller      *restapi.BadgePoller

	mu         sync.Mutex
	historical []*notification.Notification
	nextPage   int
}

func New(cfg Config, dialer transport.Dialer, collab Collaborator, cb Callbacks) *Session {
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	s := &Session{
		id:       uuid.New(),
		cfg:      cfg,
		cb:       cb,
		collab:   collab,
		store:    store.NewReconcileStore(),
		nextPage: 1,
	}
	s.coordinator = store.NewReadStateCoordinator(s.store, collab)
	s.sm = transport.NewStateMachine(transport.Config{
		URL:             cfg.StreamURL,
		Dialer:          dialer,
		Handler:         s,
		Listener:        s.onTransportState,
		HeartbeatPeriod: cfg.HeartbeatPeriod,
		BaseDelay:       cfg.BaseDelay,
		MaxDelay:        cfg.MaxDelay,
		MaxAttempts:     cfg.MaxAttempts,
	})
	if cb.OnBadge != nil {
		s.poller = restapi.NewBadgePoller(collab, cfg.BadgeInterval, cb.OnBadge)
	}
	return s
}

// Start connects the stream, seeds the historical snapshot and starts the
// badge poller. The historical seed runs concurrently with the stream.
func (s *Session) Start(ctx context.Context) {
	log.Info().Str("session", s.id.String()).Str("url", s.cfg.StreamURL).Msg("starting notification session")
	s.sm.Connect()
	go func() {
		_ = s.LoadHistorical(ctx)
	}()
	if s.poller != nil {
		s.poller.Start()
	}
}

// LoadHistorical fetches the next page of the historical record and folds
// it into the reconciliation store. A failure is surfaced through the
// warning callback and never interrupts or resets the live stream.
func (s *Session) LoadHistorical(ctx context.Context) error {
	s.mu.Lock()
	page := s.nextPage
	s.mu.Unlock()
	raws, err := s.collab.Historical(ctx, page, s.cfg.PageSize)
	if err != nil {
		log.Err(err).Int("page", page).Msg("historical fetch failed")
		s.warn("historical fetch failed")
		return err
	}
	now := time.Now().UTC()
	batch := make([]*notification.Notification, 0, len(raws))
	for _, raw := range raws {
		if raw == nil || raw.ID == nil {
			log.Error().Int("page", page).Msg("discarding historical entry without id")
			continue
		}
		batch = append(batch, notification.Normalize(raw, now))
	}
	s.mu.Lock()
	s.historical = append(s.historical, batch...)
	snapshot := make([]*notification.Notification, len(s.historical))
	copy(snapshot, s.historical)
	s.nextPage++
	s.mu.Unlock()
	s.store.SetHistorical(snapshot)
	return nil
}

// HandleFrame dispatches one decoded stream frame. Malformed frames are
// logged and discarded without affecting connection state.
func (s *Session) HandleFrame(data []byte) {
	frame, err := protocol.Decode(data)
	if err != nil {
		log.Err(err).Msg("discarding stream frame")
		return
	}
	switch frame.Type {
	case protocol.TypeConnected:
		log.Info().Str("session", s.id.String()).Msg("stream acknowledged connection")
	case protocol.TypePong:
		// heartbeat reply, traffic only
	case protocol.TypeError:
		log.Warn().Str("server_message", frame.Message).Msg("server reported a stream error")
		s.warn(frame.Message)
	case protocol.TypeNotification:
		s.store.PushLive(notification.Normalize(frame.Notification, time.Now().UTC()))
	}
}

// MarkAllRead applies the optimistic mutation through the coordinator.
func (s *Session) MarkAllRead(ctx context.Context) error {
	return s.coordinator.MarkAllRead(ctx)
}

func (s *Session) Store() *store.ReconcileStore {
	return s.store
}

func (s *Session) TransportState() transport.State {
	return s.sm.State()
}

// Close tears the session down: the badge poller stops, all transport
// timers are cancelled and the connection closes with the normal code so
// no backoff is triggered.
func (s *Session) Close() {
	if s.poller != nil {
		s.poller.Stop()
	}
	s.sm.Disconnect()
	log.Info().Str("session", s.id.String()).Msg("notification session closed")
}

func (s *Session) onTransportState(state transport.State) {
	if state == transport.GivenUp {
		log.Error().Str("session", s.id.String()).Msg("reconnect attempts exhausted, giving up")
		if s.cb.OnGivenUp != nil {
			s.cb.OnGivenUp()
		}
	}
}

func (s *Session) warn(msg string) {
	if s.cb.OnWarning != nil {
		s.cb.OnWarning(msg)
	}
}
