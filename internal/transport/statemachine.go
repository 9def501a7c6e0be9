package transport

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/vulnwatch/notifications-engine/internal/protocol"
)

const (
	defaultHeartbeatPeriod = 30 * time.Second
	defaultBaseDelay       = time.Second
	defaultMaxDelay        = 30 * time.Second
	defaultMaxAttempts     = 10
	dialTimeout            = 10 * time.Second
	closeWriteWait         = time.Second
)

type FrameHandler interface {
	HandleFrame(data []byte)
}

type Config struct {
	URL      string
	Dialer   Dialer
	Handler  FrameHandler
	Listener func(State)
	// Zero values fall back to the production defaults below.
	HeartbeatPeriod time.Duration
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	MaxAttempts     int
}

// StateMachine owns one logical streaming connection. It cycles
// Disconnected -> Connecting -> Connected -> Disconnected, reconnecting
// after abnormal closes with exponential backoff until MaxAttempts is
// exhausted, at which point it parks in GivenUp. Explicit Disconnect is
// the only path that suppresses backoff.
type StateMachine struct {
	cfg    Config
	delays *backoff.ExponentialBackOff

	mu             sync.Mutex
	state          State
	conn           Conn
	attempt        int
	gen            uint64
	reconnectTimer *time.Timer
	heartbeatStop  chan struct{}
}

func NewStateMachine(cfg Config) *StateMachine {
	if cfg.HeartbeatPeriod <= 0 {
		cfg.HeartbeatPeriod = defaultHeartbeatPeriod
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = defaultBaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = defaultMaxDelay
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	return &StateMachine{
		cfg:    cfg,
		delays: reconnectDelays(cfg.BaseDelay, cfg.MaxDelay),
	}
}

// reconnectDelays yields the deterministic schedule
// min(base * 2^attempt, max) between reconnection attempts.
func reconnectDelays(base, max time.Duration) *backoff.ExponentialBackOff {
	delays := backoff.NewExponentialBackOff()
	delays.InitialInterval = base
	delays.RandomizationFactor = 0
	delays.Multiplier = 2
	delays.MaxInterval = max
	delays.MaxElapsedTime = 0
	delays.Reset()
	return delays
}

// Connect opens the streaming connection. It is a no-op while a connection
// attempt is in flight or a connection is up.
func (sm *StateMachine) Connect() {
	sm.mu.Lock()
	if sm.state == Connecting || sm.state == Connected {
		sm.mu.Unlock()
		return
	}
	if sm.reconnectTimer != nil {
		sm.reconnectTimer.Stop()
		sm.reconnectTimer = nil
	}
	sm.state = Connecting
	gen := sm.gen
	sm.mu.Unlock()
	sm.notify(Connecting)
	go sm.dial(gen)
}

func (sm *StateMachine) dial(gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	conn, err := sm.cfg.Dialer.DialContext(ctx, sm.cfg.URL)

	sm.mu.Lock()
	if sm.gen != gen || sm.state != Connecting {
		// torn down while dialing
		sm.mu.Unlock()
		if err == nil {
			conn.Close()
		}
		return
	}
	if err != nil {
		log.Err(err).Msg("stream dial failed")
		next := sm.scheduleReconnectLocked()
		sm.mu.Unlock()
		sm.notify(next)
		return
	}
	sm.conn = conn
	sm.state = Connected
	sm.attempt = 0
	sm.delays.Reset()
	stop := make(chan struct{})
	sm.heartbeatStop = stop
	sm.mu.Unlock()
	sm.notify(Connected)

	go sm.heartbeat(conn, stop)
	go sm.readLoop(conn, gen)
}

func (sm *StateMachine) readLoop(conn Conn, gen uint64) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			sm.connectionLost(conn, gen, err)
			return
		}
		sm.cfg.Handler.HandleFrame(data)
	}
}

func (sm *StateMachine) connectionLost(conn Conn, gen uint64, err error) {
	sm.mu.Lock()
	if sm.gen != gen {
		// explicit Disconnect already tore this connection down
		sm.mu.Unlock()
		return
	}
	sm.gen++
	sm.stopHeartbeatLocked()
	sm.conn = nil
	conn.Close()
	var next State
	if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		// server closed normally, terminal for this session
		sm.state = Disconnected
		next = Disconnected
	} else {
		log.Err(err).Msg("stream connection lost")
		next = sm.scheduleReconnectLocked()
	}
	sm.mu.Unlock()
	sm.notify(next)
}

// scheduleReconnectLocked arms the reconnect timer, or parks in GivenUp
// once attempts are exhausted. Caller holds sm.mu.
func (sm *StateMachine) scheduleReconnectLocked() State {
	if sm.attempt >= sm.cfg.MaxAttempts {
		sm.state = GivenUp
		return GivenUp
	}
	delay := sm.delays.NextBackOff()
	sm.attempt++
	sm.state = Disconnected
	sm.reconnectTimer = time.AfterFunc(delay, sm.Connect)
	return Disconnected
}

func (sm *StateMachine) heartbeat(conn Conn, stop chan struct{}) {
	ticker := time.NewTicker(sm.cfg.HeartbeatPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.TextMessage, protocol.Ping()); err != nil {
				// the read loop observes the broken connection
				log.Err(err).Msg("heartbeat write failed")
				return
			}
		case <-stop:
			return
		}
	}
}

// Disconnect closes the connection with the normal close code, cancels any
// pending reconnect and heartbeat timers and resets the attempt counter.
// No retry is scheduled.
func (sm *StateMachine) Disconnect() {
	sm.mu.Lock()
	sm.gen++
	if sm.reconnectTimer != nil {
		sm.reconnectTimer.Stop()
		sm.reconnectTimer = nil
	}
	sm.stopHeartbeatLocked()
	if sm.conn != nil {
		deadline := time.Now().Add(closeWriteWait)
		_ = sm.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = sm.conn.Close()
		sm.conn = nil
	}
	sm.attempt = 0
	sm.delays.Reset()
	changed := sm.state != Disconnected
	sm.state = Disconnected
	sm.mu.Unlock()
	if changed {
		sm.notify(Disconnected)
	}
}

func (sm *StateMachine) State() State {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.state
}

// ReconnectPending reports whether a reconnection timer is armed.
func (sm *StateMachine) ReconnectPending() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.reconnectTimer != nil
}

func (sm *StateMachine) stopHeartbeatLocked() {
	if sm.heartbeatStop != nil {
		close(sm.heartbeatStop)
		sm.heartbeatStop = nil
	}
}

func (sm *StateMachine) notify(s State) {
	if sm.cfg.Listener != nil {
		sm.cfg.Listener(s)
	}
}
