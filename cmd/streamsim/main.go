// streamsim is a local stand-in for the notification collaborators. It
// serves the historical, unread-count and mark-all-read REST endpoints and
// a websocket stream that emits synthetic notifications, so the engine can
// be exercised without a real scanner backend.
package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port      int           `env:"PORT" envDefault:"8090"`
	EmitEvery time.Duration `env:"EMIT_EVERY" envDefault:"2s"`
}

type wireNotification struct {
	Type      string `json:"type,omitempty"`
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Level     string `json:"level,omitempty"`
	Category  string `json:"category,omitempty"`
	CreatedAt string `json:"created_at"`
	IsRead    bool   `json:"is_read"`
}

type simulator struct {
	cfg      Config
	upgrader websocket.Upgrader

	mu            sync.Mutex
	notifications []wireNotification
	nextID        int64
}

var (
	categories = []string{"scan", "vulnerability", "asset", "system", ""}
	levels     = []string{"critical", "high", "medium", "low", ""}
	titles     = []string{
		"Scan finished",
		"New vulnerability found",
		"Endpoint discovered",
		"Engine updated",
	}
)

func main() {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	sim := &simulator{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		nextID: 1,
	}

	router := httprouter.New()
	router.GET("/notifications", sim.historical)
	router.GET("/notifications/unread-count", sim.unreadCount)
	router.POST("/notifications/mark-all-read", sim.markAllRead)
	router.GET("/stream", sim.stream)

	log.Info().Msg(fmt.Sprintf("stream simulator listening on port %d", cfg.Port))
	if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.Port), router); err != nil {
		log.Fatal().Err(err).Msg("simulator server failed")
	}
}

func (sim *simulator) emit() wireNotification {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	n := wireNotification{
		Type:      "notification",
		ID:        sim.nextID,
		Title:     titles[rand.Intn(len(titles))],
		Message:   fmt.Sprintf("%s at %s", titles[rand.Intn(len(titles))], time.Now().Format(time.Kitchen)),
		Level:     levels[rand.Intn(len(levels))],
		Category:  categories[rand.Intn(len(categories))],
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	sim.nextID++
	sim.notifications = append([]wireNotification{n}, sim.notifications...)
	return n
}

func (sim *simulator) stream(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := sim.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Err(err).Msg("websocket upgrade failed")
		return
	}
	connID := uuid.New()
	log.Info().Str("conn", connID.String()).Msg("stream client connected")

	if err = conn.WriteJSON(map[string]string{"type": "connected"}); err != nil {
		log.Err(err).Msg("could not acknowledge connection")
		conn.Close()
		return
	}

	done := make(chan struct{})
	var writeMu sync.Mutex

	// read pump: answer pings, notice closes
	go func() {
		defer close(done)
		for {
			_, data, errRead := conn.ReadMessage()
			if errRead != nil {
				return
			}
			var frame map[string]interface{}
			if json.Unmarshal(data, &frame) == nil && frame["type"] == "ping" {
				writeMu.Lock()
				_ = conn.WriteJSON(map[string]string{"type": "pong"})
				writeMu.Unlock()
			}
		}
	}()

	ticker := time.NewTicker(sim.cfg.EmitEvery)
	defer ticker.Stop()
	defer conn.Close()
	for {
		select {
		case <-ticker.C:
			n := sim.emit()
			writeMu.Lock()
			err = conn.WriteJSON(n)
			writeMu.Unlock()
			if err != nil {
				log.Err(err).Str("conn", connID.String()).Msg("stream write failed")
				return
			}
		case <-done:
			log.Info().Str("conn", connID.String()).Msg("stream client disconnected")
			return
		}
	}
}

func (sim *simulator) historical(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	page := 1
	pageSize := 20
	if v := r.URL.Query().Get("page"); v != "" {
		fmt.Sscanf(v, "%d", &page)
	}
	if v := r.URL.Query().Get("page_size"); v != "" {
		fmt.Sscanf(v, "%d", &pageSize)
	}

	sim.mu.Lock()
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(sim.notifications) {
		start = len(sim.notifications)
	}
	if end > len(sim.notifications) {
		end = len(sim.notifications)
	}
	results := make([]wireNotification, end-start)
	copy(results, sim.notifications[start:end])
	sim.mu.Unlock()

	for i := range results {
		results[i].Type = ""
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"results": results})
}

func (sim *simulator) unreadCount(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	sim.mu.Lock()
	count := 0
	for _, n := range sim.notifications {
		if !n.IsRead {
			count++
		}
	}
	sim.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int{"count": count})
}

func (sim *simulator) markAllRead(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	sim.mu.Lock()
	for i := range sim.notifications {
		sim.notifications[i].IsRead = true
	}
	sim.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}
