package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/atomic"
)

// stubServer is an in-process stand-in for the streaming and REST
// collaborators: one websocket stream endpoint plus the historical,
// unread-count and mark-all-read routes.
type stubServer struct {
	server   *httptest.Server
	upgrader websocket.Upgrader

	mu         sync.Mutex
	conns      []*websocket.Conn
	historical []map[string]interface{}

	connections       *atomic.Int32
	pings             *atomic.Int32
	markAllReadCalls  *atomic.Int32
	markAllReadStatus *atomic.Int32
	unreadCount       *atomic.Int32
}

func newStubServer() *stubServer {
	stub := &stubServer{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		connections:       atomic.NewInt32(0),
		pings:             atomic.NewInt32(0),
		markAllReadCalls:  atomic.NewInt32(0),
		markAllReadStatus: atomic.NewInt32(http.StatusOK),
		unreadCount:       atomic.NewInt32(0),
	}

	router := httprouter.New()
	router.GET("/stream", stub.stream)
	router.GET("/notifications", stub.notifications)
	router.GET("/notifications/unread-count", stub.unread)
	router.POST("/notifications/mark-all-read", stub.markAllRead)

	stub.server = httptest.NewServer(router)
	return stub
}

func (stub *stubServer) wsURL() string {
	return "ws" + strings.TrimPrefix(stub.server.URL, "http") + "/stream"
}

func (stub *stubServer) close() {
	stub.dropConnections()
	stub.server.Close()
}

func (stub *stubServer) seedHistorical(entries ...map[string]interface{}) {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	stub.historical = append(stub.historical, entries...)
}

// send writes a frame on the most recent stream connection.
func (stub *stubServer) send(frame map[string]interface{}) error {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	conn := stub.conns[len(stub.conns)-1]
	return conn.WriteJSON(frame)
}

// dropConnections closes the underlying sockets without a close frame, so
// clients observe an abnormal close.
func (stub *stubServer) dropConnections() {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	for _, conn := range stub.conns {
		conn.Close()
	}
	stub.conns = nil
}

func (stub *stubServer) stream(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := stub.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	if err = conn.WriteJSON(map[string]string{"type": "connected"}); err != nil {
		conn.Close()
		return
	}
	stub.mu.Lock()
	stub.conns = append(stub.conns, conn)
	stub.mu.Unlock()
	stub.connections.Inc()

	go func() {
		for {
			_, data, errRead := conn.ReadMessage()
			if errRead != nil {
				return
			}
			var frame map[string]interface{}
			if json.Unmarshal(data, &frame) == nil && frame["type"] == "ping" {
				stub.pings.Inc()
				stub.mu.Lock()
				_ = conn.WriteJSON(map[string]string{"type": "pong"})
				stub.mu.Unlock()
			}
		}
	}()
}

func (stub *stubServer) notifications(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	stub.mu.Lock()
	results := make([]map[string]interface{}, len(stub.historical))
	copy(results, stub.historical)
	stub.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"results": results})
}

func (stub *stubServer) unread(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int32{"count": stub.unreadCount.Load()})
}

func (stub *stubServer) markAllRead(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	stub.markAllReadCalls.Inc()
	w.WriteHeader(int(stub.markAllReadStatus.Load()))
}
