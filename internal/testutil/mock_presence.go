package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// MockPresenceServer mimics the external presence service: a websocket
// endpoint accepting subscribe frames and a REST fallback endpoint.
type MockPresenceServer struct {
	Server *httptest.Server

	mu         sync.Mutex
	restCalls  int
	conns      []*websocket.Conn
	subscribes []string

	// RESTPayload is returned by GET /v1/users/{id}. Tests may replace it.
	RESTPayload map[string]interface{}

	upgrader websocket.Upgrader
}

// NewMockPresenceServer creates a mock presence service.
func NewMockPresenceServer() *MockPresenceServer {
	mps := &MockPresenceServer{
		RESTPayload: map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"discord_status": "online",
				"activities":     []interface{}{},
			},
		},
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/socket", func(w http.ResponseWriter, r *http.Request) {
		conn, err := mps.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		mps.mu.Lock()
		mps.conns = append(mps.conns, conn)
		mps.mu.Unlock()

		// Record subscribe frames; keep the connection open for pushes.
		go func() {
			for {
				var frame struct {
					Op int `json:"op"`
					D  struct {
						SubscribeToID string `json:"subscribe_to_id"`
					} `json:"d"`
				}
				if err := conn.ReadJSON(&frame); err != nil {
					return
				}
				if frame.Op == 2 {
					mps.mu.Lock()
					mps.subscribes = append(mps.subscribes, frame.D.SubscribeToID)
					mps.mu.Unlock()
				}
			}
		}()
	})

	mux.HandleFunc("/v1/users/", func(w http.ResponseWriter, r *http.Request) {
		mps.mu.Lock()
		mps.restCalls++
		payload := mps.RESTPayload
		mps.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	})

	mps.Server = httptest.NewServer(mux)
	return mps
}

// SocketURL returns the ws:// URL of the mock socket endpoint.
func (mps *MockPresenceServer) SocketURL() string {
	return "ws" + strings.TrimPrefix(mps.Server.URL, "http") + "/socket"
}

// RESTBaseURL returns the base URL for the REST fallback endpoint.
func (mps *MockPresenceServer) RESTBaseURL() string {
	return mps.Server.URL
}

// RESTCalls returns how many times the REST endpoint has been hit.
func (mps *MockPresenceServer) RESTCalls() int {
	mps.mu.Lock()
	defer mps.mu.Unlock()
	return mps.restCalls
}

// Subscribes returns the user ids subscribed so far.
func (mps *MockPresenceServer) Subscribes() []string {
	mps.mu.Lock()
	defer mps.mu.Unlock()
	return append([]string{}, mps.subscribes...)
}

// Push sends a presence frame to every connected client.
func (mps *MockPresenceServer) Push(eventType string, data interface{}) {
	frame := map[string]interface{}{"t": eventType, "d": data}

	mps.mu.Lock()
	defer mps.mu.Unlock()
	for _, conn := range mps.conns {
		_ = conn.WriteJSON(frame)
	}
}

// CloseConnections drops every open socket without shutting the server down.
func (mps *MockPresenceServer) CloseConnections() {
	mps.mu.Lock()
	defer mps.mu.Unlock()
	for _, conn := range mps.conns {
		_ = conn.Close()
	}
	mps.conns = nil
}

// Close shuts down the mock server.
func (mps *MockPresenceServer) Close() {
	mps.CloseConnections()
	mps.Server.Close()
}
