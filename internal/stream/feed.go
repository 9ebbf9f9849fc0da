// Package stream serves a read-only websocket telemetry feed. Every
// relayed status text, mission progress update and position fix is
// broadcast as a JSON envelope to all connected clients.
package stream

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Envelope is one feed message.
type Envelope struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

type Feed struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader
	srv      *http.Server

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func NewFeed(addr string, logger *slog.Logger) *Feed {
	f := &Feed{
		logger:  logger,
		clients: make(map[*websocket.Conn]bool),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/telemetry", f.handleTelemetry)
	f.srv = &http.Server{Addr: addr, Handler: mux}
	return f
}

// Start serves the feed in the background.
func (f *Feed) Start() {
	go func() {
		f.logger.Info("telemetry feed listening", "addr", f.srv.Addr)
		if err := f.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			f.logger.Warn("telemetry feed stopped", "error", err)
		}
	}()
}

func (f *Feed) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	f.mu.Lock()
	f.clients[conn] = true
	f.mu.Unlock()
	f.logger.Info("telemetry feed client connected", "remote", conn.RemoteAddr().String())

	// The feed is one-way; the read loop only notices disconnects.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				f.drop(conn)
				return
			}
		}
	}()
}

func (f *Feed) drop(conn *websocket.Conn) {
	f.mu.Lock()
	if _, ok := f.clients[conn]; ok {
		delete(f.clients, conn)
		conn.Close()
	}
	f.mu.Unlock()
}

// Publish broadcasts one telemetry item to every connected client.
// Clients whose writes fail are dropped.
func (f *Feed) Publish(kind string, payload any) {
	data, err := json.Marshal(Envelope{Type: kind, Timestamp: time.Now().UTC(), Payload: payload})
	if err != nil {
		f.logger.Warn("telemetry feed marshal failed", "kind", kind, "error", err)
		return
	}

	f.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(f.clients))
	for conn := range f.clients {
		conns = append(conns, conn)
	}
	f.mu.Unlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			f.drop(conn)
		}
	}
}

// Close disconnects all clients and stops the server.
func (f *Feed) Close() error {
	f.mu.Lock()
	for conn := range f.clients {
		conn.Close()
		delete(f.clients, conn)
	}
	f.mu.Unlock()
	return f.srv.Close()
}
