// Package devfeed is an optional, push-only websocket broadcaster for
// local development: it fans out every emitted Snapshot to whichever
// browser tabs or CLI watchers are currently connected. It is not part of
// the engine's critical path — nothing here runs unless a host explicitly
// wires it in, and a write failure to one subscriber never affects any
// other subscriber or the engine itself. Grounded on the teacher's
// internal/net/ws handler, trimmed to the one direction this repo needs.
package devfeed

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/hollowtick/longtail/engine"
	"github.com/hollowtick/longtail/telemetry"
)

// Hub tracks connected subscribers and broadcasts snapshots to all of
// them. The zero value is not usable; construct with New.
type Hub struct {
	mu       sync.Mutex
	subs     map[*subscriber]struct{}
	upgrader websocket.Upgrader
	logger   telemetry.Logger
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// New constructs an empty Hub. logger may be nil.
func New(logger telemetry.Logger) *Hub {
	if logger == nil {
		logger = telemetry.NopLogger{}
	}
	return &Hub{
		subs: make(map[*subscriber]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
	}
}

// Handle upgrades an HTTP request to a websocket connection and registers
// it as a subscriber. It blocks, draining (and discarding) any messages
// the client sends, until the connection closes — this feed is push-only,
// so nothing a subscriber sends is ever acted on.
func (h *Hub) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("devfeed: upgrade failed: %v", err)
		return
	}

	sub := &subscriber{conn: conn}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.subs, sub)
		h.mu.Unlock()
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast encodes snap and writes it to every connected subscriber. A
// write failure drops that subscriber silently. Writes happen one after
// another on the caller's goroutine, so Broadcast returns only once every
// subscriber's write has completed or failed.
func (h *Hub) Broadcast(snap engine.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		h.logger.Printf("devfeed: marshal snapshot: %v", err)
		return
	}

	h.mu.Lock()
	targets := make([]*subscriber, 0, len(h.subs))
	for sub := range h.subs {
		targets = append(targets, sub)
	}
	h.mu.Unlock()

	for _, sub := range targets {
		sub.mu.Lock()
		err := sub.conn.WriteMessage(websocket.TextMessage, data)
		sub.mu.Unlock()
		if err != nil {
			h.mu.Lock()
			delete(h.subs, sub)
			h.mu.Unlock()
			sub.conn.Close()
		}
	}
}

// Subscribers reports how many clients are currently connected.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
