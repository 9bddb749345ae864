// Live tournament spectation over WebSockets
//
// This file is part of eval-arena.
//
// eval-arena is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License,
// version 3, as published by the Free Software Foundation.
//
// eval-arena is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public
// License, version 3, along with eval-arena. If not, see
// <http://www.gnu.org/licenses/>

// Package dashboard is an optional, non-interactive observer surface:
// every Event the evaluator emits is broadcast, as JSON text frames,
// to any number of connected spectators. Adapted from web/ws.go's
// upgrader/wsrwc pattern, but one-directional (spectators never write
// back) so there is no need for the read-side NextReader loop that
// file needed for go-kgp's bidirectional protocol.
package dashboard

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Event is one line of tournament progress, serialised to JSON and
// pushed to every connected spectator.
type Event struct {
	Kind     string  `json:"kind"` // "match_started" | "match_finished" | "run_finished"
	MatchID  string  `json:"match_id,omitempty"`
	Agent    string  `json:"agent,omitempty"`
	Opponent string  `json:"opponent,omitempty"`
	Score    float64 `json:"score,omitempty"`
	Reason   string  `json:"reason,omitempty"`
}

// Hub fans Events out to every connected spectator. The zero value is
// unusable; construct with NewHub.
type Hub struct {
	upgrader websocket.Upgrader
	log      *log.Logger

	mu   sync.Mutex
	subs map[*websocket.Conn]chan Event
}

// NewHub constructs an empty Hub, logging spectator errors to logger
// (or discarding them if nil).
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Hub{
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		log:      logger,
		subs:     make(map[*websocket.Conn]chan Event),
	}
}

// Handler upgrades a request to a WebSocket and streams Events to it
// until the connection drops, mirroring web/ws.go's upgrader.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Printf("spectator upgrade failed: %s", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		ch := make(chan Event, 64)

		h.mu.Lock()
		h.subs[conn] = ch
		h.mu.Unlock()

		defer func() {
			h.mu.Lock()
			delete(h.subs, conn)
			h.mu.Unlock()
			conn.Close()
		}()

		for ev := range ch {
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}
}

// Broadcast delivers ev to every currently connected spectator,
// dropping it for any subscriber whose outbound buffer is full rather
// than blocking the evaluator's recorder goroutine.
func (h *Hub) Broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.log.Printf("dropping event for slow spectator %s", conn.RemoteAddr())
		}
	}
}

// Close tears down every subscriber channel, releasing Handler
// goroutines blocked in their for-range loop.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.subs {
		close(ch)
		delete(h.subs, conn)
	}
}
