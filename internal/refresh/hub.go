package refresh

import (
	"bufio"
	"encoding/json"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 2 * time.Second

// Hub fans dataset events out to subscribed dashboards. Browsers
// subscribe over websocket, terminal dashboards over a plain TCP line
// protocol; every event is one JSON object per line on both.
type Hub struct {
	mu   sync.Mutex
	tcp  map[net.Conn]struct{}
	ws   map[*websocket.Conn]struct{}
	last *Event
}

type Stats struct {
	TCPClients int `json:"tcp_clients"`
	WSClients  int `json:"ws_clients"`
}

func NewHub() *Hub {
	return &Hub{
		tcp: make(map[net.Conn]struct{}),
		ws:  make(map[*websocket.Conn]struct{}),
	}
}

// Subscribe registers a TCP subscriber and replays the most recent
// event so late joiners know the current dataset state.
func (h *Hub) Subscribe(conn net.Conn) {
	h.mu.Lock()
	h.tcp[conn] = struct{}{}
	last := h.last
	h.mu.Unlock()

	if last != nil {
		if b, err := json.Marshal(last); err == nil {
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			_, _ = conn.Write(append(b, '\n'))
		}
	}
}

func (h *Hub) Unsubscribe(conn net.Conn) {
	h.mu.Lock()
	delete(h.tcp, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

func (h *Hub) SubscribeWS(ws *websocket.Conn) {
	h.mu.Lock()
	h.ws[ws] = struct{}{}
	last := h.last
	h.mu.Unlock()

	if last != nil {
		if b, err := json.Marshal(last); err == nil {
			_ = ws.WriteMessage(websocket.TextMessage, append(b, '\n'))
		}
	}
}

func (h *Hub) UnsubscribeWS(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.ws, ws)
	h.mu.Unlock()
	_ = ws.Close()
}

// Broadcast sends ev to every subscriber and remembers it for late
// joiners. Subscribers that fail a write are dropped.
func (h *Hub) Broadcast(ev Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		return
	}
	b = append(b, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = &ev

	for c := range h.tcp {
		_ = c.SetWriteDeadline(time.Now().Add(writeTimeout))
		w := bufio.NewWriter(c)
		if _, err := w.Write(b); err != nil {
			_ = c.Close()
			delete(h.tcp, c)
			continue
		}
		if err := w.Flush(); err != nil {
			_ = c.Close()
			delete(h.tcp, c)
		}
	}

	for ws := range h.ws {
		if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
			_ = ws.Close()
			delete(h.ws, ws)
		}
	}
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{
		TCPClients: len(h.tcp),
		WSClients:  len(h.ws),
	}
}
