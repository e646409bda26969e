// Package buildwatch is an optional live dashboard that streams a Dag's
// diag.Trace events to connected websocket clients, the way
// internal/network's WebSocketListen upgrades an http.Handler into a
// broadcast server.
package buildwatch

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"mapsir/internal/diag"
)

// Dashboard upgrades incoming HTTP connections to websockets and fans out
// every diag.Event recorded on the wrapped Trace until the client
// disconnects or Close is called.
type Dashboard struct {
	trace    *diag.Trace
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]chan diag.Event
	closed  bool
}

// New wraps trace; it does not itself open a listening socket — pass
// Handler to an *http.Server (or http.ListenAndServe) the way
// internal/network.WebSocketListen does.
func New(trace *diag.Trace) *Dashboard {
	return &Dashboard{
		trace:   trace,
		clients: make(map[*websocket.Conn]chan diag.Event),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler implements http.Handler, upgrading the request and streaming
// events to it until the connection drops.
func (d *Dashboard) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := d.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	ch := make(chan diag.Event, 64)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		conn.Close()
		return
	}
	d.trace.Subscribe(ch)
	d.clients[conn] = ch
	d.mu.Unlock()

	defer func() {
		d.trace.Unsubscribe(ch)
		d.mu.Lock()
		delete(d.clients, conn)
		d.mu.Unlock()
		conn.Close()
	}()

	for ev := range ch {
		payload, err := json.Marshal(eventView{
			Kind:   ev.Kind.String(),
			Node:   ev.Node,
			ID:     ev.ID,
			Detail: ev.Detail,
		})
		if err != nil {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

// eventView is diag.Event's wire shape: EventKind is rendered as its
// string name rather than the raw numeric tag, since the dashboard is a
// human-facing consumer.
type eventView struct {
	Kind   string `json:"kind"`
	Node   string `json:"node,omitempty"`
	ID     uint64 `json:"id"`
	Detail string `json:"detail,omitempty"`
}

// Close disconnects every connected client and rejects further upgrades.
func (d *Dashboard) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	for conn, ch := range d.clients {
		d.trace.Unsubscribe(ch)
		close(ch)
		conn.Close()
	}
	d.clients = nil
}

// ClientCount reports how many dashboard connections are currently open,
// mostly useful for tests.
func (d *Dashboard) ClientCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.clients)
}
