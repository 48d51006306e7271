package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/moviops/movi-console/internal/assistant"
)

const streamWriteTimeout = 5 * time.Second

// StreamHandler fans appended transcript turns out to connected dashboard
// clients over WebSocket, so the rendering layer sees every turn in
// append order without polling.
type StreamHandler struct {
	engine         *assistant.Coordinator
	originPatterns []string

	mu     sync.Mutex
	conns  map[int64]*streamConn
	nextID int64

	done      chan struct{}
	closeOnce sync.Once
}

// streamConn pairs a connection with close-once semantics: the read loop
// and the fan-out path can both decide to drop it, but only the first
// close runs.
type streamConn struct {
	ws   *websocket.Conn
	once sync.Once
}

func (c *streamConn) close(code websocket.StatusCode, reason string) {
	c.once.Do(func() {
		if err := c.ws.Close(code, reason); err != nil {
			slog.Debug("failed to close transcript stream", "error", err)
		}
	})
}

// NewStreamHandler creates the stream fan-out and starts consuming the
// engine's event channel. Handshakes are accepted only from the given
// browser origins.
func NewStreamHandler(engine *assistant.Coordinator, allowedOrigins []string) *StreamHandler {
	h := &StreamHandler{
		engine:         engine,
		originPatterns: originPatterns(allowedOrigins),
		conns:          make(map[int64]*streamConn),
		done:           make(chan struct{}),
	}
	go h.broadcastLoop()
	return h
}

// originPatterns reduces full origin URLs to the host patterns the
// WebSocket handshake matches against. A bare "*" passes through.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
			continue
		}
		patterns = append(patterns, o)
	}
	return patterns
}

// ServeHTTP upgrades the connection and holds it open until the client
// disconnects. Clients are write-only from the server's perspective; any
// inbound frame is read and discarded to detect closure.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		slog.Error("failed to accept transcript stream", "error", err)
		return
	}

	id, conn := h.register(ws)
	slog.Info("transcript stream connected", "conn_id", id)
	defer func() {
		h.unregister(id)
		conn.close(websocket.StatusNormalClosure, "stream ended")
		slog.Info("transcript stream disconnected", "conn_id", id)
	}()

	ctx := r.Context()
	for {
		if _, _, err := ws.Read(ctx); err != nil {
			return
		}
	}
}

// Close stops the broadcast loop.
func (h *StreamHandler) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
	})
}

func (h *StreamHandler) register(ws *websocket.Conn) (int64, *streamConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	conn := &streamConn{ws: ws}
	h.conns[h.nextID] = conn
	return h.nextID, conn
}

func (h *StreamHandler) unregister(id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, id)
}

func (h *StreamHandler) broadcastLoop() {
	for {
		select {
		case <-h.done:
			return
		case ev := <-h.engine.Events():
			data, err := json.Marshal(ev)
			if err != nil {
				slog.Warn("failed to marshal transcript event", "error", err)
				continue
			}
			h.fanOut(data)
		}
	}
}

func (h *StreamHandler) fanOut(data []byte) {
	// Snapshot connections to avoid holding the lock during writes.
	h.mu.Lock()
	conns := make(map[int64]*streamConn, len(h.conns))
	for id, c := range h.conns {
		conns[id] = c
	}
	h.mu.Unlock()

	for id, c := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), streamWriteTimeout)
		err := c.ws.Write(ctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			slog.Debug("transcript stream write failed, dropping connection", "conn_id", id, "error", err)
			h.unregister(id)
			c.close(websocket.StatusAbnormalClosure, "write failed")
		}
	}
}
