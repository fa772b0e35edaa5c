package gatewaysim

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/dmx-tools/dmxbench/pkg/gateway"
)

// HTTPServer serves the REST API and the WebSocket endpoint over one chi
// router. Set updates arriving on any WebSocket client are broadcast to all
// connected clients, matching the real gateway's fan-out.
type HTTPServer struct {
	State  *State
	Logger *slog.Logger

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

// NewHTTPServer builds the handler set around a shared universe.
func NewHTTPServer(state *State, logger *slog.Logger) *HTTPServer {
	return &HTTPServer{
		State:   state,
		Logger:  logger,
		clients: make(map[*wsClient]struct{}),
	}
}

// Router assembles the route table.
func (s *HTTPServer) Router() chi.Router {
	r := chi.NewRouter()
	r.Post("/api", s.handleCommand)
	r.Get("/api/lights", s.handleLights)
	r.Get("/api/status", s.handleStatus)
	r.Get("/ws", s.handleWS)
	return r
}

func (s *HTTPServer) handleCommand(w http.ResponseWriter, r *http.Request) {
	var cmd gateway.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed command"})
		return
	}
	reply, err := s.apply(cmd)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *HTTPServer) handleLights(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.State.Lights())
}

func (s *HTTPServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"enabled": s.State.Enabled(),
	})
}

// apply executes one command against the universe and returns the reply
// payload. Set commands additionally fan out to all WebSocket clients.
func (s *HTTPServer) apply(cmd gateway.Command) (map[string]any, error) {
	switch cmd.Cmd {
	case "status":
		return map[string]any{"status": "ok", "enabled": s.State.Enabled()}, nil
	case "set":
		if err := s.State.SetLight(cmd.Target, cmd.Values); err != nil {
			return nil, err
		}
		s.broadcast(map[string]any{"event": "update", "target": cmd.Target, "values": cmd.Values})
		return map[string]any{"status": "ok"}, nil
	case "get":
		values, err := s.State.GetLight(cmd.Target)
		if err != nil {
			return nil, err
		}
		return map[string]any{"status": "ok", "values": values}, nil
	case "blackout":
		s.State.Blackout()
		s.broadcast(map[string]any{"event": "blackout"})
		return map[string]any{"status": "ok"}, nil
	case "enable":
		s.State.Enable()
		return map[string]any{"status": "ok"}, nil
	default:
		return map[string]any{"status": "error", "error": "unknown command"}, nil
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// wsClient is one connected WebSocket session. Writes go through send so the
// reader goroutine and broadcasts never interleave on the conn.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

func (s *HTTPServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &wsClient{conn: conn, send: make(chan []byte, 64)}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	go s.writePump(c)
	s.readPump(c)
}

func (s *HTTPServer) readPump(c *wsClient) {
	defer s.dropClient(c)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd gateway.Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			c.enqueue(mustJSON(map[string]any{"status": "error", "error": "malformed command"}))
			continue
		}
		reply, err := s.apply(cmd)
		if err != nil {
			c.enqueue(mustJSON(map[string]any{"status": "error", "error": err.Error()}))
			continue
		}
		c.enqueue(mustJSON(reply))
	}
}

func (s *HTTPServer) writePump(c *wsClient) {
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *wsClient) enqueue(msg []byte) {
	select {
	case c.send <- msg:
	default:
		// Slow consumer; drop rather than stall the universe.
	}
}

func (s *HTTPServer) dropClient(c *wsClient) {
	s.mu.Lock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
	s.mu.Unlock()
	c.conn.Close()
}

// broadcast queues one event on every connected WebSocket client.
func (s *HTTPServer) broadcast(event map[string]any) {
	msg := mustJSON(event)
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		c.enqueue(msg)
	}
}

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
