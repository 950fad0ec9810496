package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"

	"github.com/vinavi-labs/vinavi/internal/events"
)

// Dispatcher executes a request frame on behalf of a session.
type Dispatcher interface {
	Dispatch(ctx context.Context, sessionID string, method Method, params json.RawMessage) (any, error)
}

// Client represents a connected WebSocket client.
type Client struct {
	conn      *websocket.Conn
	send      chan []byte
	hub       *Hub
	sessionID string // empty receives every session's events
}

// Hub manages WebSocket clients and bridges them to the event bus.
type Hub struct {
	mu          sync.RWMutex
	clients     map[*Client]struct{}
	bus         *events.Bus
	dispatcher  Dispatcher
	origins     []string
	unsubscribe func()
}

// NewHub creates a new WebSocket hub connected to an event bus. Internal
// events are never forwarded to clients.
func NewHub(bus *events.Bus, dispatcher Dispatcher, origins []string) *Hub {
	h := &Hub{
		clients:    make(map[*Client]struct{}),
		bus:        bus,
		dispatcher: dispatcher,
		origins:    origins,
	}

	h.unsubscribe = bus.Subscribe(func(e events.Event) {
		if e.Type == events.EventLLMCall {
			return
		}
		frame, err := NewEventFrame(string(e.Type), e.SessionID, e)
		if err != nil {
			slog.Error("marshal event frame", "error", err)
			return
		}
		data, err := MarshalFrame(frame)
		if err != nil {
			slog.Error("marshal frame", "error", err)
			return
		}
		h.broadcast(e.SessionID, data)
	})

	return h
}

// broadcast sends data to every client following sessionID.
func (h *Hub) broadcast(sessionID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if c.sessionID != "" && c.sessionID != sessionID {
			continue
		}
		select {
		case c.send <- data:
		default:
			// Client too slow, skip
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	slog.Info("ws client connected", "session_id", c.sessionID, "clients", len(h.clients))
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		slog.Info("ws client disconnected", "session_id", c.sessionID, "clients", len(h.clients))
	}
}

// ServeWS handles a WebSocket upgrade and manages the client lifecycle.
// The session_id query parameter scopes both events and requests.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	opts := &websocket.AcceptOptions{OriginPatterns: h.origins}
	if len(h.origins) == 0 {
		opts.InsecureSkipVerify = true
	}
	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		slog.Error("ws accept", "error", err)
		return
	}

	client := &Client{
		conn:      conn,
		send:      make(chan []byte, 256),
		hub:       h,
		sessionID: r.URL.Query().Get("session_id"),
	}

	h.register(client)

	ctx := r.Context()
	go client.writePump(ctx)
	client.readPump(ctx)
}

// readPump reads frames from the WS connection and dispatches them.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("ws read closed", "status", websocket.CloseStatus(err))
			} else {
				slog.Debug("ws read error", "error", err)
			}
			return
		}

		frame, err := UnmarshalFrame(data)
		if err != nil {
			slog.Error("ws unmarshal frame", "error", err)
			continue
		}

		switch frame.Type {
		case FrameTypeRequest:
			c.handleRequest(ctx, frame)
		default:
			slog.Debug("ws unknown frame type", "type", frame.Type)
		}
	}
}

// handleRequest forwards a request frame to the dispatcher.
func (c *Client) handleRequest(ctx context.Context, frame Frame) {
	if c.hub.dispatcher == nil {
		c.sendError(frame.ID, &RequestError{Code: "unavailable", Message: "requests are not supported"})
		return
	}
	sessionID := frame.SessionID
	if sessionID == "" {
		sessionID = c.sessionID
	}
	if sessionID == "" {
		c.sendError(frame.ID, &RequestError{Code: "invalid_input", Message: "session_id is required"})
		return
	}

	payload, err := c.hub.dispatcher.Dispatch(ctx, sessionID, Method(frame.Method), frame.Params)
	if err != nil {
		c.sendError(frame.ID, err)
		return
	}
	c.sendOK(frame.ID, payload)
}

// writePump writes queued messages to the WS connection.
func (c *Client) writePump(ctx context.Context) {
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) sendOK(id string, payload any) {
	f, err := NewResponseFrame(id, true, payload, "")
	if err != nil {
		slog.Error("ws response frame", "error", err)
		return
	}
	c.enqueue(f)
}

func (c *Client) sendError(id string, err error) {
	f, ferr := NewResponseFrame(id, false, nil, err.Error())
	if ferr != nil {
		return
	}
	var re *RequestError
	if errors.As(err, &re) {
		f.Code = re.Code
		f.Error = re.Message
	}
	c.enqueue(f)
}

func (c *Client) enqueue(f Frame) {
	data, err := MarshalFrame(f)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// Close shuts down the hub and all client connections.
func (h *Hub) Close() {
	if h.unsubscribe != nil {
		h.unsubscribe()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.conn.Close(websocket.StatusGoingAway, "server shutdown")
		delete(h.clients, c)
	}
}
