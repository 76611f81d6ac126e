package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/seenimoa/optionocean/internal/engine"
	"github.com/seenimoa/optionocean/internal/panel"
	"github.com/seenimoa/optionocean/internal/scene"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS policy is enforced on the REST routes
	},
}

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	sendBuffer = 256
)

// Message types sent to clients.
const (
	MsgScene       = "scene"
	MsgFrame       = "frame"
	MsgTooltip     = "tooltip"
	MsgTooltipHide = "tooltip_hide"
	MsgOverlay     = "overlay"
	MsgOverlayHide = "overlay_hide"
	MsgPanel       = "panel"
	MsgPong        = "pong"
	MsgError       = "error"
)

// WSMessage is a message sent over WebSocket connections.
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// TooltipData is the payload of a tooltip message.
type TooltipData struct {
	X     float64         `json:"x"`
	Y     float64         `json:"y"`
	Info  scene.HoverInfo `json:"info"`
	Lines []string        `json:"lines"`
}

// OverlayData is the payload of an overlay message.
type OverlayData struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// ============================================================
// Hub
// ============================================================

// WSHub manages WebSocket connections and message broadcasting. It is the
// engine's Sink: everything the engine publishes goes to every client.
type WSHub struct {
	mu         sync.RWMutex
	clients    map[*WSClient]bool
	broadcast  chan WSMessage
	register   chan *WSClient
	unregister chan *WSClient
	done       chan struct{}
	log        *slog.Logger
}

// WSClient represents a single WebSocket connection. As a scene.Presenter
// it shows the results of its own pointer to itself only.
type WSClient struct {
	id   string
	hub  *WSHub
	send chan WSMessage
	gone bool // send is closed; guarded by hub.mu

	keysDown map[string]bool // read pump only
}

var (
	_ engine.Sink     = (*WSHub)(nil)
	_ scene.Presenter = (*WSClient)(nil)
)

// NewWSHub creates a new WebSocket hub.
func NewWSHub(log *slog.Logger) *WSHub {
	if log == nil {
		log = slog.Default()
	}
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		broadcast:  make(chan WSMessage, sendBuffer),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run starts the hub event loop. It returns when ctx is cancelled, after
// closing every client.
func (h *WSHub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				h.release(client)
			}
			h.mu.Unlock()
			return nil
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.Info("websocket client connected", "client_id", client.id)
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				h.release(client)
			}
			h.mu.Unlock()
			h.log.Info("websocket client disconnected", "client_id", client.id)
		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// Slow client; disconnect
					h.release(client)
					h.log.Warn("websocket client too slow, dropped", "client_id", client.id)
				}
			}
			h.mu.Unlock()
		}
	}
}

// release drops a client and closes its send channel. h.mu must be held.
func (h *WSHub) release(client *WSClient) {
	delete(h.clients, client)
	client.gone = true
	close(client.send)
}

// Broadcast sends a message to all connected WebSocket clients.
func (h *WSHub) Broadcast(msg WSMessage) {
	select {
	case h.broadcast <- msg:
	default:
		// Drop message if broadcast channel is full
	}
}

// ClientCount returns the number of connected WebSocket clients.
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds a client to the hub. It reports false once the hub has
// stopped.
func (h *WSHub) Register(client *WSClient) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub.
func (h *WSHub) Unregister(client *WSClient) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ShowTooltip implements scene.Presenter.
func (h *WSHub) ShowTooltip(x, y float64, info scene.HoverInfo) {
	h.Broadcast(WSMessage{Type: MsgTooltip, Data: TooltipData{X: x, Y: y, Info: info, Lines: info.Lines()}})
}

// HideTooltip implements scene.Presenter.
func (h *WSHub) HideTooltip() {
	h.Broadcast(WSMessage{Type: MsgTooltipHide})
}

// ShowOverlay implements scene.Presenter.
func (h *WSHub) ShowOverlay(title, body string) {
	h.Broadcast(WSMessage{Type: MsgOverlay, Data: OverlayData{Title: title, Body: body}})
}

// HideOverlay implements scene.Presenter.
func (h *WSHub) HideOverlay() {
	h.Broadcast(WSMessage{Type: MsgOverlayHide})
}

// PublishScene implements engine.Sink.
func (h *WSHub) PublishScene(v engine.View) {
	h.Broadcast(WSMessage{Type: MsgScene, Data: v})
}

// PublishFrame implements engine.Sink.
func (h *WSHub) PublishFrame(f engine.Frame) {
	h.Broadcast(WSMessage{Type: MsgFrame, Data: f})
}

// PublishPanel implements engine.Sink.
func (h *WSHub) PublishPanel(cs []panel.Control) {
	h.Broadcast(WSMessage{Type: MsgPanel, Data: cs})
}

// ShowTooltip implements scene.Presenter.
func (c *WSClient) ShowTooltip(x, y float64, info scene.HoverInfo) {
	c.trySend(WSMessage{Type: MsgTooltip, Data: TooltipData{X: x, Y: y, Info: info, Lines: info.Lines()}})
}

// HideTooltip implements scene.Presenter.
func (c *WSClient) HideTooltip() {
	c.trySend(WSMessage{Type: MsgTooltipHide})
}

// ShowOverlay implements scene.Presenter.
func (c *WSClient) ShowOverlay(title, body string) {
	c.trySend(WSMessage{Type: MsgOverlay, Data: OverlayData{Title: title, Body: body}})
}

// HideOverlay implements scene.Presenter.
func (c *WSClient) HideOverlay() {
	c.trySend(WSMessage{Type: MsgOverlayHide})
}

// ============================================================
// Connections
// ============================================================

// handleWebSocket upgrades the connection, sends the current scene and
// panel, then streams hub messages out and input events in.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &WSClient{
		id:       uuid.NewString(),
		hub:      s.wsHub,
		send:     make(chan WSMessage, sendBuffer),
		keysDown: make(map[string]bool),
	}

	// Queue the initial state before the hub can write to or close send.
	if v, err := s.engine.Snapshot(r.Context()); err == nil {
		client.send <- WSMessage{Type: MsgScene, Data: v}
	}
	client.send <- WSMessage{Type: MsgPanel, Data: s.engine.Panel().Controls()}

	if !s.wsHub.Register(client) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	go wsWritePump(conn, client)
	go wsReadPump(conn, client, s)
}

// wsInput is a client message. Data is decoded according to Type.
type wsInput struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type (
	keyInput struct {
		Code string `json:"code"`
		Down bool   `json:"down"`
	}
	orbitInput struct {
		DX float64 `json:"dx"`
		DY float64 `json:"dy"`
	}
	zoomInput struct {
		Delta float64 `json:"delta"`
	}
	resizeInput struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	hoverInput struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	setInput struct {
		Name  string      `json:"name"`
		Value interface{} `json:"value"`
	}
	overlayInput struct {
		Visible bool `json:"visible"`
	}
)

// wsReadPump pumps messages from the WebSocket connection to the engine.
func wsReadPump(conn *websocket.Conn, client *WSClient, s *Server) {
	defer func() {
		// keys held by a vanished client would keep the shared camera flying
		if len(client.keysDown) > 0 {
			if err := s.engine.ReleaseKeys(context.Background()); err != nil {
				s.log.Debug("release keys", "client_id", client.id, "error", err)
			}
		}
		client.hub.Unregister(client)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("websocket read error", "client_id", client.id, "error", err)
			}
			break
		}

		var msg wsInput
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		reply, err := s.handleInput(context.Background(), client, msg)
		if err != nil {
			s.log.Debug("websocket input rejected", "client_id", client.id, "type", msg.Type, "error", err)
			reply = &WSMessage{Type: MsgError, Data: err.Error()}
		}
		if reply != nil {
			// The hub may already have dropped and closed a slow client.
			if !client.trySend(*reply) {
				break
			}
		}
	}
}

// trySend queues msg unless the hub has released the client.
func (c *WSClient) trySend(msg WSMessage) (ok bool) {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if c.gone {
		return false
	}
	select {
	case c.send <- msg:
	default:
	}
	return true
}

// handleInput applies one client message to the engine. The returned
// message, if any, goes back to the sender only, as do hover tooltips.
func (s *Server) handleInput(ctx context.Context, client *WSClient, msg wsInput) (*WSMessage, error) {
	switch msg.Type {
	case "ping":
		return &WSMessage{Type: MsgPong}, nil
	case "key":
		var in keyInput
		if err := decodeInput(msg, &in); err != nil {
			return nil, err
		}
		if in.Down {
			client.keysDown[in.Code] = true
		} else {
			delete(client.keysDown, in.Code)
		}
		return nil, s.engine.Key(ctx, in.Code, in.Down)
	case "orbit":
		var in orbitInput
		if err := decodeInput(msg, &in); err != nil {
			return nil, err
		}
		return nil, s.engine.Orbit(ctx, in.DX, in.DY)
	case "zoom":
		var in zoomInput
		if err := decodeInput(msg, &in); err != nil {
			return nil, err
		}
		return nil, s.engine.Zoom(ctx, in.Delta)
	case "resize":
		var in resizeInput
		if err := decodeInput(msg, &in); err != nil {
			return nil, err
		}
		return nil, s.engine.Resize(ctx, in.Width, in.Height)
	case "hover":
		var in hoverInput
		if err := decodeInput(msg, &in); err != nil {
			return nil, err
		}
		_, _, err := s.engine.Hover(ctx, in.X, in.Y, client)
		return nil, err
	case "overlay":
		var in overlayInput
		if err := decodeInput(msg, &in); err != nil {
			return nil, err
		}
		return nil, s.engine.SetOverlay(ctx, in.Visible)
	case "set":
		var in setInput
		if err := decodeInput(msg, &in); err != nil {
			return nil, err
		}
		return nil, s.engine.SetParam(ctx, in.Name, in.Value)
	default:
		return nil, fmt.Errorf("unknown message type %q", msg.Type)
	}
}

func decodeInput(msg wsInput, v interface{}) error {
	if len(msg.Data) == 0 || string(msg.Data) == "null" {
		return fmt.Errorf("%s: missing data", msg.Type)
	}
	if err := json.Unmarshal(msg.Data, v); err != nil {
		return fmt.Errorf("%s: %w", msg.Type, err)
	}
	return nil
}

// wsWritePump pumps messages from the hub to the WebSocket connection.
func wsWritePump(conn *websocket.Conn, client *WSClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}

			// Flush queued messages
			n := len(client.send)
			for i := 0; i < n; i++ {
				next, ok := <-client.send
				if !ok {
					return
				}
				if err := conn.WriteJSON(next); err != nil {
					return
				}
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
