package ws_session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/humanbelnik/kinomatch/internal/model"
	usecase_presence "github.com/humanbelnik/kinomatch/internal/usecase/presence"
)

const (
	defaultQueue     = 256
	clientBuffer     = 64
	writeWait        = 10 * time.Second
	maxMessageSize   = 4096
	defaultPing      = 15 * time.Second
	defaultSweep     = 5 * time.Second
	heartbeatMessage = "heartbeat"
)

type Presence interface {
	Touch(sessionID, participantID uuid.UUID, conn string, now time.Time) bool
	Sweep(now time.Time) []usecase_presence.Change
	Forget(sessionID uuid.UUID)
	Timeout() time.Duration
}

// Relay carries presence changes to every instance. Without one the hub
// publishes them to itself.
type Relay interface {
	Publish(event model.Event)
}

type Client struct {
	hub           *Hub
	conn          *websocket.Conn
	send          chan []byte
	id            string
	sessionID     uuid.UUID
	participantID uuid.UUID
}

type Hub struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]map[*Client]struct{}

	queue    chan model.Event
	presence Presence
	relay    Relay
	clock    func() time.Time

	pingPeriod    time.Duration
	sweepInterval time.Duration

	logger *slog.Logger
}

type Option func(*Hub)

func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) { h.logger = l }
}

func WithRelay(r Relay) Option {
	return func(h *Hub) { h.relay = r }
}

func WithClock(clock func() time.Time) Option {
	return func(h *Hub) { h.clock = clock }
}

func WithIntervals(ping, sweep time.Duration) Option {
	return func(h *Hub) {
		if ping > 0 {
			h.pingPeriod = ping
		}
		if sweep > 0 {
			h.sweepInterval = sweep
		}
	}
}

func NewHub(presence Presence, opts ...Option) *Hub {
	h := &Hub{
		sessions:      make(map[uuid.UUID]map[*Client]struct{}),
		queue:         make(chan model.Event, defaultQueue),
		presence:      presence,
		clock:         time.Now,
		pingPeriod:    defaultPing,
		sweepInterval: defaultSweep,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.relay == nil {
		h.relay = h
	}
	return h
}

// Publish queues the event for delivery and returns immediately. When the
// queue is full the event is dropped.
func (h *Hub) Publish(event model.Event) {
	select {
	case h.queue <- event:
	default:
		h.logger.Warn("event queue full, event dropped",
			slog.String("session_id", event.SessionID.String()),
			slog.String("type", string(event.Kind)))
	}
}

func (h *Hub) Run(ctx context.Context) {
	sweep := time.NewTicker(h.sweepInterval)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case event := <-h.queue:
			h.broadcast(event)
		case <-sweep.C:
			for _, change := range h.presence.Sweep(h.clock()) {
				h.relay.Publish(model.NewPresenceChanged(change.SessionID, change.ParticipantID, change.Online))
			}
		}
	}
}

func (h *Hub) broadcast(event model.Event) {
	message, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to encode event", slog.String("error", err.Error()))
		return
	}

	var slow []*Client
	h.mu.RLock()
	for client := range h.sessions[event.SessionID] {
		select {
		case client.send <- message:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn("client too slow, dropped",
			slog.String("session_id", client.sessionID.String()),
			slog.String("participant_id", client.participantID.String()))
		h.remove(client)
	}

	if event.Kind == model.EventSessionClosed {
		h.closeSession(event.SessionID)
	}
}

// closeSession disconnects every client of a deleted session after its
// final event was queued and drops the session's presence silently.
func (h *Hub) closeSession(sessionID uuid.UUID) {
	h.mu.Lock()
	for client := range h.sessions[sessionID] {
		close(client.send)
	}
	delete(h.sessions, sessionID)
	h.mu.Unlock()

	h.presence.Forget(sessionID)
	h.logger.Info("session closed", slog.String("session_id", sessionID.String()))
}

// Attach registers the connection and starts its pumps. Ownership of conn
// passes to the hub.
func (h *Hub) Attach(conn *websocket.Conn, sessionID, participantID uuid.UUID) *Client {
	client := &Client{
		hub:           h,
		conn:          conn,
		send:          make(chan []byte, clientBuffer),
		id:            uuid.NewString(),
		sessionID:     sessionID,
		participantID: participantID,
	}

	h.mu.Lock()
	clients, ok := h.sessions[sessionID]
	if !ok {
		clients = make(map[*Client]struct{})
		h.sessions[sessionID] = clients
	}
	clients[client] = struct{}{}
	h.mu.Unlock()

	h.logger.Info("client registered",
		slog.String("session_id", sessionID.String()),
		slog.String("participant_id", participantID.String()))

	h.touch(client)

	go h.writePump(client)
	go h.readPump(client)

	return client
}

func (h *Hub) touch(client *Client) {
	if h.presence.Touch(client.sessionID, client.participantID, client.id, h.clock()) {
		h.relay.Publish(model.NewPresenceChanged(client.sessionID, client.participantID, true))
	}
}

// remove unregisters the client once and closes its send channel. Presence
// is left to the sweep.
func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.sessions[client.sessionID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.sessions, client.sessionID)
	}
	close(client.send)

	h.logger.Info("client unregistered",
		slog.String("session_id", client.sessionID.String()),
		slog.String("participant_id", client.participantID.String()))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sessionID, clients := range h.sessions {
		for client := range clients {
			close(client.send)
		}
		delete(h.sessions, sessionID)
	}
}

type inbound struct {
	Type string `json:"type"`
}

func (h *Hub) readPump(client *Client) {
	defer func() {
		h.remove(client)
		_ = client.conn.Close()
	}()

	deadline := h.presence.Timeout()
	client.conn.SetReadLimit(maxMessageSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(deadline))
	client.conn.SetPongHandler(func(string) error {
		h.touch(client)
		return client.conn.SetReadDeadline(time.Now().Add(deadline))
	})

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != heartbeatMessage {
			continue
		}
		h.touch(client)
		_ = client.conn.SetReadDeadline(time.Now().Add(deadline))
	}
}

func (h *Hub) writePump(client *Client) {
	ticker := time.NewTicker(h.pingPeriod)
	defer func() {
		ticker.Stop()
		_ = client.conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
