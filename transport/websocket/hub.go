package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wricardo/rushhour/game/engine"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Frames buffered per client before it is dropped as too slow.
	sendBuffer = 64
)

// Events pushed to clients
const (
	EventSnapshot    = "snapshot"
	EventStateUpdate = "state_update"
	EventSolution    = "solution"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		return true
	},
}

// Message is one frame sent to a watcher. Seq increases by one for every
// frame sent to a session, so a client can discard boards older than one it
// has already drawn.
type Message struct {
	SessionID string            `json:"session_id"`
	Seq       uint64            `json:"seq"`
	Event     string            `json:"event"`
	GameState *engine.GameState `json:"game_state,omitempty"`
	Data      interface{}       `json:"data,omitempty"`
}

// Client is one connection watching a session.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
	// snapshot is sent to this client alone when it registers.
	snapshot *engine.GameState
}

// room is the set of clients watching one session.
type room struct {
	clients map[*Client]struct{}
	seq     uint64
}

// Hub fans board updates out to the clients watching each session. Its
// rooms are owned by the Run goroutine; everything else talks to it over
// channels.
type Hub struct {
	rooms      map[string]*room
	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	inspect    chan func()
	done       chan struct{}
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]*room),
		broadcast:  make(chan *Message, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inspect:    make(chan func()),
		done:       make(chan struct{}),
	}
}

// Run owns the hub until ctx is done, then closes every client still
// connected.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, r := range h.rooms {
				for client := range r.clients {
					h.leave(client)
				}
			}
			return

		case client := <-h.register:
			h.join(client)

		case client := <-h.unregister:
			h.leave(client)

		case message := <-h.broadcast:
			h.publish(message)

		case fn := <-h.inspect:
			fn()
		}
	}
}

// ServeWS upgrades the request and subscribes it to sessionID. When current
// is not nil it is sent first, so a new watcher sees the board without
// waiting for the next move.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string, current *engine.GameState) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		sessionID: sessionID,
		snapshot:  current,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// BroadcastToSession pushes a new board to everyone watching sessionID
func (h *Hub) BroadcastToSession(sessionID string, state *engine.GameState) {
	h.send(&Message{SessionID: sessionID, Event: EventStateUpdate, GameState: state})
}

// BroadcastSolution pushes a computed solution to the session's watchers
func (h *Hub) BroadcastSolution(sessionID string, solution interface{}) {
	h.BroadcastEvent(sessionID, EventSolution, solution)
}

// BroadcastEvent sends a custom event to all clients in a session
func (h *Hub) BroadcastEvent(sessionID string, event string, data interface{}) {
	h.send(&Message{SessionID: sessionID, Event: event, Data: data})
}

func (h *Hub) send(message *Message) {
	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}

// query runs fn on the Run goroutine. It reports false once the hub has
// stopped.
func (h *Hub) query(fn func()) bool {
	finished := make(chan struct{})
	select {
	case h.inspect <- func() { fn(); close(finished) }:
		<-finished
		return true
	case <-h.done:
		return false
	}
}

// ClientCount returns the number of clients watching a session
func (h *Hub) ClientCount(sessionID string) int {
	n := 0
	h.query(func() {
		if r, ok := h.rooms[sessionID]; ok {
			n = len(r.clients)
		}
	})
	return n
}

// Watched returns how many clients watch each session that has any.
func (h *Hub) Watched() map[string]int {
	counts := map[string]int{}
	h.query(func() {
		for id, r := range h.rooms {
			counts[id] = len(r.clients)
		}
	})
	return counts
}

func (h *Hub) join(client *Client) {
	r, ok := h.rooms[client.sessionID]
	if !ok {
		r = &room{clients: make(map[*Client]struct{})}
		h.rooms[client.sessionID] = r
	}
	r.clients[client] = struct{}{}

	if client.snapshot != nil {
		r.seq++
		h.deliver(client, &Message{
			SessionID: client.sessionID,
			Seq:       r.seq,
			Event:     EventSnapshot,
			GameState: client.snapshot,
		})
		client.snapshot = nil
	}

	log.Printf("Watcher joined session %s (%d watching)", client.sessionID, len(r.clients))
}

func (h *Hub) leave(client *Client) {
	r, ok := h.rooms[client.sessionID]
	if !ok {
		return
	}
	if _, ok := r.clients[client]; !ok {
		return
	}

	delete(r.clients, client)
	close(client.send)
	if len(r.clients) == 0 {
		delete(h.rooms, client.sessionID)
	}

	log.Printf("Watcher left session %s (%d watching)", client.sessionID, len(r.clients))
}

// publish numbers message and queues it for every watcher of its session.
func (h *Hub) publish(message *Message) {
	r, ok := h.rooms[message.SessionID]
	if !ok {
		return
	}

	r.seq++
	message.Seq = r.seq

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Failed to marshal %s message: %v", message.Event, err)
		return
	}

	for client := range r.clients {
		h.queue(client, data)
	}
}

func (h *Hub) deliver(client *Client, message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Failed to marshal %s message: %v", message.Event, err)
		return
	}
	h.queue(client, data)
}

// queue hands data to client's write pump, dropping the client when its
// buffer is full.
func (h *Hub) queue(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		log.Printf("Dropping slow watcher of session %s", client.sessionID)
		h.leave(client)
	}
}

// readPump keeps the connection's deadlines fresh. Client frames carry no
// commands and are discarded.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
	}
}

// writePump writes queued frames, one JSON message per frame, and pings the
// peer while idle.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
