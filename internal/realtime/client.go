package realtime

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/schema"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 4 * 1024

	// Outbound buffer per client; a slow consumer never blocks the hub.
	sendBufSize = 64
)

// Send pings to peer with this period. Must be less than pongWait.
var pingPeriod = (pongWait * 9) / 10

// Connection states.
const (
	stateConnecting int32 = iota
	stateOpen
	stateClosed
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     safeCheckOrigin,
}

var queryDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

// safeCheckOrigin validates websocket connection origins. Empty origins
// (non-browser clients) and same-host origins are accepted; same host across
// different ports covers local development.
func safeCheckOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	u, err := url.Parse(origin)
	if err != nil {
		return false
	}

	if strings.EqualFold(u.Host, r.Host) {
		return true
	}

	originHost := strings.Split(u.Host, ":")[0]
	requestHost := strings.Split(r.Host, ":")[0]
	return strings.EqualFold(originHost, requestHost)
}

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	ID     string
	UserID string
	TeamID string

	hub  *Hub
	conn *websocket.Conn

	// Buffered channel of outbound messages, drained by writePump.
	send chan Message

	state atomic.Int32

	mu           sync.Mutex
	sendClosed   bool
	lastActivity time.Time
}

// Open reports whether the connection is in the open state.
func (c *Client) Open() bool {
	return c.state.Load() == stateOpen
}

// LastActivity returns the time of the last inbound frame.
func (c *Client) LastActivity() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActivity
}

func (c *Client) touch() {
	c.mu.Lock()
	c.lastActivity = time.Now()
	c.mu.Unlock()
}

// ServeWS upgrades an HTTP request to a websocket connection and registers
// the resulting client with the hub. Requests missing userId or teamId are
// upgraded and then immediately closed with a policy-violation code.
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Websocket upgrade failed", "error", err)
		return
	}

	var params ConnectParams
	if err := queryDecoder.Decode(&params, r.URL.Query()); err != nil || params.UserID == "" || params.TeamID == "" {
		slog.Warn("Rejecting connection without identity", "remote", r.RemoteAddr)
		deadline := time.Now().Add(writeWait)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "userId and teamId are required"),
			deadline)
		conn.Close()
		return
	}

	client := &Client{
		ID:           uuid.NewString(),
		UserID:       params.UserID,
		TeamID:       params.TeamID,
		hub:          hub,
		conn:         conn,
		send:         make(chan Message, sendBufSize),
		lastActivity: time.Now(),
	}

	if !hub.Register(client) {
		conn.Close()
		return
	}

	// The hub may shut down between Register and here; markOpen and enqueue
	// lose that race cleanly instead of pushing onto a closed channel.
	if !client.markOpen() || !client.enqueue(Message{
		Type:      TypeConnectionEstablished,
		ClientID:  client.ID,
		Timestamp: time.Now().UTC(),
	}) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump pumps control messages from the websocket connection to the hub.
//
// The application runs readPump in a per-connection goroutine, ensuring at
// most one reader per connection.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				slog.Warn("Websocket connection closed unexpectedly", "client_id", c.ID, "error", err)
			}
			return
		}
		c.touch()
		c.handleMessage(msg)
	}
}

// handleMessage processes one inbound control frame.
func (c *Client) handleMessage(msg Message) {
	switch msg.Type {
	case TypeSubscribe:
		if msg.WorkflowID == "" {
			return
		}
		c.hub.registry.Subscribe(c.ID, msg.WorkflowID)
		c.enqueue(Message{
			Type:       TypeSubscriptionConfirmed,
			WorkflowID: msg.WorkflowID,
			Timestamp:  time.Now().UTC(),
		})
		slog.Debug("Client subscribed", "client_id", c.ID, "workflow_id", msg.WorkflowID)
	case TypeUnsubscribe:
		if msg.WorkflowID == "" {
			return
		}
		c.hub.registry.Unsubscribe(c.ID, msg.WorkflowID)
		c.enqueue(Message{
			Type:       TypeUnsubscriptionConfirmed,
			WorkflowID: msg.WorkflowID,
			Timestamp:  time.Now().UTC(),
		})
		slog.Debug("Client unsubscribed", "client_id", c.ID, "workflow_id", msg.WorkflowID)
	default:
		slog.Warn("Ignoring unknown message type", "client_id", c.ID, "type", msg.Type)
	}
}

// enqueue pushes a message to the client's outbound buffer without ever
// blocking the caller. A full buffer drops the frame; the hub treats the
// client as slow, not failed. The mutex serializes enqueue against
// closeSend so a frame is never pushed onto a closed channel.
func (c *Client) enqueue(msg Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendClosed || c.state.Load() != stateOpen {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		slog.Warn("Dropping frame for slow client", "client_id", c.ID, "type", msg.Type)
		return false
	}
}

// markOpen transitions a freshly registered client to the open state.
// Returns false when the hub already closed the client, so the handshake
// never races a send against closeSend.
func (c *Client) markOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.CompareAndSwap(stateConnecting, stateOpen)
}

// closeSend transitions the client to closed and closes its outbound
// channel, which makes writePump emit a close frame and exit. The channel
// is closed exactly once, regardless of which side marked the client
// closed first.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Store(stateClosed)
	if c.sendClosed {
		return
	}
	c.sendClosed = true
	close(c.send)
}

// writePump pumps messages from the hub to the websocket connection.
//
// A goroutine running writePump is started per connection, ensuring at most
// one writer per connection. A write failure tears down only this client.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.state.Store(stateClosed)
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				slog.Warn("Write failed, disconnecting client", "client_id", c.ID, "error", err)
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
