// internal/app/realtime/client.go
package realtime

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// pongWait is how long a connection may go silent before it is
	// considered dead; pingPeriod keeps it under that limit.
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second

	writeWait      = 10 * time.Second
	maxMessageSize = 4096
	sendBufferSize = 64
)

// Client is one live websocket session. A user with several tabs open
// holds several Clients, all members of the same personal room.
type Client struct {
	ID       string
	UserID   string
	UserName string

	hub  *Hub
	conn *websocket.Conn
	log  *zap.Logger

	send chan []byte

	// rooms is owned by the hub and only touched under its mutex.
	rooms map[string]struct{}
}

// NewClient wraps an upgraded connection. The client does nothing
// until Start is called.
func NewClient(hub *Hub, conn *websocket.Conn, id, userID, userName string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		ID:       id,
		UserID:   userID,
		UserName: userName,
		hub:      hub,
		conn:     conn,
		log:      log,
		send:     make(chan []byte, sendBufferSize),
		rooms:    make(map[string]struct{}),
	}
}

// Start launches the read and write pumps. Call after Register.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// connectedPayload is the welcome ack sent right after the handshake.
type connectedPayload struct {
	Message string `json:"message"`
	User    struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
}

// SendConnected queues the welcome ack confirming the session is live.
func (c *Client) SendConnected(userID, name, email string) {
	var p connectedPayload
	p.Message = "Successfully connected to real-time updates"
	p.User.ID = userID
	p.User.Name = name
	p.User.Email = email

	frame, err := encodeEnvelope(EventConnected, p)
	if err != nil {
		c.log.Error("encode connected ack", zap.Error(err))
		return
	}
	c.enqueue(frame)
}

// enqueue hands a frame to the write pump, dropping if the buffer is
// full.
func (c *Client) enqueue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// readPump consumes inbound messages until the connection dies, then
// unregisters the client. Runs on its own goroutine per connection.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("websocket read", zap.String("conn", c.ID), zap.Error(err))
			}
			return
		}
		c.handleMessage(raw)
	}
}

// handleMessage dispatches one inbound frame. Unknown or malformed
// frames are logged and skipped; they never tear down the connection.
func (c *Client) handleMessage(raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.log.Debug("malformed frame", zap.String("conn", c.ID), zap.Error(err))
		return
	}
	var sig clientSignal
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &sig); err != nil {
			c.log.Debug("malformed payload",
				zap.String("conn", c.ID),
				zap.String("event", env.Event),
				zap.Error(err))
			return
		}
	}

	switch env.Event {
	case MsgJoinProject:
		if sig.ProjectID != "" {
			c.hub.JoinProject(c, sig.ProjectID)
		}
	case MsgLeaveProject:
		if sig.ProjectID != "" {
			c.hub.LeaveProject(c, sig.ProjectID)
		}
	case MsgTypingStart:
		c.relayTyping(sig, EventUserTyping)
	case MsgTypingStop:
		c.relayTyping(sig, EventUserStoppedTyping)
	default:
		c.log.Debug("unknown event", zap.String("conn", c.ID), zap.String("event", env.Event))
	}
}

// relayTyping forwards a typing signal to the rest of the project room.
// The sender never receives its own indicator.
func (c *Client) relayTyping(sig clientSignal, event string) {
	if sig.ProjectID == "" {
		return
	}
	c.hub.Publish(sig.ProjectID, event, typingPayload{
		User:   identity{ID: c.UserID, Name: c.UserName},
		TaskID: sig.TaskID,
	}, c)
}

// writePump drains the send buffer onto the socket and keeps the
// connection alive with pings. Exits when the hub closes the send
// channel or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
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
