// internal/app/realtime/hub.go
package realtime

import (
	"sync"

	"go.uber.org/zap"
)

// Hub tracks live connections and room membership, and fans events out
// to rooms. All state lives behind one mutex; publishing never blocks
// on a slow consumer because each connection buffers its own outbound
// queue and drops when the buffer is full.
type Hub struct {
	log *zap.Logger

	mu    sync.RWMutex
	conns map[*Client]struct{}
	rooms map[string]map[*Client]struct{}
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		log:   log,
		conns: make(map[*Client]struct{}),
		rooms: make(map[string]map[*Client]struct{}),
	}
}

func projectRoom(projectID string) string { return "project:" + projectID }
func userRoom(userID string) string       { return "user:" + userID }

// Register adds a connection to the hub and places it in its personal
// room so direct notifications reach every open session of the user.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.conns[c] = struct{}{}
	h.joinLocked(c, userRoom(c.UserID))
	h.log.Debug("connection registered",
		zap.String("conn", c.ID),
		zap.String("user", c.UserID))
}

// Unregister removes a connection from every room it occupies and
// broadcasts user:left to each project room it was in. Safe to call
// more than once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[c]; !ok {
		return
	}
	delete(h.conns, c)

	for room := range c.rooms {
		h.leaveLocked(c, room)
		if isProjectRoom(room) {
			h.broadcastLocked(room, EventUserLeft, presencePayload{
				User:      identity{ID: c.UserID, Name: c.UserName},
				ProjectID: projectIDFromRoom(room),
			}, c)
		}
	}
	close(c.send)
	h.log.Debug("connection unregistered",
		zap.String("conn", c.ID),
		zap.String("user", c.UserID))
}

// JoinProject adds the connection to a project room and announces the
// arrival to the other members. Joining a room the connection is
// already in still announces; clients treat repeats as a no-op.
func (h *Hub) JoinProject(c *Client, projectID string) {
	room := projectRoom(projectID)

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[c]; !ok {
		return
	}
	h.joinLocked(c, room)
	h.broadcastLocked(room, EventUserJoined, presencePayload{
		User:      identity{ID: c.UserID, Name: c.UserName},
		ProjectID: projectID,
	}, c)
}

// LeaveProject removes the connection from a project room and announces
// the departure. Leaving a room the connection is not in is a no-op.
func (h *Hub) LeaveProject(c *Client, projectID string) {
	room := projectRoom(projectID)

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := c.rooms[room]; !ok {
		return
	}
	h.leaveLocked(c, room)
	h.broadcastLocked(room, EventUserLeft, presencePayload{
		User:      identity{ID: c.UserID, Name: c.UserName},
		ProjectID: projectID,
	}, c)
}

// Publish fans an event out to every member of a project room, minus
// exclude (usually the originator). Payloads are marshaled once.
func (h *Hub) Publish(projectID, event string, payload any, exclude *Client) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.broadcastLocked(projectRoom(projectID), event, payload, exclude)
}

// PublishToUser delivers an event to every open session of one user.
func (h *Hub) PublishToUser(userID, event string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.broadcastLocked(userRoom(userID), event, payload, nil)
}

// RoomSize reports how many connections are in a project room.
func (h *Hub) RoomSize(projectID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[projectRoom(projectID)])
}

// ConnCount reports how many connections the hub is tracking.
func (h *Hub) ConnCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) joinLocked(c *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

func (h *Hub) leaveLocked(c *Client, room string) {
	delete(c.rooms, room)
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

func (h *Hub) broadcastLocked(room, event string, payload any, exclude *Client) {
	members := h.rooms[room]
	if len(members) == 0 {
		return
	}
	frame, err := encodeEnvelope(event, payload)
	if err != nil {
		h.log.Error("encode event", zap.String("event", event), zap.Error(err))
		return
	}
	for c := range members {
		if c == exclude {
			continue
		}
		select {
		case c.send <- frame:
		default:
			h.log.Warn("send buffer full, dropping event",
				zap.String("event", event),
				zap.String("conn", c.ID),
				zap.String("user", c.UserID))
		}
	}
}

func isProjectRoom(room string) bool {
	return len(room) > len("project:") && room[:len("project:")] == "project:"
}

func projectIDFromRoom(room string) string {
	return room[len("project:"):]
}
