// internal/app/realtime/event.go
package realtime

import "encoding/json"

// Server-to-client event names.
const (
	EventConnected         = "connected"
	EventUserJoined        = "user:joined"
	EventUserLeft          = "user:left"
	EventTaskCreated       = "task:created"
	EventTaskUpdated       = "task:updated"
	EventTaskDeleted       = "task:deleted"
	EventTaskMoved         = "task:moved"
	EventProjectUpdated    = "project:updated"
	EventProjectDeleted    = "project:deleted"
	EventCommentAdded      = "comment:added"
	EventFileUploaded      = "file:uploaded"
	EventFileDeleted       = "file:deleted"
	EventUserTyping        = "user:typing"
	EventUserStoppedTyping = "user:stopped-typing"
)

// Client-to-server message types.
const (
	MsgJoinProject  = "join:project"
	MsgLeaveProject = "leave:project"
	MsgTypingStart  = "typing:start"
	MsgTypingStop   = "typing:stop"
)

// Envelope is the wire frame in both directions: an event name plus a
// JSON payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// encodeEnvelope marshals an outbound frame once so every room member
// receives identical bytes.
func encodeEnvelope(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}

// clientSignal is the payload of join/leave/typing messages from a
// connection.
type clientSignal struct {
	ProjectID string `json:"projectId"`
	TaskID    string `json:"taskId,omitempty"`
}

// identity is the minimal user info carried on presence and typing
// events.
type identity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// presencePayload is the body of user:joined / user:left events.
type presencePayload struct {
	User      identity `json:"user"`
	ProjectID string   `json:"projectId"`
}

// typingPayload is the body of user:typing / user:stopped-typing events.
type typingPayload struct {
	User   identity `json:"user"`
	TaskID string   `json:"taskId"`
}
