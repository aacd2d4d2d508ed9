package realtime

import (
	"testing"

	"go.uber.org/zap"
)

func TestHandleMessageJoinAndLeave(t *testing.T) {
	h := NewHub(zap.NewNop())
	a := newTestClient(h, "u1", "Ada")
	b := newTestClient(h, "u2", "Ben")
	h.Register(a)
	h.Register(b)
	h.JoinProject(a, "p1")
	drain(a)

	b.handleMessage([]byte(`{"event":"join:project","data":{"projectId":"p1"}}`))
	if h.RoomSize("p1") != 2 {
		t.Fatalf("room size after join message: got %d, want 2", h.RoomSize("p1"))
	}

	b.handleMessage([]byte(`{"event":"leave:project","data":{"projectId":"p1"}}`))
	if h.RoomSize("p1") != 1 {
		t.Fatalf("room size after leave message: got %d, want 1", h.RoomSize("p1"))
	}
}

func TestHandleMessageTypingRelay(t *testing.T) {
	h := NewHub(zap.NewNop())
	a := newTestClient(h, "u1", "Ada")
	b := newTestClient(h, "u2", "Ben")
	h.Register(a)
	h.Register(b)
	h.JoinProject(a, "p1")
	h.JoinProject(b, "p1")
	drain(a)
	drain(b)

	a.handleMessage([]byte(`{"event":"typing:start","data":{"projectId":"p1","taskId":"t1"}}`))

	if got := drain(a); len(got) != 0 {
		t.Errorf("typist received own indicator: %v", eventNames(got))
	}
	got := drain(b)
	if len(got) != 1 || got[0].Event != EventUserTyping {
		t.Fatalf("expected user:typing, got %v", eventNames(got))
	}

	a.handleMessage([]byte(`{"event":"typing:stop","data":{"projectId":"p1","taskId":"t1"}}`))
	got = drain(b)
	if len(got) != 1 || got[0].Event != EventUserStoppedTyping {
		t.Fatalf("expected user:stopped-typing, got %v", eventNames(got))
	}
}

func TestHandleMessageMalformedAndUnknownIgnored(t *testing.T) {
	h := NewHub(zap.NewNop())
	a := newTestClient(h, "u1", "Ada")
	h.Register(a)

	a.handleMessage([]byte(`not json`))
	a.handleMessage([]byte(`{"event":"join:project","data":"not an object"}`))
	a.handleMessage([]byte(`{"event":"no:such:event","data":{}}`))
	a.handleMessage([]byte(`{"event":"join:project","data":{}}`))

	if h.ConnCount() != 1 {
		t.Errorf("connection should survive bad frames")
	}
	if h.RoomSize("") != 0 {
		t.Errorf("empty project id should not create a room")
	}
}

func TestSendConnectedQueuesAck(t *testing.T) {
	h := NewHub(zap.NewNop())
	c := newTestClient(h, "u1", "Ada")
	h.Register(c)

	c.SendConnected("u1", "Ada", "ada@example.com")

	got := drain(c)
	if len(got) != 1 || got[0].Event != EventConnected {
		t.Fatalf("expected connected ack, got %v", eventNames(got))
	}
}
