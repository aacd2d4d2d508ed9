package realtime

import (
	"encoding/json"
	"testing"

	"go.uber.org/zap"
)

func newTestClient(h *Hub, userID, name string) *Client {
	return NewClient(h, nil, userID+"-conn", userID, name, zap.NewNop())
}

// drain reads every frame currently buffered on the client.
func drain(c *Client) []Envelope {
	var out []Envelope
	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				return out
			}
			var env Envelope
			if err := json.Unmarshal(frame, &env); err == nil {
				out = append(out, env)
			}
		default:
			return out
		}
	}
}

func eventNames(envs []Envelope) []string {
	names := make([]string, len(envs))
	for i, e := range envs {
		names[i] = e.Event
	}
	return names
}

func TestRegisterPlacesClientInPersonalRoom(t *testing.T) {
	h := NewHub(zap.NewNop())
	c := newTestClient(h, "u1", "Ada")
	h.Register(c)

	if h.ConnCount() != 1 {
		t.Fatalf("conn count: got %d, want 1", h.ConnCount())
	}
	h.PublishToUser("u1", EventTaskUpdated, map[string]string{"x": "y"})
	got := drain(c)
	if len(got) != 1 || got[0].Event != EventTaskUpdated {
		t.Fatalf("personal room delivery: got %v", eventNames(got))
	}
}

func TestJoinProjectBroadcastsToOthersOnly(t *testing.T) {
	h := NewHub(zap.NewNop())
	a := newTestClient(h, "u1", "Ada")
	b := newTestClient(h, "u2", "Ben")
	h.Register(a)
	h.Register(b)

	h.JoinProject(a, "p1")
	h.JoinProject(b, "p1")

	aGot := drain(a)
	if len(aGot) != 1 || aGot[0].Event != EventUserJoined {
		t.Errorf("a should see b's join only, got %v", eventNames(aGot))
	}
	bGot := drain(b)
	if len(bGot) != 0 {
		t.Errorf("joiner should not see own join, got %v", eventNames(bGot))
	}
}

func TestRejoinStillBroadcastsButMembershipStable(t *testing.T) {
	h := NewHub(zap.NewNop())
	a := newTestClient(h, "u1", "Ada")
	b := newTestClient(h, "u2", "Ben")
	h.Register(a)
	h.Register(b)
	h.JoinProject(a, "p1")
	h.JoinProject(b, "p1")
	drain(a)
	drain(b)

	h.JoinProject(b, "p1")

	if h.RoomSize("p1") != 2 {
		t.Errorf("room size after rejoin: got %d, want 2", h.RoomSize("p1"))
	}
	aGot := drain(a)
	if len(aGot) != 1 || aGot[0].Event != EventUserJoined {
		t.Errorf("rejoin should still announce, got %v", eventNames(aGot))
	}
}

func TestPublishExcludesSenderAndPreservesOrder(t *testing.T) {
	h := NewHub(zap.NewNop())
	a := newTestClient(h, "u1", "Ada")
	b := newTestClient(h, "u2", "Ben")
	h.Register(a)
	h.Register(b)
	h.JoinProject(a, "p1")
	h.JoinProject(b, "p1")
	drain(a)
	drain(b)

	h.Publish("p1", EventTaskCreated, map[string]string{"seq": "1"}, a)
	h.Publish("p1", EventTaskUpdated, map[string]string{"seq": "2"}, a)

	if got := drain(a); len(got) != 0 {
		t.Errorf("excluded client received events: %v", eventNames(got))
	}
	got := drain(b)
	want := []string{EventTaskCreated, EventTaskUpdated}
	if len(got) != len(want) {
		t.Fatalf("event count: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Event != want[i] {
			t.Errorf("event %d: got %s, want %s", i, got[i].Event, want[i])
		}
	}
}

func TestLeaveProjectStopsDeliveryAndAnnounces(t *testing.T) {
	h := NewHub(zap.NewNop())
	a := newTestClient(h, "u1", "Ada")
	b := newTestClient(h, "u2", "Ben")
	h.Register(a)
	h.Register(b)
	h.JoinProject(a, "p1")
	h.JoinProject(b, "p1")
	drain(a)
	drain(b)

	h.LeaveProject(b, "p1")

	aGot := drain(a)
	if len(aGot) != 1 || aGot[0].Event != EventUserLeft {
		t.Errorf("remaining member should see user:left, got %v", eventNames(aGot))
	}

	h.Publish("p1", EventTaskCreated, nil, nil)
	if got := drain(b); len(got) != 0 {
		t.Errorf("departed client received events: %v", eventNames(got))
	}
	if got := drain(a); len(got) != 1 || got[0].Event != EventTaskCreated {
		t.Errorf("remaining member should still get room events, got %v", eventNames(got))
	}

	// Leaving twice is a no-op.
	h.LeaveProject(b, "p1")
	if got := drain(a); len(got) != 0 {
		t.Errorf("double leave should not announce again, got %v", eventNames(got))
	}
}

func TestUnregisterLeavesEveryRoom(t *testing.T) {
	h := NewHub(zap.NewNop())
	a := newTestClient(h, "u1", "Ada")
	b := newTestClient(h, "u2", "Ben")
	h.Register(a)
	h.Register(b)
	h.JoinProject(a, "p1")
	h.JoinProject(a, "p2")
	h.JoinProject(b, "p1")
	drain(a)
	drain(b)

	h.Unregister(a)

	bGot := drain(b)
	if len(bGot) != 1 || bGot[0].Event != EventUserLeft {
		t.Errorf("b should see a leave p1, got %v", eventNames(bGot))
	}
	if h.ConnCount() != 1 {
		t.Errorf("conn count after unregister: got %d, want 1", h.ConnCount())
	}
	if h.RoomSize("p1") != 1 {
		t.Errorf("p1 size: got %d, want 1", h.RoomSize("p1"))
	}
	if h.RoomSize("p2") != 0 {
		t.Errorf("p2 size: got %d, want 0", h.RoomSize("p2"))
	}

	// Unregister is idempotent.
	h.Unregister(a)
	if h.ConnCount() != 1 {
		t.Errorf("conn count after double unregister: got %d", h.ConnCount())
	}
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	h := NewHub(zap.NewNop())
	a := newTestClient(h, "u1", "Ada")
	b := newTestClient(h, "u2", "Ben")
	h.Register(a)
	h.Register(b)
	h.JoinProject(a, "p1")
	h.JoinProject(b, "p1")
	drain(a)
	drain(b)

	for i := 0; i < sendBufferSize+10; i++ {
		h.Publish("p1", EventTaskUpdated, map[string]int{"seq": i}, a)
	}

	got := drain(b)
	if len(got) != sendBufferSize {
		t.Errorf("buffered events: got %d, want %d", len(got), sendBufferSize)
	}
	// The hub must survive the overflow and keep serving others.
	h.Publish("p1", EventTaskCreated, nil, b)
	if got := drain(a); len(got) == 0 {
		t.Error("hub stopped delivering after overflow")
	}
}
