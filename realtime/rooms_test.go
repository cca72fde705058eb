package realtime

import (
	"errors"
	"testing"
)

// fakeSession collects broadcast payloads in memory.
type fakeSession struct {
	id      string
	userID  string
	sent    [][]byte
	sendErr error
}

func (s *fakeSession) ID() string     { return s.id }
func (s *fakeSession) UserID() string { return s.userID }

func (s *fakeSession) Send(payload []byte) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, payload)
	return nil
}

func TestRooms_Broadcast(t *testing.T) {
	r := NewRooms()

	alice := &fakeSession{id: "s1", userID: "alice"}
	bob := &fakeSession{id: "s2", userID: "bob"}
	carol := &fakeSession{id: "s3", userID: "carol"}

	r.Join("chat-1", alice)
	r.Join("chat-1", bob)
	r.Join("chat-2", carol)

	delivered := r.Broadcast("chat-1", []byte("hello"))
	if delivered != 2 {
		t.Errorf("Broadcast() delivered = %d, want 2", delivered)
	}
	if len(alice.sent) != 1 || len(bob.sent) != 1 {
		t.Errorf("chat-1 members got %d/%d payloads, want 1/1", len(alice.sent), len(bob.sent))
	}
	if len(carol.sent) != 0 {
		t.Errorf("carol is not in chat-1 but got %d payloads", len(carol.sent))
	}
}

// A sender that never joined the room does not receive its own echo.
func TestRooms_SenderWithoutJoinGetsNoEcho(t *testing.T) {
	r := NewRooms()

	sender := &fakeSession{id: "s1", userID: "alice"}
	member := &fakeSession{id: "s2", userID: "bob"}

	r.Join("chat-1", member)

	delivered := r.Broadcast("chat-1", []byte("from alice"))
	if delivered != 1 {
		t.Errorf("Broadcast() delivered = %d, want 1", delivered)
	}
	if len(sender.sent) != 0 {
		t.Errorf("sender never joined the room but got %d payloads", len(sender.sent))
	}
	if len(member.sent) != 1 {
		t.Errorf("member got %d payloads, want 1", len(member.sent))
	}
}

func TestRooms_Leave(t *testing.T) {
	r := NewRooms()

	alice := &fakeSession{id: "s1", userID: "alice"}
	bob := &fakeSession{id: "s2", userID: "bob"}

	r.Join("chat-1", alice)
	r.Join("chat-1", bob)
	r.Leave("chat-1", alice.ID())

	delivered := r.Broadcast("chat-1", []byte("hello"))
	if delivered != 1 {
		t.Errorf("Broadcast() delivered = %d, want 1", delivered)
	}
	if len(alice.sent) != 0 {
		t.Errorf("alice left the room but got %d payloads", len(alice.sent))
	}
}

func TestRooms_LeaveAll(t *testing.T) {
	r := NewRooms()

	alice := &fakeSession{id: "s1", userID: "alice"}
	bob := &fakeSession{id: "s2", userID: "bob"}

	r.Join("chat-1", alice)
	r.Join("chat-2", alice)
	r.Join("chat-1", bob)

	r.LeaveAll(alice.ID())

	if got := r.Broadcast("chat-1", []byte("a")); got != 1 {
		t.Errorf("chat-1 Broadcast() delivered = %d, want 1", got)
	}
	if got := r.Broadcast("chat-2", []byte("b")); got != 0 {
		t.Errorf("chat-2 Broadcast() delivered = %d, want 0", got)
	}
	if len(alice.sent) != 0 {
		t.Errorf("alice left all rooms but got %d payloads", len(alice.sent))
	}
}

func TestRooms_BroadcastCountsFailedSends(t *testing.T) {
	r := NewRooms()

	ok := &fakeSession{id: "s1", userID: "alice"}
	broken := &fakeSession{id: "s2", userID: "bob", sendErr: errors.New("send buffer full")}

	r.Join("chat-1", ok)
	r.Join("chat-1", broken)

	if delivered := r.Broadcast("chat-1", []byte("hello")); delivered != 1 {
		t.Errorf("Broadcast() delivered = %d, want 1", delivered)
	}
}
