package gateway

import (
	"errors"
	"sort"
	"testing"

	"github.com/vkmindia80/Unified/tools/errs"
)

func newTestClient(connID string) *Client {
	return NewClient(connID, nil, 16)
}

func TestJoinRoomRequiresAuthentication(t *testing.T) {
	reg := NewRegistry()
	c := newTestClient("c1")
	reg.Register(c)

	err := reg.JoinRoom("c1", RoomChat("42"))
	if err == nil {
		t.Fatal("expected join to fail before authenticate")
	}
	if !errors.Is(err, errs.ErrNotAuthenticated) {
		t.Fatalf("expected not-authenticated error, got %v", err)
	}
	if got := reg.MembersOf(RoomChat("42")); len(got) != 0 {
		t.Fatalf("room should stay empty, got %v", got)
	}

	if err := reg.AttachUser("c1", "u1"); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := reg.JoinRoom("c1", RoomChat("42")); err != nil {
		t.Fatalf("join after auth: %v", err)
	}
	if got := reg.MembersOf(RoomChat("42")); len(got) != 1 || got[0] != "c1" {
		t.Fatalf("unexpected members %v", got)
	}
}

func TestAttachUserUnknownConnection(t *testing.T) {
	reg := NewRegistry()
	err := reg.AttachUser("ghost", "u1")
	if !errors.Is(err, errs.ErrUnknownConnection) {
		t.Fatalf("expected unknown-connection error, got %v", err)
	}
}

func TestAttachUserIdempotentAndRebind(t *testing.T) {
	reg := NewRegistry()
	reg.Register(newTestClient("c1"))

	if err := reg.AttachUser("c1", "u1"); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := reg.AttachUser("c1", "u1"); err != nil {
		t.Fatalf("second attach same user should be a no-op: %v", err)
	}
	if n := reg.CountUserConns("u1"); n != 1 {
		t.Fatalf("u1 conns = %d, want 1", n)
	}

	// Re-authenticate as a different user moves the index.
	if err := reg.AttachUser("c1", "u2"); err != nil {
		t.Fatalf("rebind: %v", err)
	}
	if n := reg.CountUserConns("u1"); n != 0 {
		t.Fatalf("u1 conns after rebind = %d, want 0", n)
	}
	if id, ok := reg.UserOf("c1"); !ok || id != "u2" {
		t.Fatalf("UserOf = %q/%v, want u2", id, ok)
	}
}

func TestMembersOfSnapshot(t *testing.T) {
	reg := NewRegistry()
	for _, id := range []string{"a", "b", "c"} {
		reg.Register(newTestClient(id))
		if err := reg.AttachUser(id, "u-"+id); err != nil {
			t.Fatalf("attach %s: %v", id, err)
		}
	}
	room := RoomChat("chat9")
	for _, id := range []string{"a", "b"} {
		if err := reg.JoinRoom(id, room); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
	}

	got := reg.MembersOf(room)
	sort.Strings(got)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("members = %v, want [a b]", got)
	}
	if got := reg.MembersOf(RoomChat("nowhere")); len(got) != 0 {
		t.Fatalf("unknown room should be empty, got %v", got)
	}
}

func TestLeaveRoomNoopForNonMember(t *testing.T) {
	reg := NewRegistry()
	reg.Register(newTestClient("c1"))
	// Neither an unknown conn nor a non-member leave should panic or error.
	reg.LeaveRoom("ghost", RoomChat("1"))
	reg.LeaveRoom("c1", RoomChat("1"))
}

func TestUnregisterRemovesFromEveryRoom(t *testing.T) {
	reg := NewRegistry()
	reg.Register(newTestClient("c1"))
	if err := reg.AttachUser("c1", "u1"); err != nil {
		t.Fatalf("attach: %v", err)
	}
	rooms := []string{RoomChat("1"), RoomChat("2"), RoomUser("u1")}
	for _, rm := range rooms {
		if err := reg.JoinRoom("c1", rm); err != nil {
			t.Fatalf("join %s: %v", rm, err)
		}
	}

	userID, last := reg.Unregister("c1")
	if userID != "u1" || !last {
		t.Fatalf("Unregister = %q/%v, want u1/true", userID, last)
	}
	for _, rm := range rooms {
		if got := reg.MembersOf(rm); len(got) != 0 {
			t.Fatalf("room %s still has members %v", rm, got)
		}
	}
	if _, ok := reg.UserOf("c1"); ok {
		t.Fatal("conn should be gone")
	}
}

func TestUnregisterLastFlagMultiDevice(t *testing.T) {
	reg := NewRegistry()
	for _, id := range []string{"phone", "laptop"} {
		reg.Register(newTestClient(id))
		if err := reg.AttachUser(id, "u1"); err != nil {
			t.Fatalf("attach %s: %v", id, err)
		}
	}

	if userID, last := reg.Unregister("phone"); userID != "u1" || last {
		t.Fatalf("first device Unregister = %q/%v, want u1/false", userID, last)
	}
	if userID, last := reg.Unregister("laptop"); userID != "u1" || !last {
		t.Fatalf("last device Unregister = %q/%v, want u1/true", userID, last)
	}
}

func TestUnregisterUnauthenticated(t *testing.T) {
	reg := NewRegistry()
	reg.Register(newTestClient("c1"))
	if userID, last := reg.Unregister("c1"); userID != "" || last {
		t.Fatalf("Unregister = %q/%v, want empty/false", userID, last)
	}
	// Unknown conn is tolerated.
	if userID, last := reg.Unregister("c1"); userID != "" || last {
		t.Fatalf("double Unregister = %q/%v, want empty/false", userID, last)
	}
}
