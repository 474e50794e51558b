package gateway

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"
)

// recvFrame pops one frame off the client's send queue, decoded.
func recvFrame(t *testing.T, c *Client) *Frame {
	t.Helper()
	select {
	case payload := <-c.Send:
		f, err := ParseFrame(payload)
		if err != nil {
			t.Fatalf("bad outbound frame: %v", err)
		}
		return f
	case <-time.After(2 * time.Second):
		t.Fatalf("no frame delivered to conn=%s", c.ConnID)
		return nil
	}
}

// expectSilent asserts nothing lands on the client's queue.
func expectSilent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case payload := <-c.Send:
		t.Fatalf("unexpected frame for conn=%s: %s", c.ConnID, payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func setupRoom(t *testing.T, reg *Registry, room string, connIDs ...string) map[string]*Client {
	t.Helper()
	clients := make(map[string]*Client, len(connIDs))
	for _, id := range connIDs {
		c := newTestClient(id)
		reg.Register(c)
		if err := reg.AttachUser(id, "user-"+id); err != nil {
			t.Fatalf("attach %s: %v", id, err)
		}
		if err := reg.JoinRoom(id, room); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
		clients[id] = c
	}
	return clients
}

func TestBroadcastExcludesSender(t *testing.T) {
	reg := NewRegistry()
	b := NewBroadcaster(reg, NewFanout(2, 64))
	room := RoomChat("7")
	clients := setupRoom(t, reg, room, "sender", "m1", "m2")

	outsider := newTestClient("outsider")
	reg.Register(outsider)

	b.Broadcast(room, EvNewMessage, map[string]any{"content": "hi"}, "sender")

	for _, id := range []string{"m1", "m2"} {
		f := recvFrame(t, clients[id])
		if f.Event != EvNewMessage {
			t.Fatalf("conn=%s got event %q", id, f.Event)
		}
		if f.Data["content"] != "hi" {
			t.Fatalf("conn=%s got data %v", id, f.Data)
		}
	}
	expectSilent(t, clients["sender"])
	expectSilent(t, outsider)
}

func TestBroadcastExcludeNonMemberChangesNothing(t *testing.T) {
	reg := NewRegistry()
	b := NewBroadcaster(reg, NewFanout(2, 64))
	room := RoomChat("7")
	clients := setupRoom(t, reg, room, "m1", "m2")

	b.Broadcast(room, EvUserTyping, map[string]any{"is_typing": true}, "not-a-member")

	for _, c := range clients {
		recvFrame(t, c)
	}
}

func TestBroadcastEmptyRoomIsNoop(t *testing.T) {
	reg := NewRegistry()
	b := NewBroadcaster(reg, NewFanout(2, 64))
	b.Broadcast(RoomChat("empty"), EvNewMessage, map[string]any{"x": 1}, "")
}

func TestBroadcastOrderingWithinRoom(t *testing.T) {
	reg := NewRegistry()
	b := NewBroadcaster(reg, NewFanout(4, 256))
	room := RoomChat("ordered")

	const n = 50
	// Queue sized for the whole burst so nothing drops before the drain.
	rx := NewClient("rx", nil, n)
	reg.Register(rx)
	if err := reg.AttachUser("rx", "user-rx"); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := reg.JoinRoom("rx", room); err != nil {
		t.Fatalf("join: %v", err)
	}

	for i := 0; i < n; i++ {
		b.Broadcast(room, EvNewMessage, map[string]any{"seq": i}, "")
	}
	for i := 0; i < n; i++ {
		f := recvFrame(t, rx)
		seq, ok := f.Data["seq"].(float64)
		if !ok || int(seq) != i {
			t.Fatalf("frame %d out of order: %v", i, f.Data)
		}
	}
}

func TestSendToUserReachesEveryDevice(t *testing.T) {
	reg := NewRegistry()
	b := NewBroadcaster(reg, NewFanout(2, 64))
	room := RoomUser("u1")

	var devices []*Client
	for _, id := range []string{"phone", "laptop"} {
		c := newTestClient(id)
		reg.Register(c)
		if err := reg.AttachUser(id, "u1"); err != nil {
			t.Fatalf("attach: %v", err)
		}
		if err := reg.JoinRoom(id, room); err != nil {
			t.Fatalf("join: %v", err)
		}
		devices = append(devices, c)
	}

	b.SendToUser("u1", EvNewInvitation, map[string]any{"id": "inv1"})
	for _, c := range devices {
		f := recvFrame(t, c)
		if f.Event != EvNewInvitation || f.Data["id"] != "inv1" {
			t.Fatalf("conn=%s got %v %v", c.ConnID, f.Event, f.Data)
		}
	}
}

func TestBroadcastAllIncludesUnauthenticated(t *testing.T) {
	reg := NewRegistry()
	b := NewBroadcaster(reg, NewFanout(2, 64))

	authed := newTestClient("authed")
	reg.Register(authed)
	if err := reg.AttachUser("authed", "u1"); err != nil {
		t.Fatalf("attach: %v", err)
	}
	anon := newTestClient("anon")
	reg.Register(anon)

	b.BroadcastAll(EvUserStatus, map[string]any{"user_id": "u1", "status": "online"})
	for _, c := range []*Client{authed, anon} {
		f := recvFrame(t, c)
		if f.Event != EvUserStatus {
			t.Fatalf("conn=%s got event %q", c.ConnID, f.Event)
		}
	}
}

func TestSendToConnUnknownIsDropped(t *testing.T) {
	reg := NewRegistry()
	b := NewBroadcaster(reg, NewFanout(1, 8))
	b.SendToConn("ghost", EvError, map[string]any{"message": "x"})
}

func TestDisconnectDuringDeliveryDoesNotKillFanout(t *testing.T) {
	reg := NewRegistry()
	fan := NewFanout(1, 16) // one worker: both clients share the shard
	b := NewBroadcaster(reg, fan)
	room := RoomChat("racy")
	clients := setupRoom(t, reg, room, "leaver", "stayer")

	// Snapshot taken while the leaver is still a member, then the leaver
	// disconnects before the worker delivers.
	snapshot := reg.clientsOf(room, "")
	payload, err := EncodeEvent(EvNewMessage, map[string]any{"seq": 0})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	reg.Unregister("leaver")
	clients["leaver"].shutdown()
	fan.Deliver(room, snapshot, payload)

	f := recvFrame(t, clients["stayer"])
	if f.Event != EvNewMessage {
		t.Fatalf("event = %q", f.Event)
	}

	// The worker must survive the stale reference: a later broadcast on
	// the same shard still arrives.
	b.Broadcast(room, EvNewMessage, map[string]any{"seq": 1}, "")
	f = recvFrame(t, clients["stayer"])
	if seq, _ := f.Data["seq"].(float64); int(seq) != 1 {
		t.Fatalf("follow-up frame = %v", f.Data)
	}
}

func TestEnqueueAfterShutdownIsDropped(t *testing.T) {
	c := newTestClient("gone")
	c.shutdown()
	c.enqueue([]byte(`{"event":"x"}`)) // must not panic
	c.shutdown()                       // idempotent
	if _, ok := <-c.Send; ok {
		t.Fatal("queue should be closed and empty")
	}
}

func TestSlowClientDropsInsteadOfBlocking(t *testing.T) {
	reg := NewRegistry()
	b := NewBroadcaster(reg, NewFanout(1, 256))

	slow := NewClient("slow", nil, 2)
	reg.Register(slow)
	if err := reg.AttachUser("slow", "u1"); err != nil {
		t.Fatalf("attach: %v", err)
	}
	room := RoomChat("busy")
	if err := reg.JoinRoom("slow", room); err != nil {
		t.Fatalf("join: %v", err)
	}

	done := make(chan struct{})
	go func() {
		for i := 0; i < 20; i++ {
			b.Broadcast(room, EvNewMessage, map[string]any{"seq": i}, "")
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a slow client")
	}
}

// recordingBridge captures publishes and lets the test inject remote frames.
type recordingBridge struct {
	published []publishedEvent
	deliver   func(scope, key, event string, data []byte)
}

type publishedEvent struct {
	scope, key, event string
}

func (rb *recordingBridge) Publish(scope, key, event string, data []byte) error {
	rb.published = append(rb.published, publishedEvent{scope, key, event})
	return nil
}

func (rb *recordingBridge) Subscribe(fn func(scope, key, event string, data []byte)) error {
	rb.deliver = fn
	return nil
}

func TestBridgePublishOnBroadcast(t *testing.T) {
	reg := NewRegistry()
	b := NewBroadcaster(reg, NewFanout(1, 16))
	rb := &recordingBridge{}
	if err := b.AttachBridge(rb); err != nil {
		t.Fatalf("attach bridge: %v", err)
	}
	room := RoomChat("x")
	clients := setupRoom(t, reg, room, "c1")

	b.Broadcast(room, EvNewMessage, map[string]any{"content": "hi"}, "")
	recvFrame(t, clients["c1"])

	if len(rb.published) != 1 {
		t.Fatalf("published %d events, want 1", len(rb.published))
	}
	got := rb.published[0]
	if got.scope != ScopeRoom || got.key != room || got.event != EvNewMessage {
		t.Fatalf("published %+v", got)
	}
}

func TestBridgePublishOnSendToUser(t *testing.T) {
	reg := NewRegistry()
	b := NewBroadcaster(reg, NewFanout(1, 16))
	rb := &recordingBridge{}
	if err := b.AttachBridge(rb); err != nil {
		t.Fatalf("attach bridge: %v", err)
	}

	c := newTestClient("c1")
	reg.Register(c)
	if err := reg.AttachUser("c1", "u1"); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := reg.JoinRoom("c1", RoomUser("u1")); err != nil {
		t.Fatalf("join: %v", err)
	}

	b.SendToUser("u1", EvNewInvitation, map[string]any{"id": "inv1"})
	recvFrame(t, c)

	if len(rb.published) != 1 {
		t.Fatalf("published %d events, want 1", len(rb.published))
	}
	got := rb.published[0]
	if got.scope != ScopeUser || got.key != "u1" || got.event != EvNewInvitation {
		t.Fatalf("published %+v", got)
	}

	// A remote node's user-scoped frame resolves the personal room locally.
	payload, err := EncodeEvent(EvNewInvitation, map[string]any{"id": "inv2"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	rb.deliver(ScopeUser, "u1", EvNewInvitation, payload)
	f := recvFrame(t, c)
	if f.Data["id"] != "inv2" {
		t.Fatalf("bridged frame = %v", f.Data)
	}
}

func TestBridgeDeliversRemoteFrameLocally(t *testing.T) {
	reg := NewRegistry()
	b := NewBroadcaster(reg, NewFanout(1, 16))
	rb := &recordingBridge{}
	if err := b.AttachBridge(rb); err != nil {
		t.Fatalf("attach bridge: %v", err)
	}
	room := RoomChat("x")
	clients := setupRoom(t, reg, room, "c1")

	payload, err := EncodeEvent(EvNewMessage, map[string]any{"content": "remote"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	rb.deliver(ScopeRoom, room, EvNewMessage, payload)

	f := recvFrame(t, clients["c1"])
	if f.Data["content"] != "remote" {
		t.Fatalf("got %v", f.Data)
	}
	// Remote frames must not be re-published.
	if len(rb.published) != 0 {
		t.Fatalf("remote frame looped back into publish: %+v", rb.published)
	}
}

func TestEncodeEventShape(t *testing.T) {
	payload, err := EncodeEvent(EvAuthenticated, map[string]any{"user_id": "u1"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var got map[string]json.RawMessage
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(got["event"]) != fmt.Sprintf("%q", EvAuthenticated) {
		t.Fatalf("event field = %s", got["event"])
	}
	if _, ok := got["data"]; !ok {
		t.Fatal("missing data field")
	}
}
