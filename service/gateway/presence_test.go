package gateway

import (
	"context"
	"sync"
	"testing"
	"time"

	usermodel "github.com/vkmindia80/Unified/module/user/model"
	"github.com/vkmindia80/Unified/tools/errs"
)

// fakeAccounts is an in-memory AccountStore for gateway tests.
type fakeAccounts struct {
	mu       sync.Mutex
	users    map[string]*usermodel.User
	statuses []statusChange
}

type statusChange struct {
	userID, status string
}

func newFakeAccounts(users ...*usermodel.User) *fakeAccounts {
	fa := &fakeAccounts{users: make(map[string]*usermodel.User)}
	for _, u := range users {
		fa.users[u.ID] = u
	}
	return fa
}

func (f *fakeAccounts) FindByID(_ context.Context, id string) (*usermodel.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, errs.ErrRecordNotFound.WrapMsg("user", "id", id)
	}
	return u, nil
}

func (f *fakeAccounts) SetStatus(_ context.Context, id, status string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, statusChange{id, status})
	if u, ok := f.users[id]; ok {
		u.Status = status
	}
	return nil
}

func (f *fakeAccounts) AwardPoints(_ context.Context, userID string, points int, _, _ string) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return 0, 0, errs.ErrRecordNotFound.WrapMsg("user", "id", userID)
	}
	u.Points += points
	u.Level = usermodel.CalculateLevel(u.Points)
	return u.Points, u.Level, nil
}

func (f *fakeAccounts) lastStatus() (statusChange, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.statuses) == 0 {
		return statusChange{}, false
	}
	return f.statuses[len(f.statuses)-1], true
}

// fakeCache records presence cache calls.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string // user -> gateway id, absent when offline
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]string)}
}

func (f *fakeCache) Online(_ context.Context, user, gatewayID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[user] = gatewayID
	return nil
}

func (f *fakeCache) Offline(_ context.Context, user string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, user)
	return nil
}

func (f *fakeCache) get(user string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.entries[user]
	return v, ok
}

func TestPresenceOnlineBroadcastsToEveryone(t *testing.T) {
	reg := NewRegistry()
	b := NewBroadcaster(reg, NewFanout(1, 16))
	accounts := newFakeAccounts(&usermodel.User{ID: "u1", Status: usermodel.StatusOffline})
	cache := newFakeCache()
	p := NewPresenceTracker(accounts, cache, b, "gw-test")

	watcher := newTestClient("watcher")
	reg.Register(watcher)

	p.OnConnectAuthenticated(context.Background(), "u1")

	sc, ok := accounts.lastStatus()
	if !ok || sc.userID != "u1" || sc.status != usermodel.StatusOnline {
		t.Fatalf("persisted status = %+v", sc)
	}
	if gw, ok := cache.get("u1"); !ok || gw != "gw-test" {
		t.Fatalf("cache entry = %q/%v", gw, ok)
	}

	f := recvFrame(t, watcher)
	if f.Event != EvUserStatus || f.Data["user_id"] != "u1" || f.Data["status"] != usermodel.StatusOnline {
		t.Fatalf("broadcast frame = %v %v", f.Event, f.Data)
	}
}

func TestPresenceOfflineBroadcastsToo(t *testing.T) {
	reg := NewRegistry()
	b := NewBroadcaster(reg, NewFanout(1, 16))
	accounts := newFakeAccounts(&usermodel.User{ID: "u1", Status: usermodel.StatusOnline})
	cache := newFakeCache()
	p := NewPresenceTracker(accounts, cache, b, "gw-test")
	_ = cache.Online(context.Background(), "u1", "gw-test")

	watcher := newTestClient("watcher")
	reg.Register(watcher)

	p.OnDisconnect(context.Background(), "u1")

	sc, _ := accounts.lastStatus()
	if sc.status != usermodel.StatusOffline {
		t.Fatalf("persisted status = %+v", sc)
	}
	if _, ok := cache.get("u1"); ok {
		t.Fatal("cache entry should be evicted")
	}
	f := recvFrame(t, watcher)
	if f.Event != EvUserStatus || f.Data["status"] != usermodel.StatusOffline {
		t.Fatalf("broadcast frame = %v %v", f.Event, f.Data)
	}
}

func TestPresenceExplicitSetStatusDoesNotBroadcast(t *testing.T) {
	reg := NewRegistry()
	b := NewBroadcaster(reg, NewFanout(1, 16))
	accounts := newFakeAccounts(&usermodel.User{ID: "u1"})
	p := NewPresenceTracker(accounts, nil, b, "gw-test")

	watcher := newTestClient("watcher")
	reg.Register(watcher)

	if err := p.SetStatus(context.Background(), "u1", usermodel.StatusAway); err != nil {
		t.Fatalf("set status: %v", err)
	}
	sc, _ := accounts.lastStatus()
	if sc.status != usermodel.StatusAway {
		t.Fatalf("persisted status = %+v", sc)
	}
	expectSilent(t, watcher)
}

func TestPresenceInvalidStatusFallsBackToOnline(t *testing.T) {
	accounts := newFakeAccounts(&usermodel.User{ID: "u1"})
	p := NewPresenceTracker(accounts, nil, NewBroadcaster(NewRegistry(), NewFanout(1, 8)), "gw")

	if err := p.SetStatus(context.Background(), "u1", "invisible"); err != nil {
		t.Fatalf("set status: %v", err)
	}
	sc, _ := accounts.lastStatus()
	if sc.status != usermodel.StatusOnline {
		t.Fatalf("persisted status = %+v, want online fallback", sc)
	}
}

func TestPresenceNilCacheTolerated(t *testing.T) {
	accounts := newFakeAccounts(&usermodel.User{ID: "u1"})
	p := NewPresenceTracker(accounts, nil, NewBroadcaster(NewRegistry(), NewFanout(1, 8)), "gw")
	p.OnConnectAuthenticated(context.Background(), "u1")
	p.OnDisconnect(context.Background(), "u1")
}
