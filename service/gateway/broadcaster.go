package gateway

import (
	"github.com/vkmindia80/Unified/logger"
)

// Bridge propagates room events across gateway nodes. Implementations must
// not loop a node's own publishes back into its Subscribe callback.
type Bridge interface {
	Publish(scope, key, event string, data []byte) error
	Subscribe(fn func(scope, key, event string, data []byte)) error
}

// Bridge scopes.
const (
	ScopeRoom = "room"
	ScopeUser = "user"
	ScopeAll  = "all"
)

// Broadcaster delivers structured events to room members. Best-effort and
// fire-and-forget per connection: one dead client never aborts delivery to
// the rest, and nothing surfaces to the caller.
type Broadcaster struct {
	reg    *Registry
	fan    *Fanout
	bridge Bridge // nil on single-node deployments
}

func NewBroadcaster(reg *Registry, fan *Fanout) *Broadcaster {
	return &Broadcaster{reg: reg, fan: fan}
}

// AttachBridge wires the cross-node event bridge and starts consuming
// remote deliveries.
func (b *Broadcaster) AttachBridge(br Bridge) error {
	b.bridge = br
	return br.Subscribe(func(scope, key, event string, data []byte) {
		b.deliverRaw(scope, key, event, data)
	})
}

// Broadcast delivers (event, data) to every current member of the room,
// except excludeConnID when non-empty. An excluded id that is not a member
// changes nothing.
func (b *Broadcaster) Broadcast(roomKey, event string, data any, excludeConnID string) {
	payload, err := EncodeEvent(event, data)
	if err != nil {
		logger.Errorf("[broadcast] encode event=%s err=%v", event, err)
		return
	}
	b.fan.Deliver(roomKey, b.reg.clientsOf(roomKey, excludeConnID), payload)
	b.publish(ScopeRoom, roomKey, event, payload)
}

// SendToUser delivers to every connection of the user across devices.
// Bridged under the user scope so remote nodes resolve the personal room
// themselves.
func (b *Broadcaster) SendToUser(userID, event string, data any) {
	payload, err := EncodeEvent(event, data)
	if err != nil {
		logger.Errorf("[broadcast] encode event=%s err=%v", event, err)
		return
	}
	room := RoomUser(userID)
	b.fan.Deliver(room, b.reg.clientsOf(room, ""), payload)
	b.publish(ScopeUser, userID, event, payload)
}

// BroadcastAll delivers to every live connection on this node (and, via the
// bridge, every node). Used for the unscoped status and notification events.
func (b *Broadcaster) BroadcastAll(event string, data any) {
	payload, err := EncodeEvent(event, data)
	if err != nil {
		logger.Errorf("[broadcast] encode event=%s err=%v", event, err)
		return
	}
	b.fan.Deliver(ScopeAll, b.reg.allClients(""), payload)
	b.publish(ScopeAll, "", event, payload)
}

// SendToConn targets a single connection, e.g. error and authenticated
// replies. Never bridged: the connection is local by definition.
func (b *Broadcaster) SendToConn(connID, event string, data any) {
	c := b.reg.clientOf(connID)
	if c == nil {
		logger.Infof("[broadcast] drop %s for unknown conn=%s", event, connID)
		return
	}
	payload, err := EncodeEvent(event, data)
	if err != nil {
		logger.Errorf("[broadcast] encode event=%s err=%v", event, err)
		return
	}
	c.enqueue(payload)
}

// deliverRaw hands a bridged (already encoded) event to local members only.
func (b *Broadcaster) deliverRaw(scope, key, event string, payload []byte) {
	switch scope {
	case ScopeRoom:
		b.fan.Deliver(key, b.reg.clientsOf(key, ""), payload)
	case ScopeUser:
		b.fan.Deliver(key, b.reg.clientsOf(RoomUser(key), ""), payload)
	case ScopeAll:
		b.fan.Deliver(ScopeAll, b.reg.allClients(""), payload)
	default:
		logger.Infof("[broadcast] bridged event with unknown scope=%s event=%s", scope, event)
	}
}

func (b *Broadcaster) publish(scope, key, event string, payload []byte) {
	if b.bridge == nil {
		return
	}
	if err := b.bridge.Publish(scope, key, event, payload); err != nil {
		// Bridge loss degrades to single-node delivery, nothing more.
		logger.Warnf("[broadcast] bridge publish event=%s err=%v", event, err)
	}
}
