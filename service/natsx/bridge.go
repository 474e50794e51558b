package natsx

import (
	"encoding/json"

	"github.com/vkmindia80/Unified/logger"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
)

const subjectPrefix = "unified.events."

// EventBridge fans room events out across gateway nodes over NATS. Each
// node publishes every broadcast it originates and replays broadcasts from
// other nodes to its local connections; a node's own publishes are filtered
// out by node id so nothing loops.
type EventBridge struct {
	nc     *nats.Conn
	nodeID string
	sub    *nats.Subscription
}

type bridgeFrame struct {
	Node  string          `json:"node"`
	Scope string          `json:"scope"`
	Key   string          `json:"key,omitempty"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func NewEventBridge(url, nodeID string) (*EventBridge, error) {
	nc, err := nats.Connect(url,
		nats.Name("unified-gateway-"+nodeID),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, errors.Wrap(err, "nats connect")
	}
	return &EventBridge{nc: nc, nodeID: nodeID}, nil
}

// Publish sends one already-encoded gateway event to the other nodes.
func (b *EventBridge) Publish(scope, key, event string, data []byte) error {
	frame, err := json.Marshal(bridgeFrame{
		Node:  b.nodeID,
		Scope: scope,
		Key:   key,
		Event: event,
		Data:  data,
	})
	if err != nil {
		return errors.Wrap(err, "marshal bridge frame")
	}
	msg := nats.NewMsg(subjectPrefix + scope)
	msg.Data = frame
	if err := b.nc.PublishMsg(msg); err != nil {
		return errors.Wrap(err, "publish bridge frame")
	}
	return nil
}

// Subscribe starts consuming remote events; fn receives scope, key, event
// name and the encoded payload exactly as the origin node delivered it.
func (b *EventBridge) Subscribe(fn func(scope, key, event string, data []byte)) error {
	sub, err := b.nc.Subscribe(subjectPrefix+">", func(msg *nats.Msg) {
		var f bridgeFrame
		if err := json.Unmarshal(msg.Data, &f); err != nil {
			logger.Warnf("[natsx] bad bridge frame subject=%s err=%v", msg.Subject, err)
			return
		}
		if f.Node == b.nodeID {
			return
		}
		fn(f.Scope, f.Key, f.Event, f.Data)
	})
	if err != nil {
		return errors.Wrap(err, "subscribe bridge")
	}
	b.sub = sub
	return nil
}

func (b *EventBridge) Close() {
	if b.sub != nil {
		_ = b.sub.Unsubscribe()
	}
	if b.nc != nil {
		b.nc.Close()
	}
}
