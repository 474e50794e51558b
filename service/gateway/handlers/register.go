package handlers

import (
	"github.com/vkmindia80/Unified/service/gateway"
)

// RegisterAll wires every inbound event handler into the dispatcher.
func RegisterAll(d *gateway.Dispatcher) {
	d.Register(NewAuthHandler())
	d.Register(NewJoinChatHandler())
	d.Register(NewLeaveChatHandler())
	d.Register(NewSendMessageHandler())
	d.Register(NewTypingHandler())
	d.Register(NewWebRTCSignalHandler())
	d.Register(NewCallUserHandler())
	d.Register(NewCallResponseHandler())
}
