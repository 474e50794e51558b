package handlers

import (
	"context"

	"github.com/vkmindia80/Unified/logger"
	"github.com/vkmindia80/Unified/service/gateway"
	"github.com/vkmindia80/Unified/tools/decode"
)

// JoinChatHandler performs the participant check the registry itself never
// does, then records room membership.
type JoinChatHandler struct{}

func NewJoinChatHandler() gateway.Handler { return &JoinChatHandler{} }
func (h *JoinChatHandler) Event() string { return gateway.EvJoinChat }

func (h *JoinChatHandler) Handle(ctx *gateway.Context, f *gateway.Frame, c *gateway.Client) error {
	userID, ok := ctx.S.Registry().UserOf(c.ConnID)
	if !ok {
		ctx.S.Broadcaster().SendToConn(c.ConnID, gateway.EvError, map[string]any{"message": "Not authenticated"})
		return nil
	}

	p, err := decode.DecodeMap[gateway.JoinChatPayload](f.Data)
	if err != nil || p.ChatID == "" {
		return nil
	}

	reqCtx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	member, err := ctx.S.Chats().IsParticipant(reqCtx, p.ChatID, userID)
	cancel()
	if err != nil {
		logger.Errorf("[join_chat] participant check chat=%s user=%s err=%v", p.ChatID, userID, err)
		return nil
	}
	if !member {
		ctx.S.Broadcaster().SendToConn(c.ConnID, gateway.EvError, map[string]any{"message": "Not a participant"})
		return nil
	}

	if err := ctx.S.Registry().JoinRoom(c.ConnID, gateway.RoomChat(p.ChatID)); err != nil {
		logger.Infof("[join_chat] join conn=%s chat=%s err=%v", c.ConnID, p.ChatID, err)
		return nil
	}
	logger.Infof("[join_chat] user=%s joined chat=%s", userID, p.ChatID)
	return nil
}

type LeaveChatHandler struct{}

func NewLeaveChatHandler() gateway.Handler { return &LeaveChatHandler{} }
func (h *LeaveChatHandler) Event() string { return gateway.EvLeaveChat }

func (h *LeaveChatHandler) Handle(ctx *gateway.Context, f *gateway.Frame, c *gateway.Client) error {
	p, err := decode.DecodeMap[gateway.JoinChatPayload](f.Data)
	if err != nil || p.ChatID == "" {
		return nil
	}
	ctx.S.Registry().LeaveRoom(c.ConnID, gateway.RoomChat(p.ChatID))
	return nil
}
