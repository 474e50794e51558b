package handlers

import (
	"context"

	"github.com/vkmindia80/Unified/logger"
	chatmodel "github.com/vkmindia80/Unified/module/chat/model"
	"github.com/vkmindia80/Unified/service/gateway"
	"github.com/vkmindia80/Unified/tools/decode"
)

// SendMessageHandler persists the message, awards points and broadcasts
// new_message to the chat room, sender included. Participation is
// revalidated on every send, not just at join time, so a user removed from
// a chat loses the ability to post immediately even while still joined to
// the room.
type SendMessageHandler struct{}

func NewSendMessageHandler() gateway.Handler { return &SendMessageHandler{} }
func (h *SendMessageHandler) Event() string { return gateway.EvSendMessage }

func (h *SendMessageHandler) Handle(ctx *gateway.Context, f *gateway.Frame, c *gateway.Client) error {
	userID, ok := ctx.S.Registry().UserOf(c.ConnID)
	if !ok {
		ctx.S.Broadcaster().SendToConn(c.ConnID, gateway.EvError, map[string]any{"message": "Not authenticated"})
		return nil
	}

	p, err := decode.DecodeMap[gateway.SendMessagePayload](f.Data)
	if err != nil || p.ChatID == "" {
		return nil
	}
	if p.Content == "" && len(p.Files) == 0 {
		return nil
	}
	if p.Type == "" {
		p.Type = "text"
	}

	reqCtx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	member, err := ctx.S.Chats().IsParticipant(reqCtx, p.ChatID, userID)
	if err != nil || !member {
		if err != nil {
			logger.Errorf("[send_message] participant check chat=%s err=%v", p.ChatID, err)
		}
		return nil
	}

	msg := &chatmodel.Message{
		ChatID:   p.ChatID,
		SenderID: userID,
		Content:  p.Content,
		Type:     p.Type,
		Files:    p.Files,
	}
	if err := ctx.S.Chats().AppendMessage(reqCtx, msg); err != nil {
		logger.Errorf("[send_message] persist chat=%s user=%s err=%v", p.ChatID, userID, err)
		return nil
	}

	if sender, err := ctx.S.Accounts().FindByID(reqCtx, userID); err == nil {
		if m, err := decode.ToMap(sender); err == nil {
			msg.Sender = m
		}
	}

	// File messages score double.
	points := 5
	if len(msg.Files) > 0 {
		points = 10
	}
	if _, _, err := ctx.S.Accounts().AwardPoints(reqCtx, userID, points, "Message sent", "message"); err != nil {
		logger.Warnf("[send_message] award points user=%s err=%v", userID, err)
	}

	ctx.S.Broadcaster().Broadcast(gateway.RoomChat(p.ChatID), gateway.EvNewMessage, msg, "")
	return nil
}

// TypingHandler relays the typing indicator to the chat room with the
// sending connection excluded, so a sender never sees its own echo.
type TypingHandler struct{}

func NewTypingHandler() gateway.Handler { return &TypingHandler{} }
func (h *TypingHandler) Event() string { return gateway.EvTyping }

func (h *TypingHandler) Handle(ctx *gateway.Context, f *gateway.Frame, c *gateway.Client) error {
	userID, ok := ctx.S.Registry().UserOf(c.ConnID)
	if !ok {
		return nil
	}

	p, err := decode.DecodeMap[gateway.TypingPayload](f.Data)
	if err != nil || p.ChatID == "" {
		return nil
	}

	reqCtx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	user, err := ctx.S.Accounts().FindByID(reqCtx, userID)
	cancel()
	if err != nil {
		return nil
	}

	ctx.S.Broadcaster().Broadcast(gateway.RoomChat(p.ChatID), gateway.EvUserTyping, map[string]any{
		"chat_id":   p.ChatID,
		"user_id":   userID,
		"user_name": user.FullName,
		"is_typing": p.IsTyping,
	}, c.ConnID)
	return nil
}
