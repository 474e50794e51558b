package handlers

import (
	"context"

	"github.com/vkmindia80/Unified/service/gateway"
	"github.com/vkmindia80/Unified/tools/decode"
)

// WebRTCSignalHandler forwards a signaling blob to every device of the
// target user. The gateway never inspects the signal.
type WebRTCSignalHandler struct{}

func NewWebRTCSignalHandler() gateway.Handler { return &WebRTCSignalHandler{} }
func (h *WebRTCSignalHandler) Event() string { return gateway.EvWebRTCSignal }

func (h *WebRTCSignalHandler) Handle(ctx *gateway.Context, f *gateway.Frame, c *gateway.Client) error {
	userID, ok := ctx.S.Registry().UserOf(c.ConnID)
	if !ok {
		return nil
	}

	p, err := decode.DecodeMap[gateway.SignalPayload](f.Data)
	if err != nil || p.TargetUserID == "" || p.Signal == nil {
		return nil
	}
	if p.CallType == "" {
		p.CallType = "video"
	}

	ctx.S.Broadcaster().SendToUser(p.TargetUserID, gateway.EvWebRTCSignal, map[string]any{
		"from_user_id": userID,
		"signal":       p.Signal,
		"call_type":    p.CallType,
	})
	return nil
}

type CallUserHandler struct{}

func NewCallUserHandler() gateway.Handler { return &CallUserHandler{} }
func (h *CallUserHandler) Event() string { return gateway.EvCallUser }

func (h *CallUserHandler) Handle(ctx *gateway.Context, f *gateway.Frame, c *gateway.Client) error {
	userID, ok := ctx.S.Registry().UserOf(c.ConnID)
	if !ok {
		return nil
	}

	p, err := decode.DecodeMap[gateway.CallUserPayload](f.Data)
	if err != nil || p.TargetUserID == "" {
		return nil
	}
	if p.CallType == "" {
		p.CallType = "video"
	}

	reqCtx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	caller, err := ctx.S.Accounts().FindByID(reqCtx, userID)
	cancel()
	if err != nil {
		return nil
	}

	ctx.S.Broadcaster().SendToUser(p.TargetUserID, gateway.EvIncomingCall, map[string]any{
		"from_user": map[string]any{
			"id":        caller.ID,
			"full_name": caller.FullName,
			"avatar":    caller.Avatar,
		},
		"call_type": p.CallType,
	})
	return nil
}

type CallResponseHandler struct{}

func NewCallResponseHandler() gateway.Handler { return &CallResponseHandler{} }
func (h *CallResponseHandler) Event() string { return gateway.EvCallResponse }

func (h *CallResponseHandler) Handle(ctx *gateway.Context, f *gateway.Frame, c *gateway.Client) error {
	userID, ok := ctx.S.Registry().UserOf(c.ConnID)
	if !ok {
		return nil
	}

	p, err := decode.DecodeMap[gateway.CallResponsePayload](f.Data)
	if err != nil || p.TargetUserID == "" {
		return nil
	}

	ctx.S.Broadcaster().SendToUser(p.TargetUserID, gateway.EvCallResponse, map[string]any{
		"from_user_id": userID,
		"accepted":     p.Accepted,
	})
	return nil
}
