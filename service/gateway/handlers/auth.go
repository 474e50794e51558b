package handlers

import (
	"context"
	"time"

	"github.com/vkmindia80/Unified/logger"
	"github.com/vkmindia80/Unified/service/gateway"
	"github.com/vkmindia80/Unified/tools/decode"
	"github.com/vkmindia80/Unified/tools/errs"
	security "github.com/vkmindia80/Unified/tools/security"
)

const storeTimeout = 2 * time.Second

// AuthHandler upgrades a connection from unauthenticated to authenticated:
// verify the token, confirm the account still exists, attach identity, join
// the personal room, flip presence online. Every failure keeps the
// connection open and unauthenticated.
type AuthHandler struct{}

func NewAuthHandler() gateway.Handler { return &AuthHandler{} }
func (h *AuthHandler) Event() string { return gateway.EvAuthenticate }

func (h *AuthHandler) Handle(ctx *gateway.Context, f *gateway.Frame, c *gateway.Client) error {
	token, err := decode.ReadString(f.Data, "token")
	if err != nil || token == "" {
		ctx.S.Broadcaster().SendToConn(c.ConnID, gateway.EvError, map[string]any{"message": "No token provided"})
		return nil
	}

	userID, err := security.Verify(ctx.S.JWTOptions(), token)
	if err != nil {
		logger.Infof("[auth] verify conn=%s err=%v", c.ConnID, err)
		ctx.S.Broadcaster().SendToConn(c.ConnID, gateway.EvError, map[string]any{"message": "Invalid token"})
		return nil
	}

	reqCtx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	_, err = ctx.S.Accounts().FindByID(reqCtx, userID)
	cancel()
	if err != nil {
		logger.Infof("[auth] account lookup user=%s err=%v", userID, err)
		ctx.S.Broadcaster().SendToConn(c.ConnID, gateway.EvError, map[string]any{"message": "Invalid token"})
		return nil
	}

	if err := ctx.S.Registry().AttachUser(c.ConnID, userID); err != nil {
		// Connection raced its own disconnect; registry already dropped it.
		if errs.ErrUnknownConnection.Is(err) {
			logger.Infof("[auth] attach on closed conn=%s user=%s", c.ConnID, userID)
			return nil
		}
		return err
	}
	if err := ctx.S.Registry().JoinRoom(c.ConnID, gateway.RoomUser(userID)); err != nil {
		return err
	}

	reqCtx, cancel = context.WithTimeout(context.Background(), storeTimeout)
	ctx.S.Presence().OnConnectAuthenticated(reqCtx, userID)
	cancel()

	ctx.S.Broadcaster().SendToConn(c.ConnID, gateway.EvAuthenticated, map[string]any{"user_id": userID})
	logger.Infof("[auth] user=%s authenticated conn=%s", userID, c.ConnID)
	return nil
}
