package gateway

import (
	"context"
	"time"

	"github.com/vkmindia80/Unified/logger"
	usermodel "github.com/vkmindia80/Unified/module/user/model"
)

// PresenceCache is the optional fast-path liveness index (redis). The
// persisted record in the account store stays authoritative.
type PresenceCache interface {
	Online(ctx context.Context, user, gatewayID string) error
	Offline(ctx context.Context, user string) error
}

// PresenceTracker owns every write to the persisted presence record. All
// updates are narrow field-level sets so concurrent profile updates from
// the REST layer are never clobbered.
type PresenceTracker struct {
	accounts AccountStore
	cache    PresenceCache // nil when redis is not configured
	bcast    *Broadcaster
	nodeID   string
}

func NewPresenceTracker(accounts AccountStore, cache PresenceCache, bcast *Broadcaster, nodeID string) *PresenceTracker {
	return &PresenceTracker{accounts: accounts, cache: cache, bcast: bcast, nodeID: nodeID}
}

// OnConnectAuthenticated flips the user online and announces the status
// change to all connections (unscoped, matching the login-side behavior).
func (p *PresenceTracker) OnConnectAuthenticated(ctx context.Context, userID string) {
	now := time.Now().UTC()
	if err := p.accounts.SetStatus(ctx, userID, usermodel.StatusOnline, now); err != nil {
		logger.Errorf("[presence] persist online user=%s err=%v", userID, err)
	}
	if p.cache != nil {
		if err := p.cache.Online(ctx, userID, p.nodeID); err != nil {
			logger.Warnf("[presence] cache online user=%s err=%v", userID, err)
		}
	}
	p.bcast.BroadcastAll(EvUserStatus, map[string]any{
		"user_id": userID,
		"status":  usermodel.StatusOnline,
	})
}

// OnDisconnect is invoked only when the registry reports the departing
// connection was the user's last one. The offline transition is broadcast
// too, keeping clients' user lists symmetric with the online announcement.
func (p *PresenceTracker) OnDisconnect(ctx context.Context, userID string) {
	now := time.Now().UTC()
	if err := p.accounts.SetStatus(ctx, userID, usermodel.StatusOffline, now); err != nil {
		logger.Errorf("[presence] persist offline user=%s err=%v", userID, err)
	}
	if p.cache != nil {
		if err := p.cache.Offline(ctx, userID); err != nil {
			logger.Warnf("[presence] cache offline user=%s err=%v", userID, err)
		}
	}
	p.bcast.BroadcastAll(EvUserStatus, map[string]any{
		"user_id": userID,
		"status":  usermodel.StatusOffline,
	})
}

// SetStatus is the explicit user-requested change. Persists and updates
// last-seen; no broadcast.
func (p *PresenceTracker) SetStatus(ctx context.Context, userID, status string) error {
	switch status {
	case usermodel.StatusOnline, usermodel.StatusAway, usermodel.StatusOffline:
	default:
		status = usermodel.StatusOnline
	}
	now := time.Now().UTC()
	if err := p.accounts.SetStatus(ctx, userID, status, now); err != nil {
		return err
	}
	if p.cache != nil {
		var err error
		if status == usermodel.StatusOffline {
			err = p.cache.Offline(ctx, userID)
		} else {
			err = p.cache.Online(ctx, userID, p.nodeID)
		}
		if err != nil {
			logger.Warnf("[presence] cache set user=%s status=%s err=%v", userID, status, err)
		}
	}
	return nil
}
