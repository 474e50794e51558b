package gateway

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/vkmindia80/Unified/logger"
	chatmodel "github.com/vkmindia80/Unified/module/chat/model"
	usermodel "github.com/vkmindia80/Unified/module/user/model"
	"github.com/vkmindia80/Unified/tools/ids"
	"github.com/vkmindia80/Unified/tools/safe"
	security "github.com/vkmindia80/Unified/tools/security"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// AccountStore is the slice of the user store the gateway depends on.
type AccountStore interface {
	FindByID(ctx context.Context, id string) (*usermodel.User, error)
	SetStatus(ctx context.Context, id, status string, lastSeen time.Time) error
	AwardPoints(ctx context.Context, userID string, points int, reason, activityType string) (int, int, error)
}

// ChatStore is the slice of the chat store the gateway depends on.
type ChatStore interface {
	IsParticipant(ctx context.Context, chatID, userID string) (bool, error)
	AppendMessage(ctx context.Context, m *chatmodel.Message) error
}

type Config struct {
	JWT           security.Options
	NodeID        string
	SendQueueSize int
	FanoutWorkers int
	FanoutQueue   int
}

// Server ties the registry, broadcaster, dispatcher and presence tracker to
// the websocket endpoint.
type Server struct {
	cfg      Config
	reg      *Registry
	bcast    *Broadcaster
	disp     *Dispatcher
	presence *PresenceTracker
	accounts AccountStore
	chats    ChatStore
}

func NewServer(cfg Config, accounts AccountStore, chats ChatStore, cache PresenceCache) *Server {
	reg := NewRegistry()
	bcast := NewBroadcaster(reg, NewFanout(cfg.FanoutWorkers, cfg.FanoutQueue))
	return &Server{
		cfg:      cfg,
		reg:      reg,
		bcast:    bcast,
		disp:     NewDispatcher(),
		presence: NewPresenceTracker(accounts, cache, bcast, cfg.NodeID),
		accounts: accounts,
		chats:    chats,
	}
}

func (s *Server) Registry() *Registry          { return s.reg }
func (s *Server) Broadcaster() *Broadcaster    { return s.bcast }
func (s *Server) Disp() *Dispatcher            { return s.disp }
func (s *Server) Presence() *PresenceTracker   { return s.presence }
func (s *Server) Accounts() AccountStore       { return s.accounts }
func (s *Server) Chats() ChatStore             { return s.chats }
func (s *Server) JWTOptions() security.Options { return s.cfg.JWT }

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleWS upgrades the request and runs the connection's read loop. Events
// of one connection are processed strictly in arrival order; independent
// connections interleave on their own goroutines.
func (s *Server) HandleWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[ws] upgrade error: %v", err)
		return
	}

	client := NewClient(ids.GenerateString(), ws, s.cfg.SendQueueSize)
	s.reg.Register(client)
	safe.Go(client.writePump)
	logger.Infof("[ws] client connected conn=%s remote=%s", client.ConnID, ws.RemoteAddr())

	s.readLoop(client)

	// Disconnect path: drop registry state first, then flip presence only
	// if that was the user's last connection.
	userID, last := s.reg.Unregister(client.ConnID)
	client.shutdown() // writePump drains and closes the socket
	if userID != "" && last {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		s.presence.OnDisconnect(ctx, userID)
		cancel()
	}
	logger.Infof("[ws] client disconnected conn=%s user=%s", client.ConnID, userID)
}

func (s *Server) readLoop(client *Client) {
	ws := client.WS
	for {
		mt, data, rerr := ws.ReadMessage()
		if rerr != nil {
			if websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[ws] peer closed conn=%s err=%v", client.ConnID, rerr)
			} else if ne, ok := rerr.(net.Error); ok && ne.Timeout() {
				logger.Infof("[ws] read timeout conn=%s err=%v", client.ConnID, rerr)
			} else {
				logger.Infof("[ws] read err conn=%s err=%v", client.ConnID, rerr)
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		frame, perr := ParseFrame(data)
		if perr != nil {
			sample := data
			if len(sample) > 256 {
				sample = sample[:256]
			}
			logger.Infof("[ws] bad frame conn=%s err=%v sample=%q", client.ConnID, perr, sample)
			continue
		}

		if err := s.disp.Dispatch(&Context{S: s}, frame, client); err != nil {
			// Handlers emit their own error events; anything that escapes
			// here is dropped after logging, never fatal to the connection.
			logger.Infof("[ws] handle event=%s conn=%s err=%v", frame.Event, client.ConnID, err)
		}
	}
}
