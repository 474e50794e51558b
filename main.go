package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/vkmindia80/Unified/global"
	"github.com/vkmindia80/Unified/logger"
	"github.com/vkmindia80/Unified/middleware"
	midsec "github.com/vkmindia80/Unified/middleware/security"
	chathandler "github.com/vkmindia80/Unified/module/chat"
	chatsvc "github.com/vkmindia80/Unified/module/chat/service"
	engagehandler "github.com/vkmindia80/Unified/module/engage"
	engagesvc "github.com/vkmindia80/Unified/module/engage/service"
	userhandler "github.com/vkmindia80/Unified/module/user"
	usersvc "github.com/vkmindia80/Unified/module/user/service"
	"github.com/vkmindia80/Unified/service/gateway"
	gwhandlers "github.com/vkmindia80/Unified/service/gateway/handlers"
	"github.com/vkmindia80/Unified/service/mgo"
	"github.com/vkmindia80/Unified/service/natsx"
	"github.com/vkmindia80/Unified/service/storage"
	redisx "github.com/vkmindia80/Unified/service/storage/redis"
	jwtlib "github.com/vkmindia80/Unified/tools/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg := global.LoadConfig()
	if cfg.JWTSecret == "" {
		logger.Log.Fatal("JWT_SECRET_KEY is required")
	}

	ctx := context.Background()
	if err := mgo.InitMongo(ctx, mgo.Config{URI: cfg.MongoURL, Database: cfg.MongoDB}); err != nil {
		logger.Log.Fatal("mongo init failed", zap.Error(err))
	}
	db := mgo.GetDB()

	users := usersvc.NewUserService(db)
	chats := chatsvc.NewChatService(db)
	engage := engagesvc.NewEngageService(db)
	for _, ensure := range []func(context.Context) error{
		users.EnsureIndexes, chats.EnsureIndexes, engage.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			logger.Log.Fatal("ensure indexes failed", zap.Error(err))
		}
	}

	var pcache *storage.PresenceCache
	var cache gateway.PresenceCache
	if cfg.RedisAddr != "" {
		if err := redisx.InitRedis(redisx.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		}); err != nil {
			logger.Log.Fatal("redis init failed", zap.Error(err))
		}
		pcache = storage.NewPresenceCache(5 * time.Minute)
		cache = pcache
	}

	jwtOpts := jwtlib.Options{
		Secret: []byte(cfg.JWTSecret),
		Alg:    cfg.JWTAlg,
		TTL:    cfg.JWTTTL,
	}

	srv := gateway.NewServer(gateway.Config{
		JWT:    jwtOpts,
		NodeID: cfg.GatewayNodeID,
	}, users, chats, cache)
	gwhandlers.RegisterAll(srv.Disp())

	if cfg.NatsURL != "" {
		bridge, err := natsx.NewEventBridge(cfg.NatsURL, cfg.GatewayNodeID)
		if err != nil {
			logger.Log.Fatal("nats bridge init failed", zap.Error(err))
		}
		defer bridge.Close()
		if err := srv.Broadcaster().AttachBridge(bridge); err != nil {
			logger.Log.Fatal("nats bridge subscribe failed", zap.Error(err))
		}
		logger.Infof("[boot] event bridge attached node=%s", cfg.GatewayNodeID)
	}

	userH := userhandler.NewHandler(users, srv.Presence(), pcache, jwtOpts)
	chatH := chathandler.NewHandler(chats)
	engageH := engagehandler.NewHandler(engage, users, srv.Broadcaster())

	r := gin.New()
	r.Use(gin.Recovery(), middleware.CORS())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Enterprise Communication & Gamification API",
			"status":  "running",
		})
	})
	r.GET("/api/health", func(c *gin.Context) {
		status := "healthy"
		dbState := "connected"
		if _, ok := mgo.TryGetDB(); !ok {
			status, dbState = "degraded", "disconnected"
		}
		c.JSON(http.StatusOK, gin.H{"status": status, "database": dbState})
	})

	r.GET("/ws", srv.HandleWS)

	r.POST("/api/auth/register", userH.Register)
	r.POST("/api/auth/login", userH.Login)

	auth := r.Group("/api", midsec.Middleware(midsec.Options{JWT: jwtOpts, Users: users}))
	{
		auth.GET("/auth/me", userH.Me)
		auth.GET("/users/:id/status", userH.GetStatus)
		auth.POST("/users/status", userH.UpdateStatus)

		auth.POST("/chats", chatH.Create)
		auth.GET("/chats/:id/messages", chatH.Messages)

		auth.POST("/announcements", engageH.CreateAnnouncement)
		auth.GET("/announcements", engageH.ListAnnouncements)
		auth.POST("/announcements/:id/acknowledge", engageH.AcknowledgeAnnouncement)

		auth.POST("/recognitions", engageH.CreateRecognition)
		auth.POST("/recognitions/:id/like", engageH.LikeRecognition)
		auth.POST("/recognitions/:id/comments", engageH.CommentRecognition)

		auth.POST("/approvals", engageH.CreateApproval)
		auth.PUT("/approvals/:id", engageH.ProcessApproval)

		auth.POST("/invitations", engageH.CreateInvitation)
		auth.POST("/invitations/:id/respond", engageH.RespondInvitation)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Infof("[boot] listening on %s node=%s", addr, cfg.GatewayNodeID)
	if err := r.Run(addr); err != nil {
		logger.Log.Fatal("http server failed", zap.Error(err))
	}
}
