package user

import (
	"net/http"
	"time"

	midsec "github.com/vkmindia80/Unified/middleware/security"
	usermodel "github.com/vkmindia80/Unified/module/user/model"
	usersvc "github.com/vkmindia80/Unified/module/user/service"
	"github.com/vkmindia80/Unified/service/gateway"
	"github.com/vkmindia80/Unified/service/storage"
	"github.com/vkmindia80/Unified/tools/errs"
	jwtlib "github.com/vkmindia80/Unified/tools/security"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// Handler serves the auth and user-facing endpoints. Login/register issue
// the signed credential the gateway's identity verifier later checks.
type Handler struct {
	users    *usersvc.UserService
	presence *gateway.PresenceTracker
	cache    *storage.PresenceCache // nil when redis is not configured
	jwt      jwtlib.Options
}

func NewHandler(users *usersvc.UserService, presence *gateway.PresenceTracker, cache *storage.PresenceCache, jwt jwtlib.Options) *Handler {
	return &Handler{users: users, presence: presence, cache: cache, jwt: jwt}
}

type registerRequest struct {
	Username   string `json:"username" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=6"`
	FullName   string `json:"full_name" binding:"required"`
	Role       string `json:"role"`
	Department string `json:"department"`
	Team       string `json:"team"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if req.Role == "" {
		req.Role = usermodel.RoleEmployee
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "server error"})
		return
	}

	u := &usermodel.User{
		Username:   req.Username,
		Email:      req.Email,
		Password:   string(hash),
		FullName:   req.FullName,
		Role:       req.Role,
		Department: req.Department,
		Team:       req.Team,
		Status:     usermodel.StatusOffline,
	}
	if err := h.users.Insert(c.Request.Context(), u); err != nil {
		if errs.ErrDuplicateKey.Is(err) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Email or username already taken"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "server error"})
		return
	}

	if pts, lvl, err := h.users.AwardPoints(c.Request.Context(), u.ID, 50, "Account created", "signup"); err == nil {
		u.Points, u.Level = pts, lvl
	}

	h.issueToken(c, u)
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	u, err := h.users.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Incorrect email or password"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Incorrect email or password"})
		return
	}

	// Login marks the account online; the realtime flip happens again on
	// socket authenticate, that one with a broadcast.
	_ = h.users.SetStatus(c.Request.Context(), u.ID, usermodel.StatusOnline, time.Now().UTC())
	u.Status = usermodel.StatusOnline

	h.issueToken(c, u)
}

func (h *Handler) issueToken(c *gin.Context, u *usermodel.User) {
	token, _, err := jwtlib.Generate(h.jwt, u.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"user":         u,
	})
}

func (h *Handler) Me(c *gin.Context) {
	u := c.MustGet(midsec.CtxUserKey).(*usermodel.User)
	c.JSON(http.StatusOK, u)
}

// GetStatus returns another user's presence record. The redis cache
// answers the online case without a store read; the persisted record is
// the fallback and stays authoritative for away/offline and last-seen.
func (h *Handler) GetStatus(c *gin.Context) {
	if h.cache != nil {
		if _, online, err := h.cache.Lookup(c.Request.Context(), c.Param("id")); err == nil && online {
			c.JSON(http.StatusOK, gin.H{"status": usermodel.StatusOnline})
			return
		}
	}

	u, err := h.users.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errs.ErrRecordNotFound.Is(err) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": u.Status, "last_seen": u.LastSeen})
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus is the explicit presence change; persisted, not broadcast.
func (h *Handler) UpdateStatus(c *gin.Context) {
	userID := c.MustGet(midsec.CtxUserIDKey).(string)

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if req.Status == "" {
		req.Status = usermodel.StatusOnline
	}
	if err := h.presence.SetStatus(c.Request.Context(), userID, req.Status); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": req.Status})
}
