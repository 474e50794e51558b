package security

import (
	"context"
	"net/http"
	"strings"
	"time"

	usersvc "github.com/vkmindia80/Unified/module/user/service"
	"github.com/vkmindia80/Unified/tools/errs"
	jwtlib "github.com/vkmindia80/Unified/tools/security"

	"github.com/gin-gonic/gin"
)

// Context keys the downstream handlers read.
const (
	CtxUserIDKey = "userID"
	CtxUserKey   = "user"
)

type Options struct {
	JWT   jwtlib.Options
	Users *usersvc.UserService
}

// Middleware verifies the bearer token and loads the current user into the
// gin context. Token checks are purely cryptographic; the account lookup
// then confirms the subject still exists.
func Middleware(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
			return
		}

		userID, err := jwtlib.Verify(opts.JWT, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		user, err := opts.Users.FindByID(ctx, userID)
		cancel()
		if err != nil {
			if errs.ErrRecordNotFound.Is(err) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "server error"})
			return
		}

		c.Set(CtxUserIDKey, userID)
		c.Set(CtxUserKey, user)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	authz := strings.TrimSpace(c.GetHeader("Authorization"))
	if authz == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return strings.TrimSpace(authz[len("bearer "):])
	}
	return ""
}
