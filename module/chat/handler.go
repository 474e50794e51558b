package chat

import (
	"net/http"

	midsec "github.com/vkmindia80/Unified/middleware/security"
	chatmodel "github.com/vkmindia80/Unified/module/chat/model"
	chatsvc "github.com/vkmindia80/Unified/module/chat/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	chats *chatsvc.ChatService
}

func NewHandler(chats *chatsvc.ChatService) *Handler {
	return &Handler{chats: chats}
}

type createChatRequest struct {
	Name         string   `json:"name"`
	Type         string   `json:"type" binding:"required,oneof=direct group"`
	Participants []string `json:"participants" binding:"required,min=1"`
}

// Create makes a chat; the creator is always a participant.
func (h *Handler) Create(c *gin.Context) {
	userID := c.MustGet(midsec.CtxUserIDKey).(string)

	var req createChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	participants := req.Participants
	seen := false
	for _, p := range participants {
		if p == userID {
			seen = true
			break
		}
	}
	if !seen {
		participants = append(participants, userID)
	}

	chat := &chatmodel.Chat{
		Name:         req.Name,
		Type:         req.Type,
		Participants: participants,
		CreatedBy:    userID,
	}
	if err := h.chats.Create(c.Request.Context(), chat); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "server error"})
		return
	}
	c.JSON(http.StatusOK, chat)
}

// Messages returns history for a chat the caller belongs to.
func (h *Handler) Messages(c *gin.Context) {
	userID := c.MustGet(midsec.CtxUserIDKey).(string)
	chatID := c.Param("id")

	member, err := h.chats.IsParticipant(c.Request.Context(), chatID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "server error"})
		return
	}
	if !member {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Chat not found"})
		return
	}

	msgs, err := h.chats.ListMessages(c.Request.Context(), chatID, 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "server error"})
		return
	}
	c.JSON(http.StatusOK, msgs)
}
