package engage

import (
	"net/http"

	"github.com/vkmindia80/Unified/logger"
	midsec "github.com/vkmindia80/Unified/middleware/security"
	engagemodel "github.com/vkmindia80/Unified/module/engage/model"
	engagesvc "github.com/vkmindia80/Unified/module/engage/service"
	usermodel "github.com/vkmindia80/Unified/module/user/model"
	usersvc "github.com/vkmindia80/Unified/module/user/service"
	"github.com/vkmindia80/Unified/service/gateway"
	"github.com/vkmindia80/Unified/tools/errs"

	"github.com/gin-gonic/gin"
)

// Handler serves the engagement endpoints. Each write persists a document
// and pushes the matching notification event through the broadcaster,
// global or user-scoped the same way the realtime layer scopes them.
type Handler struct {
	engage *engagesvc.EngageService
	users  *usersvc.UserService
	bcast  *gateway.Broadcaster
}

func NewHandler(engage *engagesvc.EngageService, users *usersvc.UserService, bcast *gateway.Broadcaster) *Handler {
	return &Handler{engage: engage, users: users, bcast: bcast}
}

func (h *Handler) award(c *gin.Context, userID string, points int, reason, activity string) {
	if _, _, err := h.users.AwardPoints(c.Request.Context(), userID, points, reason, activity); err != nil {
		logger.Warnf("[engage] award points user=%s err=%v", userID, err)
	}
}

// ---- announcements ----

type announcementRequest struct {
	Title                   string `json:"title" binding:"required"`
	Content                 string `json:"content" binding:"required"`
	Priority                string `json:"priority"`
	TargetAudience          string `json:"target_audience"`
	TargetValue             string `json:"target_value"`
	RequiresAcknowledgement *bool  `json:"requires_acknowledgement"`
}

func (h *Handler) CreateAnnouncement(c *gin.Context) {
	user := c.MustGet(midsec.CtxUserKey).(*usermodel.User)
	if user.Role != usermodel.RoleAdmin && user.Role != usermodel.RoleManager {
		c.JSON(http.StatusForbidden, gin.H{"detail": "Insufficient permissions"})
		return
	}

	var req announcementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if req.Priority == "" {
		req.Priority = engagemodel.PriorityNormal
	}
	if req.TargetAudience == "" {
		req.TargetAudience = "all"
	}
	requiresAck := true
	if req.RequiresAcknowledgement != nil {
		requiresAck = *req.RequiresAcknowledgement
	}

	a := &engagemodel.Announcement{
		Title:                   req.Title,
		Content:                 req.Content,
		Priority:                req.Priority,
		TargetAudience:          req.TargetAudience,
		TargetValue:             req.TargetValue,
		RequiresAcknowledgement: requiresAck,
		CreatedBy:               user.ID,
	}
	if err := h.engage.InsertAnnouncement(c.Request.Context(), a); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "server error"})
		return
	}

	h.award(c, user.ID, 10, "Created announcement", "announcement")
	h.bcast.BroadcastAll(gateway.EvNewAnnouncement, a)
	c.JSON(http.StatusOK, a)
}

func (h *Handler) ListAnnouncements(c *gin.Context) {
	out, err := h.engage.ListAnnouncements(c.Request.Context(), 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "server error"})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) AcknowledgeAnnouncement(c *gin.Context) {
	user := c.MustGet(midsec.CtxUserKey).(*usermodel.User)
	id := c.Param("id")

	if err := h.engage.Acknowledge(c.Request.Context(), id, user.ID); err != nil {
		if errs.ErrRecordNotFound.Is(err) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Announcement not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "server error"})
		return
	}

	h.award(c, user.ID, 2, "Acknowledged announcement", "acknowledgement")
	h.bcast.BroadcastAll(gateway.EvAnnouncementAcknowledged, gin.H{
		"announcement_id": id,
		"user_id":         user.ID,
		"user_name":       user.FullName,
	})
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ---- recognitions ----

type recognitionRequest struct {
	RecognizedUserID string `json:"recognized_user_id" binding:"required"`
	Category         string `json:"category" binding:"required"`
	Message          string `json:"message" binding:"required"`
	IsPublic         *bool  `json:"is_public"`
}

func (h *Handler) CreateRecognition(c *gin.Context) {
	user := c.MustGet(midsec.CtxUserKey).(*usermodel.User)

	var req recognitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	recognized, err := h.users.FindByID(c.Request.Context(), req.RecognizedUserID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Recognized user not found"})
		return
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}
	r := &engagemodel.Recognition{
		RecognizedUserID: req.RecognizedUserID,
		RecognizerID:     user.ID,
		Category:         req.Category,
		Message:          req.Message,
		IsPublic:         isPublic,
	}
	if err := h.engage.InsertRecognition(c.Request.Context(), r); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "server error"})
		return
	}

	// Receiving recognition scores higher than giving it.
	h.award(c, req.RecognizedUserID, 15, "Recognized for "+req.Category, "recognition_received")
	h.award(c, user.ID, 5, "Recognized "+recognized.FullName, "recognition_given")
	h.bcast.BroadcastAll(gateway.EvNewRecognition, r)
	c.JSON(http.StatusOK, r)
}

func (h *Handler) LikeRecognition(c *gin.Context) {
	user := c.MustGet(midsec.CtxUserKey).(*usermodel.User)
	id := c.Param("id")

	liked, err := h.engage.ToggleLike(c.Request.Context(), id, user.ID)
	if err != nil {
		if errs.ErrRecordNotFound.Is(err) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Recognition not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "server error"})
		return
	}

	if liked {
		h.award(c, user.ID, 1, "Liked a recognition", "like")
	}
	h.bcast.BroadcastAll(gateway.EvRecognitionLiked, gin.H{
		"recognition_id": id,
		"user_id":        user.ID,
		"liked":          liked,
	})
	c.JSON(http.StatusOK, gin.H{"success": true, "liked": liked})
}

type commentRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *Handler) CommentRecognition(c *gin.Context) {
	user := c.MustGet(midsec.CtxUserKey).(*usermodel.User)
	id := c.Param("id")

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	comment := engagemodel.RecognitionComment{UserID: user.ID, Text: req.Text}
	if err := h.engage.AddComment(c.Request.Context(), id, comment); err != nil {
		if errs.ErrRecordNotFound.Is(err) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Recognition not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "server error"})
		return
	}

	h.award(c, user.ID, 2, "Commented on recognition", "comment")
	h.bcast.BroadcastAll(gateway.EvRecognitionCommented, gin.H{
		"recognition_id": id,
		"user_id":        user.ID,
		"user_name":      user.FullName,
		"text":           req.Text,
	})
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ---- approvals ----

type approvalRequest struct {
	Type          string         `json:"type" binding:"required"`
	ReferenceID   string         `json:"reference_id" binding:"required"`
	ReferenceType string         `json:"reference_type" binding:"required"`
	Details       map[string]any `json:"details"`
	Notes         string         `json:"notes"`
}

func (h *Handler) CreateApproval(c *gin.Context) {
	user := c.MustGet(midsec.CtxUserKey).(*usermodel.User)

	var req approvalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	a := &engagemodel.Approval{
		Type:          req.Type,
		ReferenceID:   req.ReferenceID,
		ReferenceType: req.ReferenceType,
		RequesterID:   user.ID,
		Details:       req.Details,
		Notes:         req.Notes,
	}
	if err := h.engage.InsertApproval(c.Request.Context(), a); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "server error"})
		return
	}

	h.bcast.BroadcastAll(gateway.EvNewApproval, a)
	c.JSON(http.StatusOK, a)
}

type approvalDecision struct {
	Status string `json:"status" binding:"required,oneof=approved rejected"`
	Notes  string `json:"notes"`
}

func (h *Handler) ProcessApproval(c *gin.Context) {
	user := c.MustGet(midsec.CtxUserKey).(*usermodel.User)
	if user.Role != usermodel.RoleAdmin && user.Role != usermodel.RoleManager {
		c.JSON(http.StatusForbidden, gin.H{"detail": "Insufficient permissions"})
		return
	}
	id := c.Param("id")

	var req approvalDecision
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	a, err := h.engage.ProcessApproval(c.Request.Context(), id, user.ID, req.Status, req.Notes)
	if err != nil {
		if errs.ErrRecordNotFound.Is(err) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Approval request already processed"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "server error"})
		return
	}

	if req.Status == engagemodel.StateApproved {
		h.award(c, user.ID, 3, "Approved request", "approval")
	}
	// The requester is notified on their personal room, every device.
	h.bcast.SendToUser(a.RequesterID, gateway.EvApprovalProcessed, gin.H{
		"approval_id":  a.ID,
		"status":       a.Status,
		"requester_id": a.RequesterID,
	})
	c.JSON(http.StatusOK, a)
}

// ---- invitations ----

type invitationRequest struct {
	Type          string `json:"type" binding:"required"`
	InviteeEmail  string `json:"invitee_email"`
	InviteeUserID string `json:"invitee_user_id"`
	ReferenceID   string `json:"reference_id"`
	Message       string `json:"message"`
}

func (h *Handler) CreateInvitation(c *gin.Context) {
	user := c.MustGet(midsec.CtxUserKey).(*usermodel.User)

	var req invitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if req.InviteeEmail == "" && req.InviteeUserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invitee_email or invitee_user_id required"})
		return
	}

	inv := &engagemodel.Invitation{
		Type:          req.Type,
		InviterID:     user.ID,
		InviteeEmail:  req.InviteeEmail,
		InviteeUserID: req.InviteeUserID,
		ReferenceID:   req.ReferenceID,
		Message:       req.Message,
	}
	if err := h.engage.InsertInvitation(c.Request.Context(), inv); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "server error"})
		return
	}

	h.award(c, user.ID, 2, "Sent invitation", "invitation")
	if inv.InviteeUserID != "" {
		h.bcast.SendToUser(inv.InviteeUserID, gateway.EvNewInvitation, inv)
	}
	c.JSON(http.StatusOK, inv)
}

type invitationDecision struct {
	Status string `json:"status" binding:"required,oneof=accepted rejected"`
}

func (h *Handler) RespondInvitation(c *gin.Context) {
	user := c.MustGet(midsec.CtxUserKey).(*usermodel.User)
	id := c.Param("id")

	var req invitationDecision
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	inv, err := h.engage.RespondInvitation(c.Request.Context(), id, req.Status)
	if err != nil {
		if errs.ErrRecordNotFound.Is(err) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Invitation already processed"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "server error"})
		return
	}

	if req.Status == engagemodel.StateAccepted {
		h.award(c, user.ID, 5, "Accepted invitation", "invitation")
		h.bcast.SendToUser(inv.InviterID, gateway.EvInvitationAccepted, gin.H{
			"invitation_id": inv.ID,
			"invitee_id":    user.ID,
			"invitee_name":  user.FullName,
		})
	} else {
		h.bcast.SendToUser(inv.InviterID, gateway.EvInvitationRejected, gin.H{
			"invitation_id": inv.ID,
			"invitee_id":    user.ID,
		})
	}
	c.JSON(http.StatusOK, inv)
}
