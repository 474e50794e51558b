package gateway

import (
	"encoding/json"
	"fmt"

	chatmodel "github.com/vkmindia80/Unified/module/chat/model"
)

// Inbound event names accepted from a connection.
const (
	EvAuthenticate = "authenticate"
	EvJoinChat     = "join_chat"
	EvLeaveChat    = "leave_chat"
	EvSendMessage  = "send_message"
	EvTyping       = "typing"
	EvWebRTCSignal = "webrtc_signal"
	EvCallUser     = "call_user"
	EvCallResponse = "call_response"
)

// Outbound event names emitted to connections.
const (
	EvAuthenticated = "authenticated"
	EvError         = "error"
	EvUserStatus    = "user_status"
	EvNewMessage    = "new_message"
	EvUserTyping    = "user_typing"
	EvIncomingCall  = "incoming_call"

	EvNewAnnouncement          = "new_announcement"
	EvAnnouncementAcknowledged = "announcement_acknowledged"
	EvNewRecognition           = "new_recognition"
	EvRecognitionLiked         = "recognition_liked"
	EvRecognitionCommented     = "recognition_commented"
	EvNewApproval              = "new_approval"
	EvApprovalProcessed        = "approval_processed"
	EvNewInvitation            = "new_invitation"
	EvInvitationAccepted       = "invitation_accepted"
	EvInvitationRejected       = "invitation_rejected"
)

// Room key namespaces. chat_<id> membership is the chat's participants,
// user_<id> membership is exactly one user's connections.
func RoomChat(chatID string) string { return "chat_" + chatID }
func RoomUser(userID string) string { return "user_" + userID }

// Frame is the JSON envelope exchanged over the socket in both directions:
// {"event": "...", "data": {...}}.
type Frame struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}

func ParseFrame(raw []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("unmarshal frame: %w", err)
	}
	if f.Event == "" {
		return nil, fmt.Errorf("frame missing event name")
	}
	return &f, nil
}

// EncodeEvent builds the wire form of one outbound event.
func EncodeEvent(event string, data any) ([]byte, error) {
	return json.Marshal(map[string]any{"event": event, "data": data})
}

// ---- typed inbound payloads, decoded out of Frame.Data ----

type JoinChatPayload struct {
	ChatID string `json:"chat_id"`
}

type SendMessagePayload struct {
	ChatID  string              `json:"chat_id"`
	Content string              `json:"content"`
	Type    string              `json:"type"`
	Files   []chatmodel.FileRef `json:"files"`
}

type TypingPayload struct {
	ChatID   string `json:"chat_id"`
	IsTyping bool   `json:"is_typing"`
}

type SignalPayload struct {
	TargetUserID string `json:"target_user_id"`
	Signal       any    `json:"signal"`
	CallType     string `json:"call_type"`
}

type CallUserPayload struct {
	TargetUserID string `json:"target_user_id"`
	CallType     string `json:"call_type"`
}

type CallResponsePayload struct {
	TargetUserID string `json:"target_user_id"`
	Accepted     bool   `json:"accepted"`
}
