package model

import "time"

// Announcement priorities
const (
	PriorityUrgent = "urgent"
	PriorityHigh   = "high"
	PriorityNormal = "normal"
	PriorityLow    = "low"
)

type Announcement struct {
	ID                      string     `bson:"id" json:"id"`
	Title                   string     `bson:"title" json:"title"`
	Content                 string     `bson:"content" json:"content"`
	Priority                string     `bson:"priority" json:"priority"`
	TargetAudience          string     `bson:"target_audience" json:"target_audience"` // all | department | team | role
	TargetValue             string     `bson:"target_value,omitempty" json:"target_value,omitempty"`
	RequiresAcknowledgement bool       `bson:"requires_acknowledgement" json:"requires_acknowledgement"`
	AcknowledgedBy          []string   `bson:"acknowledged_by" json:"acknowledged_by"`
	CreatedBy               string     `bson:"created_by" json:"created_by"`
	CreatedAt               time.Time  `bson:"created_at" json:"created_at"`
	ExpiresAt               *time.Time `bson:"expires_at,omitempty" json:"expires_at,omitempty"`
}

// Recognition categories
const (
	CategoryTeamwork   = "teamwork"
	CategoryInnovation = "innovation"
	CategoryLeadership = "leadership"
	CategoryExcellence = "excellence"
	CategoryHelpful    = "helpful"
)

type RecognitionComment struct {
	ID        string    `bson:"id" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Text      string    `bson:"text" json:"text"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

type Recognition struct {
	ID               string               `bson:"id" json:"id"`
	RecognizedUserID string               `bson:"recognized_user_id" json:"recognized_user_id"`
	RecognizerID     string               `bson:"recognizer_id" json:"recognizer_id"`
	Category         string               `bson:"category" json:"category"`
	Message          string               `bson:"message" json:"message"`
	IsPublic         bool                 `bson:"is_public" json:"is_public"`
	Likes            []string             `bson:"likes" json:"likes"`
	Comments         []RecognitionComment `bson:"comments" json:"comments"`
	CreatedAt        time.Time            `bson:"created_at" json:"created_at"`
}

// Approval / invitation lifecycle states
const (
	StatePending  = "pending"
	StateApproved = "approved"
	StateRejected = "rejected"
	StateAccepted = "accepted"
)

type Approval struct {
	ID            string         `bson:"id" json:"id"`
	Type          string         `bson:"type" json:"type"` // space_join | user_registration | reward_redemption | content_approval
	ReferenceID   string         `bson:"reference_id" json:"reference_id"`
	ReferenceType string         `bson:"reference_type" json:"reference_type"`
	RequesterID   string         `bson:"requester_id" json:"requester_id"`
	ApproverID    string         `bson:"approver_id,omitempty" json:"approver_id,omitempty"`
	Status        string         `bson:"status" json:"status"`
	Details       map[string]any `bson:"details,omitempty" json:"details,omitempty"`
	Notes         string         `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt     time.Time      `bson:"created_at" json:"created_at"`
	ProcessedAt   *time.Time     `bson:"processed_at,omitempty" json:"processed_at,omitempty"`
}

type Invitation struct {
	ID            string     `bson:"id" json:"id"`
	Type          string     `bson:"type" json:"type"` // space | organization | event
	InviterID     string     `bson:"inviter_id" json:"inviter_id"`
	InviteeEmail  string     `bson:"invitee_email,omitempty" json:"invitee_email,omitempty"`
	InviteeUserID string     `bson:"invitee_user_id,omitempty" json:"invitee_user_id,omitempty"`
	ReferenceID   string     `bson:"reference_id,omitempty" json:"reference_id,omitempty"`
	Message       string     `bson:"message,omitempty" json:"message,omitempty"`
	Status        string     `bson:"status" json:"status"`
	CreatedAt     time.Time  `bson:"created_at" json:"created_at"`
	ExpiresAt     *time.Time `bson:"expires_at,omitempty" json:"expires_at,omitempty"`
}
