package model

import "time"

// Chat types
const (
	TypeDirect = "direct"
	TypeGroup  = "group"
)

type Chat struct {
	ID            string    `bson:"id" json:"id"`
	Name          string    `bson:"name,omitempty" json:"name,omitempty"`
	Type          string    `bson:"type" json:"type"` // direct | group
	Participants  []string  `bson:"participants" json:"participants"`
	LastMessage   string    `bson:"last_message,omitempty" json:"last_message,omitempty"`
	LastMessageAt time.Time `bson:"last_message_at,omitempty" json:"last_message_at,omitempty"`
	CreatedBy     string    `bson:"created_by" json:"created_by"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}

// FileRef is the metadata of an uploaded attachment carried on a message.
type FileRef struct {
	ID       string `bson:"id" json:"id"`
	Filename string `bson:"filename" json:"filename"`
	URL      string `bson:"url" json:"url"`
	MimeType string `bson:"mime_type,omitempty" json:"mime_type,omitempty"`
	Size     int64  `bson:"size,omitempty" json:"size,omitempty"`
}

type Message struct {
	ID        string    `bson:"id" json:"id"`
	ChatID    string    `bson:"chat_id" json:"chat_id"`
	SenderID  string    `bson:"sender_id" json:"sender_id"`
	Content   string    `bson:"content" json:"content"`
	Type      string    `bson:"type" json:"type"` // text | file | image | gif
	Files     []FileRef `bson:"files" json:"files"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	ReadBy    []string  `bson:"read_by" json:"read_by"`

	// Sender is a denormalized view attached on broadcast/fetch paths,
	// never persisted with the message document.
	Sender map[string]any `bson:"-" json:"sender,omitempty"`
}
