package service

import (
	"context"
	"fmt"
	"time"

	chatmodel "github.com/vkmindia80/Unified/module/chat/model"
	"github.com/vkmindia80/Unified/tools/errs"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ChatService struct {
	db *mongo.Database
}

func NewChatService(db *mongo.Database) *ChatService {
	return &ChatService{db: db}
}

func (s *ChatService) chats() *mongo.Collection    { return s.db.Collection("chats") }
func (s *ChatService) messages() *mongo.Collection { return s.db.Collection("messages") }

func (s *ChatService) EnsureIndexes(ctx context.Context) error {
	_, err := s.messages().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "chat_id", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	})
	return errors.Wrap(err, "ensure message indexes")
}

func (s *ChatService) Create(ctx context.Context, c *chatmodel.Chat) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := s.chats().InsertOne(ctx, c)
	return errors.Wrap(err, "insert chat")
}

func (s *ChatService) FindByID(ctx context.Context, id string) (*chatmodel.Chat, error) {
	var c chatmodel.Chat
	err := s.chats().FindOne(ctx, bson.M{"id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrRecordNotFound.WrapMsg("chat", "id", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "find chat by id")
	}
	return &c, nil
}

// IsParticipant answers the authorization question the event layer asks
// before a chat-room join and again on every message send.
func (s *ChatService) IsParticipant(ctx context.Context, chatID, userID string) (bool, error) {
	err := s.chats().FindOne(ctx,
		bson.M{"id": chatID, "participants": userID},
		options.FindOne().SetProjection(bson.M{"id": 1}),
	).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "participant check")
	}
	return true, nil
}

// AppendMessage persists a message and refreshes the chat's last-message
// summary. The message id/timestamp are filled in here.
func (s *ChatService) AppendMessage(ctx context.Context, m *chatmodel.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if m.ReadBy == nil {
		m.ReadBy = []string{}
	}
	if m.Files == nil {
		m.Files = []chatmodel.FileRef{}
	}
	if _, err := s.messages().InsertOne(ctx, m); err != nil {
		return errors.Wrap(err, "insert message")
	}

	last := m.Content
	if last == "" && len(m.Files) > 0 {
		last = fmt.Sprintf("%d file(s)", len(m.Files))
	}
	_, err := s.chats().UpdateOne(ctx,
		bson.M{"id": m.ChatID},
		bson.M{"$set": bson.M{"last_message": last, "last_message_at": m.CreatedAt}},
	)
	return errors.Wrap(err, "touch last message")
}

// ListMessages returns chat history, oldest first.
func (s *ChatService) ListMessages(ctx context.Context, chatID string, limit int64) ([]chatmodel.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	cur, err := s.messages().Find(ctx,
		bson.M{"chat_id": chatID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}).SetLimit(limit),
	)
	if err != nil {
		return nil, errors.Wrap(err, "list messages")
	}
	defer cur.Close(ctx)

	var out []chatmodel.Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decode messages")
	}
	return out, nil
}
