package service

import (
	"context"
	"time"

	engagemodel "github.com/vkmindia80/Unified/module/engage/model"
	"github.com/vkmindia80/Unified/tools/errs"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EngageService persists the engagement surfaces: announcements,
// recognitions, approvals and invitations.
type EngageService struct {
	db *mongo.Database
}

func NewEngageService(db *mongo.Database) *EngageService {
	return &EngageService{db: db}
}

func (s *EngageService) announcements() *mongo.Collection { return s.db.Collection("announcements") }
func (s *EngageService) recognitions() *mongo.Collection  { return s.db.Collection("recognitions") }
func (s *EngageService) approvals() *mongo.Collection     { return s.db.Collection("approvals") }
func (s *EngageService) invitations() *mongo.Collection   { return s.db.Collection("invitations") }

func (s *EngageService) EnsureIndexes(ctx context.Context) error {
	_, err := s.announcements().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "priority", Value: 1}}},
	})
	if err != nil {
		return errors.Wrap(err, "ensure announcement indexes")
	}
	_, err = s.recognitions().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "recognized_user_id", Value: 1}}},
	})
	if err != nil {
		return errors.Wrap(err, "ensure recognition indexes")
	}
	_, err = s.approvals().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "type", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "requester_id", Value: 1}}},
	})
	return errors.Wrap(err, "ensure approval indexes")
}

// ---- announcements ----

func (s *EngageService) InsertAnnouncement(ctx context.Context, a *engagemodel.Announcement) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if a.AcknowledgedBy == nil {
		a.AcknowledgedBy = []string{}
	}
	_, err := s.announcements().InsertOne(ctx, a)
	return errors.Wrap(err, "insert announcement")
}

func (s *EngageService) FindAnnouncement(ctx context.Context, id string) (*engagemodel.Announcement, error) {
	var a engagemodel.Announcement
	err := s.announcements().FindOne(ctx, bson.M{"id": id}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrRecordNotFound.WrapMsg("announcement", "id", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "find announcement")
	}
	return &a, nil
}

// Acknowledge records the user once, however many times they ack.
func (s *EngageService) Acknowledge(ctx context.Context, announcementID, userID string) error {
	res, err := s.announcements().UpdateOne(ctx,
		bson.M{"id": announcementID},
		bson.M{"$addToSet": bson.M{"acknowledged_by": userID}},
	)
	if err != nil {
		return errors.Wrap(err, "acknowledge announcement")
	}
	if res.MatchedCount == 0 {
		return errs.ErrRecordNotFound.WrapMsg("announcement", "id", announcementID)
	}
	return nil
}

func (s *EngageService) ListAnnouncements(ctx context.Context, limit int64) ([]engagemodel.Announcement, error) {
	if limit <= 0 {
		limit = 50
	}
	cur, err := s.announcements().Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, errors.Wrap(err, "list announcements")
	}
	defer cur.Close(ctx)
	var out []engagemodel.Announcement
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decode announcements")
	}
	return out, nil
}

// ---- recognitions ----

func (s *EngageService) InsertRecognition(ctx context.Context, r *engagemodel.Recognition) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.Likes == nil {
		r.Likes = []string{}
	}
	if r.Comments == nil {
		r.Comments = []engagemodel.RecognitionComment{}
	}
	_, err := s.recognitions().InsertOne(ctx, r)
	return errors.Wrap(err, "insert recognition")
}

func (s *EngageService) FindRecognition(ctx context.Context, id string) (*engagemodel.Recognition, error) {
	var r engagemodel.Recognition
	err := s.recognitions().FindOne(ctx, bson.M{"id": id}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrRecordNotFound.WrapMsg("recognition", "id", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "find recognition")
	}
	return &r, nil
}

// ToggleLike likes on first call and unlikes on the second. Returns whether
// the user likes the recognition after this call.
func (s *EngageService) ToggleLike(ctx context.Context, recognitionID, userID string) (bool, error) {
	r, err := s.FindRecognition(ctx, recognitionID)
	if err != nil {
		return false, err
	}
	liked := false
	for _, u := range r.Likes {
		if u == userID {
			liked = true
			break
		}
	}
	var update bson.M
	if liked {
		update = bson.M{"$pull": bson.M{"likes": userID}}
	} else {
		update = bson.M{"$addToSet": bson.M{"likes": userID}}
	}
	if _, err := s.recognitions().UpdateOne(ctx, bson.M{"id": recognitionID}, update); err != nil {
		return false, errors.Wrap(err, "toggle like")
	}
	return !liked, nil
}

func (s *EngageService) AddComment(ctx context.Context, recognitionID string, comment engagemodel.RecognitionComment) error {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	res, err := s.recognitions().UpdateOne(ctx,
		bson.M{"id": recognitionID},
		bson.M{"$push": bson.M{"comments": comment}},
	)
	if err != nil {
		return errors.Wrap(err, "add comment")
	}
	if res.MatchedCount == 0 {
		return errs.ErrRecordNotFound.WrapMsg("recognition", "id", recognitionID)
	}
	return nil
}

// ---- approvals ----

func (s *EngageService) InsertApproval(ctx context.Context, a *engagemodel.Approval) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if a.Status == "" {
		a.Status = engagemodel.StatePending
	}
	_, err := s.approvals().InsertOne(ctx, a)
	return errors.Wrap(err, "insert approval")
}

func (s *EngageService) FindApproval(ctx context.Context, id string) (*engagemodel.Approval, error) {
	var a engagemodel.Approval
	err := s.approvals().FindOne(ctx, bson.M{"id": id}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrRecordNotFound.WrapMsg("approval", "id", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "find approval")
	}
	return &a, nil
}

// ProcessApproval moves a pending approval to approved/rejected exactly
// once.
func (s *EngageService) ProcessApproval(ctx context.Context, id, approverID, status, notes string) (*engagemodel.Approval, error) {
	now := time.Now().UTC()
	res := s.approvals().FindOneAndUpdate(ctx,
		bson.M{"id": id, "status": engagemodel.StatePending},
		bson.M{"$set": bson.M{
			"status":       status,
			"approver_id":  approverID,
			"notes":        notes,
			"processed_at": now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var a engagemodel.Approval
	err := res.Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrRecordNotFound.WrapMsg("pending approval", "id", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "process approval")
	}
	return &a, nil
}

// ---- invitations ----

func (s *EngageService) InsertInvitation(ctx context.Context, inv *engagemodel.Invitation) error {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now().UTC()
	}
	if inv.Status == "" {
		inv.Status = engagemodel.StatePending
	}
	_, err := s.invitations().InsertOne(ctx, inv)
	return errors.Wrap(err, "insert invitation")
}

// RespondInvitation flips a pending invitation to accepted/rejected.
func (s *EngageService) RespondInvitation(ctx context.Context, id, status string) (*engagemodel.Invitation, error) {
	res := s.invitations().FindOneAndUpdate(ctx,
		bson.M{"id": id, "status": engagemodel.StatePending},
		bson.M{"$set": bson.M{"status": status}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var inv engagemodel.Invitation
	err := res.Decode(&inv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrRecordNotFound.WrapMsg("pending invitation", "id", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "respond invitation")
	}
	return &inv, nil
}
