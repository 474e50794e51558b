package service

import (
	"context"
	"time"

	usermodel "github.com/vkmindia80/Unified/module/user/model"
	"github.com/vkmindia80/Unified/tools/errs"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserService is the account store: user master records plus the
// gamification ledger.
type UserService struct {
	db *mongo.Database
}

func NewUserService(db *mongo.Database) *UserService {
	return &UserService{db: db}
}

func (s *UserService) users() *mongo.Collection  { return s.db.Collection("users") }
func (s *UserService) points() *mongo.Collection { return s.db.Collection("points") }

// EnsureIndexes creates the unique email/username indexes.
func (s *UserService) EnsureIndexes(ctx context.Context) error {
	_, err := s.users().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	return errors.Wrap(err, "ensure user indexes")
}

func (s *UserService) Insert(ctx context.Context, u *usermodel.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if u.Status == "" {
		u.Status = usermodel.StatusOffline
	}
	if u.Level == 0 {
		u.Level = usermodel.CalculateLevel(u.Points)
	}
	_, err := s.users().InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return errs.ErrDuplicateKey.WrapMsg("email or username already taken")
	}
	return errors.Wrap(err, "insert user")
}

func (s *UserService) FindByID(ctx context.Context, id string) (*usermodel.User, error) {
	var u usermodel.User
	err := s.users().FindOne(ctx, bson.M{"id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrRecordNotFound.WrapMsg("user", "id", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "find user by id")
	}
	return &u, nil
}

func (s *UserService) FindByEmail(ctx context.Context, email string) (*usermodel.User, error) {
	var u usermodel.User
	err := s.users().FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrRecordNotFound.WrapMsg("user", "email", email)
	}
	if err != nil {
		return nil, errors.Wrap(err, "find user by email")
	}
	return &u, nil
}

// SetStatus is a narrow field-level update so a concurrent profile update
// is never clobbered.
func (s *UserService) SetStatus(ctx context.Context, id, status string, lastSeen time.Time) error {
	res, err := s.users().UpdateOne(ctx,
		bson.M{"id": id},
		bson.M{"$set": bson.M{"status": status, "last_seen": lastSeen}},
	)
	if err != nil {
		return errors.Wrap(err, "set status")
	}
	if res.MatchedCount == 0 {
		return errs.ErrRecordNotFound.WrapMsg("user", "id", id)
	}
	return nil
}

// AwardPoints increments the user's points, recomputes the level and appends
// a ledger entry. Returns the new totals.
func (s *UserService) AwardPoints(ctx context.Context, userID string, points int, reason, activityType string) (newPoints, newLevel int, err error) {
	u, err := s.FindByID(ctx, userID)
	if err != nil {
		return 0, 1, err
	}
	newPoints = u.Points + points
	newLevel = usermodel.CalculateLevel(newPoints)

	_, err = s.users().UpdateOne(ctx,
		bson.M{"id": userID},
		bson.M{"$set": bson.M{"points": newPoints, "level": newLevel}},
	)
	if err != nil {
		return 0, 1, errors.Wrap(err, "award points")
	}

	_, err = s.points().InsertOne(ctx, &usermodel.PointTransaction{
		ID:           uuid.NewString(),
		UserID:       userID,
		Points:       points,
		Reason:       reason,
		ActivityType: activityType,
		CreatedAt:    time.Now().UTC(),
	})
	return newPoints, newLevel, errors.Wrap(err, "record point transaction")
}
