package account

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Store persists user accounts.
type Store interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByVerificationToken(ctx context.Context, token string) (*User, error)
	// SetVerificationToken replaces the user's outstanding verification token.
	SetVerificationToken(ctx context.Context, userID, token string, expires time.Time) error
	// ConsumeVerificationToken atomically marks the matching unexpired token's
	// user as verified and clears the token fields, so a token can be
	// consumed at most once. Returns ErrTokenNotFound when no unexpired token
	// matched.
	ConsumeVerificationToken(ctx context.Context, token string, now time.Time) (*User, error)
}

const usersCollection = "users"

// MongoStore implements Store on a MongoDB collection.
type MongoStore struct {
	col *mongo.Collection
}

// NewMongoStore creates a Store backed by the users collection of db.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection(usersCollection)}
}

// EnsureIndexes creates the unique email index and the verification token
// lookup index. Safe to call on every startup.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "verification_token", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	})
	return err
}

func (s *MongoStore) Create(ctx context.Context, user *User) error {
	_, err := s.col.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrEmailTaken
	}
	return err
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (*User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *MongoStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *MongoStore) FindByVerificationToken(ctx context.Context, token string) (*User, error) {
	return s.findOne(ctx, bson.M{"verification_token": token})
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*User, error) {
	var user User
	err := s.col.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *MongoStore) SetVerificationToken(ctx context.Context, userID, token string, expires time.Time) error {
	res, err := s.col.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{
			"verification_token":   token,
			"verification_expires": expires,
			"updated_at":           time.Now(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) ConsumeVerificationToken(ctx context.Context, token string, now time.Time) (*User, error) {
	filter := bson.M{
		"verification_token":   token,
		"verification_expires": bson.M{"$gt": now},
	}
	update := bson.M{
		"$set":   bson.M{"is_email_verified": true, "updated_at": now},
		"$unset": bson.M{"verification_token": "", "verification_expires": ""},
	}

	var user User
	err := s.col.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
