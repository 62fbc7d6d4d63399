package license

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Store persists issued licenses.
type Store interface {
	Create(ctx context.Context, lic *License) error
	FindByKey(ctx context.Context, key string) (*License, error)
	ListAvailable(ctx context.Context, userID string, now time.Time) ([]License, error)
	// BindDevice atomically sets the device address on a license whose slot is
	// either empty or already holds the same address. Returns ErrNotFound when
	// no such document matched, which callers translate into a device
	// mismatch if the key itself exists.
	BindDevice(ctx context.Context, key, deviceAddress string) (*License, error)
}

const licensesCollection = "licenses"

// MongoStore implements Store on a MongoDB collection.
type MongoStore struct {
	col *mongo.Collection
}

// NewMongoStore creates a Store backed by the licenses collection of db.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection(licensesCollection)}
}

// EnsureIndexes creates the indexes the store's queries rely on. Safe to call
// on every startup; index creation is idempotent.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "license_key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
	})
	return err
}

func (s *MongoStore) Create(ctx context.Context, lic *License) error {
	_, err := s.col.InsertOne(ctx, lic)
	return err
}

func (s *MongoStore) FindByKey(ctx context.Context, key string) (*License, error) {
	var lic License
	err := s.col.FindOne(ctx, bson.M{"license_key": key}).Decode(&lic)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &lic, nil
}

func (s *MongoStore) ListAvailable(ctx context.Context, userID string, now time.Time) ([]License, error) {
	cursor, err := s.col.Find(ctx, bson.M{
		"user_id":     userID,
		"expire_date": bson.M{"$gt": now},
	})
	if err != nil {
		return nil, err
	}

	var licenses []License
	if err := cursor.All(ctx, &licenses); err != nil {
		return nil, err
	}
	return licenses, nil
}

// BindDevice performs a single compare-and-set on the device_address field.
// The filter only matches documents whose slot is null or already equal to
// the requested address, so of two concurrent binders with different
// addresses exactly one can win.
func (s *MongoStore) BindDevice(ctx context.Context, key, deviceAddress string) (*License, error) {
	filter := bson.M{
		"license_key": key,
		"$or": bson.A{
			bson.M{"device_address": nil},
			bson.M{"device_address": deviceAddress},
		},
	}
	update := bson.M{"$set": bson.M{"device_address": deviceAddress}}

	var lic License
	err := s.col.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&lic)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &lic, nil
}
