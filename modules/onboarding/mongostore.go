package onboarding

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	processCollection = "process_instances"
	historyCollection = "process_history"
)

// MongoProcessStore persists process instances in a MongoDB collection with
// explicit optimistic locking: every replace is filtered on the version the
// document was loaded with.
type MongoProcessStore struct {
	coll *mongo.Collection
}

func NewMongoProcessStore(db *mongo.Database) *MongoProcessStore {
	return &MongoProcessStore{coll: db.Collection(processCollection)}
}

func (s *MongoProcessStore) Load(ctx context.Context, id string) (*ProcessInstance, error) {
	var pi ProcessInstance
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&pi)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProcessNotFound
		}
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	return &pi, nil
}

func (s *MongoProcessStore) Save(ctx context.Context, pi *ProcessInstance) error {
	if pi.Version == 0 {
		pi.Version = 1
		if _, err := s.coll.InsertOne(ctx, pi); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrVersionConflict
			}
			return errors.Join(ErrStoreUnavailable, err)
		}
		return nil
	}

	loadedVersion := pi.Version
	pi.Version++
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": pi.ID, "version": loadedVersion}, pi)
	if err != nil {
		pi.Version = loadedVersion
		return errors.Join(ErrStoreUnavailable, err)
	}
	if res.MatchedCount == 0 {
		pi.Version = loadedVersion
		return ErrVersionConflict
	}
	return nil
}

// MongoHistoryStore stores the append-only audit trail.
type MongoHistoryStore struct {
	coll *mongo.Collection
}

func NewMongoHistoryStore(db *mongo.Database) *MongoHistoryStore {
	return &MongoHistoryStore{coll: db.Collection(historyCollection)}
}

func (s *MongoHistoryStore) Append(ctx context.Context, h ProcessHistory) error {
	if _, err := s.coll.InsertOne(ctx, h); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (s *MongoHistoryStore) ListByProcess(ctx context.Context, processID string) ([]ProcessHistory, error) {
	cur, err := s.coll.Find(ctx,
		bson.M{"process_id": processID},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}),
	)
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	var out []ProcessHistory
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	return out, nil
}
