package profile

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// withoutID keeps the store-assigned _id out of every read.
var withoutID = bson.M{"_id": 0}

// MongoStore implements Backend on a MongoDB collection keyed by uuid.
// List order is insertion order (_id ascending).
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore creates a store over coll.
func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

// EnsureIndexes creates the unique uuid index and the email lookup index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: fieldUUID, Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uuid_unique"),
		},
		{
			Keys:    bson.D{{Key: fieldEmail, Value: 1}},
			Options: options.Index().SetName("email"),
		},
	})
	return err
}

func (s *MongoStore) Exists(ctx context.Context, id string) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{fieldUUID: id}, options.Count().SetLimit(1))
	if err != nil {
		return false, backendError(msgExists, err)
	}
	return n > 0, nil
}

func (s *MongoStore) HasConflict(ctx context.Context, email string) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{fieldEmail: email}, options.Count().SetLimit(1))
	if err != nil {
		return false, backendError(msgIntegrity, err)
	}
	return n > 0, nil
}

func (s *MongoStore) List(ctx context.Context, offset, limit int) ([]Profile, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit)).
		SetProjection(withoutID)

	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, backendError(msgList, err)
	}
	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, backendError(msgList, err)
	}

	out := make([]Profile, 0, len(docs))
	for _, d := range docs {
		out = append(out, *d.toProfile())
	}
	return out, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Profile, bool, error) {
	var doc document
	err := s.coll.FindOne(ctx, bson.M{fieldUUID: id}, options.FindOne().SetProjection(withoutID)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, backendError(msgGet, err)
	}
	return doc.toProfile(), true, nil
}

func (s *MongoStore) Create(ctx context.Context, p *Profile) (*Profile, error) {
	doc := toDocument(p)
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return nil, backendError(msgCreate, err)
	}
	return doc.toProfile(), nil
}

func (s *MongoStore) Update(ctx context.Context, id string, params UpdateParams) error {
	fields := updateFields(params)
	if len(fields) == 0 {
		return nil
	}
	set := make(bson.D, 0, len(fields))
	for _, f := range fields {
		set = append(set, bson.E{Key: f.Name, Value: f.Value})
	}

	res, err := s.coll.UpdateOne(ctx, bson.M{fieldUUID: id}, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return backendError(msgUpdate, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{fieldUUID: id}); err != nil {
		return backendError(msgDelete, err)
	}
	return nil
}

// Compile-time interface check
var _ Backend = (*MongoStore)(nil)
