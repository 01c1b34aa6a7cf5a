package profile

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DefaultCollection is the Firestore collection holding profiles.
const DefaultCollection = "profiles"

// FirestoreStore implements Backend on a Firestore collection. Each profile
// is stored in a document named after its uuid.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreStore creates a store over the named collection.
func NewFirestoreStore(client *firestore.Client, collection string) *FirestoreStore {
	if collection == "" {
		collection = DefaultCollection
	}
	return &FirestoreStore{client: client, collection: collection}
}

func (s *FirestoreStore) col() *firestore.CollectionRef {
	return s.client.Collection(s.collection)
}

func (s *FirestoreStore) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.col().Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	if err != nil {
		return false, backendError(msgExists, err)
	}
	return true, nil
}

func (s *FirestoreStore) HasConflict(ctx context.Context, email string) (bool, error) {
	iter := s.col().Where(fieldEmail, "==", email).Select().Limit(1).Documents(ctx)
	defer iter.Stop()

	_, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return false, nil
	}
	if err != nil {
		return false, backendError(msgIntegrity, err)
	}
	return true, nil
}

// List orders by uuid, which matches document name order.
func (s *FirestoreStore) List(ctx context.Context, offset, limit int) ([]Profile, error) {
	iter := s.col().OrderBy(fieldUUID, firestore.Asc).Offset(offset).Limit(limit).Documents(ctx)
	defer iter.Stop()

	out := make([]Profile, 0, limit)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, backendError(msgList, err)
		}
		var doc document
		if err := snap.DataTo(&doc); err != nil {
			return nil, backendError(msgList, err)
		}
		out = append(out, *doc.toProfile())
	}
	return out, nil
}

func (s *FirestoreStore) Get(ctx context.Context, id string) (*Profile, bool, error) {
	snap, err := s.col().Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, backendError(msgGet, err)
	}
	var doc document
	if err := snap.DataTo(&doc); err != nil {
		return nil, false, backendError(msgGet, err)
	}
	return doc.toProfile(), true, nil
}

// Create fails if a document with the same uuid already exists.
func (s *FirestoreStore) Create(ctx context.Context, p *Profile) (*Profile, error) {
	doc := toDocument(p)
	if _, err := s.col().Doc(doc.UUID).Create(ctx, doc); err != nil {
		return nil, backendError(msgCreate, err)
	}
	return doc.toProfile(), nil
}

func (s *FirestoreStore) Update(ctx context.Context, id string, params UpdateParams) error {
	fields := updateFields(params)
	if len(fields) == 0 {
		return nil
	}
	updates := make([]firestore.Update, 0, len(fields))
	for _, f := range fields {
		updates = append(updates, firestore.Update{Path: f.Name, Value: f.Value})
	}

	_, err := s.col().Doc(id).Update(ctx, updates)
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	if err != nil {
		return backendError(msgUpdate, err)
	}
	return nil
}

func (s *FirestoreStore) Delete(ctx context.Context, id string) error {
	if _, err := s.col().Doc(id).Delete(ctx); err != nil {
		return backendError(msgDelete, err)
	}
	return nil
}

// Compile-time interface check
var _ Backend = (*FirestoreStore)(nil)
