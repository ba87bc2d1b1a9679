package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/servicedesk/service-desk/internal/core/domain"
)

// directoryID is the _id of the single document holding the user set.
const directoryID = "users"

type directoryDoc struct {
	ID        string        `bson:"_id"`
	Users     []domain.User `bson:"users"`
	UpdatedAt time.Time     `bson:"updated_at"`
}

// UserStore persists the complete user set as one document. A single-document
// replace is atomic in MongoDB, so readers see either the old or the new set.
type UserStore struct {
	col *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{col: db.Collection(collectionUserDirectory)}
}

// LoadAll returns the committed set, or an empty set when nothing was saved yet.
func (s *UserStore) LoadAll(ctx context.Context) ([]domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc directoryDoc
	err := s.col.FindOne(ctx, bson.M{"_id": directoryID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return []domain.User{}, nil
		}
		return nil, fmt.Errorf("load users: %w", err)
	}
	if doc.Users == nil {
		return []domain.User{}, nil
	}
	return doc.Users, nil
}

// SaveAll replaces the committed set with users.
func (s *UserStore) SaveAll(ctx context.Context, users []domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if users == nil {
		users = []domain.User{}
	}
	doc := directoryDoc{ID: directoryID, Users: users, UpdatedAt: time.Now().UTC()}
	_, err := s.col.ReplaceOne(ctx, bson.M{"_id": directoryID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save users: %w", err)
	}
	return nil
}
