package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"user-accounts/internal/domain"
	"user-accounts/internal/repository"
)

type removedUserDocument struct {
	ID           primitive.ObjectID `bson:"_id"`
	Username     string             `bson:"username"`
	PasswordHash string             `bson:"password"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
	RemovedAt    time.Time          `bson:"removed_at"`
}

// ArchiveRepository writes removed-user snapshots to the removed_users collection,
// keeping the original document id.
type ArchiveRepository struct {
	col *mongo.Collection
}

func NewArchiveRepository(db *mongo.Database) *ArchiveRepository {
	return &ArchiveRepository{col: db.Collection(removedUsersCollection)}
}

// Save upserts by id, replacing an earlier snapshot of the same user.
func (r *ArchiveRepository) Save(ctx context.Context, entry domain.RemovedUser) error {
	oid, err := primitive.ObjectIDFromHex(entry.ID)
	if err != nil {
		return fmt.Errorf("archive user %q: invalid id: %w", entry.ID, err)
	}
	doc := removedUserDocument{
		ID:           oid,
		Username:     entry.Username,
		PasswordHash: entry.PasswordHash,
		CreatedAt:    entry.CreatedAt,
		UpdatedAt:    entry.UpdatedAt,
		RemovedAt:    entry.RemovedAt.UTC(),
	}
	_, err = r.col.ReplaceOne(ctx, bson.M{"_id": oid}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("archive user: %w", err)
	}
	return nil
}

// Get loads an archived entry. It is not exposed over HTTP.
func (r *ArchiveRepository) Get(ctx context.Context, id string) (*domain.RemovedUser, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	var doc removedUserDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("find removed user: %w", err)
	}
	return &domain.RemovedUser{
		ID:           doc.ID.Hex(),
		Username:     doc.Username,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
		RemovedAt:    doc.RemovedAt,
	}, nil
}

var _ repository.ArchiveRepository = (*ArchiveRepository)(nil)
