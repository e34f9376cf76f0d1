package repository

import (
	"context"
	"errors"
	"fmt"

	"user-accounts/internal/domain"
)

var (
	// ErrNotFound is returned when no record matches the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint such as the username is violated.
	ErrDuplicate = errors.New("record already exists")
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (string, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}

// ArchiveRepository stores snapshots of removed users. Save is idempotent per
// user id: a retried delete overwrites the earlier snapshot instead of failing.
type ArchiveRepository interface {
	Save(ctx context.Context, entry domain.RemovedUser) error
}

// MultiArchive writes an entry to every archive in order and stops at the first failure.
type MultiArchive []ArchiveRepository

func (m MultiArchive) Save(ctx context.Context, entry domain.RemovedUser) error {
	for i, archive := range m {
		if archive == nil {
			continue
		}
		if err := archive.Save(ctx, entry); err != nil {
			return fmt.Errorf("archive %d: %w", i, err)
		}
	}
	return nil
}
