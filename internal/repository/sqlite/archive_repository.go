package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"user-accounts/internal/domain"
	"user-accounts/internal/repository"
)

const createRemovedUsersTable = `
CREATE TABLE IF NOT EXISTS removed_users (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	removed_at DATETIME NOT NULL
);
`

// ArchiveRepository keeps removed-user snapshots in their own table.
type ArchiveRepository struct {
	db *sql.DB
}

func NewArchiveRepository(db *sql.DB) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

func (r *ArchiveRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createRemovedUsersTable); err != nil {
		return fmt.Errorf("create removed_users table: %w", err)
	}
	return nil
}

// Save writes the snapshot, replacing an earlier one with the same id.
func (r *ArchiveRepository) Save(ctx context.Context, entry domain.RemovedUser) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO removed_users (id, username, password_hash, created_at, updated_at, removed_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	username = excluded.username,
	password_hash = excluded.password_hash,
	created_at = excluded.created_at,
	updated_at = excluded.updated_at,
	removed_at = excluded.removed_at`,
		entry.ID,
		entry.Username,
		entry.PasswordHash,
		entry.CreatedAt,
		entry.UpdatedAt,
		entry.RemovedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert removed user: %w", err)
	}
	return nil
}

// Get loads an archived entry. It is not exposed over HTTP.
func (r *ArchiveRepository) Get(ctx context.Context, id string) (*domain.RemovedUser, error) {
	var entry domain.RemovedUser
	err := r.db.QueryRowContext(ctx, `
SELECT id, username, password_hash, created_at, updated_at, removed_at
FROM removed_users
WHERE id = ?`,
		id,
	).Scan(
		&entry.ID,
		&entry.Username,
		&entry.PasswordHash,
		&entry.CreatedAt,
		&entry.UpdatedAt,
		&entry.RemovedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan removed user: %w", err)
	}
	return &entry, nil
}

var _ repository.ArchiveRepository = (*ArchiveRepository)(nil)
