package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"user-accounts/internal/domain"
	"user-accounts/internal/repository"
)

const archiveContentType = "application/json"

type archiveRecord struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	RemovedAt    time.Time `json:"removedAt"`
}

// Archive mirrors removed-user snapshots into object storage, one JSON object per user.
type Archive struct {
	svc  Service
	opts UploadOptions
}

func NewArchive(svc Service, opts UploadOptions) *Archive {
	return &Archive{svc: svc, opts: opts}
}

func (a *Archive) Save(ctx context.Context, entry domain.RemovedUser) error {
	if strings.TrimSpace(entry.ID) == "" {
		return fmt.Errorf("archive entry id is required")
	}

	body, err := json.Marshal(archiveRecord{
		ID:           entry.ID,
		Username:     entry.Username,
		PasswordHash: entry.PasswordHash,
		CreatedAt:    entry.CreatedAt.UTC(),
		UpdatedAt:    entry.UpdatedAt.UTC(),
		RemovedAt:    entry.RemovedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode archive entry: %w", err)
	}

	if _, err := a.svc.Upload(ctx, a.opts.Bucket, a.objectKey(entry.ID), archiveContentType, bytes.NewReader(body)); err != nil {
		return fmt.Errorf("mirror archive entry: %w", err)
	}
	return nil
}

func (a *Archive) objectKey(id string) string {
	prefix := strings.Trim(a.opts.KeyPrefix, "/")
	if prefix == "" {
		return id + ".json"
	}
	return path.Join(prefix, id+".json")
}

var _ repository.ArchiveRepository = (*Archive)(nil)
