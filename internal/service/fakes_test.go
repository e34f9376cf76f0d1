package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"user-accounts/internal/domain"
	"user-accounts/internal/repository"
)

type fakeUserRepo struct {
	mu     sync.Mutex
	seq    int
	byID   map[string]domain.User
	getErr error
	delErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[string]domain.User)}
}

func (f *fakeUserRepo) Init(context.Context) error { return nil }

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Username == user.Username {
			return "", fmt.Errorf("insert user: %w", repository.ErrDuplicate)
		}
	}
	f.seq++
	user.ID = fmt.Sprintf("id-%d", f.seq)
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	f.byID[user.ID] = *user
	return user.ID, nil
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (f *fakeUserRepo) Update(_ context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("update user: %w", repository.ErrNotFound)
	}
	if patch.Username != nil {
		for otherID, other := range f.byID {
			if otherID != id && other.Username == *patch.Username {
				return nil, fmt.Errorf("update user: %w", repository.ErrDuplicate)
			}
		}
		u.Username = *patch.Username
	}
	if patch.PasswordHash != nil {
		u.PasswordHash = *patch.PasswordHash
	}
	f.byID[id] = u
	return &u, nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return f.delErr
	}
	if _, ok := f.byID[id]; !ok {
		return fmt.Errorf("delete user: %w", repository.ErrNotFound)
	}
	delete(f.byID, id)
	return nil
}

type fakeArchive struct {
	entries []domain.RemovedUser
	err     error
}

func (f *fakeArchive) Save(_ context.Context, entry domain.RemovedUser) error {
	if f.err != nil {
		return f.err
	}
	for i, e := range f.entries {
		if e.ID == entry.ID {
			f.entries[i] = entry
			return nil
		}
	}
	f.entries = append(f.entries, entry)
	return nil
}
