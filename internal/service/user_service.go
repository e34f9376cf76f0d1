package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"user-accounts/internal/domain"
	"user-accounts/internal/repository"
)

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserAlreadyExists is returned when a username is already taken.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrUserNotFound is returned when the target user does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// UpdateInput holds the independently optional fields of an account update.
type UpdateInput struct {
	Username *string
	Password *string
}

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, username, password string) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, id string, input UpdateInput) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}

type userService struct {
	users   repository.UserRepository
	archive repository.ArchiveRepository
	hasher  PasswordHasher
	now     func() time.Time
}

func NewUserService(users repository.UserRepository, archive repository.ArchiveRepository, hasher PasswordHasher) UserService {
	return &userService{
		users:   users,
		archive: archive,
		hasher:  hasher,
		now:     time.Now,
	}
}

func (s *userService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     domain.NormalizeUsername(username),
		PasswordHash: hash,
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, domain.NormalizeUsername(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return sanitizeUser(user), nil
}

func (s *userService) Update(ctx context.Context, id string, input UpdateInput) (*domain.User, error) {
	var patch domain.UserPatch
	if input.Username != nil {
		username := domain.NormalizeUsername(*input.Username)
		patch.Username = &username
	}
	if input.Password != nil {
		hash, err := s.hasher.Hash(*input.Password)
		if err != nil {
			return nil, err
		}
		patch.PasswordHash = &hash
	}

	user, err := s.users.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, mapNotFound(err)
	}
	return sanitizeUser(user), nil
}

// Delete archives a full snapshot of the user and then removes it. A failed
// archive write leaves the user untouched.
func (s *userService) Delete(ctx context.Context, id string) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return mapNotFound(err)
	}

	if err := s.archive.Save(ctx, user.Snapshot(s.now().UTC())); err != nil {
		return fmt.Errorf("archive user %s: %w", user.ID, err)
	}

	if err := s.users.Delete(ctx, user.ID); err != nil {
		return mapNotFound(err)
	}
	return nil
}

func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
