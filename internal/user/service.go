package user

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Selami79/rubber-ds/internal"
	"github.com/Selami79/rubber-ds/internal/auth"
	userDatamodel "github.com/Selami79/rubber-ds/internal/core/datamodel/user"
)

type Repository interface {
	Create(ctx context.Context, u *userDatamodel.User) error
	// GetByID returns nil, nil when the user does not exist.
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	List(ctx context.Context) ([]*userDatamodel.User, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

type Service struct {
	repo   Repository
	hasher PasswordHasher
	logger *slog.Logger
}

func NewService(repo Repository, hasher PasswordHasher, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		logger: logger,
	}
}

// CreateUser lets an admin add a user with any role.
func (s *Service) CreateUser(ctx context.Context, actor auth.Identity, dto CreateUserDTO) (*User, error) {
	if !auth.Permits(actor.Role, auth.ActionManageUsers) {
		return nil, internal.ErrForbidden
	}

	if err := dto.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.repo.UsernameExists(ctx, dto.Username)
	if err != nil {
		s.logger.Error("failed to check username", "error", err)
		return nil, internal.NewInternalError("could not create user", err)
	}
	if exists {
		return nil, internal.ErrDuplicateCode.WithMessage("username already taken")
	}

	hash, err := s.hasher.HashPassword(dto.Password)
	if err != nil {
		return nil, internal.NewInternalError("could not create user", err)
	}

	dm := &userDatamodel.User{
		Username:     dto.Username,
		PasswordHash: hash,
		DisplayName:  dto.DisplayName,
		Role:         dto.Role,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, dm); err != nil {
		if errors.Is(err, internal.ErrDuplicateCode) {
			return nil, internal.ErrDuplicateCode.WithMessage("username already taken")
		}
		s.logger.Error("failed to create user", "error", err)
		return nil, internal.NewInternalError("could not create user", err)
	}

	s.logger.Info("user created", "user_id", dm.ID, "role", dm.Role, "created_by", actor.UserID)
	return FromDataModel(dm), nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	dm, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get user", "error", err, "user_id", id)
		return nil, internal.NewInternalError("could not load user", err)
	}
	if dm == nil {
		return nil, internal.ErrUserNotFound
	}
	return FromDataModel(dm), nil
}

func (s *Service) List(ctx context.Context) ([]*User, error) {
	dms, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, internal.NewInternalError("could not list users", err)
	}

	users := make([]*User, 0, len(dms))
	for _, dm := range dms {
		users = append(users, FromDataModel(dm))
	}
	return users, nil
}

// Deactivate clears the active flag. Users are never deleted.
func (s *Service) Deactivate(ctx context.Context, actor auth.Identity, id int64) (*User, error) {
	if !auth.Permits(actor.Role, auth.ActionManageUsers) {
		return nil, internal.ErrForbidden
	}
	if actor.UserID == id {
		return nil, internal.NewValidationError("you cannot deactivate your own account", internal.ErrCodeValidationFailed)
	}

	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.IsActiveUser() {
		return u, nil
	}

	if err := s.repo.SetActive(ctx, id, false); err != nil {
		s.logger.Error("failed to deactivate user", "error", err, "user_id", id)
		return nil, internal.NewInternalError("could not deactivate user", err)
	}

	s.logger.Info("user deactivated", "user_id", id, "by", actor.UserID)
	u.IsActive = false
	return u, nil
}
