package auth

import (
	"context"
	"time"

	userDatamodel "github.com/Selami79/rubber-ds/internal/core/datamodel/user"
)

type ServiceAPI interface {
	BootstrapFirstAdmin(ctx context.Context, dto FirstUserDTO) (*UserView, error)
	Login(ctx context.Context, dto LoginDTO) (*LoginResult, error)
	Verify(token string) (Identity, error)
}

// CredentialStore is the persistence side of authentication.
type CredentialStore interface {
	CountUsers(ctx context.Context) (int64, error)
	// GetByUsername returns nil, nil when no such user exists.
	GetByUsername(ctx context.Context, username string) (*userDatamodel.User, error)
	// CreateFirstAdmin must fail with internal.ErrAlreadyInitialized once the
	// first_admin marker exists.
	CreateFirstAdmin(ctx context.Context, u *userDatamodel.User) error
}

type TokenGenerator interface {
	GenerateToken(userID int64, role Role) (token string, expiresAt time.Time, err error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Verifier turns a bearer token into an Identity.
type Verifier interface {
	Verify(token string) (Identity, error)
}

func ToView(u *userDatamodel.User) UserView {
	return UserView{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Role:        Role(u.Role),
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
	}
}
