package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/Selami79/rubber-ds/internal"
	userDatamodel "github.com/Selami79/rubber-ds/internal/core/datamodel/user"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Service is the main auth service with dependencies
type Service struct {
	store          CredentialStore
	tokenGenerator TokenGenerator
	bcryptCost     int
	logger         *slog.Logger

	dummyOnce sync.Once
	dummyHash []byte
}

// NewService creates a new auth service
func NewService(store CredentialStore, tokenGen TokenGenerator, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:          store,
		tokenGenerator: tokenGen,
		bcryptCost:     bcryptCost,
		logger:         logger,
	}
}

// NewJWTTokenGenerator creates a new JWT token generator
func NewJWTTokenGenerator(secret string, ttl time.Duration) *JWTTokenGenerator {
	if ttl == 0 {
		ttl = internal.DefaultTokenDuration
	}
	return &JWTTokenGenerator{
		Secret:   []byte(secret),
		TokenTTL: ttl,
		Issuer:   "rubber-ds",
	}
}

// BootstrapFirstAdmin creates the very first user, always as admin. The user
// count is only a fast path; the store's marker row is the real guard.
func (s *Service) BootstrapFirstAdmin(ctx context.Context, dto FirstUserDTO) (*UserView, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	count, err := s.store.CountUsers(ctx)
	if err != nil {
		s.logger.Error("failed to count users", "error", err)
		return nil, internal.NewInternalError("could not create first user", err)
	}
	if count > 0 {
		s.logger.Warn("first user bootstrap rejected: users already exist", "count", count)
		return nil, internal.ErrAlreadyInitialized
	}

	hash, err := s.HashPassword(dto.Password)
	if err != nil {
		return nil, internal.NewInternalError("could not create first user", err)
	}

	u := &userDatamodel.User{
		Username:     dto.Username,
		PasswordHash: hash,
		DisplayName:  dto.DisplayName,
		Role:         string(RoleAdmin),
		IsActive:     true,
	}

	if err := s.store.CreateFirstAdmin(ctx, u); err != nil {
		if errors.Is(err, internal.ErrAlreadyInitialized) {
			s.logger.Warn("first user bootstrap lost race", "username", dto.Username)
			return nil, internal.ErrAlreadyInitialized
		}
		if errors.Is(err, internal.ErrDuplicateCode) {
			return nil, internal.ErrAlreadyInitialized
		}
		s.logger.Error("failed to create first admin", "error", err)
		return nil, internal.NewInternalError("could not create first user", err)
	}

	s.logger.Info("first admin created", "user_id", u.ID, "username", u.Username)
	view := ToView(u)
	return &view, nil
}

// Login validates credentials and returns a signed token
func (s *Service) Login(ctx context.Context, dto LoginDTO) (*LoginResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u, err := s.store.GetByUsername(ctx, dto.Username)
	if err != nil {
		s.logger.Error("failed to load user for login", "error", err)
		return nil, internal.NewInternalError("login failed", err)
	}

	if u == nil {
		// burn the same bcrypt time as a real comparison
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(dto.Password))
		s.logger.Warn("login failed: unknown user", "username", dto.Username)
		return nil, internal.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(dto.Password)); err != nil {
		s.logger.Warn("login failed: password mismatch", "user_id", u.ID)
		return nil, internal.ErrInvalidCredentials
	}

	if !u.IsActive {
		s.logger.Warn("login failed: user inactive", "user_id", u.ID)
		return nil, internal.ErrInvalidCredentials
	}

	role, err := ParseRole(u.Role)
	if err != nil {
		s.logger.Error("stored user has unknown role", "user_id", u.ID, "role", u.Role)
		return nil, internal.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokenGenerator.GenerateToken(u.ID, role)
	if err != nil {
		s.logger.Error("failed to sign token", "error", err, "user_id", u.ID)
		return nil, internal.NewInternalError("login failed", err)
	}

	s.logger.Info("user logged in", "user_id", u.ID, "role", role)
	return &LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      ToView(u),
	}, nil
}

// Verify validates a token and returns the identity it carries
func (s *Service) Verify(token string) (Identity, error) {
	claims, err := s.tokenGenerator.ValidateToken(token)
	if err != nil {
		return Identity{}, internal.ErrInvalidToken
	}
	if claims.UserID <= 0 || !claims.Role.Valid() {
		return Identity{}, internal.ErrInvalidToken
	}
	return Identity{UserID: claims.UserID, Role: claims.Role}, nil
}

// HashPassword creates a bcrypt hash of the password
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *Service) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("rubber-ds/no-such-user"), s.bcryptCost)
	})
	return s.dummyHash
}

// GenerateToken creates a signed token for the user and role
func (j *JWTTokenGenerator) GenerateToken(userID int64, role Role) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(j.TokenTTL)

	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    j.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.Secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// ValidateToken validates a JWT token and returns claims
func (j *JWTTokenGenerator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(j.Issuer),
	)
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, internal.ErrInvalidToken
}
