package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"namo/internal/auth"
	apperrors "namo/internal/errors"
	"namo/internal/model"
	"namo/internal/repository"
)

// TokenIssuer issues and verifies session tokens.
type TokenIssuer interface {
	IssueToken(username string, userID uint) (string, error)
	VerifyToken(token string) (*auth.Identity, error)
}

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, username, password string) (token string, user *model.User, err error)
	Login(ctx context.Context, username, password string) (token string, user *model.User, err error)
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

type authService struct {
	userRepo repository.UserRepository
	tokens   TokenIssuer
	hasher   PasswordHasher
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, tokens TokenIssuer, hasher PasswordHasher) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		hasher:   hasher,
	}
}

// Register creates a user with a hashed password and returns a token for it.
func (s *authService) Register(ctx context.Context, username, password string) (string, *model.User, error) {
	existing, err := s.userRepo.FindByUsername(ctx, username)
	if err == nil && existing != nil {
		return "", nil, apperrors.ErrUsernameTaken
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, fmt.Errorf("check username: %w", err)
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return "", nil, err
	}

	user := &model.User{Username: username, PasswordHash: digest}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", nil, apperrors.ErrUsernameTaken
		}
		return "", nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.IssueToken(user.Username, user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

// Login checks credentials and returns a fresh token.
func (s *authService) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, apperrors.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("find user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return "", nil, apperrors.ErrInvalidCredentials
	}

	token, err := s.tokens.IssueToken(user.Username, user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

// Authenticate verifies a bearer token and loads its user. The user must
// still exist under the same id and username.
func (s *authService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	identity, err := s.tokens.VerifyToken(token)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d no longer exists", apperrors.ErrAuthentication, identity.UserID)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user.Username != identity.Username {
		return nil, fmt.Errorf("%w: subject mismatch for user %d", apperrors.ErrAuthentication, identity.UserID)
	}
	return user, nil
}
