// Package services orchestrates the credential/token flow and the
// owner-scoped ledger operations on top of the storage adapter.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tally/internal/auth"
	"tally/internal/core"
	"tally/internal/storage"
)

// ErrInvalidCredentials is the single generic failure for login: unknown
// email and wrong password are indistinguishable to avoid account
// enumeration.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrEmailTaken signals a duplicate registration email.
var ErrEmailTaken = errors.New("email already registered")

// AuthService registers and authenticates principals and mints their
// identity tokens.
type AuthService struct {
	store  storage.Store
	tokens *auth.TokenManager
}

func NewAuthService(store storage.Store, tokens *auth.TokenManager) *AuthService {
	return &AuthService{store: store, tokens: tokens}
}

// Tokens exposes the token manager so the HTTP gate can verify bearer
// tokens with the same secret and issuer used for minting.
func (s *AuthService) Tokens() *auth.TokenManager {
	return s.tokens
}

// Register creates a principal and returns it with a fresh token. Only a
// salted one-way hash of the password is stored.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (core.User, string, error) {
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return core.User{}, "", fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, name, email, passwordHash)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return core.User{}, "", ErrEmailTaken
		}
		return core.User{}, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return core.User{}, "", fmt.Errorf("generate token: %w", err)
	}

	slog.InfoContext(ctx, "User registered", "id", user.ID)
	return user, token, nil
}

// Authenticate verifies credentials and mints a token. Every failure
// path returns the same ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (core.User, string, error) {
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.User{}, "", ErrInvalidCredentials
		}
		return core.User{}, "", fmt.Errorf("find user: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return core.User{}, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return core.User{}, "", fmt.Errorf("generate token: %w", err)
	}

	slog.InfoContext(ctx, "User authenticated", "id", user.ID)
	return user, token, nil
}

// Profile returns the principal behind a verified owner id.
func (s *AuthService) Profile(ctx context.Context, ownerID int64) (core.User, error) {
	user, err := s.store.FindUserByID(ctx, ownerID)
	if err != nil {
		return core.User{}, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}
