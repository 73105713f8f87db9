package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"
)

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	tokens *TokenStore
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenStore) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates and issues a bearer token.
func (s *Service) Login(ctx context.Context, input LoginInput) (*User, Session, error) {
	user, err := s.Authenticate(ctx, input.Email, input.Password)
	if err != nil {
		return nil, Session{}, err
	}
	session, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return nil, Session{}, err
	}
	return user, session, nil
}

// Logout revokes a bearer token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, token)
}

// Resolve maps a bearer token to its user.
func (s *Service) Resolve(ctx context.Context, token string) (*User, error) {
	userID, err := s.tokens.Lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, ErrTokenExpired
	}
	if !user.IsActive {
		return nil, ErrTokenExpired
	}
	return user, nil
}

// HashPassword produces a bcrypt hash for seeding and user management.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
