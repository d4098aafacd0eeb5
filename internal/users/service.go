package users

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("users: invalid credentials")
	// ErrValidation indicates a malformed create request.
	ErrValidation = errors.New("users: validation failed")
)

// Service handles user management. Passwords are bcrypt-hashed at rest.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (User, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a user with a bcrypt-hashed password.
func (s *Service) Create(ctx context.Context, name, email, password, role string) (User, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || len(password) < 8 {
		return User{}, ErrValidation
	}
	if role == "" {
		role = "staff"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	return s.repo.Create(ctx, User{
		Name:         name,
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	})
}

// Verify checks a credential pair. It returns the user on success and
// ErrInvalidCredentials otherwise, without distinguishing unknown emails
// from wrong passwords.
func (s *Service) Verify(ctx context.Context, email, password string) (User, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.repo.Deactivate(ctx, id)
}
