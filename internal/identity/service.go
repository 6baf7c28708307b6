package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// Service manages identity lifecycle.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new identity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// Register creates a user with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, reg Registration) (User, error) {
	email, err := normalizeEmail(reg.Email)
	if err != nil {
		return User{}, err
	}
	if len(reg.Password) < minPasswordLength {
		return User{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidRegistration, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	username := strings.TrimSpace(reg.Username)
	if username == "" {
		username = strings.SplitN(email, "@", 2)[0]
	}

	user := User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Username:     username,
		Country:      strings.TrimSpace(reg.Country),
		CreatedAt:    s.now(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}

	return user, nil
}

// Authenticate verifies credentials and stamps the login time.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	email, err := normalizeEmail(creds.Email)
	if err != nil {
		return User{}, ErrInvalidCredentials
	}
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(creds.Password)); err != nil {
		return User{}, ErrInvalidCredentials
	}

	now := s.now()
	if err := s.repo.RecordLogin(ctx, user.ID, now); err != nil {
		return User{}, err
	}
	user.LastLogin = &now
	return user, nil
}

// Get returns the user with id.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.FindByID(ctx, id)
}

// BumpTokenVersion invalidates every session issued to the user so far.
func (s *Service) BumpTokenVersion(ctx context.Context, id string) (int, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return 0, err
	}
	next := user.TokenVersion + 1
	if err := s.repo.UpdateTokenVersion(ctx, user.ID, next); err != nil {
		return 0, err
	}
	return next, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrInvalidRegistration)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: email is invalid", ErrInvalidRegistration)
	}
	return email, nil
}
