package identity

import (
	"errors"
	"time"
)

var (
	// ErrUserExists is returned when the email is already registered.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials hides whether the email or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidRegistration rejects malformed sign-up data.
	ErrInvalidRegistration = errors.New("invalid registration")
)

// User represents a registered points buyer and their profile.
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	Username     string
	Country      string
	AvatarURL    string
	TokenVersion int
	CreatedAt    time.Time
	LastLogin    *time.Time
}

// Registration is the sign-up request.
type Registration struct {
	Email    string
	Password string
	Username string
	Country  string
}

// Credentials request structure.
type Credentials struct {
	Email    string
	Password string
}
