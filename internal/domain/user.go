package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for user operations.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// User represents a registered user. Email is the identity key used by
// memberships and interests; ID is a surrogate set by the repository on create.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Interests    []string  `json:"interests"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser returns a new User with the given fields.
func NewUser(name, email, passwordHash string, interests []string, createdAt, updatedAt time.Time) *User {
	return &User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Interests:    interests,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
}

// PasswordHasher handles password hashing and verification.
// Implementations may use bcrypt, argon2, etc.
type PasswordHasher interface {
	Hash(password string) (hash string, err error)
	Compare(hash, password string) error
}

// UserRepository defines the interface for user storage. Create and
// UpdateProfile are multi-statement operations (user row plus interest rows)
// and must be applied atomically.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateProfile(ctx context.Context, oldEmail, name, newEmail string, interests []string) error
}

// UserService defines the business logic for registration, credential checks
// and profile updates. Account deletion lives on GovernanceService because of
// the admin cascade rules.
type UserService interface {
	Register(ctx context.Context, name, email, password string, interests []string) (*User, error)
	Authenticate(ctx context.Context, email, password string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateProfile(ctx context.Context, oldEmail, name, newEmail string, interests []string) error
}
