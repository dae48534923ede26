// Package users holds the credential store: user identity records keyed by
// id with a unique, case-sensitive email.
package users

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no user matches the lookup
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when the email is already registered.
	// The store enforces this atomically, so it is authoritative even when
	// callers pre-check with FindByEmail.
	ErrEmailTaken = errors.New("email already registered")
)

// User is an identity record. PasswordHash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Store persists users. Implementations must be safe for concurrent use.
type Store interface {
	// Create assigns ID and CreatedAt and persists the user
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
}
