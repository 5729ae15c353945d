// Package auth registers owners and verifies their passwords.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"kassabok/internal/core"
	"kassabok/internal/storage"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrUsernameTaken      = errors.New("username already registered")
	ErrEmptyUsername      = errors.New("username is required")
)

// OwnerStorage is the owner persistence used by the authenticator.
type OwnerStorage interface {
	CreateOwner(ctx context.Context, username, passwordHash string) (core.Owner, error)
	OwnerByName(ctx context.Context, username string) (core.Owner, bool, error)
}

// PasswordAuthenticator authenticates owners with bcrypt-hashed passwords.
type PasswordAuthenticator struct {
	storage OwnerStorage
	cost    int
}

// Option configures a PasswordAuthenticator.
type Option func(*PasswordAuthenticator)

// WithCost sets the bcrypt cost used for new hashes.
func WithCost(cost int) Option {
	return func(a *PasswordAuthenticator) { a.cost = cost }
}

func NewPasswordAuthenticator(storage OwnerStorage, opts ...Option) *PasswordAuthenticator {
	a := &PasswordAuthenticator{storage: storage, cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ValidateCredential checks the password meets minimum requirements.
func (a *PasswordAuthenticator) ValidateCredential(password string) error {
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

// Register creates a new owner with a hashed password.
func (a *PasswordAuthenticator) Register(ctx context.Context, username, password string) (core.Owner, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return core.Owner{}, ErrEmptyUsername
	}
	if err := a.ValidateCredential(password); err != nil {
		return core.Owner{}, err
	}

	if _, exists, err := a.storage.OwnerByName(ctx, username); err != nil {
		return core.Owner{}, fmt.Errorf("look up owner: %w", err)
	} else if exists {
		return core.Owner{}, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return core.Owner{}, fmt.Errorf("hash password: %w", err)
	}

	owner, err := a.storage.CreateOwner(ctx, username, string(hash))
	if errors.Is(err, storage.ErrDuplicateOwner) {
		return core.Owner{}, ErrUsernameTaken
	}
	if err != nil {
		return core.Owner{}, fmt.Errorf("create owner: %w", err)
	}
	return owner, nil
}

// Authenticate returns the owner whose username and password match.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, username, password string) (core.Owner, error) {
	owner, ok, err := a.storage.OwnerByName(ctx, strings.TrimSpace(username))
	if err != nil {
		return core.Owner{}, fmt.Errorf("look up owner: %w", err)
	}
	if !ok {
		return core.Owner{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(owner.PasswordHash), []byte(password)); err != nil {
		return core.Owner{}, ErrInvalidCredentials
	}
	return owner, nil
}
