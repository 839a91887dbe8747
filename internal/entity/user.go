package entity

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrTokenNotFound = errors.New("verification token not found")
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Identity is the acting principal of a request, resolved from the session.
type Identity struct {
	UserID string
	Email  string
	Role   Role
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// VerificationToken is a single-use magic-link token.
type VerificationToken struct {
	Token      string
	Identifier string
	Expires    time.Time
}

func (t VerificationToken) Expired(now time.Time) bool {
	return t.Expires.Before(now)
}

type UserRepositoryInterface interface {
	FindByID(ctx context.Context, id string) (*User, error)
	// UpsertByEmail returns the existing user for email or creates one.
	UpsertByEmail(ctx context.Context, email string, name *string) (*User, error)
}

type VerificationTokenRepositoryInterface interface {
	Create(ctx context.Context, t *VerificationToken) error
	// Consume deletes the token issued to identifier and returns it. At most
	// one caller can consume a given token.
	Consume(ctx context.Context, token, identifier string) (*VerificationToken, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
