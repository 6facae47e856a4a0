package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID                  uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name                string     `gorm:"size:140;not null" json:"name"`
	Email               string     `gorm:"size:140;uniqueIndex;not null" json:"email"`
	PasswordHash        string     `gorm:"size:100" json:"-"`
	Role                Role       `gorm:"type:varchar(10);not null;default:'user'" json:"role"`
	Phone               string     `gorm:"size:50" json:"phone"`
	ResetTokenHash      string     `gorm:"size:64;index" json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func NormalizeEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }

// Actor is the signed-in caller as reported by the authentication layer.
// The zero value is an anonymous guest.
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

func (a Actor) Authenticated() bool { return a.UserID != uuid.Nil }

func (a Actor) IsAdmin() bool { return a.Authenticated() && a.Role == RoleAdmin }

type UserRepo interface {
	Save(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByResetToken(ctx context.Context, tokenHash string) (*User, error)
}

// Mailer is the outbound email collaborator.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, name, link string) error
}
