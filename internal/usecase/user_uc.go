package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/phenrril/storefront/internal/domain"
)

const resetTokenTTL = time.Hour

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Issue(u *domain.User) (token string, expiresAt time.Time, err error)
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=140"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Phone    string `json:"phone" validate:"max=50"`
}

type ProfileInput struct {
	Name     string `json:"name" validate:"required,max=140"`
	Phone    string `json:"phone" validate:"max=50"`
	Password string `json:"password" validate:"omitempty,min=8,max=72"`
}

type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

// UserUC handles accounts: sign up, sign in, profile and password reset.
type UserUC struct {
	Users         domain.UserRepo
	Mailer        domain.Mailer
	Tokens        TokenIssuer
	PublicBaseURL string
	Now           func() time.Time
}

func (uc *UserUC) now() time.Time {
	if uc.Now != nil {
		return uc.Now()
	}
	return time.Now()
}

// Register creates a customer account. Emails are compared case-insensitively.
func (uc *UserUC) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = domain.NormalizeEmail(in.Email)
	if err := domain.Check(in); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		ID:           uuid.New(),
		Name:         in.Name,
		Email:        in.Email,
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
	}
	if err := uc.Users.Save(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.Conflict("email is already registered")
		}
		return nil, err
	}
	zlog.Info().Str("user_id", u.ID.String()).Msg("user registered")
	return u, nil
}

// Login checks the password and issues an access token. Unknown emails and
// wrong passwords get the same error.
func (uc *UserUC) Login(ctx context.Context, email, password string) (*Session, error) {
	invalid := domain.Unauthorized("invalid email or password")
	u, err := uc.Users.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrValidation) {
		return nil, invalid
	}
	if err != nil {
		return nil, err
	}
	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, invalid
	}
	token, exp, err := uc.Tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: exp, User: u}, nil
}

func (uc *UserUC) Me(ctx context.Context, actor domain.Actor) (*domain.User, error) {
	if !actor.Authenticated() {
		return nil, domain.Unauthorized("sign in required")
	}
	return uc.Users.FindByID(ctx, actor.UserID)
}

// UpdateProfile changes name and phone, and the password when one is given.
func (uc *UserUC) UpdateProfile(ctx context.Context, actor domain.Actor, in ProfileInput) (*domain.User, error) {
	u, err := uc.Me(ctx, actor)
	if err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := domain.Check(in); err != nil {
		return nil, err
	}
	u.Name = in.Name
	u.Phone = strings.TrimSpace(in.Phone)
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = string(hash)
	}
	if err := uc.Users.Save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// RequestPasswordReset mails a one-hour reset link. Unknown emails get the
// same silent success.
func (uc *UserUC) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := uc.Users.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return err
	}
	token := hex.EncodeToString(raw)
	exp := uc.now().Add(resetTokenTTL)
	u.ResetTokenHash = hashToken(token)
	u.ResetTokenExpiresAt = &exp
	if err := uc.Users.Save(ctx, u); err != nil {
		return err
	}
	link := strings.TrimRight(uc.PublicBaseURL, "/") + "/reset-password?token=" + url.QueryEscape(token)
	if err := uc.Mailer.SendPasswordReset(ctx, u.Email, u.Name, link); err != nil {
		zlog.Error().Err(err).Str("user_id", u.ID.String()).Msg("password reset email failed")
		return err
	}
	return nil
}

// ResetPassword sets a new password from a live reset token and burns the
// token.
func (uc *UserUC) ResetPassword(ctx context.Context, token, password string) error {
	if len(password) < 8 || len(password) > 72 {
		return domain.Invalid("password must be between 8 and 72 characters")
	}
	u, err := uc.Users.FindByResetToken(ctx, hashToken(strings.TrimSpace(token)))
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrInvalidResetLink
	}
	if err != nil {
		return err
	}
	if u.ResetTokenExpiresAt == nil || !u.ResetTokenExpiresAt.After(uc.now()) {
		return domain.ErrInvalidResetLink
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	u.ResetTokenHash = ""
	u.ResetTokenExpiresAt = nil
	return uc.Users.Save(ctx, u)
}

// EnsureAdmin creates an administrator or promotes and re-keys an existing
// account with the same email.
func (uc *UserUC) EnsureAdmin(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = domain.NormalizeEmail(in.Email)
	if err := domain.Check(in); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u, err := uc.Users.FindByEmail(ctx, in.Email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		u = &domain.User{ID: uuid.New(), Name: in.Name, Email: in.Email}
	case err != nil:
		return nil, err
	}
	u.Role = domain.RoleAdmin
	u.PasswordHash = string(hash)
	if err := uc.Users.Save(ctx, u); err != nil {
		return nil, err
	}
	zlog.Info().Str("email", u.Email).Msg("admin account ready")
	return u, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
