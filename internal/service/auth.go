package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mindset-app/mindset-backend/internal/model"
	"github.com/mindset-app/mindset-backend/internal/repository"
	"github.com/mindset-app/mindset-backend/internal/utils"
)

// Accounts is the user store used by the auth endpoints.
type Accounts interface {
	Create(ctx context.Context, name, email, passwordHash string) (int64, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	RoleOf(ctx context.Context, userID int64) (model.OptionalRole, error)
}

// RefreshTokens persists refresh token hashes.
type RefreshTokens interface {
	StoreRefresh(ctx context.Context, userID int64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string, now time.Time) (int64, error)
	Rotate(ctx context.Context, userID int64, oldHash, newHash string, exp, now time.Time) error
	RevokeByHash(ctx context.Context, tokenHash string, now time.Time) error
	RevokeAllForUser(ctx context.Context, userID int64, now time.Time) error
}

type AuthConfig struct {
	JWTSecret      string
	AccessTTLMin   int
	RefreshTTLDays int
	BcryptCost     int
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Profile is a user with the role shown on profile reads.
type Profile struct {
	User model.User
	Role model.Role
}

// Session is what register, login and refresh hand back to the client.
type Session struct {
	Profile
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

type AuthService struct {
	users  Accounts
	tokens RefreshTokens
	cfg    AuthConfig
	Now    func() time.Time
}

func NewAuthService(users Accounts, tokens RefreshTokens, cfg AuthConfig) *AuthService {
	if users == nil || tokens == nil {
		panic("nil dependency passed to NewAuthService")
	}
	return &AuthService{users: users, tokens: tokens, cfg: cfg, Now: time.Now}
}

var errBadCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)

// Register creates an account and signs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: name, valid email and a password of 8 to 72 characters are required", ErrValidation)
	}
	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	id, err := s.users.Create(ctx, in.Name, in.Email, hash)
	if errors.Is(err, repository.ErrEmailExists) {
		return nil, fmt.Errorf("%w: email already exists", ErrConflict)
	}
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, u)
}

// Login verifies credentials.  Unknown emails and wrong passwords give the
// same error.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}
	u, err := s.users.GetByEmail(ctx, in.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if !utils.VerifyPassword(u.PasswordHash, in.Password) {
		return nil, errBadCredentials
	}
	return s.issue(ctx, u)
}

// Refresh exchanges a refresh token for a new pair.  The presented token is
// revoked.
func (s *AuthService) Refresh(ctx context.Context, raw string) (*Session, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: refresh_token required", ErrValidation)
	}
	now := s.Now().UTC()
	oldHash := utils.HashRefreshRaw(raw)
	userID, err := s.tokens.ValidateRefresh(ctx, oldHash, now)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: invalid refresh token", ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: invalid refresh token", ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}

	profile, err := s.profile(ctx, u)
	if err != nil {
		return nil, err
	}
	access, err := utils.NewAccessToken(s.cfg.JWTSecret, u.Email, s.cfg.AccessTTLMin)
	if err != nil {
		return nil, err
	}
	refresh, err := utils.NewRefreshToken(s.cfg.RefreshTTLDays)
	if err != nil {
		return nil, err
	}
	err = s.tokens.Rotate(ctx, u.ID, oldHash, utils.HashRefreshRaw(refresh.Raw), refresh.Exp, now)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: invalid refresh token", ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	return &Session{Profile: profile, Access: access, Refresh: refresh}, nil
}

// Logout revokes one refresh token.  Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%w: refresh_token required", ErrValidation)
	}
	return s.tokens.RevokeByHash(ctx, utils.HashRefreshRaw(raw), s.Now().UTC())
}

// LogoutAll revokes every refresh token of the user.
func (s *AuthService) LogoutAll(ctx context.Context, userID int64) error {
	return s.tokens.RevokeAllForUser(ctx, userID, s.Now().UTC())
}

// Me returns the profile of an authenticated user.  Users without a role
// row are reported as members.
func (s *AuthService) Me(ctx context.Context, userID int64) (Profile, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return Profile{}, fmt.Errorf("%w: unknown user", ErrUnauthorized)
	}
	if err != nil {
		return Profile{}, err
	}
	return s.profile(ctx, u)
}

func (s *AuthService) profile(ctx context.Context, u *model.User) (Profile, error) {
	role, err := s.users.RoleOf(ctx, u.ID)
	if err != nil {
		return Profile{}, err
	}
	return Profile{User: *u, Role: role.Or(model.RoleMember)}, nil
}

func (s *AuthService) issue(ctx context.Context, u *model.User) (*Session, error) {
	profile, err := s.profile(ctx, u)
	if err != nil {
		return nil, err
	}
	access, err := utils.NewAccessToken(s.cfg.JWTSecret, u.Email, s.cfg.AccessTTLMin)
	if err != nil {
		return nil, err
	}
	refresh, err := utils.NewRefreshToken(s.cfg.RefreshTTLDays)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return nil, err
	}
	return &Session{Profile: profile, Access: access, Refresh: refresh}, nil
}
