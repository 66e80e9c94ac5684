package memstore

import (
	"context"
	"strings"
	"time"

	"github.com/mindset-app/mindset-backend/internal/model"
	"github.com/mindset-app/mindset-backend/internal/repository"
)

// Users adapts the store to the account and directory interfaces.
func (s *Store) Users() *Users { return &Users{s: s} }

type Users struct{ s *Store }

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func (u *Users) Create(_ context.Context, name, email, passwordHash string) (int64, error) {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()
	email = normalizeEmail(email)
	for _, existing := range s.users {
		if existing.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	s.lastUser++
	s.users[s.lastUser] = model.User{
		ID:           s.lastUser,
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	return s.lastUser, nil
}

func (u *Users) GetByEmail(_ context.Context, email string) (*model.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	email = normalizeEmail(email)
	for _, usr := range u.s.users {
		if usr.Email == email {
			out := usr
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (u *Users) GetByID(_ context.Context, id int64) (*model.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	usr, ok := u.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &usr, nil
}

func (u *Users) IDByEmail(ctx context.Context, email string) (int64, error) {
	usr, err := u.GetByEmail(ctx, email)
	if err != nil {
		return 0, err
	}
	return usr.ID, nil
}

func (u *Users) RoleOf(_ context.Context, userID int64) (model.OptionalRole, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	r, ok := u.s.roles[userID]
	if !ok {
		return model.OptionalRole{}, nil
	}
	return model.SomeRole(r), nil
}

// SetRole records an explicit role for a user.
func (u *Users) SetRole(userID int64, role model.Role) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	u.s.roles[userID] = role
}

// ---- refresh tokens ----

func (s *Store) Tokens() *Tokens { return &Tokens{s: s} }

type Tokens struct{ s *Store }

func (t *Tokens) StoreRefresh(_ context.Context, userID int64, tokenHash string, exp time.Time) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.tokens[tokenHash]; ok {
		return repository.ErrConflict
	}
	t.s.tokens[tokenHash] = refreshToken{userID: userID, expiresAt: exp}
	return nil
}

func (t *Tokens) ValidateRefresh(_ context.Context, tokenHash string, now time.Time) (int64, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	tok, ok := t.s.tokens[tokenHash]
	if !ok || tok.revoked || !now.Before(tok.expiresAt) {
		return 0, repository.ErrNotFound
	}
	return tok.userID, nil
}

func (t *Tokens) Rotate(_ context.Context, userID int64, oldHash, newHash string, exp, _ time.Time) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	old, ok := t.s.tokens[oldHash]
	if !ok || old.revoked || old.userID != userID {
		return repository.ErrNotFound
	}
	old.revoked = true
	t.s.tokens[oldHash] = old
	t.s.tokens[newHash] = refreshToken{userID: userID, expiresAt: exp}
	return nil
}

func (t *Tokens) RevokeByHash(_ context.Context, tokenHash string, _ time.Time) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if tok, ok := t.s.tokens[tokenHash]; ok {
		tok.revoked = true
		t.s.tokens[tokenHash] = tok
	}
	return nil
}

func (t *Tokens) RevokeAllForUser(_ context.Context, userID int64, _ time.Time) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for h, tok := range t.s.tokens {
		if tok.userID == userID {
			tok.revoked = true
			t.s.tokens[h] = tok
		}
	}
	return nil
}
