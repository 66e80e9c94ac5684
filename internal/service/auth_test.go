package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mindset-app/mindset-backend/internal/model"
	"github.com/mindset-app/mindset-backend/internal/repository/memstore"
	"github.com/mindset-app/mindset-backend/internal/utils"
)

func newAuth(t *testing.T) (*AuthService, *memstore.Users) {
	t.Helper()
	store := memstore.New()
	users := store.Users()
	svc := NewAuthService(users, store.Tokens(), AuthConfig{
		JWTSecret:      "test-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     bcrypt.MinCost,
	})
	return svc, users
}

func TestRegisterAndLogin(t *testing.T) {
	svc, users := newAuth(t)
	ctx := context.Background()

	sess, err := svc.Register(ctx, RegisterInput{Name: " Ada ", Email: " Ada@Example.com ", Password: "password1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if sess.User.Email != "ada@example.com" || sess.User.Name != "Ada" || sess.Role != model.RoleMember {
		t.Fatalf("profile = %+v role=%s", sess.User, sess.Role)
	}
	sub, err := utils.ParseAccessToken("test-secret", sess.Access.Token)
	if err != nil || sub != "ada@example.com" {
		t.Fatalf("access token subject = %q, %v", sub, err)
	}

	if _, err := svc.Register(ctx, RegisterInput{Name: "Other", Email: "ada@example.com", Password: "password2"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate email: err = %v", err)
	}

	users.SetRole(sess.User.ID, model.RoleAdmin)
	again, err := svc.Login(ctx, LoginInput{Email: "ADA@example.com", Password: "password1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if again.Role != model.RoleAdmin {
		t.Fatalf("role after promotion = %s", again.Role)
	}

	for _, in := range []LoginInput{
		{Email: "ada@example.com", Password: "wrong-password"},
		{Email: "nobody@example.com", Password: "password1"},
	} {
		if _, err := svc.Login(ctx, in); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("login %s: err = %v, want ErrUnauthorized", in.Email, err)
		}
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newAuth(t)
	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"no name", RegisterInput{Email: "a@b.co", Password: "password1"}},
		{"bad email", RegisterInput{Name: "A", Email: "not-an-email", Password: "password1"}},
		{"short password", RegisterInput{Name: "A", Email: "a@b.co", Password: "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(context.Background(), tt.in); !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _ := newAuth(t)
	ctx := context.Background()
	sess, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "password1"})
	if err != nil {
		t.Fatal(err)
	}

	next, err := svc.Refresh(ctx, sess.Refresh.Raw)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if next.Refresh.Raw == sess.Refresh.Raw {
		t.Fatal("refresh token was not rotated")
	}
	if _, err := svc.Refresh(ctx, sess.Refresh.Raw); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("reusing rotated token: err = %v", err)
	}

	if err := svc.Logout(ctx, next.Refresh.Raw); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Refresh(ctx, next.Refresh.Raw); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("refresh after logout: err = %v", err)
	}
	if _, err := svc.Refresh(ctx, " "); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank token: err = %v", err)
	}
}

func TestRefreshExpired(t *testing.T) {
	svc, _ := newAuth(t)
	ctx := context.Background()
	sess, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "password1"})
	if err != nil {
		t.Fatal(err)
	}
	svc.Now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }
	if _, err := svc.Refresh(ctx, sess.Refresh.Raw); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expired token: err = %v", err)
	}
}

func TestLogoutAll(t *testing.T) {
	svc, _ := newAuth(t)
	ctx := context.Background()
	a, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "password1"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := svc.Login(ctx, LoginInput{Email: "ada@example.com", Password: "password1"})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.LogoutAll(ctx, a.User.ID); err != nil {
		t.Fatal(err)
	}
	for _, raw := range []string{a.Refresh.Raw, b.Refresh.Raw} {
		if _, err := svc.Refresh(ctx, raw); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("refresh after logout-all: err = %v", err)
		}
	}
}

func TestMeDefaultsToMember(t *testing.T) {
	svc, users := newAuth(t)
	ctx := context.Background()
	sess, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "password1"})
	if err != nil {
		t.Fatal(err)
	}
	p, err := svc.Me(ctx, sess.User.ID)
	if err != nil || p.Role != model.RoleMember {
		t.Fatalf("me = %+v, %v", p, err)
	}
	users.SetRole(sess.User.ID, model.RoleModerator)
	if p, _ = svc.Me(ctx, sess.User.ID); p.Role != model.RoleModerator {
		t.Fatalf("role = %s", p.Role)
	}
	if _, err := svc.Me(ctx, 999); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("unknown user: err = %v", err)
	}
}
