package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"globaltext/internal/dto"
	"globaltext/internal/models"
	"globaltext/pkg/auth"

	"go.uber.org/zap"
)

func newAuthFixture() (*memDB, *AuthService) {
	db := newMemDB()
	jwt := auth.NewJWTManager("test-secret", time.Hour, 24*time.Hour)
	return db, NewAuthService(fakeProfiles{db}, jwt, zap.NewNop())
}

func TestRegisterAndLogin(t *testing.T) {
	db, svc := newAuthFixture()
	ctx := context.Background()

	resp, err := svc.Register(ctx, &dto.RegisterRequest{
		Email: " Maria@Example.com ", Password: "s3cret-pass", FirstName: "Maria", Role: "translator",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if resp.User.Email != "maria@example.com" || resp.User.Role != string(models.RoleTranslator) || resp.User.IsApprovedTranslator {
		t.Errorf("user = %+v", resp.User)
	}
	if len(db.profiles) != 1 {
		t.Errorf("profiles = %d", len(db.profiles))
	}

	if _, err := svc.Register(ctx, &dto.RegisterRequest{
		Email: "maria@example.com", Password: "another-pass", FirstName: "M", Role: "client",
	}); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate error = %v", err)
	}

	if _, err := svc.Login(ctx, &dto.LoginRequest{Email: "MARIA@example.com", Password: "s3cret-pass"}); err != nil {
		t.Errorf("Login() error = %v", err)
	}
	if _, err := svc.Login(ctx, &dto.LoginRequest{Email: "maria@example.com", Password: "wrong"}); !errors.Is(err, ErrAuthentication) {
		t.Errorf("wrong password error = %v", err)
	}
	if _, err := svc.Login(ctx, &dto.LoginRequest{Email: "nobody@example.com", Password: "x"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email error = %v", err)
	}

	refreshed, err := svc.RefreshToken(ctx, resp.RefreshToken)
	if err != nil || refreshed.AccessToken == "" {
		t.Errorf("RefreshToken() = %v", err)
	}
	if _, err := svc.RefreshToken(ctx, resp.AccessToken); !errors.Is(err, ErrAuthentication) {
		t.Errorf("access token used as refresh error = %v", err)
	}
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	_, svc := newAuthFixture()
	_, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Email: "root@example.com", Password: "password1", FirstName: "Root", Role: "admin",
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestEnsureAdmin(t *testing.T) {
	db, svc := newAuthFixture()
	ctx := context.Background()
	existing := db.addProfile(models.RoleClient, false)

	if _, err := svc.EnsureAdmin(ctx, existing.Email, "short"); !errors.Is(err, ErrValidation) {
		t.Errorf("short password error = %v", err)
	}
	id, err := svc.EnsureAdmin(ctx, existing.Email, "long-enough")
	if err != nil {
		t.Fatal(err)
	}
	if id != existing.ID || db.profiles[id].Role != models.RoleAdmin {
		t.Errorf("admin = %s role %s", id, db.profiles[id].Role)
	}
	if _, err := svc.Login(ctx, &dto.LoginRequest{Email: existing.Email, Password: "long-enough"}); err != nil {
		t.Errorf("admin login error = %v", err)
	}
}
