package auth

import (
	"errors"
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Hour, 24*time.Hour)

	token, err := m.GenerateToken("u-1", "ana@example.com", "translator")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != "u-1" || claims.Role != "translator" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	m := NewJWTManager("secret", time.Hour, 24*time.Hour)

	refresh, _ := m.GenerateRefreshToken("u-1")
	if _, err := m.ValidateToken(refresh); !errors.Is(err, ErrWrongTokenType) {
		t.Errorf("ValidateToken(refresh) error = %v, want ErrWrongTokenType", err)
	}
	access, _ := m.GenerateToken("u-1", "", "client")
	if _, err := m.ValidateRefreshToken(access); !errors.Is(err, ErrWrongTokenType) {
		t.Errorf("ValidateRefreshToken(access) error = %v, want ErrWrongTokenType", err)
	}
}

func TestValidateRejects(t *testing.T) {
	m := NewJWTManager("secret", time.Hour, time.Hour)
	other := NewJWTManager("other", time.Hour, time.Hour)
	expired := NewJWTManager("secret", -time.Minute, time.Hour)

	foreign, _ := other.GenerateToken("u-1", "", "client")
	stale, _ := expired.GenerateToken("u-1", "", "client")

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"wrong key", foreign},
		{"expired", stale},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.ValidateToken(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !CheckPasswordHash("s3cret!", hash) {
		t.Error("CheckPasswordHash() = false for the right password")
	}
	if CheckPasswordHash("wrong", hash) {
		t.Error("CheckPasswordHash() = true for the wrong password")
	}
}
