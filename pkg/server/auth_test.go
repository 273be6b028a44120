package server

import (
	"errors"
	"testing"
	"time"

	"github.com/dennis-mud/dennis/pkg/worlddb"
	"github.com/golang-jwt/jwt/v5"
)

func TestAuthLogin(t *testing.T) {
	e := newTestEnv(t)
	e.addUser("alice", 0)
	auth := NewAuthService(e.db, "s3cret", 60)

	if _, err := auth.Login("alice", "wrong"); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("wrong password: err = %v", err)
	}
	if _, err := auth.Login("nobody", "secret"); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("unknown user: err = %v", err)
	}

	token, err := auth.Login("ALICE", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	name, err := auth.Verify(token)
	if err != nil || name != "alice" {
		t.Errorf("Verify = %q, %v", name, err)
	}

	other := NewAuthService(e.db, "another key", 60)
	if _, err := other.Verify(token); err == nil {
		t.Error("token verified under a different key")
	}
}

func TestAuthVerifyRejects(t *testing.T) {
	key := []byte("s3cret")
	auth := NewAuthService(worlddb.NewDatabase(), string(key), 60)
	now := time.Now()

	sign := func(method jwt.SigningMethod, claims jwt.RegisteredClaims) string {
		t.Helper()
		signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
		if err != nil {
			t.Fatal(err)
		}
		return signed
	}
	valid := jwt.RegisteredClaims{
		Subject:   "alice",
		Issuer:    tokenIssuer,
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}

	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Hour))
	noExpiry := valid
	noExpiry.ExpiresAt = nil
	foreign := valid
	foreign.Issuer = "elsewhere"
	anonymous := valid
	anonymous.Subject = ""

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"expired", sign(jwt.SigningMethodHS256, expired)},
		{"no expiry", sign(jwt.SigningMethodHS256, noExpiry)},
		{"foreign issuer", sign(jwt.SigningMethodHS256, foreign)},
		{"no subject", sign(jwt.SigningMethodHS256, anonymous)},
		{"other method", sign(jwt.SigningMethodHS512, valid)},
	}
	for _, tt := range tests {
		if name, err := auth.Verify(tt.token); err == nil {
			t.Errorf("%s: Verify accepted the token for %q", tt.name, name)
		}
	}
	if name, err := auth.Verify(sign(jwt.SigningMethodHS256, valid)); err != nil || name != "alice" {
		t.Errorf("valid token: Verify = %q, %v", name, err)
	}
}

func TestRandomKeyPerService(t *testing.T) {
	e := newTestEnv(t)
	u := e.addUser("alice", 0)
	a := NewAuthService(e.db, "", 0)
	b := NewAuthService(e.db, "", 0)

	token, err := a.Token(u)
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if _, err := a.Verify(token); err != nil {
		t.Errorf("own token rejected: %v", err)
	}
	if _, err := b.Verify(token); err == nil {
		t.Error("two services without a secret share a key")
	}
	if a.expiry != 24*time.Hour {
		t.Errorf("default expiry = %v", a.expiry)
	}
}
