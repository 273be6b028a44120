package server

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/dennis-mud/dennis/pkg/worlddb"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// passwordCost is the bcrypt work factor for new password hashes.
var passwordCost = bcrypt.DefaultCost

// ErrBadCredentials is returned when a name and password do not match.
var ErrBadCredentials = errors.New("auth: invalid credentials")

const tokenIssuer = "dennis"

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	return hash, nil
}

// CheckPassword reports whether password matches the user's stored hash.
func CheckPassword(u *worlddb.User, password string) bool {
	if u == nil || len(u.PasswordHash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) == nil
}

// AuthService issues the tokens web clients present on /ws?token= to skip
// typing `login`. A token names its user in the subject claim.
type AuthService struct {
	store  worlddb.Store
	key    []byte
	expiry time.Duration
}

// NewAuthService creates an auth service. With no secret a random key is
// used, so tokens do not survive a restart.
func NewAuthService(store worlddb.Store, secret string, expirySeconds int) *AuthService {
	key := []byte(secret)
	if secret == "" {
		key = make([]byte, 32)
		rand.Read(key)
	}
	expiry := 24 * time.Hour
	if expirySeconds > 0 {
		expiry = time.Duration(expirySeconds) * time.Second
	}
	return &AuthService{store: store, key: key, expiry: expiry}
}

// Login checks a user's credentials and returns a signed token. It reads the
// store, so it runs on the loop.
func (a *AuthService) Login(name, password string) (string, error) {
	u := a.store.UserByName(name)
	if !CheckPassword(u, password) {
		return "", ErrBadCredentials
	}
	return a.Token(u)
}

// Token signs a token for u.
func (a *AuthService) Token(u *worlddb.User) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   u.Name,
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.expiry)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.key)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Verify checks a token's signature, issuer and expiry and returns the
// username it was issued for.
func (a *AuthService) Verify(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return a.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("auth: %w", err)
	}
	if claims.Subject == "" {
		return "", errors.New("auth: token names no user")
	}
	return claims.Subject, nil
}
