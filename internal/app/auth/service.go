// Package auth handles the team PIN login and the session tokens it issues.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials indicates a login failure.
	ErrInvalidCredentials = errors.New("invalid pin")
	// ErrUnauthorized indicates an invalid or missing session.
	ErrUnauthorized = errors.New("unauthorized")

	dummyPINHash = []byte("$2a$10$CwTycUXWue0Thq9StjUM0uJ8n4VWeNseyX2fA9DE.D7su7J6iYGTC")
)

const (
	DefaultSessionTTL = 12 * time.Hour
	issuer            = "setlist"
)

// CredentialChecker decides whether a PIN grants access.
type CredentialChecker interface {
	CheckPIN(ctx context.Context, pin string) error
}

// PINChecker compares against one shared bcrypt hash.
type PINChecker struct {
	hash []byte
}

// NewPINChecker hashes the plain PIN.
func NewPINChecker(pin string) (*PINChecker, error) {
	if strings.TrimSpace(pin) == "" {
		return nil, errors.New("pin must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash pin: %w", err)
	}
	return &PINChecker{hash: hash}, nil
}

// NewPINCheckerFromHash uses an existing bcrypt hash.
func NewPINCheckerFromHash(hash string) (*PINChecker, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("parse pin hash: %w", err)
	}
	return &PINChecker{hash: []byte(hash)}, nil
}

func (p *PINChecker) CheckPIN(ctx context.Context, pin string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if pin == "" {
		_ = bcrypt.CompareHashAndPassword(dummyPINHash, []byte(pin))
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(p.hash, []byte(pin)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Session is the authenticated state carried by a request.
type Session struct {
	ID        string    `json:"id"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Token is a signed session handed to the client.
type Token struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Service issues and verifies HS256 session tokens.
type Service struct {
	checker CredentialChecker
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
}

// New constructs a Service. A non-positive ttl means DefaultSessionTTL.
func New(checker CredentialChecker, secret string, ttl time.Duration) (*Service, error) {
	if checker == nil {
		return nil, errors.New("credential checker is required")
	}
	if len(secret) < 16 {
		return nil, errors.New("jwt secret must be at least 16 bytes")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Service{checker: checker, secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Login checks the PIN and returns a fresh token.
func (s *Service) Login(ctx context.Context, pin string) (Token, error) {
	if err := s.checker.CheckPIN(ctx, pin); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return Token{}, ErrInvalidCredentials
		}
		return Token{}, fmt.Errorf("check pin: %w", err)
	}

	now := s.now().UTC().Truncate(time.Second)
	expires := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{Token: signed, ExpiresAt: expires}, nil
}

// Verify parses a token and returns its session.
func (s *Service) Verify(raw string) (Session, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Session{}, ErrUnauthorized
	}

	claims := &jwt.RegisteredClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !tok.Valid {
		return Session{}, ErrUnauthorized
	}

	session := Session{ID: claims.ID}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	session.ExpiresAt = claims.ExpiresAt.Time.UTC()
	return session, nil
}

type sessionKey struct{}

// WithSession stores the session on the context.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session stored by WithSession.
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}
