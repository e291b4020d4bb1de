package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/gcc-pulse-api/internal/access"
)

const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

var (
	// ErrInvalidToken is returned for malformed, expired or wrongly signed tokens.
	ErrInvalidToken = errors.New("invalid session token")
	// ErrRevokedToken is returned for tokens that were signed out.
	ErrRevokedToken = errors.New("session token revoked")
)

// Claims is the JWT payload issued for a session.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	Kind  string `json:"kind"`
	jwt.RegisteredClaims
}

// Tokens is an issued access/refresh pair.
type Tokens struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	ExpiresAt        time.Time `json:"expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// Config configures the session manager.
type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Manager issues, verifies and revokes HS256 session tokens.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	revoked       RevocationStore
	now           func() time.Time
}

// NewManager constructs a Manager. A nil store disables revocation.
func NewManager(cfg Config, store RevocationStore) *Manager {
	if store == nil {
		store = noopRevocationStore{}
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}

	return &Manager{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		revoked:       store,
		now:           time.Now,
	}
}

// Issue signs a fresh token pair for the identity.
func (m *Manager) Issue(identity access.Identity) (Tokens, error) {
	now := m.now()
	accessExp := now.Add(m.accessTTL)
	refreshExp := now.Add(m.refreshTTL)

	accessToken, err := m.sign(identity, kindAccess, now, accessExp, m.accessSecret)
	if err != nil {
		return Tokens{}, err
	}
	refreshToken, err := m.sign(identity, kindRefresh, now, refreshExp, m.refreshSecret)
	if err != nil {
		return Tokens{}, err
	}

	return Tokens{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		ExpiresAt:        accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Verify resolves an access token into the caller identity.
func (m *Manager) Verify(ctx context.Context, token string) (access.Identity, error) {
	claims, err := m.parse(ctx, token, kindAccess, m.accessSecret)
	if err != nil {
		return access.Identity{}, err
	}
	return identityFromClaims(claims), nil
}

// Refresh exchanges a refresh token for a new pair. The old refresh token is
// revoked so it cannot be replayed.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (Tokens, access.Identity, error) {
	claims, err := m.parse(ctx, refreshToken, kindRefresh, m.refreshSecret)
	if err != nil {
		return Tokens{}, access.Identity{}, err
	}

	if err := m.revoke(ctx, claims); err != nil {
		return Tokens{}, access.Identity{}, err
	}

	identity := identityFromClaims(claims)
	tokens, err := m.Issue(identity)
	if err != nil {
		return Tokens{}, access.Identity{}, err
	}
	return tokens, identity, nil
}

// Revoke signs out an access token until it would have expired.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	claims, err := m.parse(ctx, token, kindAccess, m.accessSecret)
	if err != nil {
		return err
	}
	return m.revoke(ctx, claims)
}

func (m *Manager) revoke(ctx context.Context, claims *Claims) error {
	ttl := claims.ExpiresAt.Time.Sub(m.now())
	return m.revoked.Revoke(ctx, claims.ID, ttl)
}

func (m *Manager) sign(identity access.Identity, kind string, issuedAt, expiresAt time.Time, secret []byte) (string, error) {
	claims := Claims{
		Email: identity.Email,
		Role:  identity.Role.String(),
		Kind:  kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

func (m *Manager) parse(ctx context.Context, tokenString, kind string, secret []byte) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Kind != kind || claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	revoked, err := m.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrRevokedToken
	}

	return claims, nil
}

func identityFromClaims(claims *Claims) access.Identity {
	return access.Identity{
		ID:    claims.Subject,
		Email: claims.Email,
		Role:  access.ParseRole(claims.Role),
	}
}
