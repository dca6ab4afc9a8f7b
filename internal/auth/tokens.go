package auth

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lebbnb/apiserver/config"
)

const (
	tokenIssuer   = "lebbnb-admin"
	tokenAudience = "lebbnb-api"
)

// Claims is the payload carried by both access and refresh tokens.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// AdminID parses the subject claim into an admin ID.
func (c *Claims) AdminID() (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(c.Subject))
	if err != nil || id < 1 {
		return 0, ErrTokenInvalid
	}
	return id, nil
}

// TokenManager signs and verifies access and refresh tokens. The two kinds
// are keyed independently so a leaked access secret cannot mint refresh
// tokens, and vice versa.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenManager constructs a TokenManager from config. Both secrets are
// required and must differ.
func NewTokenManager(cfg config.JWTConfig) (*TokenManager, error) {
	if strings.TrimSpace(cfg.AccessSecret) == "" || strings.TrimSpace(cfg.RefreshSecret) == "" {
		return nil, errors.New("both JWT secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}
	accessTTL := cfg.AccessTTL
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	refreshTTL := cfg.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenManager{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}, nil
}

// IssueAccessToken signs a short-lived access token for the given identity.
func (m *TokenManager) IssueAccessToken(adminID int, email, role string) (string, error) {
	return m.issue(adminID, email, role, m.accessTTL, m.accessSecret)
}

// IssueRefreshToken signs a long-lived refresh token for the given identity.
func (m *TokenManager) IssueRefreshToken(adminID int, email, role string) (string, error) {
	return m.issue(adminID, email, role, m.refreshTTL, m.refreshSecret)
}

// VerifyAccessToken validates an access token and returns its claims.
// Every failure mode collapses to ErrTokenInvalid.
func (m *TokenManager) VerifyAccessToken(tokenString string) (*Claims, error) {
	return m.verify(tokenString, m.accessSecret)
}

// VerifyRefreshToken validates a refresh token and returns its claims.
// Every failure mode collapses to ErrTokenInvalid.
func (m *TokenManager) VerifyRefreshToken(tokenString string) (*Claims, error) {
	return m.verify(tokenString, m.refreshSecret)
}

func (m *TokenManager) issue(adminID int, email, role string, ttl time.Duration, secret []byte) (string, error) {
	now := m.now()
	claims := Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(adminID),
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (m *TokenManager) verify(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return secret, nil
		},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(func() time.Time { return m.now() }),
	)
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
