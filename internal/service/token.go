package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vmc-todo/backend/internal/config"
)

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

// TokenClaims is the payload of both token kinds: the user id plus the
// registered issued-at/expiry claims.
type TokenClaims struct {
	UID int64 `json:"uid"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies the two stateless token kinds. Access
// and refresh tokens share the HS256 primitive but use different
// secrets and lifetimes. Verification never consults storage.
type TokenCodec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenCodec(cfg config.AuthConfig) (*TokenCodec, error) {
	if cfg.AccessSecret == "" {
		return nil, fmt.Errorf("%w: JWT_SECRET is required", ErrMisconfigured)
	}
	if cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("%w: JWT_REFRESH_SECRET is required", ErrMisconfigured)
	}

	accessTTL, err := time.ParseDuration(cfg.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid JWT_ACCESS_TOKEN_EXPIRES", ErrMisconfigured)
	}

	refreshTTL, err := time.ParseDuration(cfg.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid JWT_REFRESH_TOKEN_EXPIRES", ErrMisconfigured)
	}

	return &TokenCodec{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}, nil
}

func (c *TokenCodec) IssueAccess(uid int64) (string, error) {
	return c.issue(uid, c.accessSecret, c.accessTTL)
}

func (c *TokenCodec) IssueRefresh(uid int64) (string, error) {
	return c.issue(uid, c.refreshSecret, c.refreshTTL)
}

func (c *TokenCodec) VerifyAccess(token string) (*TokenClaims, error) {
	return c.verify(token, c.accessSecret)
}

func (c *TokenCodec) VerifyRefresh(token string) (*TokenClaims, error) {
	return c.verify(token, c.refreshSecret)
}

func (c *TokenCodec) issue(uid int64, secret []byte, ttl time.Duration) (string, error) {
	now := c.now()
	claims := TokenClaims{
		UID: uid,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (c *TokenCodec) verify(tokenStr string, secret []byte) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
