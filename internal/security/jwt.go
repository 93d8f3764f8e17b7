package security

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/errs"

	"github.com/golang-jwt/jwt/v5"
)

// JWTSigner issues and verifies HS256 session tokens.
type JWTSigner struct {
	secret    []byte
	issuer    string
	ttl       time.Duration
	clockSkew time.Duration
	now       func() time.Time
}

func NewJWTSigner(secret []byte, issuer string, ttl, clockSkew time.Duration) *JWTSigner {
	return &JWTSigner{
		secret:    secret,
		issuer:    issuer,
		ttl:       ttl,
		clockSkew: clockSkew,
		now:       time.Now,
	}
}

func (s *JWTSigner) TTL() time.Duration {
	return s.ttl
}

// AccessClaims: sub = user id, username едет отдельным клеймом.
type AccessClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// SignAccessToken выпускает JWT с sub=userID и exp=now+ttl
func (s *JWTSigner) SignAccessToken(id domain.Identity, now time.Time) (string, error) {
	jti, err := RandomStringURLSafe(16)
	if err != nil {
		return "", fmt.Errorf("token id: %w", err)
	}

	claims := AccessClaims{
		Username: id.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   strconv.FormatInt(int64(id.ID), 10),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-s.clockSkew)),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *JWTSigner) ParseAndValidate(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithLeeway(s.clockSkew),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet):
		return nil, errs.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return nil, errs.ErrInvalidIssuer
	default:
		return nil, fmt.Errorf("%w: %v", errs.ErrInvalidToken, err)
	}
}

// Identity парсит sub и username в domain.Identity.
func (c *AccessClaims) Identity() (domain.Identity, error) {
	if c == nil || c.Subject == "" {
		return domain.Identity{}, errs.ErrInvalidSubject
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return domain.Identity{}, errs.ErrInvalidSubject
	}

	return domain.Identity{ID: domain.UserID(id), Username: c.Username}, nil
}
