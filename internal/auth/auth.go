// Package auth issues and verifies the bearer tokens that carry a
// caller's agent id. Tokens are HS256 JWTs whose subject is the agent.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/roach88/appstore/internal/apperror"
	"github.com/roach88/appstore/internal/ir"
)

// Config parameterizes an Authority.
type Config struct {
	Secret string
	Issuer string
	TTL    time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Authority signs and checks identity tokens with one shared secret.
type Authority struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

type claims struct {
	jwt.RegisteredClaims
}

// NewAuthority validates cfg and returns an Authority.
func NewAuthority(cfg Config) (*Authority, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("auth secret is required")
	}
	if cfg.Issuer == "" {
		return nil, errors.New("auth issuer is required")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("auth ttl must be positive")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Authority{key: []byte(cfg.Secret), issuer: cfg.Issuer, ttl: cfg.TTL, now: now}, nil
}

// Issue signs a token naming agent.
func (a *Authority) Issue(agent ir.AgentID) (string, error) {
	if agent == "" {
		return "", apperror.New(apperror.ValidationError, "agent is required").With("field", "agent")
	}
	now := a.now().UTC()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{jwt.RegisteredClaims{
		Issuer:    a.issuer,
		Subject:   string(agent),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		ID:        uuid.NewString(),
	}})
	signed, err := tok.SignedString(a.key)
	if err != nil {
		return "", apperror.Wrap(apperror.AppError, "sign token", err)
	}
	return signed, nil
}

// Verify checks token and returns the agent it names.
func (a *Authority) Verify(token string) (ir.AgentID, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", apperror.New(apperror.Unauthorized, "token is required")
	}
	var parsed claims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return a.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(a.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return "", mapJWTError(err)
	}
	if parsed.Subject == "" {
		return "", apperror.New(apperror.Unauthorized, "token has no subject")
	}
	return ir.AgentID(parsed.Subject), nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// mapJWTError translates jwt library errors to Unauthorized errors.
func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperror.Wrap(apperror.Unauthorized, "token is expired", err)
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return apperror.Wrap(apperror.Unauthorized, "token is not active yet", err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return apperror.Wrap(apperror.Unauthorized, "token signature is invalid", err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return apperror.Wrap(apperror.Unauthorized, "token issuer mismatch", err)
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return apperror.Wrap(apperror.Unauthorized, "token alg is invalid", err)
	}
	return apperror.Wrap(apperror.Unauthorized, "token is invalid", err)
}
