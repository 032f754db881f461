package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nfrund/together/internal/domain"
)

var (
	ErrInvalidToken = errors.New("invalid access token")
	ErrTokenExpired = errors.New("access token expired")
)

// Claims is the payload of an access token.
type Claims struct {
	Idx   domain.MemberID `json:"idx"`
	Email string          `json:"email,omitempty"`
	Role  string          `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 access tokens.
type Tokens struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens creates a token service. ttl is used by Issue.
func NewTokens(secret, issuer string, ttl time.Duration) *Tokens {
	return &Tokens{
		key:    []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token for member.
func (t *Tokens) Issue(member domain.Member) (string, error) {
	now := t.now()
	role := member.Role
	if role == "" {
		role = domain.RoleUser
	}
	claims := &Claims{
		Idx:   member.ID,
		Email: member.Email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   member.ID.String(),
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
}

// Parse verifies the signature, issuer and expiry of a token.
func (t *Tokens) Parse(raw string) (*Claims, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))
	if raw == "" {
		return nil, ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return t.key, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Idx <= 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Resolve implements the session identity resolver: the credentials are an
// access token and the identity is its idx claim.
func (t *Tokens) Resolve(_ context.Context, credentials string) (domain.MemberID, error) {
	claims, err := t.Parse(credentials)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrAuthentication, err)
	}
	return claims.Idx, nil
}
