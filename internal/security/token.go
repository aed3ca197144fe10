package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken  = errors.New("missing bearer token")
	ErrInvalidToken  = errors.New("invalid token")
	ErrNoTokenSecret = errors.New("token secret not configured")
)

// Claims carries the authenticated user id in the subject.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenVerifier validates HS256 bearer tokens issued by the account service.
type TokenVerifier struct {
	secret []byte
	issuer string
	parser *jwt.Parser
}

// NewTokenVerifier creates a verifier. An empty issuer accepts any issuer.
func NewTokenVerifier(secret, issuer string) *TokenVerifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &TokenVerifier{secret: []byte(secret), issuer: issuer, parser: jwt.NewParser(opts...)}
}

// Verify parses the token and returns the user id it names.
func (v *TokenVerifier) Verify(tokenString string) (string, error) {
	if len(v.secret) == 0 {
		return "", ErrNoTokenSecret
	}
	if tokenString == "" {
		return "", ErrMissingToken
	}

	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// Issue signs a token for userID. It is used by tooling and tests.
func (v *TokenVerifier) Issue(userID string, ttl time.Duration) (string, error) {
	if len(v.secret) == 0 {
		return "", ErrNoTokenSecret
	}
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
