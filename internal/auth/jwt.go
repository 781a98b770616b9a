package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const adminScope = "cache:admin"

var ErrInvalidToken = errors.New("invalid admin token")

// Claims carries the scope granted to an admin token
type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// Generate issues an HS256 admin token for subject valid for ttl
func Generate(secret, subject string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)
	claims := Claims{
		Scope: adminScope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	return signed, exp, err
}

// Verify parses tokenString and checks signature, expiry and scope
func Verify(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims.Scope != adminScope {
		return nil, fmt.Errorf("%w: missing %s scope", ErrInvalidToken, adminScope)
	}
	return claims, nil
}
