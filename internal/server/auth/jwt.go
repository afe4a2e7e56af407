// Package auth issues and verifies bearer tokens and hashes passwords.
package auth

import (
	"time"

	"github.com/dharitri/backend/internal/common"
	"github.com/dharitri/backend/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL applies when GenerateToken is given a non-positive ttl.
const DefaultTokenTTL = 30 * time.Minute

// Claims carries the token subject (username) and the caller's role.
type Claims struct {
	jwt.RegisteredClaims
	Role models.Role `json:"role"`
}

// Username returns the subject.
func (c *Claims) Username() string {
	return c.Subject
}

func GenerateToken(username string, role models.Role, secretKey []byte, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
		Role: role,
	})

	return token.SignedString(secretKey)
}

// ParseToken verifies signature, algorithm and expiry. Every failure,
// including a missing subject or an unknown role, is common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, common.ErrInvalidToken
	}

	if claims.Subject == "" || !claims.Role.Valid() {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

// Principal is the authenticated caller of a request.
type Principal struct {
	Username string
	Role     models.Role
}

// RequireRole returns common.ErrorForbidden unless p has role.
func RequireRole(p *Principal, role models.Role) error {
	if p == nil || p.Role != role {
		return common.ErrorForbidden
	}
	return nil
}
