package auth

import (
	"testing"
	"time"

	"github.com/dharitri/backend/internal/common"
	"github.com/dharitri/backend/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")

	tok, err := GenerateToken("alice", models.RoleDoctor, secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	claims, err := ParseToken(tok, secret)
	if err != nil {
		t.Fatalf("ParseToken error: %v", err)
	}
	if claims.Username() != "alice" || claims.Role != models.RoleDoctor {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestGenerateToken_DefaultTTL(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken("bob", models.RolePatient, []byte("k"), 0)
	require.NoError(t, err)

	claims, err := ParseToken(tok, []byte("k"))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(DefaultTokenTTL), claims.ExpiresAt.Time, 5*time.Second)
}

func TestParseToken_Failures(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	sign := func(method jwt.SigningMethod, key any, c Claims) string {
		s, err := jwt.NewWithClaims(method, c).SignedString(key)
		require.NoError(t, err)
		return s
	}
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))

	// GenerateToken replaces non-positive ttls, so expired tokens are built by hand
	expired := sign(jwt.SigningMethodHS256, secret, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
		Role:             models.RolePatient,
	})

	wrongSecret, err := GenerateToken("u2", models.RolePatient, []byte("other"), time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"wrong secret", wrongSecret},
		{"garbage", "not.a.jwt"},
		{"empty", ""},
		{"hs512", sign(jwt.SigningMethodHS512, secret, Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "u", ExpiresAt: future}, Role: models.RolePatient})},
		{"none alg", sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "u", ExpiresAt: future}, Role: models.RolePatient})},
		{"no subject", sign(jwt.SigningMethodHS256, secret, Claims{
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future}, Role: models.RolePatient})},
		{"unknown role", sign(jwt.SigningMethodHS256, secret, Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "u", ExpiresAt: future}, Role: "Admin"})},
		{"no expiry", sign(jwt.SigningMethodHS256, secret, Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "u"}, Role: models.RolePatient})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.token, secret)
			assert.ErrorIs(t, err, common.ErrInvalidToken)
		})
	}
}

func TestRequireRole(t *testing.T) {
	doctor := &Principal{Username: "house", Role: models.RoleDoctor}
	patient := &Principal{Username: "alice", Role: models.RolePatient}

	assert.NoError(t, RequireRole(doctor, models.RoleDoctor))
	assert.ErrorIs(t, RequireRole(patient, models.RoleDoctor), common.ErrorForbidden)
	assert.ErrorIs(t, RequireRole(nil, models.RoleDoctor), common.ErrorForbidden)
}
