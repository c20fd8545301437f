package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "member-search-test-secret"

func withSecret(t *testing.T, secret string) {
	t.Helper()
	prev := TokenSecretKey
	TokenSecretKey = secret
	t.Cleanup(func() { TokenSecretKey = prev })
}

func signed(t *testing.T, method jwt.SigningMethod, key any, claims TokenClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func claimsFor(role TokenType, issuer string, expires time.Time) TokenClaims {
	return TokenClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   "seed-script",
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
}

func TestGenerateToken(t *testing.T) {
	withSecret(t, testSecret)

	for _, role := range []TokenType{TokenTypeUser, TokenTypeAdmin} {
		t.Run(string(role), func(t *testing.T) {
			token, err := GenerateToken("report-viewer", role, 30*time.Minute)
			require.NoError(t, err)

			claims, err := VerifyToken(token)
			require.NoError(t, err)
			assert.Equal(t, role, claims.Role)
			assert.Equal(t, "report-viewer", claims.Subject)
			assert.Equal(t, Issuer, claims.Issuer)
			assert.WithinDuration(t, time.Now().Add(30*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
		})
	}
}

func TestTokens_FailClosedWithoutSecret(t *testing.T) {
	withSecret(t, testSecret)
	admin, err := GenerateToken("bulk-admin", TokenTypeAdmin, time.Hour)
	require.NoError(t, err)

	TokenSecretKey = ""

	_, err = GenerateToken("bulk-admin", TokenTypeAdmin, time.Hour)
	assert.ErrorIs(t, err, ErrEmptySecret)

	forged := signed(t, jwt.SigningMethodHS256, []byte("guessed"), claimsFor(TokenTypeAdmin, Issuer, time.Now().Add(time.Hour)))
	for _, token := range []string{admin, forged} {
		claims, err := VerifyToken(token)
		assert.ErrorIs(t, err, ErrEmptySecret)
		assert.Nil(t, claims)
	}
}

func TestVerifyToken_Rejects(t *testing.T) {
	withSecret(t, testSecret)
	key := []byte(testSecret)
	inAnHour := time.Now().Add(time.Hour)

	tests := []struct {
		name  string
		token string
		err   error
	}{
		{
			name:  "expired",
			token: signed(t, jwt.SigningMethodHS256, key, claimsFor(TokenTypeUser, Issuer, time.Now().Add(-time.Hour))),
			err:   jwt.ErrTokenExpired,
		},
		{
			name:  "other signing key",
			token: signed(t, jwt.SigningMethodHS256, []byte("another-service"), claimsFor(TokenTypeUser, Issuer, inAnHour)),
			err:   jwt.ErrTokenSignatureInvalid,
		},
		{
			name:  "foreign issuer",
			token: signed(t, jwt.SigningMethodHS256, key, claimsFor(TokenTypeAdmin, "pr-reviewer", inAnHour)),
			err:   jwt.ErrTokenInvalidIssuer,
		},
		{
			name:  "unsigned",
			token: signed(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, claimsFor(TokenTypeAdmin, Issuer, inAnHour)),
			err:   ErrInvalidSigningMethod,
		},
		{
			name:  "unknown role",
			token: signed(t, jwt.SigningMethodHS256, key, claimsFor("root", Issuer, inAnHour)),
			err:   ErrInvalidToken,
		},
		{
			name:  "malformed",
			token: "member-search",
			err:   jwt.ErrTokenMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := VerifyToken(tt.token)
			assert.ErrorIs(t, err, tt.err)
			assert.Nil(t, claims)
		})
	}
}

func TestSetSecret(t *testing.T) {
	withSecret(t, testSecret)

	SetSecret("")
	assert.Equal(t, testSecret, TokenSecretKey)

	SetSecret("rotated")
	assert.Equal(t, "rotated", TokenSecretKey)
}

func TestParseTokenType(t *testing.T) {
	role, err := ParseTokenType("admin")
	require.NoError(t, err)
	assert.Equal(t, TokenTypeAdmin, role)

	_, err = ParseTokenType("root")
	assert.ErrorIs(t, err, ErrUnknownTokenType)
}
