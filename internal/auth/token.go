package auth

import (
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

type TokenType string

const (
	TokenTypeUndefined TokenType = ""
	TokenTypeUser      TokenType = "user"
	TokenTypeAdmin     TokenType = "admin"
)

// Issuer is stamped on every token and required on verification.
const Issuer = "member-search"

var TokenSecretKey = os.Getenv("AUTH_TOKEN_SECRET")

// SetSecret replaces the signing key. An empty secret keeps the current one.
func SetSecret(secret string) {
	if secret != "" {
		TokenSecretKey = secret
	}
}

func ParseTokenType(s string) (TokenType, error) {
	switch t := TokenType(s); t {
	case TokenTypeUser, TokenTypeAdmin:
		return t, nil
	default:
		return TokenTypeUndefined, errors.Wrap(ErrUnknownTokenType, s)
	}
}

// TokenClaims grant Role to Subject, the caller of the member search API.
type TokenClaims struct {
	Role TokenType `json:"role"`
	jwt.RegisteredClaims
}

func signingKey() ([]byte, error) {
	if TokenSecretKey == "" {
		return nil, ErrEmptySecret
	}
	return []byte(TokenSecretKey), nil
}

func GenerateToken(subject string, role TokenType, ttl time.Duration) (string, error) {
	key, err := signingKey()
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := TokenClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

func VerifyToken(tokenString string) (*TokenClaims, error) {
	key, err := signingKey()
	if err != nil {
		return nil, err
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Wrapf(ErrInvalidSigningMethod, "%v", token.Header["alg"])
		}
		return key, nil
	}, jwt.WithIssuer(Issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := ParseTokenType(string(claims.Role)); err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}
	return claims, nil
}
