// Package middleware provides authentication, logging, metrics and rate limiting middleware.
package middleware

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token identity values checked on every request.
const (
	TokenIssuer   = "instaclone-api"
	TokenAudience = "instaclone-client"
)

// TokenType distinguishes access from refresh tokens.
type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

var (
	errInvalidToken     = errors.New("invalid or expired token")
	errWrongTokenType   = errors.New("unexpected token type")
	errInvalidSubject   = errors.New("invalid subject claim")
	errUnexpectedMethod = errors.New("unexpected signing method")
)

// Claims is the JWT payload issued at login.
type Claims struct {
	UserID    uint      `json:"user_id"`
	Superuser bool      `json:"superuser"`
	Type      TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// IssueToken signs a token of the given type for userID.
func IssueToken(secret string, userID uint, superuser bool, typ TokenType, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		Superuser: superuser,
		Type:      typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates signature, issuer, audience, expiry and type, and returns the claims.
func ParseToken(secret, tokenString string, want TokenType) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errUnexpectedMethod
		}
		return []byte(secret), nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}
	if want != "" && claims.Type != want {
		return nil, errWrongTokenType
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || userID == 0 {
		return nil, errInvalidSubject
	}
	claims.UserID = uint(userID)
	return claims, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
