package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const accessTokenType = "access"

var ErrTokenInvalid = errors.New("token invalid")

// Claims is the decoded payload of an access token.
type Claims struct {
	UserID    uuid.UUID
	UserType  string
	ExpiresAt time.Time
}

// NewAccessToken signs an HS256 access token for userID. The user type is
// carried both as its own claim and as the single global role.
func NewAccessToken(secret string, userID uuid.UUID, userType string, ttl time.Duration, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":       userID.String(),
		"user_type": userType,
		"roles":     []string{userType},
		"type":      accessTokenType,
		"iat":       now.Unix(),
		"exp":       expiresAt.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseAccessToken verifies raw and returns its claims.
func ParseAccessToken(secret, raw string) (Claims, error) {
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, ErrTokenInvalid
	}

	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrTokenInvalid
	}
	if typ, _ := mc["type"].(string); typ != accessTokenType {
		return Claims{}, ErrTokenInvalid
	}
	sub, _ := mc["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return Claims{}, ErrTokenInvalid
	}
	exp, err := mc.GetExpirationTime()
	if err != nil || exp == nil {
		return Claims{}, ErrTokenInvalid
	}
	userType, _ := mc["user_type"].(string)
	return Claims{UserID: userID, UserType: userType, ExpiresAt: exp.Time}, nil
}
