package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type claimsKey string

// UserClaimsKey is used both for fiber locals and for the request context
const UserClaimsKey claimsKey = "user_claims"

var jwtSecret = []byte("secret")

// SetSecret allows injecting the secret from config
func SetSecret(secret string) {
	jwtSecret = []byte(secret)
}

type UserClaims struct {
	UserID     string `json:"user_id"`
	OrgID      string `json:"org_id"`
	Role       string `json:"role"`
	Department string `json:"department,omitempty"`
	SuperAdmin bool   `json:"super_admin,omitempty"`
	jwt.RegisteredClaims
}

// TokenSubject carries the identity baked into a token
type TokenSubject struct {
	UserID     string
	OrgID      string
	Role       string
	Department string
	SuperAdmin bool
}

func GenerateToken(sub TokenSubject, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	claims := UserClaims{
		UserID:     sub.UserID,
		OrgID:      sub.OrgID,
		Role:       sub.Role,
		Department: sub.Department,
		SuperAdmin: sub.SuperAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub.UserID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

func ValidateToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrTokenSignatureInvalid
}
