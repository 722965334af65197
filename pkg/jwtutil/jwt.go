package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"ledger-service/internal/model"
)

// ErrInvalidToken is returned for every credential that fails to
// resolve, whatever the underlying reason. Callers must not let the
// distinction between malformed, expired and forged tokens leak out.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the resolved identity carried inside a bearer token.
type Claims struct {
	UserID         uint       `json:"user_id"`
	OrganizationID uint       `json:"organization_id"`
	Role           model.Role `json:"role"`
	Email          string     `json:"email"`
	jwt.RegisteredClaims
}

// JWTUtil signs and verifies bearer tokens
type JWTUtil struct {
	signingKey      []byte
	expirationHours int
}

// NewJWTUtil creates a new JWT utility with the given signing key and
// token lifetime in hours
func NewJWTUtil(signingKey string, expirationHours int) *JWTUtil {
	return &JWTUtil{
		signingKey:      []byte(signingKey),
		expirationHours: expirationHours,
	}
}

// GenerateToken creates a signed token for the user
func (j *JWTUtil) GenerateToken(user *model.User) (string, error) {
	claims := Claims{
		UserID:         user.ID,
		OrganizationID: user.OrganizationID,
		Role:           user.Role,
		Email:          user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(j.expirationHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.signingKey)
}

// ValidateToken verifies a token and returns the identity it carries.
// Any failure maps to ErrInvalidToken.
func (j *JWTUtil) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return j.signingKey, nil
		},
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
