package auth

import (
	"errors"
	"fmt"
	"sociallink/config"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	audience       = "authenticated"
	tokenExpiresIn = time.Hour
)

// Claims follow the shape of Supabase access tokens
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// ParseToken verifies an HS256 access token signed with JWT_SECRET
func ParseToken(tokenString string) (*Claims, error) {
	if config.JWT_SECRET == "" {
		return nil, errors.New("JWT_SECRET is not configured")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(config.JWT_SECRET), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// IssueToken signs an access token the same way Supabase does
func IssueToken(userID, email string) (string, int64, error) {
	now := time.Now()
	expires := now.Add(tokenExpiresIn)
	claims := Claims{
		Email: email,
		Role:  audience,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.JWT_SECRET))
	if err != nil {
		return "", 0, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires.Unix(), nil
}
