package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleAdmin はワークスペース閲覧を全プロジェクトに許可するロールクレーム
const RoleAdmin = "admin"

// Claims は Bearer トークンのクレーム。sub がユーザーID
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// IsAdmin は admin ロールかどうか
func (c *Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// CreateToken は HS256 で署名した Bearer トークンを生成する
func CreateToken(userID, role string, ttl time.Duration, secret []byte) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken はトークンを検証しクレームを返す
func ParseToken(token string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}
