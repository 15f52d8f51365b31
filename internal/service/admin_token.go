package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultAdminTokenTTL = 12 * time.Hour

var (
	ErrAdminSecretMissing = errors.New("admin jwt secret missing")
	ErrAdminTokenInvalid  = errors.New("admin token invalid")
)

// AdminClaims 管理端 JWT 声明
type AdminClaims struct {
	Operator string `json:"operator"`
	jwt.RegisteredClaims
}

// GenerateAdminToken 签发管理端 Token，ttl<=0 时使用默认有效期
func GenerateAdminToken(secret, operator string, ttl time.Duration, now time.Time) (string, time.Time, error) {
	if strings.TrimSpace(secret) == "" {
		return "", time.Time{}, ErrAdminSecretMissing
	}
	operator = strings.TrimSpace(operator)
	if operator == "" {
		return "", time.Time{}, errors.New("operator is required")
	}
	if ttl <= 0 {
		ttl = defaultAdminTokenTTL
	}
	expiresAt := now.Add(ttl)
	claims := AdminClaims{
		Operator: operator,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   operator,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseAdminToken 解析并校验管理端 Token，仅接受 HS256
func ParseAdminToken(secret, tokenString string) (*AdminClaims, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrAdminSecretMissing
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, errors.Join(ErrAdminTokenInvalid, err)
	}
	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid || strings.TrimSpace(claims.Operator) == "" {
		return nil, ErrAdminTokenInvalid
	}
	return claims, nil
}
