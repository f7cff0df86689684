package handler

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken はJoinトークンの署名やクレームが不正な場合のエラーです。
	ErrInvalidToken = errors.New("invalid bot token")
	// ErrEmptySecret は署名鍵が空の場合のエラーです。
	ErrEmptySecret = errors.New("token secret is empty")
)

// TokenVerifier はHS256で署名されたJoinトークンを検証します。
// subクレームがロスター上のボット名です。
type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(secret string) (*TokenVerifier, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &TokenVerifier{secret: []byte(secret)}, nil
}

// Verify はトークンを検証してボット名を返します。
func (v *TokenVerifier) Verify(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	name, err := parsed.Claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if name == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return name, nil
}

// MintToken は name をsubに持つトークンを発行します。ttl が0以下の場合は期限を付けません。
func MintToken(secret, name string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	claims := jwt.RegisteredClaims{
		Subject:  name,
		IssuedAt: jwt.NewNumericDate(time.Now()),
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
