// Package auth реализует проверку bearer-токенов вызывающих.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/mmeshcher/vetbill/internal/model"
)

// UserLookup возвращает пользователя по идентификатору.
type UserLookup interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// Claims описывает полезную нагрузку токена.
type Claims struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTProvider проверяет токены, подписанные HS256 общим секретом.
type JWTProvider struct {
	secret []byte
	users  UserLookup
}

// NewJWTProvider создаёт провайдер. Если users не nil, существование пользователя
// проверяется при каждом запросе, а роль берётся из хранилища.
func NewJWTProvider(secret string, users UserLookup) *JWTProvider {
	return &JWTProvider{
		secret: []byte(secret),
		users:  users,
	}
}

// Authenticate проверяет токен и возвращает идентичность вызывающего.
func (p *JWTProvider) Authenticate(ctx context.Context, token string) (model.Identity, error) {
	if token == "" {
		return model.Identity{}, model.ErrUnauthenticated
	}

	var claims Claims
	tok, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil || !tok.Valid {
		return model.Identity{}, model.ErrUnauthenticated
	}

	userID, err := uuid.Parse(claims.ID)
	if err != nil {
		return model.Identity{}, model.ErrUnauthenticated
	}

	identity := model.Identity{UserID: userID, Role: model.Role(claims.Role)}

	if p.users != nil {
		u, err := p.users.GetUser(ctx, userID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.Identity{}, model.ErrUnauthenticated
			}
			return model.Identity{}, fmt.Errorf("lookup user: %w", err)
		}
		identity.Role = u.Role
	}

	return identity, nil
}

// Issue подписывает токен для указанной идентичности со сроком жизни ttl.
func (p *JWTProvider) Issue(identity model.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		ID:   identity.UserID.String(),
		Role: string(identity.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
