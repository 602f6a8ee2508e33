package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken — токен не прошёл проверку подписи, алгоритма или издателя.
	ErrInvalidToken = errors.New("invalid session token")
	// ErrTokenExpired — срок действия токена истёк.
	ErrTokenExpired = errors.New("session token expired")
)

// TokenConfig — параметры выпуска токенов сессии.
type TokenConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// Claims — содержимое валидного токена.
type Claims struct {
	SessionID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// NeedsRefresh — прошла ли половина срока жизни токена.
func (c Claims) NeedsRefresh(now time.Time) bool {
	half := c.ExpiresAt.Sub(c.IssuedAt) / 2
	return now.After(c.IssuedAt.Add(half))
}

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Tokens выпускает и проверяет HS256-токены, несущие идентификатор сессии.
type Tokens struct {
	cfg TokenConfig
	now func() time.Time
}

// NewTokens создаёт Tokens.
func NewTokens(cfg TokenConfig) *Tokens {
	return &Tokens{cfg: cfg, now: time.Now}
}

// NewID генерирует новый идентификатор сессии.
func NewID() string {
	return uuid.NewString()
}

// Issue подписывает токен для sid. Возвращает токен и момент его истечения.
func (t *Tokens) Issue(sid string) (string, time.Time, error) {
	const op = "session.Tokens.Issue"

	now := t.now().UTC()
	exp := now.Add(t.cfg.TTL)

	claims := sessionClaims{
		SessionID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    t.cfg.Issuer,
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(t.cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	return signed, exp, nil
}

// Parse проверяет токен и возвращает его claims.
// Ошибки: ErrTokenExpired, ErrInvalidToken.
func (t *Tokens) Parse(tokenStr string) (Claims, error) {
	const op = "session.Tokens.Parse"

	token, err := jwt.ParseWithClaims(tokenStr, &sessionClaims{},
		func(*jwt.Token) (interface{}, error) {
			return []byte(t.cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5*time.Second),
		jwt.WithIssuer(t.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}

		return Claims{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return Claims{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	out := Claims{SessionID: claims.SessionID}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}

	return out, nil
}
