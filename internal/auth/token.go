package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid access token")
	ErrEmptySecret  = errors.New("token secret must not be empty")
)

// TokenType - значение token_type в ответе login/register
const TokenType = "Bearer"

// Claims - jti указывает на строку personal_access_tokens, sub - на пользователя.
// exp не ставится: токен живет до удаления строки.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenIssuer подписывает и разбирает bearer-токены
type TokenIssuer struct {
	secret []byte
	issuer string
	parser *jwt.Parser
}

func NewTokenIssuer(secret, issuer string) (*TokenIssuer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &TokenIssuer{
		secret: []byte(secret),
		issuer: issuer,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(issuer),
		),
	}, nil
}

// Issue возвращает строку токена и sha256-хеш для хранения в БД
func (i *TokenIssuer) Issue(tokenID, userID string) (token string, hash string, err error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:      tokenID,
			Subject: userID,
			Issuer:  i.issuer,
		},
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, HashToken(token), nil
}

// Parse проверяет подпись и возвращает claims
func (i *TokenIssuer) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := i.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// HashToken - sha256 токена для хранения
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// MatchesHash сравнивает токен с сохраненным хешем за постоянное время
func MatchesHash(token, storedHash string) bool {
	return subtle.ConstantTimeCompare([]byte(HashToken(token)), []byte(storedHash)) == 1
}
