package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_IssueAndParse(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", "gatekeeper")
	require.NoError(t, err)

	token, hash, err := issuer.Issue("token-1", "user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Len(t, hash, 64)
	assert.Equal(t, HashToken(token), hash)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "token-1", claims.ID)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Nil(t, claims.ExpiresAt, "Токен без срока действия")
}

func TestTokenIssuer_RejectsForeignTokens(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", "gatekeeper")
	require.NoError(t, err)
	token, _, err := issuer.Issue("token-1", "user-1")
	require.NoError(t, err)

	otherSecret, err := NewTokenIssuer("another-secret", "gatekeeper")
	require.NoError(t, err)
	otherIssuer, err := NewTokenIssuer("test-secret", "someone-else")
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ID: "token-1", Subject: "user-1", Issuer: "gatekeeper"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noIDToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", Issuer: "gatekeeper"},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	testCases := []struct {
		name   string
		issuer *TokenIssuer
		token  string
	}{
		{"чужой секрет", otherSecret, token},
		{"чужой issuer", otherIssuer, token},
		{"мусор", issuer, "not-a-token"},
		{"поврежденная подпись", issuer, token[:len(token)-2] + "xx"},
		{"alg none", issuer, noneToken},
		{"без jti", issuer, noIDToken},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.issuer.Parse(tc.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestNewTokenIssuer_EmptySecret(t *testing.T) {
	_, err := NewTokenIssuer("", "gatekeeper")
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestMatchesHash(t *testing.T) {
	hash := HashToken("plain-token")

	assert.True(t, MatchesHash("plain-token", hash))
	assert.False(t, MatchesHash("plain-token-2", hash))
	assert.False(t, MatchesHash("plain-token", ""))
}
