package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classhub/classhub-server/internal/model"
)

func TestJWT_AccessToken_Roundtrip(t *testing.T) {
	j := NewJWT("secret", 0)
	u := uuid.New()

	access, err := j.GenerateAccessToken(u, model.RoleStudent)
	require.NoError(t, err)

	payload, err := j.VerifyAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, u, payload.UserID)
	assert.Equal(t, model.RoleStudent, payload.Role)
	assert.WithinDuration(t, time.Now().Add(DefaultAccessTTL), payload.ExpireAt, 5*time.Second)
}

func TestJWT_AccessToken_Expired(t *testing.T) {
	j := NewJWT("secret", -1)
	impl := j.(*JWT)
	impl.accessTTL = -time.Minute

	access, err := j.GenerateAccessToken(uuid.New(), model.RoleTeacher)
	require.NoError(t, err)

	_, err = j.VerifyAccessToken(access)
	require.ErrorIs(t, err, model.ErrTokenExpired)
}

func TestJWT_AccessToken_WrongSecret(t *testing.T) {
	j := NewJWT("secret", 0)
	other := NewJWT("other", 0)

	access, err := j.GenerateAccessToken(uuid.New(), model.RoleAdmin)
	require.NoError(t, err)

	_, err = other.VerifyAccessToken(access)
	require.ErrorIs(t, err, model.ErrTokenMalformed)
}

func TestJWT_AccessToken_AlgorithmMismatch(t *testing.T) {
	j := NewJWT("secret", 0)

	// Unsigned token claiming "none" must be rejected.
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID: uuid.NewString(),
		Role:   string(model.RoleAdmin),
	})
	tokenString, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = j.VerifyAccessToken(tokenString)
	require.ErrorIs(t, err, model.ErrTokenMalformed)
}

func TestJWT_AccessToken_PayloadShape(t *testing.T) {
	j := NewJWT("secret", 0)
	now := time.Now()

	tests := []struct {
		name   string
		userID string
		role   string
	}{
		{name: "missing user id", userID: "", role: "student"},
		{name: "non-uuid user id", userID: "42", role: "student"},
		{name: "missing role", userID: uuid.NewString(), role: ""},
		{name: "unknown role", userID: uuid.NewString(), role: "superuser"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
				RegisteredClaims: jwt.RegisteredClaims{
					IssuedAt:  jwt.NewNumericDate(now),
					ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
				},
				UserID: tt.userID,
				Role:   tt.role,
			})
			tokenString, err := raw.SignedString([]byte("secret"))
			require.NoError(t, err)

			_, err = j.VerifyAccessToken(tokenString)
			require.ErrorIs(t, err, model.ErrTokenMalformed)
		})
	}
}

func TestJWT_AccessToken_Garbage(t *testing.T) {
	j := NewJWT("secret", 0)

	_, err := j.VerifyAccessToken("not.a.token")
	require.ErrorIs(t, err, model.ErrTokenMalformed)
}

func TestJWT_RefreshToken_Opaque(t *testing.T) {
	j := NewJWT("secret", 0)

	first, err := j.GenerateRefreshToken()
	require.NoError(t, err)
	second, err := j.GenerateRefreshToken()
	require.NoError(t, err)

	assert.Len(t, first, refreshTokenBytes*2)
	assert.NotEqual(t, first, second)

	// A refresh token is not a parseable access token.
	_, err = j.VerifyAccessToken(first)
	require.ErrorIs(t, err, model.ErrTokenMalformed)
}
