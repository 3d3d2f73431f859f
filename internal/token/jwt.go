package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/classhub/classhub-server/internal/model"
)

// Claims represents JWT claims carried by access tokens.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// JWT implements model.TokenManager backed by symmetric HMAC. Refresh tokens
// are opaque random values with no claims; their validity is decided by the
// session store alone.
type JWT struct {
	secretKey string
	accessTTL time.Duration
}

const (
	// DefaultAccessTTL is the access token lifetime.
	DefaultAccessTTL = 15 * time.Minute

	refreshTokenBytes = 32
)

// NewJWT creates a token manager with the provided secret key.
func NewJWT(secretKey string, accessTTL time.Duration) model.TokenManager {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	return &JWT{secretKey: secretKey, accessTTL: accessTTL}
}

// GenerateAccessToken creates a short-lived signed access token.
func (j *JWT) GenerateAccessToken(userID uuid.UUID, role model.Role) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.accessTTL)),
		},
		UserID: userID.String(),
		Role:   string(role),
	})

	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}

// VerifyAccessToken validates signature, expiry and payload shape.
// Expiry and malformed/forged tokens are distinct error kinds here; the
// service layer collapses both before anything reaches a client.
func (j *JWT) VerifyAccessToken(tokenString string) (model.TokenPayload, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(j.secretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return model.TokenPayload{}, model.ErrTokenExpired
		}
		return model.TokenPayload{}, model.ErrTokenMalformed
	}
	if !token.Valid {
		return model.TokenPayload{}, model.ErrTokenMalformed
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil || userID == uuid.Nil {
		return model.TokenPayload{}, model.ErrTokenMalformed
	}
	role := model.Role(claims.Role)
	if !role.Valid() {
		return model.TokenPayload{}, model.ErrTokenMalformed
	}

	payload := model.TokenPayload{
		UserID: userID,
		Role:   role,
	}
	if claims.IssuedAt != nil {
		payload.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		payload.ExpireAt = claims.ExpiresAt.Time
	}

	return payload, nil
}

// GenerateRefreshToken returns a 256-bit random value, hex-encoded. It is
// opaque: no claims and no embedded expiry.
func (j *JWT) GenerateRefreshToken() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
