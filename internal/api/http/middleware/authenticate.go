package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/classhub/classhub-server/internal/logger"
	"github.com/classhub/classhub-server/internal/model"
)

// TokenVerifier validates access tokens and returns their payload.
type TokenVerifier interface {
	VerifyToken(accessToken string) (model.TokenPayload, error)
}

// Authenticate validates bearer tokens and injects the identity into the
// request context.
type Authenticate struct {
	verifier       TokenVerifier
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(verifier TokenVerifier, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{verifier: verifier, contextManager: contextManager, logger: logger}
}

// Handle parses the Authorization header, verifies the token and passes the
// request on with the identity in context. Failures end the request with 401.
func (m *Authenticate) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := bearerToken(r)
		if tokenString == "" {
			unauthorized(w, "missing authorization token")
			return
		}

		payload, err := m.verifier.VerifyToken(tokenString)
		if err != nil {
			m.logger.Debug("Authenticate middleware: token rejected", "error", err.Error())
			unauthorized(w, "invalid authorization token")
			return
		}

		ctx := m.contextManager.SetIdentityToContext(r.Context(), payload.UserID, payload.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
