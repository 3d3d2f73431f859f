package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	httpcontext "github.com/classhub/classhub-server/internal/api/http/context"
	"github.com/classhub/classhub-server/internal/model"
	"github.com/classhub/classhub-server/internal/testutil"
)

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) VerifyToken(accessToken string) (model.TokenPayload, error) {
	args := m.Called(accessToken)
	return args.Get(0).(model.TokenPayload), args.Error(1)
}

func newAuthenticateFixture(t *testing.T) (*Authenticate, *mockVerifier, *httpcontext.Manager) {
	t.Helper()
	verifier := &mockVerifier{}
	ctxMgr := httpcontext.NewManager()
	return NewAuthenticate(verifier, ctxMgr, testutil.MakeNoopLogger()), verifier, ctxMgr
}

func TestAuthenticate_ValidToken(t *testing.T) {
	m, verifier, ctxMgr := newAuthenticateFixture(t)
	userID := uuid.New()

	verifier.On("VerifyToken", "good-token").Return(model.TokenPayload{
		UserID: userID,
		Role:   model.RoleTeacher,
	}, nil)

	var gotID uuid.UUID
	var gotRole model.Role
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ok bool
		gotID, ok = ctxMgr.GetUserIDFromContext(r.Context())
		require.True(t, ok)
		gotRole, ok = ctxMgr.GetRoleFromContext(r.Context())
		require.True(t, ok)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/sessions", nil)
	req.Header.Set("Authorization", "Bearer good-token")

	rec := httptest.NewRecorder()
	m.Handle(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, gotID)
	assert.Equal(t, model.RoleTeacher, gotRole)
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	m, _, _ := newAuthenticateFixture(t)

	called := false
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })

	rec := httptest.NewRecorder()
	m.Handle(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestAuthenticate_WrongScheme(t *testing.T) {
	m, _, _ := newAuthenticateFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

	rec := httptest.NewRecorder()
	m.Handle(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	m, verifier, _ := newAuthenticateFixture(t)

	verifier.On("VerifyToken", "bad-token").Return(model.TokenPayload{}, model.ErrUnauthorized)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad-token")

	rec := httptest.NewRecorder()
	m.Handle(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
