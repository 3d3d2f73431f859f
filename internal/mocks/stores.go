// Package mocks contains testify mocks for the model store and manager
// interfaces, shared by service and handler tests.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/classhub/classhub-server/internal/model"
)

type UserStore struct {
	mock.Mock
}

func (m *UserStore) Create(ctx context.Context, user model.User) (model.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) GetByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) Update(ctx context.Context, user model.User) (model.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(model.User), args.Error(1)
}

type OAuthAccountStore struct {
	mock.Mock
}

func (m *OAuthAccountStore) Create(ctx context.Context, account model.OAuthAccount) (model.OAuthAccount, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(model.OAuthAccount), args.Error(1)
}

func (m *OAuthAccountStore) GetByProviderSubject(ctx context.Context, provider, subjectID string) (model.OAuthAccount, error) {
	args := m.Called(ctx, provider, subjectID)
	return args.Get(0).(model.OAuthAccount), args.Error(1)
}

func (m *OAuthAccountStore) GetByUserProvider(ctx context.Context, userID uuid.UUID, provider string) (model.OAuthAccount, error) {
	args := m.Called(ctx, userID, provider)
	return args.Get(0).(model.OAuthAccount), args.Error(1)
}

func (m *OAuthAccountStore) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]model.OAuthAccount, error) {
	args := m.Called(ctx, userID)
	if accounts, ok := args.Get(0).([]model.OAuthAccount); ok {
		return accounts, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *OAuthAccountStore) UpdateTokens(ctx context.Context, id uuid.UUID, tokens model.ProviderTokens) error {
	args := m.Called(ctx, id, tokens)
	return args.Error(0)
}

func (m *OAuthAccountStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *OAuthAccountStore) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type SessionStore struct {
	mock.Mock
}

func (m *SessionStore) Create(ctx context.Context, userID uuid.UUID, token string, ttl time.Duration) error {
	args := m.Called(ctx, userID, token, ttl)
	return args.Error(0)
}

func (m *SessionStore) Get(ctx context.Context, token string) (model.Session, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(model.Session), args.Error(1)
}

func (m *SessionStore) Delete(ctx context.Context, token string) (bool, error) {
	args := m.Called(ctx, token)
	return args.Bool(0), args.Error(1)
}

func (m *SessionStore) Refresh(ctx context.Context, token string, ttl time.Duration) error {
	args := m.Called(ctx, token, ttl)
	return args.Error(0)
}

func (m *SessionStore) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]model.Session, error) {
	args := m.Called(ctx, userID)
	if sessions, ok := args.Get(0).([]model.Session); ok {
		return sessions, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionStore) DeleteAllByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *SessionStore) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type TokenManager struct {
	mock.Mock
}

func (m *TokenManager) GenerateAccessToken(userID uuid.UUID, role model.Role) (string, error) {
	args := m.Called(userID, role)
	return args.String(0), args.Error(1)
}

func (m *TokenManager) VerifyAccessToken(token string) (model.TokenPayload, error) {
	args := m.Called(token)
	return args.Get(0).(model.TokenPayload), args.Error(1)
}

func (m *TokenManager) GenerateRefreshToken() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}
