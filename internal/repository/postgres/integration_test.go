//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/classhub/classhub-server/internal/model"
	repo "github.com/classhub/classhub-server/internal/repository/postgres"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "classhub_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/classhub_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestRepositories_CRUD(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	users := repo.NewUserRepository(conn)
	accounts := repo.NewOAuthAccountRepository(conn)

	hash := "aabb:ccdd"
	now := time.Now()
	user, err := users.Create(ctx, model.User{
		ID:           uuid.New(),
		Email:        "Teacher@Example.com",
		PasswordHash: &hash,
		Name:         "Pat",
		Role:         model.RoleTeacher,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	require.NoError(t, err)

	// Email uniqueness is case-insensitive.
	_, err = users.Create(ctx, model.User{
		ID:        uuid.New(),
		Email:     "teacher@example.COM",
		Role:      model.RoleTeacher,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.ErrorIs(t, err, model.ErrAlreadyExists)

	got, err := users.GetByEmail(ctx, "TEACHER@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	got.Suspended = true
	updated, err := users.Update(ctx, got)
	require.NoError(t, err)
	assert.True(t, updated.Suspended)

	account, err := accounts.Create(ctx, model.OAuthAccount{
		UserID:            user.ID,
		Provider:          "google",
		ProviderSubjectID: "subject-1",
		AccessToken:       "at",
	})
	require.NoError(t, err)

	// One provider identity maps to exactly one local user.
	_, err = accounts.Create(ctx, model.OAuthAccount{
		UserID:            user.ID,
		Provider:          "google",
		ProviderSubjectID: "subject-1",
	})
	require.ErrorIs(t, err, model.ErrAlreadyExists)

	found, err := accounts.GetByProviderSubject(ctx, "google", "subject-1")
	require.NoError(t, err)
	assert.Equal(t, account.ID, found.ID)

	expires := time.Now().Add(time.Hour)
	require.NoError(t, accounts.UpdateTokens(ctx, account.ID, model.ProviderTokens{
		AccessToken: "at-2", RefreshToken: "rt-2", ExpiresAt: &expires,
	}))

	count, err := accounts.CountByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, accounts.Delete(ctx, account.ID))
	_, err = accounts.GetByProviderSubject(ctx, "google", "subject-1")
	require.ErrorIs(t, err, model.ErrNotFound)
}
