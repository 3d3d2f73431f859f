package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classhub/classhub-server/internal/model"
)

var accountColumns = []string{
	"id", "user_id", "provider", "provider_subject_id",
	"access_token", "refresh_token", "id_token", "expires_at", "created_at", "updated_at",
}

func accountRow(a model.OAuthAccount) *pgxmock.Rows {
	return pgxmock.NewRows(accountColumns).AddRow(
		a.ID, a.UserID, a.Provider, a.ProviderSubjectID,
		a.AccessToken, a.RefreshToken, a.IDToken, a.ExpiresAt,
		a.CreatedAt, a.UpdatedAt,
	)
}

func testAccount() model.OAuthAccount {
	now := time.Now()
	return model.OAuthAccount{
		ID:                uuid.New(),
		UserID:            uuid.New(),
		Provider:          "google",
		ProviderSubjectID: "subject-123",
		AccessToken:       "at",
		RefreshToken:      "rt",
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func TestOAuthAccountRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	account := testAccount()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO oauth_accounts`)).
		WithArgs(account.ID, account.UserID, account.Provider, account.ProviderSubjectID,
			account.AccessToken, account.RefreshToken, account.IDToken, account.ExpiresAt).
		WillReturnRows(accountRow(account))

	repo := NewOAuthAccountRepository(mock)
	saved, err := repo.Create(context.Background(), account)
	require.NoError(t, err)
	assert.Equal(t, account.ProviderSubjectID, saved.ProviderSubjectID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOAuthAccountRepository_Create_DuplicateSubject(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	account := testAccount()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO oauth_accounts`)).
		WithArgs(account.ID, account.UserID, account.Provider, account.ProviderSubjectID,
			account.AccessToken, account.RefreshToken, account.IDToken, account.ExpiresAt).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	repo := NewOAuthAccountRepository(mock)
	_, err = repo.Create(context.Background(), account)
	require.ErrorIs(t, err, model.ErrAlreadyExists)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOAuthAccountRepository_GetByProviderSubject_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM oauth_accounts WHERE provider = \$1 AND provider_subject_id = \$2`).
		WithArgs("google", "absent").
		WillReturnError(pgx.ErrNoRows)

	repo := NewOAuthAccountRepository(mock)
	_, err = repo.GetByProviderSubject(context.Background(), "google", "absent")
	require.ErrorIs(t, err, model.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOAuthAccountRepository_UpdateTokens(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	expires := time.Now().Add(time.Hour)
	tokens := model.ProviderTokens{AccessToken: "new-at", RefreshToken: "new-rt", ExpiresAt: &expires}

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE oauth_accounts`)).
		WithArgs(id, tokens.AccessToken, tokens.RefreshToken, tokens.IDToken, tokens.ExpiresAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	repo := NewOAuthAccountRepository(mock)
	require.NoError(t, repo.UpdateTokens(context.Background(), id, tokens))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOAuthAccountRepository_UpdateTokens_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE oauth_accounts`)).
		WithArgs(id, "", "", "", nil).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewOAuthAccountRepository(mock)
	err = repo.UpdateTokens(context.Background(), id, model.ProviderTokens{})
	require.ErrorIs(t, err, model.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOAuthAccountRepository_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM oauth_accounts WHERE id = $1`)).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	repo := NewOAuthAccountRepository(mock)
	require.NoError(t, repo.Delete(context.Background(), id))

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM oauth_accounts WHERE id = $1`)).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err = repo.Delete(context.Background(), id)
	require.ErrorIs(t, err, model.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOAuthAccountRepository_GetAllByUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	userID := uuid.New()
	first := testAccount()
	first.UserID = userID
	second := testAccount()
	second.UserID = userID
	second.Provider = "github"

	rows := pgxmock.NewRows(accountColumns).
		AddRow(first.ID, first.UserID, first.Provider, first.ProviderSubjectID,
			first.AccessToken, first.RefreshToken, first.IDToken, first.ExpiresAt,
			first.CreatedAt, first.UpdatedAt).
		AddRow(second.ID, second.UserID, second.Provider, second.ProviderSubjectID,
			second.AccessToken, second.RefreshToken, second.IDToken, second.ExpiresAt,
			second.CreatedAt, second.UpdatedAt)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM oauth_accounts WHERE user_id = $1 ORDER BY created_at`)).
		WithArgs(userID).
		WillReturnRows(rows)

	repo := NewOAuthAccountRepository(mock)
	accounts, err := repo.GetAllByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "google", accounts[0].Provider)
	assert.Equal(t, "github", accounts[1].Provider)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOAuthAccountRepository_CountByUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	userID := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM oauth_accounts WHERE user_id = $1`)).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))

	repo := NewOAuthAccountRepository(mock)
	count, err := repo.CountByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	assert.NoError(t, mock.ExpectationsWereMet())
}
