package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/classhub/classhub-server/internal/model"
)

var _ model.OAuthAccountStore = (*OAuthAccountRepository)(nil)

type OAuthAccountRepository struct {
	db DB
}

func NewOAuthAccountRepository(db DB) *OAuthAccountRepository {
	return &OAuthAccountRepository{db: db}
}

const oauthAccountColumns = `id, user_id, provider, provider_subject_id,
		access_token, refresh_token, id_token, expires_at, created_at, updated_at`

func (r *OAuthAccountRepository) Create(ctx context.Context, account model.OAuthAccount) (model.OAuthAccount, error) {
	query := `INSERT INTO oauth_accounts (id, user_id, provider, provider_subject_id,
				access_token, refresh_token, id_token, expires_at, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
			  RETURNING ` + oauthAccountColumns

	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}

	var saved model.OAuthAccount
	err := r.db.QueryRow(ctx, query,
		account.ID, account.UserID, account.Provider, account.ProviderSubjectID,
		account.AccessToken, account.RefreshToken, account.IDToken, account.ExpiresAt,
	).Scan(
		&saved.ID, &saved.UserID, &saved.Provider, &saved.ProviderSubjectID,
		&saved.AccessToken, &saved.RefreshToken, &saved.IDToken, &saved.ExpiresAt,
		&saved.CreatedAt, &saved.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.OAuthAccount{}, model.ErrAlreadyExists
		}
		return model.OAuthAccount{}, fmt.Errorf("failed to create oauth account: %w", err)
	}

	return saved, nil
}

func (r *OAuthAccountRepository) GetByProviderSubject(ctx context.Context, provider, subjectID string) (model.OAuthAccount, error) {
	query := `SELECT ` + oauthAccountColumns + `
			  FROM oauth_accounts WHERE provider = $1 AND provider_subject_id = $2`

	return r.getOne(ctx, query, provider, subjectID)
}

func (r *OAuthAccountRepository) GetByUserProvider(ctx context.Context, userID uuid.UUID, provider string) (model.OAuthAccount, error) {
	query := `SELECT ` + oauthAccountColumns + `
			  FROM oauth_accounts WHERE user_id = $1 AND provider = $2`

	return r.getOne(ctx, query, userID, provider)
}

func (r *OAuthAccountRepository) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]model.OAuthAccount, error) {
	query := `SELECT ` + oauthAccountColumns + `
			  FROM oauth_accounts WHERE user_id = $1 ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list oauth accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.OAuthAccount
	for rows.Next() {
		var a model.OAuthAccount
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.Provider, &a.ProviderSubjectID,
			&a.AccessToken, &a.RefreshToken, &a.IDToken, &a.ExpiresAt,
			&a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan oauth account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read oauth accounts: %w", err)
	}

	return accounts, nil
}

func (r *OAuthAccountRepository) UpdateTokens(ctx context.Context, id uuid.UUID, tokens model.ProviderTokens) error {
	query := `UPDATE oauth_accounts
			  SET access_token = $2, refresh_token = $3, id_token = $4, expires_at = $5, updated_at = NOW()
			  WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		id, tokens.AccessToken, tokens.RefreshToken, tokens.IDToken, tokens.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update oauth account tokens: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *OAuthAccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM oauth_accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete oauth account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *OAuthAccountRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM oauth_accounts WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count oauth accounts: %w", err)
	}
	return count, nil
}

func (r *OAuthAccountRepository) getOne(ctx context.Context, query string, args ...any) (model.OAuthAccount, error) {
	var a model.OAuthAccount
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&a.ID, &a.UserID, &a.Provider, &a.ProviderSubjectID,
		&a.AccessToken, &a.RefreshToken, &a.IDToken, &a.ExpiresAt,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.OAuthAccount{}, model.ErrNotFound
		}
		return model.OAuthAccount{}, fmt.Errorf("failed to get oauth account: %w", err)
	}
	return a, nil
}
