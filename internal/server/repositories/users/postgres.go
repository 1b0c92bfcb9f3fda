// Package users provides the PostgreSQL-backed repository for user accounts
// created from Google identities.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/medvoice/medvoice/internal/common"
	"github.com/medvoice/medvoice/internal/dbx"
	"github.com/medvoice/medvoice/internal/server/models"
)

// PostgresRepository implements user storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (id, google_id, email, display_name, avatar_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.GoogleID, user.Email, user.DisplayName, user.AvatarURL).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, google_id, email, display_name, COALESCE(avatar_url, ''), created_at, updated_at
		FROM users WHERE id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	query := `
		SELECT id, google_id, email, display_name, COALESCE(avatar_url, ''), created_at, updated_at
		FROM users WHERE google_id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, googleID))
}

// UpdateProfile refreshes the mutable profile fields on every login so the
// stored name/avatar track the identity provider.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, id string, displayName string, avatarURL string) (*models.User, error) {
	query := `
		UPDATE users SET display_name = $2, avatar_url = $3, updated_at = now()
		WHERE id = $1
		RETURNING id, google_id, email, display_name, COALESCE(avatar_url, ''), created_at, updated_at
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id, displayName, avatarURL))
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.GoogleID, &user.Email, &user.DisplayName,
		&user.AvatarURL, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}
