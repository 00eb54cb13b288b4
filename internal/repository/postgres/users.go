// internal/repository/postgres/users.go
package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"

	"leadfollow/internal/common/database"
	"leadfollow/internal/common/errors"
	"leadfollow/internal/models"
)

type UserRepository struct {
	client *database.PostgresClient
}

// UpsertUser records a login. CreatedAt of an existing user is preserved.
func (r *UserRepository) UpsertUser(ctx context.Context, u *models.User) error {
	err := r.client.Executor(ctx).QueryRowContext(ctx, `
		INSERT INTO users (id, email, full_name, created_at, last_login)
		VALUES ($1, $2, $3, NOW(), $4)
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email, full_name = EXCLUDED.full_name, last_login = EXCLUDED.last_login
		RETURNING created_at`,
		u.ID, u.Email, u.FullName, u.LastLogin,
	).Scan(&u.CreatedAt)
	if err != nil {
		return errors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

// GetUser returns nil, nil for an unknown id.
func (r *UserRepository) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := r.client.Executor(ctx).QueryRowContext(ctx,
		`SELECT id, email, full_name, created_at, last_login FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Email, &u.FullName, &u.CreatedAt, &u.LastLogin)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, queryError("get_user", err)
	}
	return &u, nil
}
