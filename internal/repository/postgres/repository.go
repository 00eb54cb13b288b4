// internal/repository/postgres/repository.go
package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"

	"leadfollow/internal/common/database"
	"leadfollow/internal/common/errors"
)

// Store bundles the Postgres-backed repositories. Every query runs through
// client.Executor so calls made inside WithinTransaction share the transaction.
type Store struct {
	client *database.PostgresClient

	Prospects *ProspectRepository
	FollowUps *FollowUpRepository
	Settings  *SettingsRepository
	Emails    *EmailRepository
	Users     *UserRepository
}

func NewStore(client *database.PostgresClient) *Store {
	return &Store{
		client:    client,
		Prospects: &ProspectRepository{client: client},
		FollowUps: &FollowUpRepository{client: client},
		Settings:  &SettingsRepository{client: client},
		Emails:    &EmailRepository{client: client},
		Users:     &UserRepository{client: client},
	}
}

func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.client.WithinTransaction(ctx, fn)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func queryError(name string, err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewQueryTimeoutError(name)
	}
	return errors.NewQueryExecutionFailedError(name, err)
}

// requireAffected turns an update or delete that matched nothing into notFound.
func requireAffected(res sql.Result, name string, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return queryError(name, err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
