// internal/repository/postgres/emails.go
package postgres

import (
	"context"

	"leadfollow/internal/common/database"
	"leadfollow/internal/common/errors"
	"leadfollow/internal/models"

	"github.com/google/uuid"
)

type EmailRepository struct {
	client *database.PostgresClient
}

// CreateEmail records e unless its message id is already stored. It reports
// whether a row was inserted.
func (r *EmailRepository) CreateEmail(ctx context.Context, e *models.Email) (bool, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}

	res, err := r.client.Executor(ctx).ExecContext(ctx, `
		INSERT INTO emails (id, prospect_id, from_email, to_email, subject, content, date, message_id, is_read)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (message_id) DO NOTHING`,
		e.ID, e.ProspectID, e.FromEmail, e.ToEmail, e.Subject, e.Content, e.Date, e.MessageID, e.IsRead,
	)
	if err != nil {
		return false, errors.NewDatabaseInsertFailedError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, queryError("create_email", err)
	}
	return n > 0, nil
}

func (r *EmailRepository) HasMessage(ctx context.Context, messageID string) (bool, error) {
	var exists bool
	err := r.client.Executor(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM emails WHERE message_id = $1)`, messageID).Scan(&exists)
	if err != nil {
		return false, queryError("has_message", err)
	}
	return exists, nil
}

func (r *EmailRepository) GetEmailsByProspect(ctx context.Context, prospectID string) ([]models.Email, error) {
	rows, err := r.client.Executor(ctx).QueryContext(ctx, `
		SELECT id, prospect_id, from_email, to_email, subject, content, date, message_id, is_read
		FROM emails WHERE prospect_id = $1 ORDER BY date DESC`, prospectID)
	if err != nil {
		return nil, queryError("get_emails_by_prospect", err)
	}
	defer rows.Close()

	emails := []models.Email{}
	for rows.Next() {
		var e models.Email
		if err := rows.Scan(&e.ID, &e.ProspectID, &e.FromEmail, &e.ToEmail, &e.Subject,
			&e.Content, &e.Date, &e.MessageID, &e.IsRead); err != nil {
			return nil, queryError("get_emails_by_prospect", err)
		}
		emails = append(emails, e)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("get_emails_by_prospect", err)
	}
	return emails, nil
}
