// internal/repository/postgres/prospects.go
package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"leadfollow/internal/common/database"
	"leadfollow/internal/common/errors"
	"leadfollow/internal/models"

	"github.com/google/uuid"
)

const prospectColumns = `id, user_id, name, email, company, position, phone, status, category, last_contact_date, created_at`

type ProspectRepository struct {
	client *database.PostgresClient
}

func scanProspect(row rowScanner) (*models.Prospect, error) {
	var p models.Prospect
	err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &p.Email, &p.Company, &p.Position,
		&p.Phone, &p.Status, &p.Category, &p.LastContactDate, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProspectRepository) GetProspect(ctx context.Context, id string) (*models.Prospect, error) {
	row := r.client.Executor(ctx).QueryRowContext(ctx,
		`SELECT `+prospectColumns+` FROM prospects WHERE id = $1`, id)
	p, err := scanProspect(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewProspectNotFoundError(id)
	}
	if err != nil {
		return nil, queryError("get_prospect", err)
	}
	return p, nil
}

func (r *ProspectRepository) GetProspectsByUser(ctx context.Context, userID string) ([]models.Prospect, error) {
	rows, err := r.client.Executor(ctx).QueryContext(ctx,
		`SELECT `+prospectColumns+` FROM prospects WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, queryError("get_prospects_by_user", err)
	}
	defer rows.Close()

	prospects := []models.Prospect{}
	for rows.Next() {
		p, err := scanProspect(rows)
		if err != nil {
			return nil, queryError("get_prospects_by_user", err)
		}
		prospects = append(prospects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("get_prospects_by_user", err)
	}
	return prospects, nil
}

// GetProspectByEmail returns nil, nil when userID has no prospect with that email.
func (r *ProspectRepository) GetProspectByEmail(ctx context.Context, userID, email string) (*models.Prospect, error) {
	row := r.client.Executor(ctx).QueryRowContext(ctx,
		`SELECT `+prospectColumns+` FROM prospects WHERE user_id = $1 AND lower(email) = lower($2) LIMIT 1`,
		userID, email)
	p, err := scanProspect(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, queryError("get_prospect_by_email", err)
	}
	return p, nil
}

func (r *ProspectRepository) CreateProspect(ctx context.Context, p *models.Prospect) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Status == "" {
		p.Status = models.ProspectStatusActive
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	_, err := r.client.Executor(ctx).ExecContext(ctx, `
		INSERT INTO prospects (`+prospectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.UserID, p.Name, p.Email, p.Company, p.Position,
		p.Phone, p.Status, p.Category, p.LastContactDate, p.CreatedAt,
	)
	if err != nil {
		return errors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

func (r *ProspectRepository) UpdateProspect(ctx context.Context, p *models.Prospect) error {
	res, err := r.client.Executor(ctx).ExecContext(ctx, `
		UPDATE prospects
		SET name = $2, email = $3, company = $4, position = $5, phone = $6,
		    status = $7, category = $8, last_contact_date = $9
		WHERE id = $1`,
		p.ID, p.Name, p.Email, p.Company, p.Position, p.Phone,
		p.Status, p.Category, p.LastContactDate,
	)
	if err != nil {
		return queryError("update_prospect", err)
	}
	return requireAffected(res, "update_prospect", errors.NewProspectNotFoundError(p.ID))
}

// DeleteProspect removes the prospect; follow-ups and emails go with it via ON DELETE CASCADE.
func (r *ProspectRepository) DeleteProspect(ctx context.Context, id string) error {
	res, err := r.client.Executor(ctx).ExecContext(ctx, `DELETE FROM prospects WHERE id = $1`, id)
	if err != nil {
		return queryError("delete_prospect", err)
	}
	return requireAffected(res, "delete_prospect", errors.NewProspectNotFoundError(id))
}

func (r *ProspectRepository) LockProspect(ctx context.Context, id string) error {
	var locked string
	err := r.client.Executor(ctx).QueryRowContext(ctx,
		`SELECT id FROM prospects WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.NewProspectNotFoundError(id)
	}
	if err != nil {
		return queryError("lock_prospect", err)
	}
	return nil
}

// TouchLastContact moves last_contact_date forward to at; it never moves it back.
func (r *ProspectRepository) TouchLastContact(ctx context.Context, id string, at time.Time) error {
	_, err := r.client.Executor(ctx).ExecContext(ctx, `
		UPDATE prospects
		SET last_contact_date = $2
		WHERE id = $1 AND (last_contact_date IS NULL OR last_contact_date < $2)`,
		id, at,
	)
	if err != nil {
		return queryError("touch_last_contact", err)
	}
	return nil
}
