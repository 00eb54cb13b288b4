// internal/repository/postgres/followups.go
package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"

	"leadfollow/internal/common/database"
	"leadfollow/internal/common/errors"
	"leadfollow/internal/models"

	"github.com/google/uuid"
)

const followUpColumns = `f.id, f.prospect_id, f.due_date, f.type, f.notes, f.completed, f.completed_date, f.priority, f.auto_created`

type FollowUpRepository struct {
	client *database.PostgresClient
}

func followUpDest(f *models.FollowUp) []interface{} {
	return []interface{}{
		&f.ID, &f.ProspectID, &f.DueDate, &f.Type, &f.Notes,
		&f.Completed, &f.CompletedDate, &f.Priority, &f.AutoCreated,
	}
}

func (r *FollowUpRepository) GetFollowUp(ctx context.Context, id string) (*models.FollowUp, error) {
	var f models.FollowUp
	err := r.client.Executor(ctx).QueryRowContext(ctx,
		`SELECT `+followUpColumns+` FROM follow_ups f WHERE f.id = $1`, id).Scan(followUpDest(&f)...)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewFollowUpNotFoundError(id)
	}
	if err != nil {
		return nil, queryError("get_follow_up", err)
	}
	return &f, nil
}

func (r *FollowUpRepository) GetFollowUpsByProspect(ctx context.Context, prospectID string) ([]models.FollowUp, error) {
	rows, err := r.client.Executor(ctx).QueryContext(ctx,
		`SELECT `+followUpColumns+` FROM follow_ups f WHERE f.prospect_id = $1 ORDER BY f.due_date ASC`, prospectID)
	if err != nil {
		return nil, queryError("get_follow_ups_by_prospect", err)
	}
	defer rows.Close()

	followUps := []models.FollowUp{}
	for rows.Next() {
		var f models.FollowUp
		if err := rows.Scan(followUpDest(&f)...); err != nil {
			return nil, queryError("get_follow_ups_by_prospect", err)
		}
		followUps = append(followUps, f)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("get_follow_ups_by_prospect", err)
	}
	return followUps, nil
}

// GetPendingFollowUpsByUser joins each pending follow-up to its prospect.
// follow_ups.prospect_id is a NOT NULL foreign key with ON DELETE CASCADE and
// CreateFollowUp rejects an unknown prospect, so the inner join cannot drop a
// follow-up whose prospect is missing.
func (r *FollowUpRepository) GetPendingFollowUpsByUser(ctx context.Context, userID string) ([]models.FollowUpWithProspect, error) {
	rows, err := r.client.Executor(ctx).QueryContext(ctx, `
		SELECT `+followUpColumns+`,
		       p.id, p.user_id, p.name, p.email, p.company, p.position, p.phone,
		       p.status, p.category, p.last_contact_date, p.created_at
		FROM follow_ups f
		JOIN prospects p ON p.id = f.prospect_id
		WHERE p.user_id = $1 AND f.completed = false
		ORDER BY f.due_date ASC`, userID)
	if err != nil {
		return nil, queryError("get_pending_follow_ups", err)
	}
	defer rows.Close()

	out := []models.FollowUpWithProspect{}
	for rows.Next() {
		var item models.FollowUpWithProspect
		p := &item.Prospect
		dest := append(followUpDest(&item.FollowUp),
			&p.ID, &p.UserID, &p.Name, &p.Email, &p.Company, &p.Position, &p.Phone,
			&p.Status, &p.Category, &p.LastContactDate, &p.CreatedAt,
		)
		if err := rows.Scan(dest...); err != nil {
			return nil, queryError("get_pending_follow_ups", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("get_pending_follow_ups", err)
	}
	return out, nil
}

func (r *FollowUpRepository) HasPendingFollowUp(ctx context.Context, prospectID string) (bool, error) {
	var exists bool
	err := r.client.Executor(ctx).QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM follow_ups
			WHERE prospect_id = $1 AND completed = false
		)`, prospectID).Scan(&exists)
	if err != nil {
		return false, queryError("has_pending_follow_up", err)
	}
	return exists, nil
}

// CreateFollowUp inserts f. A second pending auto-created follow-up for the same
// prospect violates follow_ups_one_pending_auto and returns DUPLICATE_FOLLOW_UP.
func (r *FollowUpRepository) CreateFollowUp(ctx context.Context, f *models.FollowUp) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}

	_, err := r.client.Executor(ctx).ExecContext(ctx, `
		INSERT INTO follow_ups (id, prospect_id, due_date, type, notes, completed, completed_date, priority, auto_created)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		f.ID, f.ProspectID, f.DueDate, f.Type, f.Notes,
		f.Completed, f.CompletedDate, f.Priority, f.AutoCreated,
	)
	if database.IsUniqueViolation(err) {
		return errors.NewDuplicateFollowUpError(f.ProspectID)
	}
	if database.IsForeignKeyViolation(err) {
		return errors.NewProspectNotFoundError(f.ProspectID)
	}
	if err != nil {
		return errors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

func (r *FollowUpRepository) UpdateFollowUp(ctx context.Context, f *models.FollowUp) error {
	res, err := r.client.Executor(ctx).ExecContext(ctx, `
		UPDATE follow_ups
		SET due_date = $2, type = $3, notes = $4, completed = $5, completed_date = $6
		WHERE id = $1`,
		f.ID, f.DueDate, f.Type, f.Notes, f.Completed, f.CompletedDate,
	)
	if database.IsUniqueViolation(err) {
		return errors.NewDuplicateFollowUpError(f.ProspectID)
	}
	if err != nil {
		return queryError("update_follow_up", err)
	}
	return requireAffected(res, "update_follow_up", errors.NewFollowUpNotFoundError(f.ID))
}

func (r *FollowUpRepository) DeleteFollowUp(ctx context.Context, id string) error {
	res, err := r.client.Executor(ctx).ExecContext(ctx, `DELETE FROM follow_ups WHERE id = $1`, id)
	if err != nil {
		return queryError("delete_follow_up", err)
	}
	return requireAffected(res, "delete_follow_up", errors.NewFollowUpNotFoundError(id))
}
