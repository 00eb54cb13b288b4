// internal/repository/postgres/settings.go
package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"

	"leadfollow/internal/common/database"
	"leadfollow/internal/common/errors"
	"leadfollow/internal/models"
)

const settingsColumns = `user_id, initial_response_days, standard_follow_up_days, notify_email, notify_browser,
	notify_daily_digest, high_priority_days, medium_priority_days, low_priority_days, updated_at`

type SettingsRepository struct {
	client *database.PostgresClient
}

func scanSettings(row rowScanner) (*models.FollowUpSettings, error) {
	var s models.FollowUpSettings
	err := row.Scan(
		&s.UserID, &s.InitialResponseDays, &s.StandardFollowUpDays, &s.NotifyEmail, &s.NotifyBrowser,
		&s.NotifyDailyDigest, &s.HighPriorityDays, &s.MediumPriorityDays, &s.LowPriorityDays, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetFollowUpSettings returns nil, nil when the user has no settings row yet.
func (r *SettingsRepository) GetFollowUpSettings(ctx context.Context, userID string) (*models.FollowUpSettings, error) {
	row := r.client.Executor(ctx).QueryRowContext(ctx,
		`SELECT `+settingsColumns+` FROM follow_up_settings WHERE user_id = $1`, userID)
	s, err := scanSettings(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, queryError("get_follow_up_settings", err)
	}
	return s, nil
}

// CreateFollowUpSettings inserts s unless a row exists and returns the stored row,
// so concurrent first reads converge on one record.
func (r *SettingsRepository) CreateFollowUpSettings(ctx context.Context, s models.FollowUpSettings) (*models.FollowUpSettings, error) {
	_, err := r.client.Executor(ctx).ExecContext(ctx, `
		INSERT INTO follow_up_settings (`+settingsColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (user_id) DO NOTHING`,
		s.UserID, s.InitialResponseDays, s.StandardFollowUpDays, s.NotifyEmail, s.NotifyBrowser,
		s.NotifyDailyDigest, s.HighPriorityDays, s.MediumPriorityDays, s.LowPriorityDays,
	)
	if err != nil {
		return nil, errors.NewDatabaseInsertFailedError(err)
	}

	stored, err := r.GetFollowUpSettings(ctx, s.UserID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, errors.NewSettingsNotFoundError(s.UserID)
	}
	return stored, nil
}

// PatchFollowUpSettings updates only the columns whose patch field is set.
// Nil pointers bind as NULL and COALESCE keeps the stored value.
func (r *SettingsRepository) PatchFollowUpSettings(ctx context.Context, userID string, p models.SettingsPatch) (*models.FollowUpSettings, error) {
	row := r.client.Executor(ctx).QueryRowContext(ctx, `
		UPDATE follow_up_settings
		SET initial_response_days = COALESCE($2, initial_response_days),
		    standard_follow_up_days = COALESCE($3, standard_follow_up_days),
		    notify_email = COALESCE($4, notify_email),
		    notify_browser = COALESCE($5, notify_browser),
		    notify_daily_digest = COALESCE($6, notify_daily_digest),
		    high_priority_days = COALESCE($7, high_priority_days),
		    medium_priority_days = COALESCE($8, medium_priority_days),
		    low_priority_days = COALESCE($9, low_priority_days),
		    updated_at = NOW()
		WHERE user_id = $1
		RETURNING `+settingsColumns,
		userID, p.InitialResponseDays, p.StandardFollowUpDays, p.NotifyEmail,
		p.NotifyBrowser, p.NotifyDailyDigest, p.HighPriorityDays,
		p.MediumPriorityDays, p.LowPriorityDays,
	)
	updated, err := scanSettings(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewSettingsNotFoundError(userID)
	}
	if err != nil {
		return nil, queryError("patch_follow_up_settings", err)
	}
	return updated, nil
}

// ListDigestRecipients returns the settings of users who opted into the email digest.
func (r *SettingsRepository) ListDigestRecipients(ctx context.Context) ([]models.FollowUpSettings, error) {
	rows, err := r.client.Executor(ctx).QueryContext(ctx, `
		SELECT `+settingsColumns+` FROM follow_up_settings
		WHERE notify_email = true AND notify_daily_digest = true
		ORDER BY user_id`)
	if err != nil {
		return nil, queryError("list_digest_recipients", err)
	}
	defer rows.Close()

	out := []models.FollowUpSettings{}
	for rows.Next() {
		s, err := scanSettings(rows)
		if err != nil {
			return nil, queryError("list_digest_recipients", err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("list_digest_recipients", err)
	}
	return out, nil
}
