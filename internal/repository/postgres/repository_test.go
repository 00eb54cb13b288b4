// internal/repository/postgres/repository_test.go
package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadfollow/internal/common/database"
	"leadfollow/internal/common/errors"
	"leadfollow/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

var (
	testTime            = time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)
	prospectCols        = []string{"id", "user_id", "name", "email", "company", "position", "phone", "status", "category", "last_contact_date", "created_at"}
	followUpCols        = []string{"id", "prospect_id", "due_date", "type", "notes", "completed", "completed_date", "priority", "auto_created"}
	settingsColumnsList = []string{"user_id", "initial_response_days", "standard_follow_up_days", "notify_email", "notify_browser",
		"notify_daily_digest", "high_priority_days", "medium_priority_days", "low_priority_days", "updated_at"}
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(database.NewPostgresFromDB(db)), mock
}

// ==========================
// Prospect Tests
// ==========================

func TestGetProspect(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(mock sqlmock.Sqlmock)
		wantCode errors.ErrorCode
	}{
		{
			name: "found",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM prospects WHERE id = \$1`).
					WithArgs("p-1").
					WillReturnRows(sqlmock.NewRows(prospectCols).
						AddRow("p-1", "u-1", "Ada", "ada@example.com", "Acme", nil, nil, "active", nil, testTime, testTime))
			},
		},
		{
			name: "missing",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM prospects`).WithArgs("p-1").WillReturnError(sql.ErrNoRows)
			},
			wantCode: errors.ErrCodeProspectNotFound,
		},
		{
			name: "driver failure",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM prospects`).WithArgs("p-1").WillReturnError(stderrors.New("conn reset"))
			},
			wantCode: errors.ErrCodeQueryExecutionFailed,
		},
		{
			name: "deadline exceeded",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM prospects`).WithArgs("p-1").WillReturnError(context.DeadlineExceeded)
			},
			wantCode: errors.ErrCodeQueryTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			tt.setup(mock)

			p, err := store.Prospects.GetProspect(context.Background(), "p-1")
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, tt.wantCode))
				assert.Nil(t, p)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "Ada", p.Name)
				require.NotNil(t, p.Company)
				assert.Equal(t, "Acme", *p.Company)
				assert.Nil(t, p.Position)
				require.NotNil(t, p.LastContactDate)
				assert.True(t, testTime.Equal(*p.LastContactDate))
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGetProspectsByUser(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT .+ FROM prospects WHERE user_id = \$1 ORDER BY created_at DESC`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(prospectCols).
			AddRow("p-2", "u-1", "Grace", "grace@example.com", nil, nil, nil, "active", nil, nil, testTime).
			AddRow("p-1", "u-1", "Ada", "ada@example.com", nil, nil, nil, "active", nil, testTime, testTime))

	prospects, err := store.Prospects.GetProspectsByUser(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, prospects, 2)
	assert.Nil(t, prospects[0].LastContactDate)
	assert.NotNil(t, prospects[1].LastContactDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProspectByEmail_Missing(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`FROM prospects WHERE user_id = \$1 AND lower\(email\) = lower\(\$2\)`).
		WithArgs("u-1", "ADA@example.com").
		WillReturnRows(sqlmock.NewRows(prospectCols))

	p, err := store.Prospects.GetProspectByEmail(context.Background(), "u-1", "ADA@example.com")
	assert.NoError(t, err)
	assert.Nil(t, p)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProspect_AssignsIDAndStatus(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`INSERT INTO prospects`).
		WithArgs(
			sqlmock.AnyArg(), // id
			"u-1", "Ada", "ada@example.com",
			nil, nil, nil,
			"active",
			nil, nil,
			sqlmock.AnyArg(), // created_at
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	p := &models.Prospect{UserID: "u-1", Name: "Ada", Email: "ada@example.com"}
	require.NoError(t, store.Prospects.CreateProspect(context.Background(), p))
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, models.ProspectStatusActive, p.Status)
	assert.False(t, p.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProspect_NotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`UPDATE prospects`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Prospects.UpdateProspect(context.Background(), &models.Prospect{ID: "p-404"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeProspectNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteProspect(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`DELETE FROM prospects WHERE id = \$1`).WithArgs("p-1").WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, store.Prospects.DeleteProspect(context.Background(), "p-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTouchLastContact_OnlyMovesForward(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`UPDATE prospects\s+SET last_contact_date = \$2\s+WHERE id = \$1 AND \(last_contact_date IS NULL OR last_contact_date < \$2\)`).
		WithArgs("p-1", testTime).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, store.Prospects.TouchLastContact(context.Background(), "p-1", testTime))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Follow-up Tests
// ==========================

func TestGetFollowUpsByProspect(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`FROM follow_ups f WHERE f.prospect_id = \$1 ORDER BY f.due_date ASC`).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows(followUpCols).
			AddRow("f-1", "p-1", testTime, "email", "Follow up with Ada: hi", false, nil, "high", true).
			AddRow("f-2", "p-1", testTime.AddDate(0, 0, 1), "call", nil, true, testTime, nil, false))

	followUps, err := store.FollowUps.GetFollowUpsByProspect(context.Background(), "p-1")
	require.NoError(t, err)
	require.Len(t, followUps, 2)

	assert.Equal(t, models.FollowUpTypeEmail, followUps[0].Type)
	require.NotNil(t, followUps[0].Priority)
	assert.Equal(t, models.PriorityHigh, *followUps[0].Priority)
	assert.True(t, followUps[0].AutoCreated)

	assert.Nil(t, followUps[1].Notes)
	assert.Nil(t, followUps[1].Priority)
	assert.NotNil(t, followUps[1].CompletedDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPendingFollowUpsByUser(t *testing.T) {
	store, mock := newMockStore(t)
	cols := append(append([]string{}, followUpCols...), prospectCols...)
	mock.ExpectQuery(`JOIN prospects p ON p.id = f.prospect_id\s+WHERE p.user_id = \$1 AND f.completed = false`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("f-1", "p-1", testTime, "call", nil, false, nil, nil, false,
				"p-1", "u-1", "Ada", "ada@example.com", nil, nil, nil, "active", nil, nil, testTime))

	items, err := store.FollowUps.GetPendingFollowUpsByUser(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "f-1", items[0].ID)
	assert.Equal(t, "Ada", items[0].Prospect.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHasPendingFollowUp(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	pending, err := store.FollowUps.HasPendingFollowUp(context.Background(), "p-1")
	require.NoError(t, err)
	assert.True(t, pending)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigration_FollowUpsCannotOutliveProspect(t *testing.T) {
	schema, err := os.ReadFile(filepath.Join("..", "..", "..", "migrations", "001_init.sql"))
	require.NoError(t, err)

	followUps := regexp.MustCompile(`(?s)CREATE TABLE IF NOT EXISTS follow_ups \((.*?)\);`).FindSubmatch(schema)
	require.NotNil(t, followUps)
	assert.Regexp(t, `prospect_id\s+UUID NOT NULL REFERENCES prospects\(id\) ON DELETE CASCADE`, string(followUps[1]))
}

func TestCreateFollowUp(t *testing.T) {
	priority := models.PriorityMedium
	notes := "Follow up with Ada: Overdue"

	tests := []struct {
		name     string
		execErr  error
		wantCode errors.ErrorCode
	}{
		{name: "inserted"},
		{name: "pending auto-created duplicate", execErr: &pq.Error{Code: "23505"}, wantCode: errors.ErrCodeDuplicateFollowUp},
		{name: "unknown prospect", execErr: &pq.Error{Code: "23503"}, wantCode: errors.ErrCodeProspectNotFound},
		{name: "insert failure", execErr: stderrors.New("disk full"), wantCode: errors.ErrCodeDatabaseInsertFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			exp := mock.ExpectExec(`INSERT INTO follow_ups`).
				WithArgs(sqlmock.AnyArg(), "p-1", testTime, "email", notes, false, nil, "medium", true)
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(1, 1))
			}

			f := &models.FollowUp{
				ProspectID:  "p-1",
				DueDate:     testTime,
				Type:        models.FollowUpTypeEmail,
				Notes:       &notes,
				Priority:    &priority,
				AutoCreated: true,
			}
			err := store.FollowUps.CreateFollowUp(context.Background(), f)
			if tt.wantCode != "" {
				assert.True(t, errors.HasCode(err, tt.wantCode))
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, f.ID)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDeleteFollowUp_NotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`DELETE FROM follow_ups`).WithArgs("f-9").WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.FollowUps.DeleteFollowUp(context.Background(), "f-9")
	assert.True(t, errors.HasCode(err, errors.ErrCodeFollowUpNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Transaction Tests
// ==========================

func TestLockAndCreateInsideTransaction(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM prospects WHERE id = \$1 FOR UPDATE`).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("p-1"))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO follow_ups`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := store.WithinTransaction(context.Background(), func(ctx context.Context) error {
		if err := store.Prospects.LockProspect(ctx, "p-1"); err != nil {
			return err
		}
		pending, err := store.FollowUps.HasPendingFollowUp(ctx, "p-1")
		if err != nil || pending {
			return err
		}
		return store.FollowUps.CreateFollowUp(ctx, &models.FollowUp{
			ProspectID: "p-1", DueDate: testTime, Type: models.FollowUpTypeEmail, AutoCreated: true,
		})
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockProspect_Missing(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`FOR UPDATE`).WithArgs("p-1").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err := store.Prospects.LockProspect(context.Background(), "p-1")
	assert.True(t, errors.HasCode(err, errors.ErrCodeProspectNotFound))
}

// ==========================
// Settings Tests
// ==========================

func TestGetFollowUpSettings_Absent(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`FROM follow_up_settings WHERE user_id = \$1`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(settingsColumnsList))

	s, err := store.Settings.GetFollowUpSettings(context.Background(), "u-1")
	assert.NoError(t, err)
	assert.Nil(t, s)
}

func TestCreateFollowUpSettings_ReturnsStoredRow(t *testing.T) {
	store, mock := newMockStore(t)
	defaults := models.DefaultFollowUpSettings("u-1")

	mock.ExpectExec(`INSERT INTO follow_up_settings .+ ON CONFLICT \(user_id\) DO NOTHING`).
		WithArgs("u-1", 2, 4, true, true, true, 3, 1, 3).
		WillReturnResult(sqlmock.NewResult(0, 0))
	// a concurrent request created the row first with a custom window
	mock.ExpectQuery(`FROM follow_up_settings WHERE user_id = \$1`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(settingsColumnsList).
			AddRow("u-1", 2, 6, true, false, true, 3, 1, 3, testTime))

	s, err := store.Settings.CreateFollowUpSettings(context.Background(), defaults)
	require.NoError(t, err)
	assert.Equal(t, 6, s.StandardFollowUpDays)
	assert.False(t, s.NotifyBrowser)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatchFollowUpSettings(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(mock sqlmock.Sqlmock)
		wantCode errors.ErrorCode
	}{
		{
			name: "only set fields are bound",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`UPDATE follow_up_settings\s+SET initial_response_days = COALESCE\(\$2, initial_response_days\).+RETURNING`).
					WithArgs("u-1", nil, 7, nil, false, nil, nil, nil, nil).
					WillReturnRows(sqlmock.NewRows(settingsColumnsList).
						AddRow("u-1", 2, 7, true, false, true, 3, 1, 3, testTime))
			},
		},
		{
			name: "no settings row",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`UPDATE follow_up_settings`).WillReturnError(sql.ErrNoRows)
			},
			wantCode: errors.ErrCodeSettingsNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			tt.setup(mock)

			days, browser := 7, false
			updated, err := store.Settings.PatchFollowUpSettings(context.Background(), "u-1",
				models.SettingsPatch{StandardFollowUpDays: &days, NotifyBrowser: &browser})

			if tt.wantCode != "" {
				assert.True(t, errors.HasCode(err, tt.wantCode), "got %v", err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, 7, updated.StandardFollowUpDays)
				assert.False(t, updated.NotifyBrowser)
				assert.True(t, updated.NotifyEmail)
				assert.True(t, testTime.Equal(updated.UpdatedAt))
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestListDigestRecipients(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`WHERE notify_email = true AND notify_daily_digest = true`).
		WillReturnRows(sqlmock.NewRows(settingsColumnsList).
			AddRow("u-1", 2, 4, true, true, true, 3, 1, 3, testTime).
			AddRow("u-2", 2, 4, true, false, true, 3, 1, 3, testTime))

	recipients, err := store.Settings.ListDigestRecipients(context.Background())
	require.NoError(t, err)
	assert.Len(t, recipients, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Email and User Tests
// ==========================

func TestCreateEmail(t *testing.T) {
	tests := []struct {
		name         string
		rowsAffected int64
		wantInserted bool
	}{
		{name: "new message", rowsAffected: 1, wantInserted: true},
		{name: "duplicate message id", rowsAffected: 0, wantInserted: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			mock.ExpectExec(`INSERT INTO emails .+ ON CONFLICT \(message_id\) DO NOTHING`).
				WillReturnResult(sqlmock.NewResult(0, tt.rowsAffected))

			inserted, err := store.Emails.CreateEmail(context.Background(), &models.Email{
				ProspectID: "p-1", FromEmail: "me@example.com", ToEmail: "ada@example.com",
				Subject: "Hello", Date: testTime, MessageID: "<m-1@mail>",
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantInserted, inserted)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGetEmailsByProspect(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`FROM emails WHERE prospect_id = \$1 ORDER BY date DESC`).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "prospect_id", "from_email", "to_email", "subject", "content", "date", "message_id", "is_read"}).
			AddRow("e-1", "p-1", "me@example.com", "ada@example.com", "Hello", "body", testTime, "<m-1@mail>", false))

	emails, err := store.Emails.GetEmailsByProspect(context.Background(), "p-1")
	require.NoError(t, err)
	require.Len(t, emails, 1)
	assert.Equal(t, "<m-1@mail>", emails[0].MessageID)
}

func TestHasMessage(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM emails WHERE message_id = \$1\)`).
		WithArgs("<m-1@mail>").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := store.Emails.HasMessage(context.Background(), "<m-1@mail>")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertUser(t *testing.T) {
	store, mock := newMockStore(t)
	created := testTime.AddDate(0, -1, 0)
	mock.ExpectQuery(`INSERT INTO users .+ ON CONFLICT \(id\) DO UPDATE`).
		WithArgs("kc-sub-1", "ada@example.com", "Ada Lovelace", testTime).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	u := &models.User{ID: "kc-sub-1", Email: "ada@example.com", FullName: "Ada Lovelace", LastLogin: testTime}
	require.NoError(t, store.Users.UpsertUser(context.Background(), u))
	assert.True(t, created.Equal(u.CreatedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUser_Unknown(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`FROM users WHERE id = \$1`).WithArgs("nobody").WillReturnError(sql.ErrNoRows)

	u, err := store.Users.GetUser(context.Background(), "nobody")
	assert.NoError(t, err)
	assert.Nil(t, u)
}
