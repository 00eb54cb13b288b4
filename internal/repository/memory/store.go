// internal/repository/memory/store.go
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"leadfollow/internal/common/errors"
	"leadfollow/internal/models"

	"github.com/google/uuid"
)

// Store is an in-process implementation of the repositories and the transactor.
// It enforces the same pending auto-created follow-up uniqueness as the
// Postgres schema and is used by service and handler tests.
type Store struct {
	mu        sync.RWMutex
	txMu      sync.Mutex
	prospects map[string]models.Prospect
	order     []string
	followUps map[string]models.FollowUp
	settings  map[string]models.FollowUpSettings
	emails    map[string]models.Email
	users     map[string]models.User

	// FollowUpErrors forces GetFollowUpsByProspect to fail for a prospect id.
	FollowUpErrors map[string]error
	// PendingErrors forces GetPendingFollowUpsByUser to fail for a user id.
	PendingErrors map[string]error
}

func NewStore() *Store {
	return &Store{
		prospects:      make(map[string]models.Prospect),
		followUps:      make(map[string]models.FollowUp),
		settings:       make(map[string]models.FollowUpSettings),
		emails:         make(map[string]models.Email),
		users:          make(map[string]models.User),
		FollowUpErrors: make(map[string]error),
		PendingErrors:  make(map[string]error),
	}
}

// WithinTransaction serialises fn against other transactions.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(ctx)
}

// ==========================
// Prospects
// ==========================

func (s *Store) GetProspect(_ context.Context, id string) (*models.Prospect, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prospects[id]
	if !ok {
		return nil, errors.NewProspectNotFoundError(id)
	}
	return &p, nil
}

func (s *Store) GetProspectsByUser(_ context.Context, userID string) ([]models.Prospect, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Prospect{}
	for _, id := range s.order {
		if p, ok := s.prospects[id]; ok && p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) GetProspectByEmail(_ context.Context, userID, email string) (*models.Prospect, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		if p, ok := s.prospects[id]; ok && p.UserID == userID && strings.EqualFold(p.Email, email) {
			return &p, nil
		}
	}
	return nil, nil
}

func (s *Store) CreateProspect(_ context.Context, p *models.Prospect) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = models.ProspectStatusActive
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	s.prospects[p.ID] = *p
	s.order = append(s.order, p.ID)
	return nil
}

func (s *Store) UpdateProspect(_ context.Context, p *models.Prospect) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.prospects[p.ID]; !ok {
		return errors.NewProspectNotFoundError(p.ID)
	}
	s.prospects[p.ID] = *p
	return nil
}

func (s *Store) DeleteProspect(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.prospects[id]; !ok {
		return errors.NewProspectNotFoundError(id)
	}
	delete(s.prospects, id)
	for fid, f := range s.followUps {
		if f.ProspectID == id {
			delete(s.followUps, fid)
		}
	}
	for eid, e := range s.emails {
		if e.ProspectID == id {
			delete(s.emails, eid)
		}
	}
	return nil
}

func (s *Store) LockProspect(_ context.Context, id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.prospects[id]; !ok {
		return errors.NewProspectNotFoundError(id)
	}
	return nil
}

func (s *Store) TouchLastContact(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prospects[id]
	if !ok {
		return errors.NewProspectNotFoundError(id)
	}
	if p.LastContactDate == nil || at.After(*p.LastContactDate) {
		p.LastContactDate = &at
	}
	s.prospects[id] = p
	return nil
}

// ==========================
// Follow-ups
// ==========================

func (s *Store) GetFollowUp(_ context.Context, id string) (*models.FollowUp, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.followUps[id]
	if !ok {
		return nil, errors.NewFollowUpNotFoundError(id)
	}
	return &f, nil
}

func (s *Store) GetFollowUpsByProspect(_ context.Context, prospectID string) ([]models.FollowUp, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.FollowUpErrors[prospectID]; err != nil {
		return nil, err
	}
	out := []models.FollowUp{}
	for _, f := range s.followUps {
		if f.ProspectID == prospectID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (s *Store) GetPendingFollowUpsByUser(_ context.Context, userID string) ([]models.FollowUpWithProspect, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.PendingErrors[userID]; err != nil {
		return nil, err
	}
	out := []models.FollowUpWithProspect{}
	for _, f := range s.followUps {
		p, ok := s.prospects[f.ProspectID]
		if !ok || p.UserID != userID || f.Completed {
			continue
		}
		out = append(out, models.FollowUpWithProspect{FollowUp: f, Prospect: p})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (s *Store) HasPendingFollowUp(_ context.Context, prospectID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.followUps {
		if f.ProspectID == prospectID && !f.Completed {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CreateFollowUp(_ context.Context, f *models.FollowUp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.prospects[f.ProspectID]; !ok {
		return errors.NewProspectNotFoundError(f.ProspectID)
	}
	if f.AutoCreated && !f.Completed {
		for _, existing := range s.followUps {
			if existing.ProspectID == f.ProspectID && existing.AutoCreated && !existing.Completed {
				return errors.NewDuplicateFollowUpError(f.ProspectID)
			}
		}
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	s.followUps[f.ID] = *f
	return nil
}

func (s *Store) UpdateFollowUp(_ context.Context, f *models.FollowUp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.followUps[f.ID]; !ok {
		return errors.NewFollowUpNotFoundError(f.ID)
	}
	s.followUps[f.ID] = *f
	return nil
}

func (s *Store) DeleteFollowUp(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.followUps[id]; !ok {
		return errors.NewFollowUpNotFoundError(id)
	}
	delete(s.followUps, id)
	return nil
}

// FollowUps returns every stored follow-up. Test helper.
func (s *Store) FollowUps() []models.FollowUp {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.FollowUp, 0, len(s.followUps))
	for _, f := range s.followUps {
		out = append(out, f)
	}
	return out
}

// ==========================
// Settings
// ==========================

func (s *Store) GetFollowUpSettings(_ context.Context, userID string) (*models.FollowUpSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.settings[userID]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (s *Store) CreateFollowUpSettings(_ context.Context, st models.FollowUpSettings) (*models.FollowUpSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.settings[st.UserID]; ok {
		return &existing, nil
	}
	st.UpdatedAt = time.Now()
	s.settings[st.UserID] = st
	return &st, nil
}

func (s *Store) PatchFollowUpSettings(_ context.Context, userID string, patch models.SettingsPatch) (*models.FollowUpSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.settings[userID]
	if !ok {
		return nil, errors.NewSettingsNotFoundError(userID)
	}
	patch.Apply(&st)
	st.UpdatedAt = time.Now()
	s.settings[userID] = st
	return &st, nil
}

func (s *Store) ListDigestRecipients(_ context.Context) ([]models.FollowUpSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.FollowUpSettings{}
	for _, st := range s.settings {
		if st.NotifyEmail && st.NotifyDailyDigest {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// ==========================
// Emails and users
// ==========================

func (s *Store) CreateEmail(_ context.Context, e *models.Email) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.emails {
		if existing.MessageID == e.MessageID {
			return false, nil
		}
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.emails[e.ID] = *e
	return true, nil
}

func (s *Store) HasMessage(_ context.Context, messageID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.emails {
		if e.MessageID == messageID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) GetEmailsByProspect(_ context.Context, prospectID string) ([]models.Email, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Email{}
	for _, e := range s.emails {
		if e.ProspectID == prospectID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (s *Store) UpsertUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.users[u.ID]; ok {
		u.CreatedAt = existing.CreatedAt
	} else if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	s.users[u.ID] = *u
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}
