// internal/followup/tasks/service.go
package tasks

import (
	"context"
	"encoding/json"
	"time"

	"leadfollow/internal/common/errors"
	"leadfollow/internal/common/logger"
	"leadfollow/internal/common/validation"
	"leadfollow/internal/models"
	"leadfollow/internal/prospects"
)

// Service is manual follow-up CRUD scoped to the prospects a user owns.
type Service struct {
	prospects models.ProspectRepository
	followUps models.FollowUpRepository
	logger    logger.Logger
	now       func() time.Time
}

func NewService(prospectRepo models.ProspectRepository, followUps models.FollowUpRepository, log logger.Logger) *Service {
	return &Service{
		prospects: prospectRepo,
		followUps: followUps,
		logger:    log.WithFields(map[string]interface{}{"component": "followup-tasks"}),
		now:       time.Now,
	}
}

// ListPending returns the user's incomplete follow-ups joined with their
// prospect, earliest due first.
func (s *Service) ListPending(ctx context.Context, userID string) ([]models.FollowUpWithProspect, error) {
	return s.followUps.GetPendingFollowUpsByUser(ctx, userID)
}

func (s *Service) ListForProspect(ctx context.Context, userID, prospectID string) ([]models.FollowUp, error) {
	if _, err := prospects.RequireOwner(ctx, s.prospects, userID, prospectID); err != nil {
		return nil, err
	}
	return s.followUps.GetFollowUpsByProspect(ctx, prospectID)
}

type createRequest struct {
	ProspectID string              `json:"prospectId"`
	DueDate    time.Time           `json:"dueDate"`
	Type       models.FollowUpType `json:"type"`
	Notes      *string             `json:"notes"`
	Completed  bool                `json:"completed"`
}

func (s *Service) Create(ctx context.Context, userID string, body []byte) (*models.FollowUp, error) {
	if res := validation.FollowUpCreate.Validate(body); !res.Valid {
		return nil, errors.NewFollowUpValidationError(res.Summary())
	}
	var req createRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, errors.NewFollowUpValidationError(err.Error())
	}

	if _, err := prospects.RequireOwner(ctx, s.prospects, userID, req.ProspectID); err != nil {
		return nil, err
	}

	f := &models.FollowUp{
		ProspectID: req.ProspectID,
		DueDate:    req.DueDate,
		Type:       req.Type,
		Notes:      req.Notes,
		Completed:  req.Completed,
	}
	if f.Completed {
		now := s.now()
		f.CompletedDate = &now
	}
	if err := s.followUps.CreateFollowUp(ctx, f); err != nil {
		return nil, err
	}

	s.logger.Info("follow-up created", map[string]interface{}{
		"userId":     userID,
		"prospectId": f.ProspectID,
		"followUpId": f.ID,
	})
	return f, nil
}

func (s *Service) Update(ctx context.Context, userID, followUpID string, body []byte) (*models.FollowUp, error) {
	if res := validation.FollowUpUpdate.Validate(body); !res.Valid {
		return nil, errors.NewFollowUpValidationError(res.Summary())
	}
	var patch models.FollowUpPatch
	if err := json.Unmarshal(body, &patch); err != nil {
		return nil, errors.NewFollowUpValidationError(err.Error())
	}

	f, err := s.owned(ctx, userID, followUpID)
	if err != nil {
		return nil, err
	}
	patch.Apply(f, s.now())
	if err := s.followUps.UpdateFollowUp(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Service) Delete(ctx context.Context, userID, followUpID string) error {
	if _, err := s.owned(ctx, userID, followUpID); err != nil {
		return err
	}
	return s.followUps.DeleteFollowUp(ctx, followUpID)
}

func (s *Service) owned(ctx context.Context, userID, followUpID string) (*models.FollowUp, error) {
	f, err := s.followUps.GetFollowUp(ctx, followUpID)
	if err != nil {
		return nil, err
	}
	if _, err := prospects.RequireOwner(ctx, s.prospects, userID, f.ProspectID); err != nil {
		return nil, err
	}
	return f, nil
}
