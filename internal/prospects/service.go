// internal/prospects/service.go
package prospects

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"leadfollow/internal/common/database"
	"leadfollow/internal/common/errors"
	"leadfollow/internal/common/logger"
	"leadfollow/internal/common/metrics"
	"leadfollow/internal/common/validation"
	"leadfollow/internal/models"
)

// Indexer is the search side of the prospect store.
type Indexer interface {
	Index(ctx context.Context, prospect models.Prospect) error
	Delete(ctx context.Context, prospectID string) error
	Search(ctx context.Context, userID, query string, size int) ([]models.Prospect, error)
}

// ContactSource lists contacts from an external CRM.
type ContactSource interface {
	ListAllContacts(ctx context.Context, perPage, maxPages int) ([]models.CRMContact, error)
}

// MessageSource lists messages from a user's mailbox.
type MessageSource interface {
	FetchSince(ctx context.Context, userID string, since time.Time) ([]models.InboundMessage, error)
}

type Config struct {
	CRMPageSize int
	CRMMaxPages int
	SearchSize  int
	// MailLookback is how far back a sync without an explicit start reads.
	MailLookback time.Duration
}

// Service owns prospect CRUD, email history, mailbox sync and CRM import for
// a user. index, crm and mailbox are optional.
type Service struct {
	config    *Config
	prospects models.ProspectRepository
	emails    models.EmailRepository
	tx        database.Transactor
	index     Indexer
	crm       ContactSource
	mailbox   MessageSource
	logger    logger.Logger
	now       func() time.Time
}

func NewService(
	config *Config,
	prospects models.ProspectRepository,
	emails models.EmailRepository,
	tx database.Transactor,
	index Indexer,
	crm ContactSource,
	log logger.Logger,
) *Service {
	return &Service{
		config:    config,
		prospects: prospects,
		emails:    emails,
		tx:        tx,
		index:     index,
		crm:       crm,
		logger:    log.WithFields(map[string]interface{}{"component": "prospects"}),
		now:       time.Now,
	}
}

// WithMailbox enables SyncMessages.
func (s *Service) WithMailbox(src MessageSource) *Service {
	s.mailbox = src
	return s
}

// WithClock replaces the time source. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// RequireOwner loads the prospect and checks it belongs to userID.
func RequireOwner(ctx context.Context, repo models.ProspectRepository, userID, prospectID string) (*models.Prospect, error) {
	p, err := repo.GetProspect(ctx, prospectID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, errors.NewForbiddenError(fmt.Sprintf("prospect %s belongs to another user", prospectID))
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]models.Prospect, error) {
	return s.prospects.GetProspectsByUser(ctx, userID)
}

func (s *Service) Get(ctx context.Context, userID, prospectID string) (*models.Prospect, error) {
	return RequireOwner(ctx, s.prospects, userID, prospectID)
}

type createRequest struct {
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Company         *string    `json:"company"`
	Position        *string    `json:"position"`
	Phone           *string    `json:"phone"`
	Status          string     `json:"status"`
	Category        *string    `json:"category"`
	LastContactDate *time.Time `json:"lastContactDate"`
}

func (s *Service) Create(ctx context.Context, userID string, body []byte) (*models.Prospect, error) {
	if res := validation.ProspectCreate.Validate(body); !res.Valid {
		return nil, errors.NewProspectValidationError(res.Summary())
	}
	var req createRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, errors.NewProspectValidationError(err.Error())
	}

	p := &models.Prospect{
		UserID:          userID,
		Name:            strings.TrimSpace(req.Name),
		Email:           strings.TrimSpace(req.Email),
		Company:         req.Company,
		Position:        req.Position,
		Phone:           req.Phone,
		Status:          req.Status,
		Category:        req.Category,
		LastContactDate: req.LastContactDate,
	}
	if err := s.prospects.CreateProspect(ctx, p); err != nil {
		return nil, err
	}

	s.reindex(ctx, *p)
	s.logger.Info("prospect created", map[string]interface{}{
		"userId":     userID,
		"prospectId": p.ID,
	})
	return p, nil
}

func (s *Service) Update(ctx context.Context, userID, prospectID string, body []byte) (*models.Prospect, error) {
	if res := validation.ProspectUpdate.Validate(body); !res.Valid {
		return nil, errors.NewProspectValidationError(res.Summary())
	}
	var patch models.ProspectPatch
	if err := json.Unmarshal(body, &patch); err != nil {
		return nil, errors.NewProspectValidationError(err.Error())
	}

	p, err := RequireOwner(ctx, s.prospects, userID, prospectID)
	if err != nil {
		return nil, err
	}
	patch.Apply(p)
	if err := s.prospects.UpdateProspect(ctx, p); err != nil {
		return nil, err
	}

	s.reindex(ctx, *p)
	return p, nil
}

func (s *Service) Delete(ctx context.Context, userID, prospectID string) error {
	if _, err := RequireOwner(ctx, s.prospects, userID, prospectID); err != nil {
		return err
	}
	if err := s.prospects.DeleteProspect(ctx, prospectID); err != nil {
		return err
	}

	if s.index != nil {
		if err := s.index.Delete(ctx, prospectID); err != nil {
			metrics.RecordIntegrationError("elasticsearch")
			s.logger.Warn("search document not removed", map[string]interface{}{
				"prospectId": prospectID,
				"error":      err,
			})
		}
	}
	return nil
}

// Search queries the search index and falls back to a substring match over
// the user's prospects when the index is disabled or failing.
func (s *Service) Search(ctx context.Context, userID, query string) ([]models.Prospect, error) {
	if s.index != nil {
		found, err := s.index.Search(ctx, userID, query, s.config.SearchSize)
		if err == nil {
			return found, nil
		}
		metrics.RecordIntegrationError("elasticsearch")
		s.logger.Warn("search index unavailable, scanning prospects", map[string]interface{}{
			"userId": userID,
			"error":  err,
		})
	}

	all, err := s.prospects.GetProspectsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return filterProspects(all, query), nil
}

func filterProspects(all []models.Prospect, query string) []models.Prospect {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return all
	}
	out := []models.Prospect{}
	for _, p := range all {
		fields := []string{p.Name, p.Email}
		if p.Company != nil {
			fields = append(fields, *p.Company)
		}
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f), q) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

func (s *Service) reindex(ctx context.Context, p models.Prospect) {
	if s.index == nil {
		return
	}
	if err := s.index.Index(ctx, p); err != nil {
		metrics.RecordIntegrationError("elasticsearch")
		s.logger.Warn("prospect not indexed", map[string]interface{}{
			"prospectId": p.ID,
			"error":      err,
		})
	}
}

// ==========================
// Emails
// ==========================

type emailRequest struct {
	FromEmail string    `json:"fromEmail"`
	ToEmail   string    `json:"toEmail"`
	Subject   string    `json:"subject"`
	Content   string    `json:"content"`
	Date      time.Time `json:"date"`
	MessageID string    `json:"messageId"`
	IsRead    bool      `json:"isRead"`
}

// RecordEmail stores an email for the prospect and moves its last contact date
// to the email date. A message id seen before is ignored and reported as not inserted.
func (s *Service) RecordEmail(ctx context.Context, userID, prospectID string, body []byte) (*models.Email, bool, error) {
	if res := validation.EmailRecord.Validate(body); !res.Valid {
		return nil, false, errors.NewInvalidRequestError(res.Summary())
	}
	var req emailRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, false, errors.NewInvalidRequestError(err.Error())
	}

	if _, err := RequireOwner(ctx, s.prospects, userID, prospectID); err != nil {
		return nil, false, err
	}

	email := &models.Email{
		ProspectID: prospectID,
		FromEmail:  req.FromEmail,
		ToEmail:    req.ToEmail,
		Subject:    req.Subject,
		Content:    req.Content,
		Date:       req.Date,
		MessageID:  req.MessageID,
		IsRead:     req.IsRead,
	}

	var inserted bool
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		ok, err := s.emails.CreateEmail(ctx, email)
		if err != nil {
			return err
		}
		inserted = ok
		if !ok {
			return nil
		}
		return s.prospects.TouchLastContact(ctx, prospectID, email.Date)
	})
	if err != nil {
		return nil, false, err
	}
	return email, inserted, nil
}

func (s *Service) ListEmails(ctx context.Context, userID, prospectID string) ([]models.Email, error) {
	if _, err := RequireOwner(ctx, s.prospects, userID, prospectID); err != nil {
		return nil, err
	}
	return s.emails.GetEmailsByProspect(ctx, prospectID)
}

// ==========================
// Mailbox sync
// ==========================

// errMessageStored rolls back a sync transaction that lost the insert race
// for its message id.
var errMessageStored = stderrors.New("message already stored")

// SyncMessages stores the messages of the user's mailbox dated since the given
// time. The other party of each message becomes a prospect when the user does
// not track that address yet: the sender of inbound mail, the first recipient
// otherwise. Messages whose id is already stored are skipped. A zero since
// reads back MailLookback from now.
func (s *Service) SyncMessages(ctx context.Context, userID, mailboxAddress string, since time.Time) (*models.SyncResult, error) {
	if s.mailbox == nil {
		return nil, errors.NewMailSyncFailedError(fmt.Errorf("mailbox integration is not configured"))
	}
	if strings.TrimSpace(mailboxAddress) == "" {
		return nil, errors.NewInvalidRequestError("user has no mailbox address")
	}
	if since.IsZero() {
		since = s.now().Add(-s.config.MailLookback)
	}

	msgs, err := s.mailbox.FetchSince(ctx, userID, since)
	if err != nil {
		metrics.RecordIntegrationError("mailbox")
		return nil, err
	}

	result := &models.SyncResult{}
	for _, msg := range msgs {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		outcome, err := s.syncMessage(ctx, userID, mailboxAddress, msg, result)
		if err != nil {
			s.logger.Error("mailbox sync aborted", map[string]interface{}{
				"userId":    userID,
				"messageId": msg.MessageID,
				"processed": result.EmailsProcessed,
				"error":     err,
			})
			return result, err
		}
		metrics.MailboxMessages.WithLabelValues(outcome).Inc()
	}

	s.logger.Info("mailbox sync finished", map[string]interface{}{
		"userId":           userID,
		"fetched":          len(msgs),
		"emailsProcessed":  result.EmailsProcessed,
		"prospectsCreated": result.ProspectsCreated,
	})
	return result, nil
}

func (s *Service) syncMessage(ctx context.Context, userID, mailboxAddress string, msg models.InboundMessage, result *models.SyncResult) (string, error) {
	if msg.MessageID == "" {
		return "skipped", nil
	}
	seen, err := s.emails.HasMessage(ctx, msg.MessageID)
	if err != nil {
		return "", err
	}
	if seen {
		return "duplicate", nil
	}

	party, ok := resolveParties(msg, mailboxAddress)
	if !ok {
		s.logger.Debug("message skipped, addresses unusable", map[string]interface{}{
			"userId":    userID,
			"messageId": msg.MessageID,
		})
		return "skipped", nil
	}

	var created *models.Prospect
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		prospect, err := s.prospects.GetProspectByEmail(ctx, userID, party.counterpart.Address)
		if err != nil {
			return err
		}
		if prospect == nil {
			prospect = prospectFromAddress(userID, party.counterpart, msg.Date)
			if err := s.prospects.CreateProspect(ctx, prospect); err != nil {
				return err
			}
			created = prospect
		}

		inserted, err := s.emails.CreateEmail(ctx, &models.Email{
			ProspectID: prospect.ID,
			FromEmail:  party.from,
			ToEmail:    party.to,
			Subject:    msg.Subject,
			Content:    msg.Body,
			Date:       msg.Date,
			MessageID:  msg.MessageID,
			IsRead:     true,
		})
		if err != nil {
			return err
		}
		if !inserted {
			return errMessageStored
		}
		return s.prospects.TouchLastContact(ctx, prospect.ID, msg.Date)
	})
	if stderrors.Is(err, errMessageStored) {
		return "duplicate", nil
	}
	if err != nil {
		return "", err
	}

	result.EmailsProcessed++
	if created != nil {
		result.ProspectsCreated++
		s.reindex(ctx, *created)
		s.logger.Info("prospect created from email", map[string]interface{}{
			"userId":     userID,
			"prospectId": created.ID,
		})
	}
	return "stored", nil
}

type messageParties struct {
	from        string
	to          string
	counterpart *mail.Address
}

// resolveParties picks the other party of msg relative to the user's mailbox.
// Mail addressed to the mailbox is inbound and its sender is the other party.
func resolveParties(msg models.InboundMessage, mailboxAddress string) (messageParties, bool) {
	from := parseAddress(msg.From)
	to := parseAddressList(msg.To)
	if from == nil || len(to) == 0 {
		return messageParties{}, false
	}

	for _, addr := range to {
		if strings.EqualFold(addr.Address, mailboxAddress) {
			if strings.EqualFold(from.Address, mailboxAddress) {
				return messageParties{}, false
			}
			return messageParties{from: from.Address, to: addr.Address, counterpart: from}, true
		}
	}
	return messageParties{from: from.Address, to: to[0].Address, counterpart: to[0]}, true
}

func parseAddress(raw string) *mail.Address {
	raw = strings.TrimSpace(raw)
	if addr, err := mail.ParseAddress(raw); err == nil {
		return addr
	}
	// headers from some providers are not RFC 5322 clean
	if start, end := strings.LastIndex(raw, "<"), strings.LastIndex(raw, ">"); start >= 0 && end > start {
		return &mail.Address{
			Name:    strings.Trim(strings.TrimSpace(raw[:start]), `"`),
			Address: strings.TrimSpace(raw[start+1 : end]),
		}
	}
	if strings.Contains(raw, "@") && !strings.ContainsAny(raw, " ,") {
		return &mail.Address{Address: raw}
	}
	return nil
}

func parseAddressList(raw string) []*mail.Address {
	if list, err := mail.ParseAddressList(raw); err == nil {
		return list
	}
	var out []*mail.Address
	for _, part := range strings.Split(raw, ",") {
		if addr := parseAddress(part); addr != nil {
			out = append(out, addr)
		}
	}
	return out
}

// prospectFromAddress names the prospect after the display name, or the local
// part when there is none, and takes the company from the first domain label.
func prospectFromAddress(userID string, addr *mail.Address, contactedAt time.Time) *models.Prospect {
	local, domain, _ := strings.Cut(addr.Address, "@")
	name := strings.TrimSpace(addr.Name)
	if name == "" {
		name = local
	}

	p := &models.Prospect{
		UserID: userID,
		Name:   name,
		Email:  addr.Address,
		Status: models.ProspectStatusActive,
	}
	if label, _, _ := strings.Cut(domain, "."); label != "" {
		p.Company = &label
	}
	if !contactedAt.IsZero() {
		at := contactedAt
		p.LastContactDate = &at
	}
	return p
}

// ==========================
// CRM import
// ==========================

// ImportFromCRM creates a prospect for every CRM contact whose email the user
// does not track yet. Contacts without an email are skipped.
func (s *Service) ImportFromCRM(ctx context.Context, userID string) (*models.ImportResult, error) {
	if s.crm == nil {
		return nil, errors.NewCRMImportFailedError(fmt.Errorf("crm integration is not configured"))
	}

	contacts, err := s.crm.ListAllContacts(ctx, s.config.CRMPageSize, s.config.CRMMaxPages)
	if err != nil {
		metrics.RecordIntegrationError("zoho")
		return nil, err
	}

	result := &models.ImportResult{}
	seen := make(map[string]bool, len(contacts))
	for _, c := range contacts {
		key := strings.ToLower(c.Email)
		if key == "" || seen[key] {
			result.Skipped++
			continue
		}
		seen[key] = true

		existing, err := s.prospects.GetProspectByEmail(ctx, userID, c.Email)
		if err != nil {
			return result, err
		}
		if existing != nil {
			result.Skipped++
			continue
		}

		p := prospectFromContact(userID, c)
		if err := s.prospects.CreateProspect(ctx, p); err != nil {
			return result, err
		}
		s.reindex(ctx, *p)
		result.Imported++
	}

	s.logger.Info("crm import finished", map[string]interface{}{
		"userId":   userID,
		"imported": result.Imported,
		"skipped":  result.Skipped,
	})
	return result, nil
}

func prospectFromContact(userID string, c models.CRMContact) *models.Prospect {
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name == "" {
		name = c.Email
	}
	p := &models.Prospect{
		UserID: userID,
		Name:   name,
		Email:  c.Email,
		Status: models.ProspectStatusActive,
	}
	if c.Company != "" {
		company := c.Company
		p.Company = &company
	}
	if c.Title != "" {
		title := c.Title
		p.Position = &title
	}
	if c.Phone != "" {
		phone := c.Phone
		p.Phone = &phone
	}
	if c.Source != "" {
		source := c.Source
		p.Category = &source
	}
	return p
}
