// internal/models/email.go
package models

import (
	"context"
	"time"
)

// Email is one recorded communication with a prospect. MessageID is the id
// assigned by the mail provider and is unique.
type Email struct {
	ID         string    `json:"id" db:"id"`
	ProspectID string    `json:"prospectId" db:"prospect_id"`
	FromEmail  string    `json:"fromEmail" db:"from_email"`
	ToEmail    string    `json:"toEmail" db:"to_email"`
	Subject    string    `json:"subject" db:"subject"`
	Content    string    `json:"content" db:"content"`
	Date       time.Time `json:"date" db:"date"`
	MessageID  string    `json:"messageId" db:"message_id"`
	IsRead     bool      `json:"isRead" db:"is_read"`
}

// InboundMessage is a message pulled from the user's mailbox. From and To
// hold the raw header values, e.g. "Ada Lovelace <ada@example.com>".
type InboundMessage struct {
	MessageID string    `json:"messageId"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Date      time.Time `json:"date"`
}

// SyncResult reports the outcome of a mailbox sync.
type SyncResult struct {
	EmailsProcessed  int `json:"emailsProcessed"`
	ProspectsCreated int `json:"prospectsCreated"`
}

type EmailRepository interface {
	// CreateEmail returns false without error when MessageID is already stored.
	CreateEmail(ctx context.Context, e *Email) (bool, error)
	HasMessage(ctx context.Context, messageID string) (bool, error)
	// GetEmailsByProspect returns emails newest first.
	GetEmailsByProspect(ctx context.Context, prospectID string) ([]Email, error)
}
