// internal/models/prospect.go
package models

import (
	"context"
	"time"
)

const ProspectStatusActive = "active"

// Prospect is a tracked lead owned by one user.
type Prospect struct {
	ID              string     `json:"id" db:"id"`
	UserID          string     `json:"userId" db:"user_id"`
	Name            string     `json:"name" db:"name"`
	Email           string     `json:"email" db:"email"`
	Company         *string    `json:"company" db:"company"`
	Position        *string    `json:"position" db:"position"`
	Phone           *string    `json:"phone" db:"phone"`
	Status          string     `json:"status" db:"status"`
	Category        *string    `json:"category" db:"category"`
	LastContactDate *time.Time `json:"lastContactDate" db:"last_contact_date"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`
}

// ProspectPatch carries the fields of a partial prospect update. Nil means unchanged.
type ProspectPatch struct {
	Name            *string    `json:"name,omitempty"`
	Email           *string    `json:"email,omitempty"`
	Company         *string    `json:"company,omitempty"`
	Position        *string    `json:"position,omitempty"`
	Phone           *string    `json:"phone,omitempty"`
	Status          *string    `json:"status,omitempty"`
	Category        *string    `json:"category,omitempty"`
	LastContactDate *time.Time `json:"lastContactDate,omitempty"`
}

// Apply copies the non-nil fields of p onto prospect.
func (p ProspectPatch) Apply(prospect *Prospect) {
	if p.Name != nil {
		prospect.Name = *p.Name
	}
	if p.Email != nil {
		prospect.Email = *p.Email
	}
	if p.Company != nil {
		prospect.Company = p.Company
	}
	if p.Position != nil {
		prospect.Position = p.Position
	}
	if p.Phone != nil {
		prospect.Phone = p.Phone
	}
	if p.Status != nil {
		prospect.Status = *p.Status
	}
	if p.Category != nil {
		prospect.Category = p.Category
	}
	if p.LastContactDate != nil {
		prospect.LastContactDate = p.LastContactDate
	}
}

// ProspectRepository is the prospect store. GetProspect returns a
// PROSPECT_NOT_FOUND error when the id is unknown.
type ProspectRepository interface {
	GetProspect(ctx context.Context, id string) (*Prospect, error)
	GetProspectsByUser(ctx context.Context, userID string) ([]Prospect, error)
	GetProspectByEmail(ctx context.Context, userID, email string) (*Prospect, error)
	CreateProspect(ctx context.Context, p *Prospect) error
	UpdateProspect(ctx context.Context, p *Prospect) error
	DeleteProspect(ctx context.Context, id string) error
	// LockProspect takes a row lock for the rest of the current transaction.
	LockProspect(ctx context.Context, id string) error
	TouchLastContact(ctx context.Context, id string, at time.Time) error
}
