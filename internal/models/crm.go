// internal/models/crm.go
package models

// CRMContact is a contact pulled from the external CRM for prospect import.
type CRMContact struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone,omitempty"`
	Company   string `json:"company,omitempty"`
	Title     string `json:"title,omitempty"`
	Source    string `json:"source,omitempty"`
}

// ImportResult reports the outcome of a CRM import.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}
