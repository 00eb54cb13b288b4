// internal/common/zoho/crm.go
package zoho

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"leadfollow/internal/common/errors"
	httpclient "leadfollow/internal/common/http"
	"leadfollow/internal/models"
)

const contactFields = "id,Email,First_Name,Last_Name,Phone,Title,Account_Name,Lead_Source"

// CRMClient reads contacts from Zoho CRM for prospect import.
type CRMClient struct {
	oauthToken string
	baseURL    string
	http       *httpclient.Client
}

type Contact struct {
	ID          string `json:"id,omitempty"`
	Email       string `json:"Email"`
	FirstName   string `json:"First_Name"`
	LastName    string `json:"Last_Name"`
	Phone       string `json:"Phone,omitempty"`
	Title       string `json:"Title,omitempty"`
	Source      string `json:"Lead_Source,omitempty"`
	AccountName *struct {
		Name string `json:"name"`
		ID   string `json:"id"`
	} `json:"Account_Name,omitempty"`
}

// ToCRMContact converts the Zoho record to the import model.
func (c Contact) ToCRMContact() models.CRMContact {
	out := models.CRMContact{
		ID:        c.ID,
		Email:     strings.TrimSpace(c.Email),
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Phone:     c.Phone,
		Title:     c.Title,
		Source:    "zoho",
	}
	if c.AccountName != nil {
		out.Company = c.AccountName.Name
	}
	return out
}

type listContactsResponse struct {
	Data []Contact `json:"data"`
	Info struct {
		PerPage     int  `json:"per_page"`
		Page        int  `json:"page"`
		MoreRecords bool `json:"more_records"`
	} `json:"info"`
}

func NewCRMClient(baseURL, oauthToken string, timeout time.Duration) *CRMClient {
	return &CRMClient{
		oauthToken: oauthToken,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		http:       httpclient.NewClient(timeout),
	}
}

// ListContacts returns one page of contacts and whether more pages exist.
// Pages start at 1.
func (c *CRMClient) ListContacts(ctx context.Context, page, perPage int) ([]models.CRMContact, bool, error) {
	q := url.Values{}
	q.Set("fields", contactFields)
	q.Set("page", fmt.Sprint(page))
	q.Set("per_page", fmt.Sprint(perPage))
	endpoint := fmt.Sprintf("%s/Contacts?%s", c.baseURL, q.Encode())

	header := http.Header{}
	header.Set("Authorization", "Zoho-oauthtoken "+c.oauthToken)

	var resp listContactsResponse
	if err := c.http.GetJSON(ctx, endpoint, header, &resp); err != nil {
		stdErr := errors.NewExternalServiceError("zoho", err)
		var statusErr *httpclient.StatusError
		if stderrors.As(err, &statusErr) {
			stdErr.Retryable = statusErr.Transient()
			if statusErr.StatusCode == http.StatusUnauthorized {
				stdErr = errors.NewCRMImportFailedError(fmt.Errorf("zoho rejected the oauth token: %w", err))
				stdErr.Retryable = false
			}
		}
		return nil, false, stdErr
	}

	contacts := make([]models.CRMContact, 0, len(resp.Data))
	for _, contact := range resp.Data {
		contacts = append(contacts, contact.ToCRMContact())
	}
	return contacts, resp.Info.MoreRecords, nil
}

// ListAllContacts walks pages until Zoho reports no more records or maxPages is reached.
func (c *CRMClient) ListAllContacts(ctx context.Context, perPage, maxPages int) ([]models.CRMContact, error) {
	var all []models.CRMContact
	for page := 1; page <= maxPages; page++ {
		contacts, more, err := c.ListContacts(ctx, page, perPage)
		if err != nil {
			return nil, err
		}
		all = append(all, contacts...)
		if !more {
			break
		}
	}
	return all, nil
}
