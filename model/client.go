package model

import (
	"time"
)

// Certificate category keys. Ad-hoc keys are also accepted by the store; the
// fixed set below is what the UI and the pending computation know about.
const (
	CategoryDrugLicense = "drugLicense"
	CategoryGST         = "gst"
	CategoryAgreement   = "agreement"
	CategoryOther       = "other"
)

// RequiredCategories are the categories that count toward the pending
// computation. Order matters: pending results follow this order. "other" is
// deliberately excluded.
var RequiredCategories = []string{
	CategoryDrugLicense,
	CategoryGST,
	CategoryAgreement,
}

// CategoryLabels maps category keys to display labels.
var CategoryLabels = map[string]string{
	CategoryDrugLicense: "Drug License Certificate",
	CategoryGST:         "GST Certificate",
	CategoryAgreement:   "Agreement Certificate",
	CategoryOther:       "Other Document",
}

// Certificate is a single uploaded compliance document. It is exclusively
// owned by one (client, category) pair.
type Certificate struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Size        int64     `json:"size"`
	URL         string    `json:"url"`
	StoragePath string    `json:"storagePath"`
	UploadDate  time.Time `json:"uploadDate"`
}

// CertificateMap groups certificates by category key. A key present in the
// map always holds at least one certificate; delete paths drop emptied keys.
type CertificateMap map[string][]Certificate

// Clone returns a deep copy of the map.
func (m CertificateMap) Clone() CertificateMap {
	if m == nil {
		return nil
	}
	out := make(CertificateMap, len(m))
	for category, certs := range m {
		copied := make([]Certificate, len(certs))
		copy(copied, certs)
		out[category] = copied
	}
	return out
}

// Count returns the total number of certificates across all categories.
func (m CertificateMap) Count() int {
	total := 0
	for _, certs := range m {
		total += len(certs)
	}
	return total
}

// Client represents a registered client organization.
type Client struct {
	ID            string         `json:"id"`
	ClientName    string         `json:"clientName"`
	ContactPerson string         `json:"contactPerson"`
	Email         string         `json:"email"`
	Phone         string         `json:"phone"`
	Certificates  CertificateMap `json:"certificates,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// Clone returns a deep copy of the client.
func (c *Client) Clone() *Client {
	copied := *c
	copied.Certificates = c.Certificates.Clone()
	return &copied
}

// ClientFields carries a partial update of a client's contact fields. Nil
// pointers mean "leave unchanged".
type ClientFields struct {
	ClientName    *string `json:"clientName"`
	ContactPerson *string `json:"contactPerson"`
	Email         *string `json:"email"`
	Phone         *string `json:"phone"`
}

// Apply merges the supplied fields into the client.
func (f ClientFields) Apply(c *Client) {
	if f.ClientName != nil {
		c.ClientName = *f.ClientName
	}
	if f.ContactPerson != nil {
		c.ContactPerson = *f.ContactPerson
	}
	if f.Email != nil {
		c.Email = *f.Email
	}
	if f.Phone != nil {
		c.Phone = *f.Phone
	}
}

// PendingCategories returns the required categories the client has no
// certificate for, in RequiredCategories order. A category mapping to an
// empty sequence counts as pending even though delete paths should never
// leave one behind.
func PendingCategories(c *Client) []string {
	var pending []string
	for _, category := range RequiredCategories {
		if len(c.Certificates[category]) == 0 {
			pending = append(pending, category)
		}
	}
	return pending
}
