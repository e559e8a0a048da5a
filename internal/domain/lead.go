package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// LeadID uniquely identifies a lead
type LeadID = uuid.UUID

// Lead statuses and sources used by the scoring subsystem
const (
	LeadStatusNew       = "new"
	LeadSourceCVRLookup = "cvr_lookup"
)

// Lead is the CRM lead entity. The scorer owns Score, ScoreBreakdown,
// RegistryID and RegistryUpdatedAt; every other field belongs to the user and
// is only filled from registry data while empty.
type Lead struct {
	ID         LeadID `json:"id"`
	Salutation string `json:"salutation,omitempty"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Title      string `json:"title,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`

	Company       string   `json:"company"`
	Industry      string   `json:"industry,omitempty"`
	Employees     int      `json:"employees,omitempty"`
	AnnualRevenue *float64 `json:"annual_revenue,omitempty"`
	Website       string   `json:"website,omitempty"`
	Description   string   `json:"description,omitempty"`

	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`

	Source     string `json:"lead_source,omitempty"`
	Status     string `json:"status,omitempty"`
	AssignedTo string `json:"assigned_to,omitempty"`
	CreatedBy  string `json:"created_by,omitempty"`

	Score             int             `json:"icp_score"`
	ScoreBreakdown    *ScoreBreakdown `json:"icp_score_breakdown,omitempty"`
	RegistryID        string          `json:"cvr_number,omitempty"`
	RegistryUpdatedAt *time.Time      `json:"cvr_last_updated,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName joins first and last name
func (l Lead) FullName() string {
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}

// LeadPatch carries caller-supplied overrides; nil fields are left alone
type LeadPatch struct {
	Salutation  *string  `json:"salutation,omitempty"`
	FirstName   *string  `json:"first_name,omitempty"`
	LastName    *string  `json:"last_name,omitempty"`
	Title       *string  `json:"title,omitempty"`
	Email       *string  `json:"email,omitempty"`
	Phone       *string  `json:"phone,omitempty"`
	Company     *string  `json:"company,omitempty"`
	Industry    *string  `json:"industry,omitempty"`
	Employees   *int     `json:"employees,omitempty"`
	Revenue     *float64 `json:"annual_revenue,omitempty"`
	Website     *string  `json:"website,omitempty"`
	Description *string  `json:"description,omitempty"`
	Street      *string  `json:"street,omitempty"`
	City        *string  `json:"city,omitempty"`
	PostalCode  *string  `json:"postal_code,omitempty"`
	Country     *string  `json:"country,omitempty"`
	Source      *string  `json:"lead_source,omitempty"`
	Status      *string  `json:"status,omitempty"`
}

// Apply copies every non-nil override onto l
func (p LeadPatch) Apply(l *Lead) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&l.Salutation, p.Salutation)
	setString(&l.FirstName, p.FirstName)
	setString(&l.LastName, p.LastName)
	setString(&l.Title, p.Title)
	setString(&l.Email, p.Email)
	setString(&l.Phone, p.Phone)
	setString(&l.Company, p.Company)
	setString(&l.Industry, p.Industry)
	setString(&l.Website, p.Website)
	setString(&l.Description, p.Description)
	setString(&l.Street, p.Street)
	setString(&l.City, p.City)
	setString(&l.PostalCode, p.PostalCode)
	setString(&l.Country, p.Country)
	setString(&l.Source, p.Source)
	setString(&l.Status, p.Status)
	if p.Employees != nil {
		l.Employees = *p.Employees
	}
	if p.Revenue != nil {
		v := *p.Revenue
		l.AnnualRevenue = &v
	}
}
