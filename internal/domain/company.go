package domain

import "time"

// CompanyRecord is an immutable snapshot of one registry lookup
type CompanyRecord struct {
	RegistryID      string    `json:"cvr_number"`
	Name            string    `json:"company_name"`
	IndustryCode    string    `json:"industry_code"`
	IndustryText    string    `json:"industry_text"`
	Employees       int       `json:"employee_count"`
	AnnualRevenue   *float64  `json:"annual_revenue"`
	Address         string    `json:"address"`
	City            string    `json:"city"`
	PostalCode      string    `json:"postal_code"`
	Phone           string    `json:"phone"`
	Email           string    `json:"email"`
	Website         string    `json:"website"`
	Status          string    `json:"status"`
	EstablishedDate string    `json:"established_date"`
	LegalForm       string    `json:"legal_form"`
	FetchedAt       time.Time `json:"fetched_at"`
}
