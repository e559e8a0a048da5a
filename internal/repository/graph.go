package repository

import (
	"context"

	"github.com/honeycarbs/leadscore/internal/domain"
)

// GraphRepository answers relationship questions over leads and the
// companies they work at
type GraphRepository interface {
	// CompanySubgraph returns a registry company with every lead linked to it
	CompanySubgraph(ctx context.Context, registryID string) (CompanySubgraph, error)

	// FindRelatedLeads finds leads sharing a company, industry or city with leadID
	FindRelatedLeads(ctx context.Context, leadID domain.LeadID, limit int) ([]RelatedLead, error)

	// IndustryScores summarizes lead scores per industry
	IndustryScores(ctx context.Context, limit int) ([]IndustryScore, error)
}

// CompanySubgraph is a company node and its leads
type CompanySubgraph struct {
	RegistryID string        `json:"cvr_number"`
	Name       string        `json:"company_name"`
	Industry   string        `json:"industry"`
	City       string        `json:"city"`
	Employees  int           `json:"employees"`
	Leads      []domain.Lead `json:"leads"`
}

// RelatedLead is a lead connected to another through shared attributes
type RelatedLead struct {
	Lead          domain.Lead `json:"lead"`
	SharedCompany bool        `json:"shared_company"`
	SharedTraits  []string    `json:"shared_traits"`
	Relevance     float64     `json:"relevance"`
}

// IndustryScore aggregates scores of one industry
type IndustryScore struct {
	Industry     string  `json:"industry"`
	Leads        int     `json:"leads"`
	AverageScore float64 `json:"avg_score"`
	TopScore     int     `json:"top_score"`
}
