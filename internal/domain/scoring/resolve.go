package scoring

import "github.com/honeycarbs/leadscore/internal/domain"

// attributes are the values the four criteria are evaluated on
type attributes struct {
	employees int
	industry  string
	title     string
	city      string
}

// resolve merges registry evidence over the lead's own values. Registry data
// wins only where it is non-empty; the title always comes from the lead.
func resolve(lead domain.Lead, company *domain.CompanyRecord) attributes {
	a := attributes{
		employees: lead.Employees,
		industry:  lead.Industry,
		title:     lead.Title,
		city:      lead.City,
	}
	if company == nil {
		return a
	}
	a.employees = preferInt(company.Employees, a.employees)
	a.industry = preferString(company.IndustryText, a.industry)
	a.city = preferString(company.City, a.city)
	return a
}

func preferString(override, fallback string) string {
	if override != "" {
		return override
	}
	return fallback
}

func preferInt(override, fallback int) int {
	if override != 0 {
		return override
	}
	return fallback
}
