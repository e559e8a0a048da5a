package scoring

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default ICP thresholds and targets
const DefaultMinEmployees = 200

var (
	DefaultTargetIndustries = []string{"FMCG", "Retail", "SaaS", "Software", "Technology"}
	DefaultTargetCities     = []string{"Copenhagen", "København", "Aarhus", "Århus"}
	DefaultTargetLevels     = []string{
		"Manager", "Senior Manager", "Director", "Senior Director",
		"VP", "Vice President", "CEO", "CTO", "CFO", "COO",
		"Head of", "Chief", "Executive", "Principal",
	}
)

// Criteria is the Ideal Customer Profile a lead is scored against.
// Target lists hold case-insensitive fragments matched as substrings.
type Criteria struct {
	MinEmployees     int      `yaml:"min_employees" json:"min_employees"`
	TargetIndustries []string `yaml:"target_industries" json:"target_industries"`
	TargetCities     []string `yaml:"target_cities" json:"target_cities"`
	TargetLevels     []string `yaml:"target_levels" json:"target_employee_levels"`
}

// DefaultCriteria returns a fresh copy of the default profile
func DefaultCriteria() Criteria {
	return Criteria{
		MinEmployees:     DefaultMinEmployees,
		TargetIndustries: append([]string(nil), DefaultTargetIndustries...),
		TargetCities:     append([]string(nil), DefaultTargetCities...),
		TargetLevels:     append([]string(nil), DefaultTargetLevels...),
	}
}

// WithDefaults fills every unset field from DefaultCriteria
func (c Criteria) WithDefaults() Criteria {
	d := DefaultCriteria()
	if c.MinEmployees <= 0 {
		c.MinEmployees = d.MinEmployees
	}
	if len(c.TargetIndustries) == 0 {
		c.TargetIndustries = d.TargetIndustries
	}
	if len(c.TargetCities) == 0 {
		c.TargetCities = d.TargetCities
	}
	if len(c.TargetLevels) == 0 {
		c.TargetLevels = d.TargetLevels
	}
	return c
}

// clone detaches the slices so callers cannot mutate a running scorer
func (c Criteria) clone() Criteria {
	c.TargetIndustries = append([]string(nil), c.TargetIndustries...)
	c.TargetCities = append([]string(nil), c.TargetCities...)
	c.TargetLevels = append([]string(nil), c.TargetLevels...)
	return c
}

// LoadCriteria reads a YAML criteria file; missing keys keep their defaults
func LoadCriteria(path string) (Criteria, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Criteria{}, fmt.Errorf("read criteria file: %w", err)
	}
	var c Criteria
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Criteria{}, fmt.Errorf("parse criteria file %s: %w", path, err)
	}
	return c.WithDefaults(), nil
}

// SizeMatches reports whether employees reach the minimum (inclusive)
func (c Criteria) SizeMatches(employees int) bool {
	return employees > 0 && employees >= c.MinEmployees
}

// IndustryMatches reports whether any target industry fragment occurs in industry
func (c Criteria) IndustryMatches(industry string) bool {
	return containsAny(industry, c.TargetIndustries)
}

// LevelMatches reports whether any seniority fragment occurs in title
func (c Criteria) LevelMatches(title string) bool {
	return containsAny(title, c.TargetLevels)
}

// CityMatches reports whether any target city fragment occurs in city
func (c Criteria) CityMatches(city string) bool {
	return containsAny(city, c.TargetCities)
}

func containsAny(value string, fragments []string) bool {
	if strings.TrimSpace(value) == "" {
		return false
	}
	lower := strings.ToLower(value)
	for _, f := range fragments {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" && strings.Contains(lower, f) {
			return true
		}
	}
	return false
}
