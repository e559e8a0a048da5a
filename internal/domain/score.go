package domain

import "time"

// Scoring scale: every criterion contributes MissPoints or MatchPoints
const (
	MatchPoints      = 3
	MissPoints       = 1
	CriteriaCount    = 4
	MinPossibleScore = CriteriaCount * MissPoints
	MaxPossibleScore = CriteriaCount * MatchPoints
)

// ScoreBreakdown is the auditable result of scoring one lead at one point in time
type ScoreBreakdown struct {
	CompanySizeScore int `json:"company_size_score"`
	IndustryScore    int `json:"industry_score"`
	SeniorityScore   int `json:"seniority_score"`
	LocationScore    int `json:"location_score"`
	TotalScore       int `json:"total_score"`

	CompanySizeMatch bool `json:"company_size_match"`
	IndustryMatch    bool `json:"industry_match"`
	SeniorityMatch   bool `json:"seniority_match"`
	LocationMatch    bool `json:"location_match"`

	MaxPossibleScore int     `json:"max_possible_score"`
	MinPossibleScore int     `json:"min_possible_score"`
	ScorePercentage  float64 `json:"score_percentage"`
	ScoreGrade       string  `json:"score_grade"`

	ScoredAt time.Time      `json:"scoring_timestamp"`
	Company  *CompanyRecord `json:"cvr_data"`
}

// Matches lists the four criterion outcomes
type Matches struct {
	CompanySize bool
	Industry    bool
	Seniority   bool
	Location    bool
}

// NewScoreBreakdown derives sub-scores, total, percentage and grade from the
// match flags so the total always equals MinPossibleScore + 2*matches
func NewScoreBreakdown(m Matches, company *CompanyRecord, scoredAt time.Time) ScoreBreakdown {
	b := ScoreBreakdown{
		CompanySizeScore: points(m.CompanySize),
		IndustryScore:    points(m.Industry),
		SeniorityScore:   points(m.Seniority),
		LocationScore:    points(m.Location),
		CompanySizeMatch: m.CompanySize,
		IndustryMatch:    m.Industry,
		SeniorityMatch:   m.Seniority,
		LocationMatch:    m.Location,
		MaxPossibleScore: MaxPossibleScore,
		MinPossibleScore: MinPossibleScore,
		ScoredAt:         scoredAt,
		Company:          company,
	}
	b.TotalScore = b.CompanySizeScore + b.IndustryScore + b.SeniorityScore + b.LocationScore
	b.ScorePercentage = ScorePercentage(b.TotalScore)
	b.ScoreGrade = ScoreGrade(b.TotalScore)
	return b
}

// BaselineBreakdown is the all-miss result used when scoring a lead fails
func BaselineBreakdown(scoredAt time.Time) ScoreBreakdown {
	return NewScoreBreakdown(Matches{}, nil, scoredAt)
}

// MatchCount returns how many criteria matched
func (b ScoreBreakdown) MatchCount() int {
	n := 0
	for _, ok := range []bool{b.CompanySizeMatch, b.IndustryMatch, b.SeniorityMatch, b.LocationMatch} {
		if ok {
			n++
		}
	}
	return n
}

// ScorePercentage maps a total onto 0..100 of the possible range
func ScorePercentage(total int) float64 {
	span := MaxPossibleScore - MinPossibleScore
	if span <= 0 {
		return 0
	}
	return float64(total-MinPossibleScore) / float64(span) * 100
}

// ScoreGrade converts a total into a letter grade
func ScoreGrade(total int) string {
	pct := ScorePercentage(total)
	switch {
	case pct >= 90:
		return "A+"
	case pct >= 80:
		return "A"
	case pct >= 70:
		return "B+"
	case pct >= 60:
		return "B"
	case pct >= 50:
		return "C+"
	case pct >= 40:
		return "C"
	case pct >= 30:
		return "D"
	default:
		return "F"
	}
}

func points(match bool) int {
	if match {
		return MatchPoints
	}
	return MissPoints
}

// ScoreStats aggregates lead scores across the repository
type ScoreStats struct {
	TotalLeads   int            `json:"total_leads"`
	ScoredLeads  int            `json:"scored_leads"`
	AverageScore *float64       `json:"avg_score"`
	MinScore     *int           `json:"min_score"`
	MaxScore     *int           `json:"max_score"`
	Distribution map[string]int `json:"score_distribution"`
	TopLeads     []TopLead      `json:"top_scoring_leads"`
}

// TopLead is a compact view of a high-scoring lead
type TopLead struct {
	ID       LeadID `json:"id"`
	Name     string `json:"name"`
	Company  string `json:"company"`
	Score    int    `json:"score"`
	Industry string `json:"industry,omitempty"`
}
