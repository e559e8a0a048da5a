package neo4j

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/honeycarbs/leadscore/internal/domain"
	"github.com/honeycarbs/leadscore/internal/repository"

	pkgneo4j "github.com/honeycarbs/leadscore/pkg/neo4j"
)

// Ensure LeadRepository implements repository.LeadRepository
var _ repository.LeadRepository = (*LeadRepository)(nil)

const constraintViolation = "Neo.ClientError.Schema.ConstraintValidationFailed"

// LeadRepository implements repository.LeadRepository with Neo4j.
// Leads holding a registry identifier are linked to a (:Company {cvr}) node.
type LeadRepository struct {
	client *pkgneo4j.Client
	clock  func() time.Time
}

// NewLeadRepository creates a LeadRepository with a Neo4j client
func NewLeadRepository(client *pkgneo4j.Client) *LeadRepository {
	return &LeadRepository{
		client: client,
		clock:  time.Now,
	}
}

// EnsureSchema creates the uniqueness constraints the repository relies on
func (r *LeadRepository) EnsureSchema(ctx context.Context) error {
	session := r.client.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	statements := []string{
		"CREATE CONSTRAINT lead_id IF NOT EXISTS FOR (l:Lead) REQUIRE l.id IS UNIQUE",
		"CREATE CONSTRAINT lead_registry_id IF NOT EXISTS FOR (l:Lead) REQUIRE l.registryId IS UNIQUE",
		"CREATE CONSTRAINT company_cvr IF NOT EXISTS FOR (c:Company) REQUIRE c.cvr IS UNIQUE",
		"CREATE INDEX lead_score IF NOT EXISTS FOR (l:Lead) ON (l.score)",
	}
	for _, stmt := range statements {
		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			result, err := tx.Run(ctx, stmt, nil)
			if err != nil {
				return nil, err
			}
			return result.Consume(ctx)
		})
		if err != nil {
			return fmt.Errorf("apply schema %q: %w", stmt, err)
		}
	}
	return nil
}

// linkCompany replaces the lead's WORKS_AT edge with one to the company
// matching its registry identifier
const linkCompany = `
	WITH l
	OPTIONAL MATCH (l)-[old:WORKS_AT]->(:Company)
	DELETE old
	WITH DISTINCT l
	FOREACH (_ IN CASE WHEN l.registryId IS NULL THEN [] ELSE [1] END |
		MERGE (c:Company {cvr: l.registryId})
		SET c.name = l.company,
		    c.industry = l.industry,
		    c.city = l.city,
		    c.employees = l.employees
		MERGE (l)-[:WORKS_AT]->(c)
	)
	RETURN l.id AS id
`

// Create inserts a new lead node
func (r *LeadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	now := r.clock().UTC()
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	lead.UpdatedAt = now

	props, err := leadProps(*lead)
	if err != nil {
		return err
	}

	session := r.client.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		CREATE (l:Lead)
		SET l = $props
	` + linkCompany

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, map[string]any{"props": props})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	return translateError(err)
}

// Save overwrites an existing lead node
func (r *LeadRepository) Save(ctx context.Context, lead *domain.Lead) error {
	lead.UpdatedAt = r.clock().UTC()
	props, err := leadProps(*lead)
	if err != nil {
		return err
	}

	session := r.client.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MATCH (l:Lead {id: $id})
		SET l = $props
	` + linkCompany

	matched, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, map[string]any{"id": lead.ID.String(), "props": props})
		if err != nil {
			return nil, err
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}
		return len(records), nil
	})
	if err != nil {
		return translateError(err)
	}
	if matched.(int) == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Get loads one lead by ID
func (r *LeadRepository) Get(ctx context.Context, id domain.LeadID) (domain.Lead, error) {
	leads, err := r.query(ctx, "MATCH (l:Lead {id: $id}) RETURN l", map[string]any{"id": id.String()})
	if err != nil {
		return domain.Lead{}, err
	}
	if len(leads) == 0 {
		return domain.Lead{}, repository.ErrNotFound
	}
	return leads[0], nil
}

// FindByIDs loads leads by ID
func (r *LeadRepository) FindByIDs(ctx context.Context, ids []domain.LeadID) ([]domain.Lead, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	idStrings := make([]string, 0, len(ids))
	for _, id := range ids {
		idStrings = append(idStrings, id.String())
	}

	return r.query(ctx, "MATCH (l:Lead) WHERE l.id IN $ids RETURN l", map[string]any{"ids": idStrings})
}

// FindByRegistryID loads the lead holding a registry identifier
func (r *LeadRepository) FindByRegistryID(ctx context.Context, registryID string) (domain.Lead, bool, error) {
	if registryID == "" {
		return domain.Lead{}, false, nil
	}
	leads, err := r.query(ctx, "MATCH (l:Lead {registryId: $rid}) RETURN l LIMIT 1", map[string]any{"rid": registryID})
	if err != nil || len(leads) == 0 {
		return domain.Lead{}, false, err
	}
	return leads[0], true, nil
}

// ListIDs returns lead IDs matching filter, newest first
func (r *LeadRepository) ListIDs(ctx context.Context, filter repository.ScoringFilter) ([]domain.LeadID, error) {
	session := r.client.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (l:Lead)
		WHERE $all OR coalesce(l.score, 0) <= $baseline
		RETURN l.id AS id
		ORDER BY l.createdAt DESC, l.id
	`

	ids, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, map[string]any{
			"all":      filter.IncludeScored,
			"baseline": domain.MinPossibleScore,
		})
		if err != nil {
			return nil, err
		}

		out := make([]domain.LeadID, 0)
		for result.Next(ctx) {
			raw, _ := result.Record().Get("id")
			s, _ := raw.(string)
			id, err := uuid.Parse(s)
			if err != nil {
				continue
			}
			out = append(out, id)
		}
		return out, result.Err()
	})
	if err != nil {
		return nil, err
	}
	return ids.([]domain.LeadID), nil
}

// Stats aggregates scores server-side
func (r *LeadRepository) Stats(ctx context.Context, topN int) (domain.ScoreStats, error) {
	session := r.client.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	aggregate := `
		MATCH (l:Lead)
		WITH coalesce(l.score, 0) AS score
		RETURN count(*) AS total,
		       count(CASE WHEN score > $baseline THEN 1 END) AS scored,
		       avg(CASE WHEN score > 0 THEN toFloat(score) END) AS avg,
		       min(CASE WHEN score > 0 THEN score END) AS min,
		       max(CASE WHEN score > 0 THEN score END) AS max
	`
	histogram := `
		MATCH (l:Lead)
		WHERE l.score >= $lo AND l.score <= $hi
		RETURN l.score AS score, count(*) AS n
	`
	top := `
		MATCH (l:Lead)
		WHERE l.score >= $threshold
		RETURN l
		ORDER BY l.score DESC, l.createdAt DESC
		LIMIT $limit
	`

	stats := domain.ScoreStats{
		Distribution: repository.NewDistribution(),
		TopLeads:     []domain.TopLead{},
	}

	_, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		// the work function may be retried
		stats.Distribution = repository.NewDistribution()
		stats.TopLeads = stats.TopLeads[:0]

		result, err := tx.Run(ctx, aggregate, map[string]any{"baseline": domain.MinPossibleScore})
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return nil, err
		}
		stats.TotalLeads = int(int64Prop(record.AsMap(), "total"))
		stats.ScoredLeads = int(int64Prop(record.AsMap(), "scored"))
		if v, ok := record.AsMap()["avg"].(float64); ok {
			stats.AverageScore = &v
		}
		if v, ok := record.AsMap()["min"].(int64); ok {
			n := int(v)
			stats.MinScore = &n
		}
		if v, ok := record.AsMap()["max"].(int64); ok {
			n := int(v)
			stats.MaxScore = &n
		}

		result, err = tx.Run(ctx, histogram, map[string]any{"lo": domain.MinPossibleScore, "hi": domain.MaxPossibleScore})
		if err != nil {
			return nil, err
		}
		for result.Next(ctx) {
			m := result.Record().AsMap()
			stats.Distribution[fmt.Sprint(int64Prop(m, "score"))] = int(int64Prop(m, "n"))
		}
		if err := result.Err(); err != nil {
			return nil, err
		}

		result, err = tx.Run(ctx, top, map[string]any{"threshold": repository.TopLeadThreshold, "limit": topN})
		if err != nil {
			return nil, err
		}
		for result.Next(ctx) {
			lead, ok := leadFromRecord(result.Record())
			if ok {
				stats.TopLeads = append(stats.TopLeads, repository.TopLeadOf(lead))
			}
		}
		return nil, result.Err()
	})
	if err != nil {
		return domain.ScoreStats{}, err
	}
	return stats, nil
}

func (r *LeadRepository) query(ctx context.Context, query string, params map[string]any) ([]domain.Lead, error) {
	session := r.client.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	leads, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}

		out := make([]domain.Lead, 0)
		for result.Next(ctx) {
			if lead, ok := leadFromRecord(result.Record()); ok {
				out = append(out, lead)
			}
		}
		return out, result.Err()
	})
	if err != nil {
		return nil, err
	}
	return leads.([]domain.Lead), nil
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) && neoErr.Code == constraintViolation {
		return fmt.Errorf("%w: %s", repository.ErrDuplicate, neoErr.Msg)
	}
	return err
}

// leadProps flattens a lead into node properties. Empty optional values are
// nil so that SET l = $props removes them and the registryId constraint
// ignores leads without an identifier.
func leadProps(l domain.Lead) (map[string]any, error) {
	var breakdown any
	if l.ScoreBreakdown != nil {
		raw, err := json.Marshal(l.ScoreBreakdown)
		if err != nil {
			return nil, fmt.Errorf("encode score breakdown: %w", err)
		}
		breakdown = string(raw)
	}

	var revenue any
	if l.AnnualRevenue != nil {
		revenue = *l.AnnualRevenue
	}
	var registryID any
	if l.RegistryID != "" {
		registryID = l.RegistryID
	}
	var registryUpdatedAt any
	if l.RegistryUpdatedAt != nil {
		registryUpdatedAt = l.RegistryUpdatedAt.UTC()
	}

	return map[string]any{
		"id":                l.ID.String(),
		"salutation":        l.Salutation,
		"firstName":         l.FirstName,
		"lastName":          l.LastName,
		"title":             l.Title,
		"email":             l.Email,
		"phone":             l.Phone,
		"company":           l.Company,
		"industry":          l.Industry,
		"employees":         int64(l.Employees),
		"annualRevenue":     revenue,
		"website":           l.Website,
		"description":       l.Description,
		"street":            l.Street,
		"city":              l.City,
		"postalCode":        l.PostalCode,
		"country":           l.Country,
		"source":            l.Source,
		"status":            l.Status,
		"assignedTo":        l.AssignedTo,
		"createdBy":         l.CreatedBy,
		"score":             int64(l.Score),
		"scoreBreakdown":    breakdown,
		"registryId":        registryID,
		"registryUpdatedAt": registryUpdatedAt,
		"createdAt":         l.CreatedAt.UTC(),
		"updatedAt":         l.UpdatedAt.UTC(),
	}, nil
}

func leadFromRecord(record *neo4j.Record) (domain.Lead, bool) {
	val, ok := record.Get("l")
	if !ok {
		return domain.Lead{}, false
	}
	node, ok := val.(neo4j.Node)
	if !ok {
		return domain.Lead{}, false
	}
	return leadFromProps(node.Props)
}

func leadFromProps(props map[string]any) (domain.Lead, bool) {
	id, err := uuid.Parse(stringProp(props, "id"))
	if err != nil {
		return domain.Lead{}, false
	}

	l := domain.Lead{
		ID:          id,
		Salutation:  stringProp(props, "salutation"),
		FirstName:   stringProp(props, "firstName"),
		LastName:    stringProp(props, "lastName"),
		Title:       stringProp(props, "title"),
		Email:       stringProp(props, "email"),
		Phone:       stringProp(props, "phone"),
		Company:     stringProp(props, "company"),
		Industry:    stringProp(props, "industry"),
		Employees:   int(int64Prop(props, "employees")),
		Website:     stringProp(props, "website"),
		Description: stringProp(props, "description"),
		Street:      stringProp(props, "street"),
		City:        stringProp(props, "city"),
		PostalCode:  stringProp(props, "postalCode"),
		Country:     stringProp(props, "country"),
		Source:      stringProp(props, "source"),
		Status:      stringProp(props, "status"),
		AssignedTo:  stringProp(props, "assignedTo"),
		CreatedBy:   stringProp(props, "createdBy"),
		Score:       int(int64Prop(props, "score")),
		RegistryID:  stringProp(props, "registryId"),
		CreatedAt:   timeProp(props, "createdAt"),
		UpdatedAt:   timeProp(props, "updatedAt"),
	}

	if v, ok := props["annualRevenue"].(float64); ok {
		l.AnnualRevenue = &v
	}
	if t := timeProp(props, "registryUpdatedAt"); !t.IsZero() {
		l.RegistryUpdatedAt = &t
	}
	if raw := stringProp(props, "scoreBreakdown"); raw != "" {
		var b domain.ScoreBreakdown
		if err := json.Unmarshal([]byte(raw), &b); err == nil {
			l.ScoreBreakdown = &b
		}
	}
	return l, true
}

func stringProp(props map[string]any, key string) string {
	s, _ := props[key].(string)
	return s
}

func int64Prop(props map[string]any, key string) int64 {
	switch v := props[key].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func timeProp(props map[string]any, key string) time.Time {
	switch v := props[key].(type) {
	case time.Time:
		return v.UTC()
	case neo4j.LocalDateTime:
		return v.Time()
	default:
		return time.Time{}
	}
}
