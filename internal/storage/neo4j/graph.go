package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/honeycarbs/leadscore/internal/domain"
	"github.com/honeycarbs/leadscore/internal/repository"
	pkgneo4j "github.com/honeycarbs/leadscore/pkg/neo4j"
)

var _ repository.GraphRepository = (*GraphRepository)(nil)

// GraphRepository implements graph retrieval over leads and companies
type GraphRepository struct {
	client *pkgneo4j.Client
}

// NewGraphRepository creates a graph repository
func NewGraphRepository(client *pkgneo4j.Client) *GraphRepository {
	return &GraphRepository{client: client}
}

// CompanySubgraph retrieves a company with its leads, best scored first
func (r *GraphRepository) CompanySubgraph(ctx context.Context, registryID string) (repository.CompanySubgraph, error) {
	session := r.client.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (c:Company {cvr: $cvr})
		OPTIONAL MATCH (l:Lead)-[:WORKS_AT]->(c)
		WITH c, l
		ORDER BY l.score DESC
		RETURN c, collect(l) AS leads
	`

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, map[string]any{"cvr": registryID})
		if err != nil {
			return nil, err
		}
		if !result.Next(ctx) {
			if err := result.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("company %s: %w", registryID, repository.ErrNotFound)
		}
		return r.parseSubgraph(result.Record()), nil
	})
	if err != nil {
		return repository.CompanySubgraph{}, err
	}
	return out.(repository.CompanySubgraph), nil
}

// FindRelatedLeads ranks leads by shared company (weight 3), industry and city (weight 1 each)
func (r *GraphRepository) FindRelatedLeads(ctx context.Context, leadID domain.LeadID, limit int) ([]repository.RelatedLead, error) {
	session := r.client.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (l:Lead {id: $leadId})
		MATCH (related:Lead)
		WHERE related.id <> l.id
		OPTIONAL MATCH (l)-[:WORKS_AT]->(c:Company)<-[:WORKS_AT]-(related)
		WITH related, c IS NOT NULL AS sharedCompany,
		     [t IN [
		         CASE WHEN l.industry <> "" AND toLower(l.industry) = toLower(related.industry) THEN "industry" END,
		         CASE WHEN l.city <> "" AND toLower(l.city) = toLower(related.city) THEN "city" END
		     ] WHERE t IS NOT NULL] AS sharedTraits
		WHERE sharedCompany OR size(sharedTraits) > 0
		RETURN related AS l, sharedCompany, sharedTraits,
		       (CASE WHEN sharedCompany THEN 3 ELSE 0 END + size(sharedTraits)) AS relevance
		ORDER BY relevance DESC, related.score DESC
		LIMIT $limit
	`

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, map[string]any{
			"leadId": leadID.String(),
			"limit":  limit,
		})
		if err != nil {
			return nil, err
		}

		related := make([]repository.RelatedLead, 0)
		for result.Next(ctx) {
			record := result.Record()
			lead, ok := leadFromRecord(record)
			if !ok {
				continue
			}
			shared, _ := record.Get("sharedCompany")
			sharedCompany, _ := shared.(bool)
			related = append(related, repository.RelatedLead{
				Lead:          lead,
				SharedCompany: sharedCompany,
				SharedTraits:  getStringSlice(record, "sharedTraits"),
				Relevance:     getRecordFloat(record, "relevance"),
			})
		}
		return related, result.Err()
	})
	if err != nil {
		return nil, err
	}
	return out.([]repository.RelatedLead), nil
}

// IndustryScores groups scored leads by industry
func (r *GraphRepository) IndustryScores(ctx context.Context, limit int) ([]repository.IndustryScore, error) {
	session := r.client.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (l:Lead)
		WHERE l.score > 0 AND coalesce(l.industry, "") <> ""
		WITH l.industry AS industry, count(l) AS leads, avg(toFloat(l.score)) AS avgScore, max(l.score) AS topScore
		RETURN industry, leads, avgScore, topScore
		ORDER BY avgScore DESC, leads DESC
		LIMIT $limit
	`

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, map[string]any{"limit": limit})
		if err != nil {
			return nil, err
		}

		scores := make([]repository.IndustryScore, 0)
		for result.Next(ctx) {
			m := result.Record().AsMap()
			scores = append(scores, repository.IndustryScore{
				Industry:     stringProp(m, "industry"),
				Leads:        int(int64Prop(m, "leads")),
				AverageScore: getRecordFloat(result.Record(), "avgScore"),
				TopScore:     int(int64Prop(m, "topScore")),
			})
		}
		return scores, result.Err()
	})
	if err != nil {
		return nil, err
	}
	return out.([]repository.IndustryScore), nil
}

func (r *GraphRepository) parseSubgraph(record *neo4j.Record) repository.CompanySubgraph {
	var sg repository.CompanySubgraph
	if val, ok := record.Get("c"); ok {
		if node, ok := val.(neo4j.Node); ok {
			sg.RegistryID = stringProp(node.Props, "cvr")
			sg.Name = stringProp(node.Props, "name")
			sg.Industry = stringProp(node.Props, "industry")
			sg.City = stringProp(node.Props, "city")
			sg.Employees = int(int64Prop(node.Props, "employees"))
		}
	}

	sg.Leads = make([]domain.Lead, 0)
	if val, ok := record.Get("leads"); ok {
		if list, ok := val.([]any); ok {
			for _, item := range list {
				node, ok := item.(neo4j.Node)
				if !ok {
					continue
				}
				if lead, ok := leadFromProps(node.Props); ok {
					sg.Leads = append(sg.Leads, lead)
				}
			}
		}
	}
	return sg
}

func getStringSlice(record *neo4j.Record, key string) []string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return nil
	}

	list, ok := val.([]any)
	if !ok {
		return nil
	}

	result := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			result = append(result, s)
		}
	}
	return result
}

func getRecordFloat(record *neo4j.Record, key string) float64 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0
	}
	if f, ok := val.(float64); ok {
		return f
	}
	if i, ok := val.(int64); ok {
		return float64(i)
	}
	return 0
}
