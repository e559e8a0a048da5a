package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/honeycarbs/leadscore/internal/domain"
	"github.com/honeycarbs/leadscore/internal/repository"
)

var _ repository.LeadRepository = (*LeadRepository)(nil)

const uniqueViolation = "23505"

const leadColumns = `
	id, salutation, first_name, last_name, title, email, phone,
	company, industry, employees, annual_revenue, website, description,
	street, city, postal_code, country,
	lead_source, status, assigned_to, created_by,
	icp_score, icp_score_breakdown, cvr_number, cvr_last_updated,
	created_at, updated_at`

// LeadRepository implements repository.LeadRepository on Postgres
type LeadRepository struct {
	db    *DB
	clock func() time.Time
}

func NewLeadRepository(db *DB) *LeadRepository {
	return &LeadRepository{db: db, clock: time.Now}
}

func (r *LeadRepository) Get(ctx context.Context, id domain.LeadID) (domain.Lead, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	l, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, repository.ErrNotFound
	}
	return l, err
}

func (r *LeadRepository) FindByIDs(ctx context.Context, ids []domain.LeadID) ([]domain.Lead, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Pool.Query(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	return collectLeads(rows)
}

func (r *LeadRepository) FindByRegistryID(ctx context.Context, registryID string) (domain.Lead, bool, error) {
	if registryID == "" {
		return domain.Lead{}, false, nil
	}
	row := r.db.Pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE cvr_number = $1`, registryID)
	l, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, false, nil
	}
	if err != nil {
		return domain.Lead{}, false, err
	}
	return l, true, nil
}

func (r *LeadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	now := r.clock().UTC()
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	lead.UpdatedAt = now

	args, err := leadArgs(*lead)
	if err != nil {
		return err
	}
	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO leads (`+leadColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)
	`, args...)
	return translateError(err)
}

func (r *LeadRepository) Save(ctx context.Context, lead *domain.Lead) error {
	lead.UpdatedAt = r.clock().UTC()
	args, err := leadArgs(*lead)
	if err != nil {
		return err
	}
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE leads SET
			salutation = $2, first_name = $3, last_name = $4, title = $5, email = $6, phone = $7,
			company = $8, industry = $9, employees = $10, annual_revenue = $11, website = $12, description = $13,
			street = $14, city = $15, postal_code = $16, country = $17,
			lead_source = $18, status = $19, assigned_to = $20, created_by = $21,
			icp_score = $22, icp_score_breakdown = $23, cvr_number = $24, cvr_last_updated = $25,
			updated_at = $27
		WHERE id = $1
	`, args...)
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *LeadRepository) ListIDs(ctx context.Context, filter repository.ScoringFilter) ([]domain.LeadID, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id FROM leads
		WHERE $1 OR icp_score <= $2
		ORDER BY created_at DESC, id
	`, filter.IncludeScored, domain.MinPossibleScore)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

func (r *LeadRepository) Stats(ctx context.Context, topN int) (domain.ScoreStats, error) {
	stats := domain.ScoreStats{
		Distribution: repository.NewDistribution(),
		TopLeads:     []domain.TopLead{},
	}

	var minScore, maxScore *int32
	err := r.db.Pool.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE icp_score > $1),
		       (avg(icp_score) FILTER (WHERE icp_score > 0))::float8,
		       min(icp_score) FILTER (WHERE icp_score > 0),
		       max(icp_score) FILTER (WHERE icp_score > 0)
		FROM leads
	`, domain.MinPossibleScore).Scan(&stats.TotalLeads, &stats.ScoredLeads, &stats.AverageScore, &minScore, &maxScore)
	if err != nil {
		return domain.ScoreStats{}, fmt.Errorf("aggregate scores: %w", err)
	}
	if minScore != nil {
		v := int(*minScore)
		stats.MinScore = &v
	}
	if maxScore != nil {
		v := int(*maxScore)
		stats.MaxScore = &v
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT icp_score, count(*) FROM leads
		WHERE icp_score BETWEEN $1 AND $2
		GROUP BY icp_score
	`, domain.MinPossibleScore, domain.MaxPossibleScore)
	if err != nil {
		return domain.ScoreStats{}, fmt.Errorf("score histogram: %w", err)
	}
	var score, n int
	_, err = pgx.ForEachRow(rows, []any{&score, &n}, func() error {
		stats.Distribution[fmt.Sprint(score)] = n
		return nil
	})
	if err != nil {
		return domain.ScoreStats{}, fmt.Errorf("score histogram: %w", err)
	}

	rows, err = r.db.Pool.Query(ctx, `
		SELECT `+leadColumns+` FROM leads
		WHERE icp_score >= $1
		ORDER BY icp_score DESC, created_at DESC
		LIMIT $2
	`, repository.TopLeadThreshold, topN)
	if err != nil {
		return domain.ScoreStats{}, fmt.Errorf("top leads: %w", err)
	}
	top, err := collectLeads(rows)
	if err != nil {
		return domain.ScoreStats{}, fmt.Errorf("top leads: %w", err)
	}
	for _, l := range top {
		stats.TopLeads = append(stats.TopLeads, repository.TopLeadOf(l))
	}
	return stats, nil
}

func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", repository.ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

func leadArgs(l domain.Lead) ([]any, error) {
	var breakdown []byte
	if l.ScoreBreakdown != nil {
		raw, err := json.Marshal(l.ScoreBreakdown)
		if err != nil {
			return nil, fmt.Errorf("encode score breakdown: %w", err)
		}
		breakdown = raw
	}
	var registryID *string
	if l.RegistryID != "" {
		registryID = &l.RegistryID
	}
	return []any{
		l.ID, l.Salutation, l.FirstName, l.LastName, l.Title, l.Email, l.Phone,
		l.Company, l.Industry, l.Employees, l.AnnualRevenue, l.Website, l.Description,
		l.Street, l.City, l.PostalCode, l.Country,
		l.Source, l.Status, l.AssignedTo, l.CreatedBy,
		l.Score, breakdown, registryID, l.RegistryUpdatedAt,
		l.CreatedAt, l.UpdatedAt,
	}, nil
}

func scanLead(row pgx.Row) (domain.Lead, error) {
	var (
		l          domain.Lead
		breakdown  []byte
		registryID *string
	)
	err := row.Scan(
		&l.ID, &l.Salutation, &l.FirstName, &l.LastName, &l.Title, &l.Email, &l.Phone,
		&l.Company, &l.Industry, &l.Employees, &l.AnnualRevenue, &l.Website, &l.Description,
		&l.Street, &l.City, &l.PostalCode, &l.Country,
		&l.Source, &l.Status, &l.AssignedTo, &l.CreatedBy,
		&l.Score, &breakdown, &registryID, &l.RegistryUpdatedAt,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return domain.Lead{}, err
	}
	if registryID != nil {
		l.RegistryID = *registryID
	}
	if len(breakdown) > 0 {
		var b domain.ScoreBreakdown
		if err := json.Unmarshal(breakdown, &b); err != nil {
			return domain.Lead{}, fmt.Errorf("decode score breakdown: %w", err)
		}
		l.ScoreBreakdown = &b
	}
	return l, nil
}

func collectLeads(rows pgx.Rows) ([]domain.Lead, error) {
	defer rows.Close()
	out := make([]domain.Lead, 0)
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
