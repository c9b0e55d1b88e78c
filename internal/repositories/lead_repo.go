package repositories

import (
	"context"
	"time"

	"github.com/campaign-manager/backend/internal/models"
	"github.com/campaign-manager/backend/internal/query"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const leadColumns = `id, first_name, last_name, email, phone, status, source_platform,
	source_campaign_id, source_ad_creative, source_landing_page, additional_info, notes,
	owner_id, assigned_to, tags, created_at, updated_at`

type LeadRepo struct {
	pool *pgxpool.Pool
}

func NewLeadRepo(pool *pgxpool.Pool) *LeadRepo {
	return &LeadRepo{pool: pool}
}

func scanLead(row pgx.Row) (*models.Lead, error) {
	var l models.Lead
	err := row.Scan(&l.ID, &l.FirstName, &l.LastName, &l.Email, &l.Phone, &l.Status,
		&l.Source.Platform, &l.Source.Campaign, &l.Source.AdCreative, &l.Source.LandingPage,
		&l.AdditionalInfo, &l.Notes, &l.Owner, &l.AssignedTo, &l.Tags,
		&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &l, nil
}

func collectLeads(rows pgx.Rows, err error) ([]models.Lead, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := []models.Lead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *l)
	}
	return leads, rows.Err()
}

func additionalInfo(l *models.Lead) map[string]string {
	if l.AdditionalInfo == nil {
		return map[string]string{}
	}
	return l.AdditionalInfo
}

func (r *LeadRepo) Create(ctx context.Context, l *models.Lead) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO leads (first_name, last_name, email, phone, status, source_platform,
		                   source_campaign_id, source_ad_creative, source_landing_page,
		                   additional_info, notes, owner_id, assigned_to, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at
	`, l.FirstName, l.LastName, l.Email, l.Phone, l.Status, l.Source.Platform,
		l.Source.Campaign, l.Source.AdCreative, l.Source.LandingPage,
		additionalInfo(l), l.Notes, l.Owner, l.AssignedTo, l.Tags,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	return mapErr(err)
}

func (r *LeadRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	return scanLead(r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id))
}

// Update writes every mutable column. owner_id and source_campaign_id are immutable.
func (r *LeadRepo) Update(ctx context.Context, l *models.Lead) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE leads SET first_name = $1, last_name = $2, email = $3, phone = $4, status = $5,
		       source_platform = $6, source_ad_creative = $7, source_landing_page = $8,
		       additional_info = $9, notes = $10, assigned_to = $11, tags = $12,
		       updated_at = now()
		WHERE id = $13
		RETURNING updated_at
	`, l.FirstName, l.LastName, l.Email, l.Phone, l.Status, l.Source.Platform,
		l.Source.AdCreative, l.Source.LandingPage, additionalInfo(l), l.Notes,
		l.AssignedTo, l.Tags, l.ID).Scan(&l.UpdatedAt)
	return mapErr(err)
}

func (r *LeadRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return requireAffected(r.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id))
}

func (r *LeadRepo) List(ctx context.Context, owner uuid.UUID, q query.ListQuery) ([]models.Lead, error) {
	w := ownerWhere(owner)
	q.Apply(w, LeadSchema)
	sql := `SELECT ` + leadColumns + ` FROM leads` + w.String() + q.OrderBy(LeadSchema) + q.PageClause(w)
	return collectLeads(r.pool.Query(ctx, sql, w.Args()...))
}

func (r *LeadRepo) Count(ctx context.Context, owner uuid.UUID, q query.ListQuery) (int64, error) {
	w := ownerWhere(owner)
	q.Apply(w, LeadSchema)
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM leads`+w.String(), w.Args()...).Scan(&n)
	return n, err
}

func (r *LeadRepo) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]models.Lead, error) {
	return collectLeads(r.pool.Query(ctx, `
		SELECT `+leadColumns+` FROM leads WHERE source_campaign_id = $1
		ORDER BY created_at DESC, id ASC
	`, campaignID))
}

func (r *LeadRepo) CountByOwner(ctx context.Context, owner uuid.UUID) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM leads WHERE owner_id = $1`, owner).Scan(&n)
	return n, err
}

func (r *LeadRepo) Recent(ctx context.Context, owner uuid.UUID, limit int) ([]models.Lead, error) {
	return collectLeads(r.pool.Query(ctx, `
		SELECT `+leadColumns+` FROM leads WHERE owner_id = $1
		ORDER BY created_at DESC, id ASC LIMIT $2
	`, owner, limit))
}

// CountByStatus groups owner's leads by status.
func (r *LeadRepo) CountByStatus(ctx context.Context, owner uuid.UUID) ([]models.CountBucket, error) {
	return r.countBy(ctx, "status", owner)
}

// CountByPlatform groups owner's leads by source platform.
func (r *LeadRepo) CountByPlatform(ctx context.Context, owner uuid.UUID) ([]models.CountBucket, error) {
	return r.countBy(ctx, "source_platform", owner)
}

// column is always one of the constants above, never user input.
func (r *LeadRepo) countBy(ctx context.Context, column string, owner uuid.UUID) ([]models.CountBucket, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+column+`, count(*) FROM leads WHERE owner_id = $1
		GROUP BY 1 ORDER BY 2 DESC, 1 ASC
	`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	buckets := []models.CountBucket{}
	for rows.Next() {
		var b models.CountBucket
		if err := rows.Scan(&b.Key, &b.Count); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

// TopCampaigns returns the campaigns that sourced the most of owner's leads.
func (r *LeadRepo) TopCampaigns(ctx context.Context, owner uuid.UUID, limit int) ([]models.CampaignLeadCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.name, count(*)
		FROM leads l JOIN campaigns c ON c.id = l.source_campaign_id
		WHERE l.owner_id = $1
		GROUP BY c.id, c.name
		ORDER BY 3 DESC, c.name ASC
		LIMIT $2
	`, owner, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.CampaignLeadCount{}
	for rows.Next() {
		var c models.CampaignLeadCount
		if err := rows.Scan(&c.CampaignID, &c.CampaignName, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DailyCounts returns lead counts per UTC day for leads created at or after since.
// Days without leads are absent.
func (r *LeadRepo) DailyCounts(ctx context.Context, owner uuid.UUID, since time.Time) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD'), count(*)
		FROM leads WHERE owner_id = $1 AND created_at >= $2
		GROUP BY 1
	`, owner, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		var day string
		var n int64
		if err := rows.Scan(&day, &n); err != nil {
			return nil, err
		}
		out[day] = n
	}
	return out, rows.Err()
}
