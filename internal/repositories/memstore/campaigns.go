package memstore

import (
	"context"
	"slices"
	"time"

	"github.com/campaign-manager/backend/internal/models"
	"github.com/campaign-manager/backend/internal/query"
	"github.com/campaign-manager/backend/internal/repositories"
	"github.com/google/uuid"
)

type Campaigns struct {
	s *Store
}

func cloneCampaign(c models.Campaign) models.Campaign {
	c.Platforms = slices.Clone(c.Platforms)
	c.AdCreatives = slices.Clone(c.AdCreatives)
	c.Leads = slices.Clone(c.Leads)
	c.Team = slices.Clone(c.Team)
	c.Tags = slices.Clone(c.Tags)
	return c
}

func campaignField(c models.Campaign, field string) any {
	switch field {
	case "_id":
		return c.ID
	case "name":
		return c.Name
	case "objective":
		return c.Objective
	case "status":
		return c.Status
	case "startDate":
		return c.StartDate
	case "endDate":
		return c.EndDate
	case "budget.total":
		return c.Budget.Total
	case "budget.daily":
		if c.Budget.Daily == nil {
			return nil
		}
		return *c.Budget.Daily
	case "budget.currency":
		return c.Budget.Currency
	case "createdAt":
		return c.CreatedAt
	case "updatedAt":
		return c.UpdatedAt
	}
	return nil
}

func campaignID(c models.Campaign) uuid.UUID { return c.ID }

func (r *Campaigns) Create(_ context.Context, c *models.Campaign) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[c.Owner]; !ok {
		return repositories.ErrNotFound
	}
	c.ID = uuid.New()
	c.CreatedAt = r.s.now()
	c.UpdatedAt = c.CreatedAt
	r.s.campaigns[c.ID] = cloneCampaign(*c)
	return nil
}

func (r *Campaigns) GetByID(_ context.Context, id uuid.UUID) (*models.Campaign, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.campaigns[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c = cloneCampaign(c)
	return &c, nil
}

func (r *Campaigns) Update(_ context.Context, c *models.Campaign) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.campaigns[c.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	next := cloneCampaign(*c)
	next.Owner = cur.Owner
	next.Leads = cur.Leads
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = r.s.now()
	c.UpdatedAt = next.UpdatedAt
	r.s.campaigns[c.ID] = next
	return nil
}

func (r *Campaigns) UpdatePlatforms(_ context.Context, id uuid.UUID, platforms []models.PlatformAllocation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.campaigns[id]
	if !ok {
		return repositories.ErrNotFound
	}
	c.Platforms = slices.Clone(platforms)
	c.UpdatedAt = r.s.now()
	r.s.campaigns[id] = c
	return nil
}

// Delete removes the campaign and every lead it sourced.
func (r *Campaigns) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.campaigns[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.campaigns, id)
	for lid, l := range r.s.leads {
		if l.Source.Campaign == id {
			delete(r.s.leads, lid)
		}
	}
	return nil
}

func (r *Campaigns) AddLead(_ context.Context, campaignID, leadID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.campaigns[campaignID]
	if !ok || c.HasLead(leadID) {
		return nil
	}
	c.Leads = append(slices.Clone(c.Leads), leadID)
	c.UpdatedAt = r.s.now()
	r.s.campaigns[campaignID] = c
	return nil
}

func (r *Campaigns) RemoveLead(_ context.Context, campaignID, leadID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.campaigns[campaignID]
	if !ok || !c.HasLead(leadID) {
		return nil
	}
	c.Leads = slices.DeleteFunc(slices.Clone(c.Leads), func(id uuid.UUID) bool { return id == leadID })
	c.UpdatedAt = r.s.now()
	r.s.campaigns[campaignID] = c
	return nil
}

func (r *Campaigns) owned(owner uuid.UUID) []models.Campaign {
	out := []models.Campaign{}
	for _, c := range r.s.campaigns {
		if c.Owner == owner {
			out = append(out, cloneCampaign(c))
		}
	}
	return out
}

func (r *Campaigns) List(_ context.Context, owner uuid.UUID, q query.ListQuery) ([]models.Campaign, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	items, _ := page(r.owned(owner), q, campaignField, campaignID)
	return items, nil
}

func (r *Campaigns) Count(_ context.Context, owner uuid.UUID, q query.ListQuery) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, total := page(r.owned(owner), q, campaignField, campaignID)
	return total, nil
}

func (r *Campaigns) CountByStatus(_ context.Context, owner uuid.UUID, status string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, c := range r.s.campaigns {
		if c.Owner == owner && (status == "" || c.Status == status) {
			n++
		}
	}
	return n, nil
}

func (r *Campaigns) ListByOwner(_ context.Context, owner uuid.UUID) ([]models.Campaign, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	items := r.owned(owner)
	byCreatedDesc(items, func(c models.Campaign) time.Time { return c.CreatedAt }, campaignID)
	return items, nil
}

func (r *Campaigns) Recent(ctx context.Context, owner uuid.UUID, limit int) ([]models.Campaign, error) {
	items, _ := r.ListByOwner(ctx, owner)
	return items[:min(limit, len(items))], nil
}

func (r *Campaigns) ListPublished(_ context.Context) ([]models.Campaign, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []models.Campaign{}
	for _, c := range r.s.campaigns {
		if c.Status != models.CampaignStatusActive && c.Status != models.CampaignStatusPaused {
			continue
		}
		if slices.ContainsFunc(c.Platforms, func(p models.PlatformAllocation) bool { return p.PlatformCampaignID != "" }) {
			out = append(out, cloneCampaign(c))
		}
	}
	byCreatedDesc(out, func(c models.Campaign) time.Time { return c.CreatedAt }, campaignID)
	return out, nil
}

func (r *Campaigns) Names(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	names := make(map[uuid.UUID]string, len(ids))
	for _, id := range ids {
		if c, ok := r.s.campaigns[id]; ok {
			names[id] = c.Name
		}
	}
	return names, nil
}
