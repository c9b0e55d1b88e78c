package memstore

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"time"

	"github.com/campaign-manager/backend/internal/models"
	"github.com/campaign-manager/backend/internal/query"
	"github.com/campaign-manager/backend/internal/repositories"
	"github.com/google/uuid"
)

type Leads struct {
	s *Store
}

func cloneLead(l models.Lead) models.Lead {
	l.AdditionalInfo = maps.Clone(l.AdditionalInfo)
	l.Tags = slices.Clone(l.Tags)
	return l
}

func leadField(l models.Lead, field string) any {
	switch field {
	case "_id":
		return l.ID
	case "firstName":
		return l.FirstName
	case "lastName":
		return l.LastName
	case "email":
		return l.Email
	case "phone":
		return l.Phone
	case "status":
		return l.Status
	case "source.platform":
		return l.Source.Platform
	case "source.campaign":
		return l.Source.Campaign
	case "assignedTo":
		if l.AssignedTo == nil {
			return nil
		}
		return *l.AssignedTo
	case "createdAt":
		return l.CreatedAt
	case "updatedAt":
		return l.UpdatedAt
	}
	return nil
}

func leadID(l models.Lead) uuid.UUID      { return l.ID }
func leadCreated(l models.Lead) time.Time { return l.CreatedAt }

func (r *Leads) Create(_ context.Context, l *models.Lead) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.campaigns[l.Source.Campaign]; !ok {
		return repositories.ErrNotFound
	}
	if !r.s.userExists(l.AssignedTo) {
		return repositories.ErrInvalidReference
	}
	l.ID = uuid.New()
	l.CreatedAt = r.s.now()
	l.UpdatedAt = l.CreatedAt
	r.s.leads[l.ID] = cloneLead(*l)
	return nil
}

func (r *Leads) GetByID(_ context.Context, id uuid.UUID) (*models.Lead, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	l, ok := r.s.leads[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	l = cloneLead(l)
	return &l, nil
}

func (r *Leads) Update(_ context.Context, l *models.Lead) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.leads[l.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	if !r.s.userExists(l.AssignedTo) {
		return repositories.ErrInvalidReference
	}
	next := cloneLead(*l)
	next.Owner = cur.Owner
	next.Source.Campaign = cur.Source.Campaign
	next.Source.CampaignName = ""
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = r.s.now()
	l.UpdatedAt = next.UpdatedAt
	r.s.leads[l.ID] = next
	return nil
}

func (r *Leads) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.leads[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.leads, id)
	return nil
}

func (r *Leads) filter(keep func(models.Lead) bool) []models.Lead {
	out := []models.Lead{}
	for _, l := range r.s.leads {
		if keep(l) {
			out = append(out, cloneLead(l))
		}
	}
	return out
}

func (r *Leads) owned(owner uuid.UUID) []models.Lead {
	return r.filter(func(l models.Lead) bool { return l.Owner == owner })
}

func (r *Leads) List(_ context.Context, owner uuid.UUID, q query.ListQuery) ([]models.Lead, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	items, _ := page(r.owned(owner), q, leadField, leadID)
	return items, nil
}

func (r *Leads) Count(_ context.Context, owner uuid.UUID, q query.ListQuery) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, total := page(r.owned(owner), q, leadField, leadID)
	return total, nil
}

func (r *Leads) ListByCampaign(_ context.Context, campaignID uuid.UUID) ([]models.Lead, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	items := r.filter(func(l models.Lead) bool { return l.Source.Campaign == campaignID })
	byCreatedDesc(items, leadCreated, leadID)
	return items, nil
}

func (r *Leads) CountByOwner(_ context.Context, owner uuid.UUID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.owned(owner))), nil
}

func (r *Leads) Recent(_ context.Context, owner uuid.UUID, limit int) ([]models.Lead, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	items := r.owned(owner)
	byCreatedDesc(items, leadCreated, leadID)
	return items[:min(limit, len(items))], nil
}

func (r *Leads) CountByStatus(_ context.Context, owner uuid.UUID) ([]models.CountBucket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return countBy(r.owned(owner), func(l models.Lead) string { return l.Status }), nil
}

func (r *Leads) CountByPlatform(_ context.Context, owner uuid.UUID) ([]models.CountBucket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return countBy(r.owned(owner), func(l models.Lead) string { return l.Source.Platform }), nil
}

func countBy(leads []models.Lead, key func(models.Lead) string) []models.CountBucket {
	counts := map[string]int64{}
	for _, l := range leads {
		counts[key(l)]++
	}
	out := make([]models.CountBucket, 0, len(counts))
	for k, n := range counts {
		out = append(out, models.CountBucket{Key: k, Count: n})
	}
	slices.SortFunc(out, func(a, b models.CountBucket) int {
		if r := cmp.Compare(b.Count, a.Count); r != 0 {
			return r
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return out
}

func (r *Leads) TopCampaigns(_ context.Context, owner uuid.UUID, limit int) ([]models.CampaignLeadCount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := map[uuid.UUID]int64{}
	for _, l := range r.owned(owner) {
		if _, ok := r.s.campaigns[l.Source.Campaign]; ok {
			counts[l.Source.Campaign]++
		}
	}
	out := make([]models.CampaignLeadCount, 0, len(counts))
	for id, n := range counts {
		out = append(out, models.CampaignLeadCount{CampaignID: id, CampaignName: r.s.campaigns[id].Name, Count: n})
	}
	slices.SortFunc(out, func(a, b models.CampaignLeadCount) int {
		if r := cmp.Compare(b.Count, a.Count); r != 0 {
			return r
		}
		return cmp.Compare(a.CampaignName, b.CampaignName)
	})
	return out[:min(limit, len(out))], nil
}

func (r *Leads) DailyCounts(_ context.Context, owner uuid.UUID, since time.Time) (map[string]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := map[string]int64{}
	for _, l := range r.owned(owner) {
		if !l.CreatedAt.Before(since) {
			out[models.DayKey(l.CreatedAt)]++
		}
	}
	return out, nil
}

// SetCreatedAt backdates a lead. Tests use it to populate time series.
func (r *Leads) SetCreatedAt(id uuid.UUID, at time.Time) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if l, ok := r.s.leads[id]; ok {
		l.CreatedAt = at
		r.s.leads[id] = l
	}
}
